package pipeline

// State is the last step an episode download reached.
type State int

const (
	StateStart State = iota
	StatePlaylistFetched
	StateMediaResolved
	StateKeyFetched
	StateSegmentLoop
	StateAssembled
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StatePlaylistFetched:
		return "playlist_fetched"
	case StateMediaResolved:
		return "media_resolved"
	case StateKeyFetched:
		return "key_fetched"
	case StateSegmentLoop:
		return "segment_loop"
	case StateAssembled:
		return "assembled"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
