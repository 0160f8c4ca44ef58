// Package playlist parses HLS playlists, reduces a master playlist to the
// media playlist of its first variant, and fetches the AES-128 key a media
// playlist points at.
package playlist

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/grafov/m3u8"

	"episodedl/failure"
)

// Playlist is either a *Master or a *Media.
type Playlist interface {
	playlist()
}

// Master lists alternative renditions in the order they were declared.
type Master struct {
	Variants []Variant
}

// Media lists segments in playback order.
type Media struct {
	Segments []Segment
}

type Variant struct {
	URI string
}

type Segment struct {
	URI string
	Key *KeyRef
}

// KeyRef is an EXT-X-KEY reference. URI is empty when the tag had none.
type KeyRef struct {
	Method string
	URI    string
	IV     string
}

func (*Master) playlist() {}
func (*Media) playlist()  {}

// Parse decodes playlist text. A key tag applies to every segment after it
// until the next key tag. The decoder can panic on malformed input; that is
// reported as a failure.ErrParse like any other decode error.
func Parse(text []byte) (result Playlist, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = failure.Wrap(failure.ErrParse, "playlist", "decode", fmt.Sprint(r), nil)
		}
	}()

	pl, listType, err := m3u8.DecodeFrom(bytes.NewReader(text), false)
	if err != nil {
		return nil, failure.Wrap(failure.ErrParse, "playlist", "decode", "", err)
	}

	switch listType {
	case m3u8.MASTER:
		master, ok := pl.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, failure.Wrap(failure.ErrParse, "playlist", "decode", "unexpected master playlist value", nil)
		}
		return fromMaster(master), nil
	case m3u8.MEDIA:
		media, ok := pl.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, failure.Wrap(failure.ErrParse, "playlist", "decode", "unexpected media playlist value", nil)
		}
		return fromMedia(media), nil
	}
	return nil, failure.Wrap(failure.ErrParse, "playlist", "decode", "", errors.New("unknown playlist type"))
}

func fromMaster(pl *m3u8.MasterPlaylist) *Master {
	out := &Master{}
	for _, v := range pl.Variants {
		// A STREAM-INF tag with no URI line after it is not selectable.
		if v == nil || strings.TrimSpace(v.URI) == "" {
			continue
		}
		out.Variants = append(out.Variants, Variant{URI: v.URI})
	}
	return out
}

func fromMedia(pl *m3u8.MediaPlaylist) *Media {
	out := &Media{}
	var current *KeyRef
	for _, seg := range pl.Segments {
		if seg == nil {
			continue
		}
		if key := seg.Key; key != nil {
			current = &KeyRef{Method: key.Method, URI: key.URI, IV: key.IV}
		}
		out.Segments = append(out.Segments, Segment{URI: seg.URI, Key: current})
	}
	return out
}
