// Package pipeline downloads one episode: it resolves the stream's playlist,
// fetches the key once, then fetches, decrypts and appends every segment in
// playlist order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"episodedl/cbcio"
	"episodedl/failure"
	"episodedl/logging"
	"episodedl/playlist"
	"episodedl/utils"
)

// ProgressFunc is called after each segment is appended.
type ProgressFunc func(title string, done, total int)

// Options tunes a Pipeline. Prefetch values above 1 allow that many segment
// bodies to be in flight or buffered ahead of the writer.
type Options struct {
	Prefetch int
	Progress ProgressFunc
	Logger   *slog.Logger
}

// Result describes how far a run got.
type Result struct {
	State    State
	Segments int
	Bytes    int64
	MediaURL string
}

type Pipeline struct {
	fetcher  playlist.Fetcher
	resolver *playlist.Resolver
	keys     *playlist.KeyProvider
	prefetch int
	progress ProgressFunc
	logger   *slog.Logger
}

func New(f playlist.Fetcher, opts Options) *Pipeline {
	prefetch := opts.Prefetch
	if prefetch < 1 {
		prefetch = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		fetcher:  f,
		resolver: playlist.NewResolver(f),
		keys:     playlist.NewKeyProvider(f),
		prefetch: prefetch,
		progress: opts.Progress,
		logger:   logger,
	}
}

type flusher interface {
	Flush() error
}

// Run downloads the episode at streamURL into sink. On failure the segments
// already appended stay in sink; the caller owns cleanup.
func (p *Pipeline) Run(ctx context.Context, title, streamURL string, sink io.Writer) (Result, error) {
	res := Result{State: StateStart}
	logger := p.logger.With(slog.String(logging.FieldEpisode, title))

	fail := func(err error) (Result, error) {
		logger.Debug("pipeline failed", slog.String(logging.FieldState, res.State.String()), slog.Any("error", err))
		res.State = StateFailed
		return res, err
	}
	advance := func(s State) {
		res.State = s
		logger.Debug("pipeline state", slog.String(logging.FieldState, s.String()))
	}

	text, err := p.fetcher.Bytes(ctx, streamURL)
	if err != nil {
		return fail(err)
	}
	advance(StatePlaylistFetched)
	logger.Debug("playlist content", slog.String("url", streamURL), slog.String("m3u8", string(text)))

	resolved, err := p.resolver.Resolve(ctx, streamURL, text)
	if err != nil {
		return fail(err)
	}
	res.MediaURL = resolved.BaseURL.String()
	advance(StateMediaResolved)

	key, err := p.keys.FetchKey(ctx, resolved.BaseURL, resolved.Media)
	if err != nil {
		return fail(err)
	}
	advance(StateKeyFetched)

	urls, err := segmentURLs(resolved.BaseURL, resolved.Media)
	if err != nil {
		return fail(err)
	}
	logger.Info("downloading segments", slog.Int("segments", len(urls)), slog.String("media_url", res.MediaURL))

	advance(StateSegmentLoop)
	if p.prefetch > 1 {
		err = p.assemblePrefetch(ctx, title, urls, key, sink, &res)
	} else {
		err = p.assemble(ctx, title, urls, key, sink, &res)
	}
	if err != nil {
		return fail(err)
	}
	advance(StateAssembled)

	if f, ok := sink.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fail(failure.Wrap(failure.ErrIO, "pipeline", "flush", "", err))
		}
	}
	advance(StateDone)
	return res, nil
}

func segmentURLs(base *url.URL, media *playlist.Media) ([]string, error) {
	urls := make([]string, 0, len(media.Segments))
	for i, seg := range media.Segments {
		u, err := utils.ResolveURL(base, seg.URI)
		if err != nil {
			return nil, failure.Wrap(failure.ErrParse, "pipeline", "segment url", fmt.Sprintf("segment %d: %s", i, seg.URI), err)
		}
		urls = append(urls, u.String())
	}
	return urls, nil
}

func (p *Pipeline) assemble(ctx context.Context, title string, urls []string, key []byte, sink io.Writer, res *Result) error {
	for i, u := range urls {
		body, err := p.fetcher.Bytes(ctx, u)
		if err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		if err := p.appendSegment(title, i, len(urls), body, key, sink, res); err != nil {
			return err
		}
	}
	return nil
}

// assemblePrefetch fetches up to p.prefetch segments ahead while decrypting
// and appending strictly in playlist order.
func (p *Pipeline) assemblePrefetch(ctx context.Context, title string, urls []string, key []byte, sink io.Writer, res *Result) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	window := make(chan struct{}, p.prefetch)
	slots := make([]chan []byte, len(urls))
	for i := range slots {
		slots[i] = make(chan []byte, 1)
	}

	g.Go(func() error {
		for i, u := range urls {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			g.Go(func() error {
				body, err := p.fetcher.Bytes(gctx, u)
				if err != nil {
					return fmt.Errorf("segment %d: %w", i, err)
				}
				slots[i] <- body
				return nil
			})
		}
		return nil
	})

	for i := range urls {
		var body []byte
		select {
		case body = <-slots[i]:
		case <-gctx.Done():
			return p.drainReady(ctx, g, title, urls, i, key, sink, slots, res)
		}
		if err := p.appendSegment(title, i, len(urls), body, key, sink, res); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		<-window
	}
	return g.Wait()
}

// drainReady runs once the fetchers stopped early. Segments from i onward
// that were already fetched are still appended in order, so the output ends
// at the first missing segment whichever fetch failed first.
func (p *Pipeline) drainReady(ctx context.Context, g *errgroup.Group, title string, urls []string, i int, key []byte, sink io.Writer, slots []chan []byte, res *Result) error {
	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	for ; i < len(urls); i++ {
		var body []byte
		select {
		case body = <-slots[i]:
		default:
			if waitErr != nil {
				return waitErr
			}
			return fmt.Errorf("segment %d: %w", i, context.Canceled)
		}
		if err := p.appendSegment(title, i, len(urls), body, key, sink, res); err != nil {
			return err
		}
	}
	return waitErr
}

func (p *Pipeline) appendSegment(title string, i, total int, body, key []byte, sink io.Writer, res *Result) error {
	plain, err := cbcio.Decrypt(body, key)
	if err != nil {
		return fmt.Errorf("segment %d: %w", i, err)
	}
	n, err := sink.Write(plain)
	res.Bytes += int64(n)
	if err != nil {
		return failure.Wrap(failure.ErrIO, "pipeline", "append", fmt.Sprintf("segment %d", i), err)
	}
	res.Segments++
	if p.progress != nil {
		p.progress(title, i+1, total)
	}
	return nil
}
