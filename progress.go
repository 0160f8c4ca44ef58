package main

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// segmentProgress draws one bar per episode. It stays silent unless w is a
// terminal so logs piped to a file are not interleaved with bar redraws.
type segmentProgress struct {
	w       io.Writer
	enabled bool

	mu    sync.Mutex
	title string
	bar   *progressbar.ProgressBar
}

func newSegmentProgress(w io.Writer) *segmentProgress {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &segmentProgress{w: w, enabled: enabled}
}

func (p *segmentProgress) update(title string, done, total int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.title != title {
		p.finishLocked()
		p.title = title
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(title),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
	if done >= total {
		p.finishLocked()
	}
}

func (p *segmentProgress) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *segmentProgress) finishLocked() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
	p.title = ""
}
