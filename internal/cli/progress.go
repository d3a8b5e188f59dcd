package cli

import (
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/pkg/models"
)

var barTheme = progressbar.Theme{
	Saucer:        "=",
	SaucerHead:    ">",
	SaucerPadding: " ",
	BarStart:      "[",
	BarEnd:        "]",
}

// scrollProgress shows a spinner while the page is being scrolled
type scrollProgress struct {
	bar *progressbar.ProgressBar
}

func newScrollProgress(w io.Writer, visible bool) *scrollProgress {
	return &scrollProgress{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetDescription("Scrolling"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *scrollProgress) step(ev discovery.StepEvent) {
	desc := fmt.Sprintf("Scrolling · step %d · %d found", ev.Step, ev.Discovered)
	if ev.Err != nil {
		desc += " · render hiccup"
	}
	p.bar.Describe(desc)
	p.bar.Add(1)
}

func (p *scrollProgress) finish() {
	p.bar.Finish()
}

// downloadProgress renders either one byte bar per file (sequential mode)
// or a single bar counting finished items (concurrent mode)
type downloadProgress struct {
	w       io.Writer
	visible bool

	mu      sync.Mutex
	items   *progressbar.ProgressBar
	current *progressbar.ProgressBar
}

func newDownloadProgress(w io.Writer, visible, sequential bool, total int) *downloadProgress {
	p := &downloadProgress{w: w, visible: visible}
	if !sequential {
		p.items = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetVisibility(visible),
			progressbar.OptionSetDescription("Downloading"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(barTheme),
		)
	}
	return p
}

// bytes returns the per-file writer for sequential mode, or nil
func (p *downloadProgress) bytes(url string, size int64) io.Writer {
	if p.items != nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetVisibility(p.visible),
		progressbar.OptionSetDescription(path.Base(url)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(barTheme),
	)
	return p.current
}

// item records one finished item
func (p *downloadProgress) item(models.ItemResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Finish()
		p.current = nil
	}
	if p.items != nil {
		p.items.Add(1)
	}
}

func (p *downloadProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.items != nil {
		p.items.Finish()
	}
}
