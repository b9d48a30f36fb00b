// Package progress reports per-item progress of long running batch work.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress of a batch of known size.
type Reporter interface {
	// Start begins a batch of total items.
	Start(total int, description string)
	// Step marks one item as done.
	Step(name string)
	// Finish completes the batch.
	Finish()
}

// Nop returns a reporter that discards everything.
func Nop() Reporter { return nop{} }

type nop struct{}

func (nop) Start(int, string) {}
func (nop) Step(string)       {}
func (nop) Finish()           {}

// Bar renders progress as a terminal progress bar.
type Bar struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

// Option configures a Bar.
type Option func(*Bar)

// WithWriter sets where the bar is rendered. Defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(b *Bar) {
		if w != nil {
			b.out = w
		}
	}
}

// NewBar creates a progress bar reporter.
func NewBar(opts ...Option) *Bar {
	b := &Bar{out: os.Stderr}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start implements Reporter.
func (b *Bar) Start(total int, description string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(b.out)
		}),
	)
}

// Step implements Reporter.
func (b *Bar) Step(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	if name != "" {
		b.bar.Describe(fmt.Sprintf("[cyan]%s[reset]", name))
	}
	_ = b.bar.Add(1)
}

// Finish implements Reporter.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}
