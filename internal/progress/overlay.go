// Package progress renders user-facing feedback: the busy overlay driven by
// the activity coordinator and textual progress lines for batch runs.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/maxkimambo/stockctl/internal/activity"
	"github.com/maxkimambo/stockctl/internal/logger"
)

const clearLine = "\r\x1b[K"

// Overlay is the busy indicator. It never inspects requests itself; it only
// follows the visibility transitions published by an activity.Coordinator.
//
// On a terminal it animates a spinner in place. Anywhere else it prints one
// line when it appears and one when it goes away.
type Overlay struct {
	out         io.Writer
	label       string
	interactive bool
	clock       clock.Clock
	spinner     spinner.Spinner
	style       lipgloss.Style

	mu      sync.Mutex
	visible bool
	frame   int
	shownAt time.Time
	shown   int
	stop    chan struct{}
}

// OverlayOption configures an Overlay.
type OverlayOption func(*Overlay)

// WithLabel sets the text shown next to the spinner.
func WithLabel(label string) OverlayOption {
	return func(o *Overlay) {
		if label != "" {
			o.label = label
		}
	}
}

// WithInteractive forces terminal or plain rendering.
func WithInteractive(interactive bool) OverlayOption {
	return func(o *Overlay) { o.interactive = interactive }
}

// WithClock sets the clock driving the animation.
func WithClock(c clock.Clock) OverlayOption {
	return func(o *Overlay) { o.clock = c }
}

// NewOverlay creates an overlay writing to out. Terminal detection is done
// on out unless WithInteractive says otherwise.
func NewOverlay(out io.Writer, opts ...OverlayOption) *Overlay {
	o := &Overlay{
		out:         out,
		label:       "Working",
		interactive: logger.IsTerminal(out),
		clock:       clock.New(),
		spinner:     spinner.Dot,
		style:       lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#F54E00", Dark: "#F7A501"}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Attach subscribes the overlay to c. The returned function unsubscribes
// and hides the overlay if it is showing.
func (o *Overlay) Attach(c *activity.Coordinator) func() {
	unsubscribe := c.Subscribe(o.Update)
	return func() {
		unsubscribe()
		o.Update(false)
	}
}

// Update shows the overlay when busy is true and hides it otherwise. It is
// an activity.Listener; repeated values are ignored.
func (o *Overlay) Update(busy bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if busy == o.visible {
		return
	}
	o.visible = busy

	if busy {
		o.shown++
		o.shownAt = o.clock.Now()
		o.frame = 0
		if !o.interactive {
			fmt.Fprintf(o.out, "%s...\n", o.label)
			return
		}
		o.renderLocked()
		o.stop = make(chan struct{})
		go o.animate(o.clock.Ticker(o.spinner.FPS), o.stop)
		return
	}

	if !o.interactive {
		fmt.Fprintf(o.out, "%s done (%s)\n", o.label, FormatDuration(o.clock.Since(o.shownAt)))
		return
	}
	close(o.stop)
	o.stop = nil
	fmt.Fprint(o.out, clearLine)
}

// Visible reports whether the overlay is currently showing.
func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Shown returns how many times the overlay has appeared.
func (o *Overlay) Shown() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shown
}

func (o *Overlay) animate(ticker *clock.Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.mu.Lock()
			select {
			case <-stop:
				o.mu.Unlock()
				return
			default:
			}
			o.frame = (o.frame + 1) % len(o.spinner.Frames)
			o.renderLocked()
			o.mu.Unlock()
		}
	}
}

func (o *Overlay) renderLocked() {
	fmt.Fprintf(o.out, "%s%s %s", clearLine, o.style.Render(o.spinner.Frames[o.frame]), o.label)
}
