// Package activity decides when a single global "busy" indicator should be
// shown across many overlapping operations started by unrelated callers.
//
// Operations that opt in call Begin when they start and End when their
// outcome is known. The indicator only becomes visible once the number of
// in-flight operations has stayed above zero for the debounce interval, so
// short bursts never cause it to flicker.
package activity

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long an episode must last before observers are told.
const DefaultDebounce = 300 * time.Millisecond

// State is the externally observed visibility of the busy signal.
type State int

const (
	Idle State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "idle"
}

// Listener is invoked with true when the busy signal becomes visible and
// false when it becomes idle again.
type Listener func(visible bool)

type subscription struct {
	fn      Listener
	removed atomic.Bool
}

// Coordinator owns the in-flight counter, the visibility timer and the
// listener set. The zero value is not usable; construct it with New.
type Coordinator struct {
	debounce time.Duration
	clock    clock.Clock
	log      logrus.FieldLogger

	mu         sync.Mutex
	active     int
	state      State
	timer      *clock.Timer
	generation uint64
	closed     bool

	listeners []*subscription

	// pending holds transitions not yet delivered; draining is true while
	// some goroutine is delivering them.
	pending  []bool
	draining bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce overrides DefaultDebounce. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithClock replaces the real-time clock, typically with clock.NewMock().
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithLogger sets the logger used for transition debug output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Coordinator in the Idle state with no operations in flight.
func New(opts ...Option) *Coordinator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Coordinator{
		debounce: DefaultDebounce,
		clock:    clock.New(),
		log:      discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Debounce returns the configured debounce interval.
func (c *Coordinator) Debounce() time.Duration {
	return c.debounce
}

// Begin records the start of a participating operation.
func (c *Coordinator) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active++
	if c.active != 1 || c.closed {
		return
	}

	// A fresh episode. Any timer left from a previous one was stopped in
	// End, but its callback may already be queued; the generation check in
	// fire discards it.
	c.generation++
	gen := c.generation
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(gen) })
	c.log.WithField("debounce", c.debounce).Debug("Activity episode started")
}

// End records the completion of a participating operation, successful or not.
// Calls without a matching Begin are ignored.
func (c *Coordinator) End() {
	c.mu.Lock()
	if c.active == 0 {
		c.mu.Unlock()
		c.log.Debug("Ignoring activity end with nothing in flight")
		return
	}

	c.active--
	if c.active > 0 {
		c.mu.Unlock()
		return
	}

	c.stopTimerLocked()
	if c.state != Visible {
		c.mu.Unlock()
		c.log.Debug("Activity episode finished before debounce")
		return
	}

	c.state = Idle
	c.log.Debug("Activity became idle")
	c.enqueueLocked(false)
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.active == 0 || c.state == Visible || c.closed {
		c.mu.Unlock()
		return
	}

	c.timer = nil
	c.state = Visible
	c.log.WithField("in_flight", c.active).Debug("Activity became visible")
	c.enqueueLocked(true)
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// enqueueLocked queues a transition and, unless another goroutine is
// already draining, delivers the queue. It must be called with c.mu held
// and returns with it released.
func (c *Coordinator) enqueueLocked(visible bool) {
	c.pending = append(c.pending, visible)
	if c.draining {
		c.mu.Unlock()
		return
	}

	c.draining = true
	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]

		listeners := make([]*subscription, len(c.listeners))
		copy(listeners, c.listeners)

		c.mu.Unlock()
		for _, s := range listeners {
			if !s.removed.Load() {
				s.fn(next)
			}
		}
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

// Subscribe registers fn for future transitions. A listener added while the
// signal is already visible is not told so; it hears the next transition.
// The returned function removes fn and may be called any number of times.
func (c *Coordinator) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	sub := &subscription{fn: fn}
	c.mu.Lock()
	c.listeners = append(c.listeners, sub)
	c.mu.Unlock()

	return func() {
		if sub.removed.Swap(true) {
			return
		}
		c.remove(sub)
	}
}

func (c *Coordinator) remove(sub *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.listeners {
		if s == sub {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Active returns the number of participating operations in flight.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns whether the busy signal is currently shown.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops a pending visibility timer. Begin and End keep counting after
// Close and an already visible signal still goes idle, but no new episode
// becomes visible.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopTimerLocked()
	return nil
}
