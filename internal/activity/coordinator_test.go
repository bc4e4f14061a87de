package activity

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	visible bool
	at      time.Duration
}

// recorder collects transitions with their mock-clock offset from start.
type recorder struct {
	mu     sync.Mutex
	clock  *clock.Mock
	start  time.Time
	events []event
}

func newRecorder(clk *clock.Mock) *recorder {
	return &recorder{clock: clk, start: clk.Now()}
}

func (r *recorder) listen(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{visible: visible, at: r.clock.Now().Sub(r.start)})
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) waitFor(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n },
		time.Second, time.Millisecond, "expected %d notifications", n)
}

func newTestCoordinator() (*Coordinator, *clock.Mock, *recorder) {
	clk := clock.NewMock()
	c := New(WithClock(clk), WithDebounce(300*time.Millisecond))
	rec := newRecorder(clk)
	c.Subscribe(rec.listen)
	return c, clk, rec
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultDebounce, c.Debounce())
	assert.Equal(t, 0, c.Active())
	assert.Equal(t, Idle, c.State())
}

func TestWithDebounce_IgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultDebounce, New(WithDebounce(0)).Debounce())
	assert.Equal(t, DefaultDebounce, New(WithDebounce(-time.Second)).Debounce())
	assert.Equal(t, time.Second, New(WithDebounce(time.Second)).Debounce())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "visible", Visible.String())
}

func TestCoordinator_ShortEpisodeIsSilent(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.Begin()
	clk.Add(50 * time.Millisecond)
	c.End()

	// Well past the original deadline: the stopped timer must not fire.
	clk.Add(time.Second)

	assert.Empty(t, rec.snapshot())
	assert.Equal(t, 0, c.Active())
	assert.Equal(t, Idle, c.State())
}

func TestCoordinator_LongEpisodeShowsThenHides(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.Begin()
	clk.Add(300 * time.Millisecond)
	rec.waitFor(t, 1)
	assert.Equal(t, Visible, c.State())

	clk.Add(100 * time.Millisecond)
	c.End()
	rec.waitFor(t, 2)

	assert.Equal(t, []event{
		{visible: true, at: 300 * time.Millisecond},
		{visible: false, at: 400 * time.Millisecond},
	}, rec.snapshot())
	assert.Equal(t, Idle, c.State())
}

func TestCoordinator_OverlappingEpisodesNotifyOnce(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.Begin()
	c.Begin()
	clk.Add(300 * time.Millisecond)
	rec.waitFor(t, 1)

	c.End()
	assert.Equal(t, Visible, c.State(), "one operation still in flight")

	clk.Add(200 * time.Millisecond)
	c.End()
	rec.waitFor(t, 2)

	events := rec.snapshot()
	require.Len(t, events, 2)
	assert.True(t, events[0].visible)
	assert.False(t, events[1].visible)
}

func TestCoordinator_BeginWhileActiveDoesNotRestartTimer(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.Begin()
	clk.Add(250 * time.Millisecond)
	c.Begin()
	clk.Add(50 * time.Millisecond)
	rec.waitFor(t, 1)

	assert.Equal(t, event{visible: true, at: 300 * time.Millisecond}, rec.snapshot()[0])
	c.End()
	c.End()
}

func TestCoordinator_ExtraEndIsClamped(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.End()
	assert.Equal(t, 0, c.Active())

	c.Begin()
	clk.Add(300 * time.Millisecond)
	rec.waitFor(t, 1)
	c.End()
	c.End()
	c.End()
	rec.waitFor(t, 2)

	assert.Equal(t, 0, c.Active())
	assert.Len(t, rec.snapshot(), 2, "no spurious idle notification")
}

func TestCoordinator_CountNeverNegative(t *testing.T) {
	c, _, _ := newTestCoordinator()

	calls := []bool{true, false, false, true, true, false, false, false, true, false}
	for i, begin := range calls {
		if begin {
			c.Begin()
		} else {
			c.End()
		}
		assert.GreaterOrEqual(t, c.Active(), 0, "after call %d", i)
	}
	assert.Equal(t, 0, c.Active())
}

func TestCoordinator_ReferenceTimeline(t *testing.T) {
	tests := []struct {
		name  string
		steps func(t *testing.T, c *Coordinator, clk *clock.Mock, rec *recorder)
		want  []event
	}{
		{
			name: "end at 100ms",
			steps: func(_ *testing.T, c *Coordinator, clk *clock.Mock, _ *recorder) {
				c.Begin()
				clk.Add(100 * time.Millisecond)
				c.End()
				clk.Add(time.Second)
			},
			want: []event{},
		},
		{
			name: "end at 500ms",
			steps: func(t *testing.T, c *Coordinator, clk *clock.Mock, rec *recorder) {
				c.Begin()
				clk.Add(300 * time.Millisecond)
				rec.waitFor(t, 1)
				clk.Add(200 * time.Millisecond)
				c.End()
				rec.waitFor(t, 2)
			},
			want: []event{
				{visible: true, at: 300 * time.Millisecond},
				{visible: false, at: 500 * time.Millisecond},
			},
		},
		{
			name: "begin 0 and 50, end 100 and 500",
			steps: func(t *testing.T, c *Coordinator, clk *clock.Mock, rec *recorder) {
				c.Begin()
				clk.Add(50 * time.Millisecond)
				c.Begin()
				clk.Add(50 * time.Millisecond)
				c.End()
				clk.Add(200 * time.Millisecond)
				rec.waitFor(t, 1)
				clk.Add(200 * time.Millisecond)
				c.End()
				rec.waitFor(t, 2)
			},
			want: []event{
				{visible: true, at: 300 * time.Millisecond},
				{visible: false, at: 500 * time.Millisecond},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clk, rec := newTestCoordinator()
			tt.steps(t, c, clk, rec)
			assert.Equal(t, tt.want, append([]event{}, rec.snapshot()...))
		})
	}
}

func TestCoordinator_ConsecutiveEpisodes(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	for i := 0; i < 3; i++ {
		c.Begin()
		clk.Add(300 * time.Millisecond)
		rec.waitFor(t, 2*i+1)
		c.End()
		rec.waitFor(t, 2*i+2)
	}

	events := rec.snapshot()
	require.Len(t, events, 6)
	for i, ev := range events {
		assert.Equal(t, i%2 == 0, ev.visible, "event %d", i)
	}
}

func TestCoordinator_UnsubscribeStopsDelivery(t *testing.T) {
	c, clk, kept := newTestCoordinator()

	dropped := newRecorder(clk)
	unsubscribe := c.Subscribe(dropped.listen)

	c.Begin()
	clk.Add(300 * time.Millisecond)
	kept.waitFor(t, 1)
	dropped.waitFor(t, 1)

	unsubscribe()
	unsubscribe()
	c.End()
	kept.waitFor(t, 2)

	assert.Len(t, kept.snapshot(), 2)
	assert.Len(t, dropped.snapshot(), 1)
}

func TestCoordinator_SubscribeNil(t *testing.T) {
	c := New()
	unsubscribe := c.Subscribe(nil)
	require.NotNil(t, unsubscribe)
	unsubscribe()
}

func TestCoordinator_ListenersCalledInSubscriptionOrder(t *testing.T) {
	clk := clock.NewMock()
	c := New(WithClock(clk))

	var mu sync.Mutex
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		c.Subscribe(func(bool) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, i)
		})
	}

	c.Begin()
	clk.Add(DefaultDebounce)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, time.Millisecond)

	c.End()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 6
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, order)
}

func TestCoordinator_NoBackfillForLateSubscriber(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.Begin()
	clk.Add(300 * time.Millisecond)
	rec.waitFor(t, 1)

	// Share the first recorder's origin so offsets line up.
	late := &recorder{clock: clk, start: rec.start}
	c.Subscribe(late.listen)
	assert.Empty(t, late.snapshot())

	c.End()
	late.waitFor(t, 1)
	assert.Equal(t, []event{{visible: false, at: 300 * time.Millisecond}}, late.snapshot())
}

func TestCoordinator_ListenerMayReenter(t *testing.T) {
	clk := clock.NewMock()
	c := New(WithClock(clk))

	var mu sync.Mutex
	var seen []bool
	c.Subscribe(func(visible bool) {
		mu.Lock()
		seen = append(seen, visible)
		mu.Unlock()
		if visible {
			// Ending from inside the callback queues the idle transition
			// behind the one being delivered.
			c.End()
		}
	})

	c.Begin()
	clk.Add(DefaultDebounce)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
	assert.Equal(t, 0, c.Active())
}

func TestCoordinator_ConcurrentCallers(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.Begin() // hold the episode open while workers churn
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Begin()
				c.End()
			}
		}()
	}
	wg.Wait()

	clk.Add(300 * time.Millisecond)
	rec.waitFor(t, 1)
	c.End()
	rec.waitFor(t, 2)

	assert.Equal(t, 0, c.Active())
	events := rec.snapshot()
	require.Len(t, events, 2)
	assert.True(t, events[0].visible)
	assert.False(t, events[1].visible)
}

func TestCoordinator_CloseStopsPendingTimer(t *testing.T) {
	c, clk, rec := newTestCoordinator()

	c.Begin()
	require.NoError(t, c.Close())
	clk.Add(time.Second)

	assert.Empty(t, rec.snapshot())
	assert.Equal(t, 1, c.Active())
	c.End()
	assert.Equal(t, 0, c.Active())
}
