package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/stockctl/internal/activity"
)

func TestMetrics_FollowCoordinator(t *testing.T) {
	mock := clock.NewMock()
	c := activity.New(activity.WithClock(mock))
	m := New(mock)
	detach := m.Attach(c)
	defer detach()

	c.Begin()
	c.Begin()
	assert.Equal(t, 2.0, gather(t, m, "stockctl_activity_in_flight"))

	mock.Add(activity.DefaultDebounce)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Visible) == 1
	}, time.Second, time.Millisecond)

	mock.Add(2 * time.Second)
	c.End()
	c.End()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Visible) == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EpisodesShown))
	assert.Equal(t, 0.0, gather(t, m, "stockctl_activity_in_flight"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "stockctl_activity_visible_duration_seconds" {
			h := f.GetMetric()[0].GetHistogram()
			assert.Equal(t, uint64(1), h.GetSampleCount())
			assert.InDelta(t, 2.0, h.GetSampleSum(), 0.001)
		}
	}
}

func TestMetrics_ShortEpisodeNotCounted(t *testing.T) {
	mock := clock.NewMock()
	c := activity.New(activity.WithClock(mock))
	m := New(mock)
	defer m.Attach(c)()

	c.Begin()
	mock.Add(100 * time.Millisecond)
	c.End()
	mock.Add(time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.EpisodesShown))
}

func TestMetrics_RecordMovement(t *testing.T) {
	m := New(nil)
	m.RecordMovement(true)
	m.RecordMovement(true)
	m.RecordMovement(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Movements.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Movements.WithLabelValues("error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(nil)
	m.ObserveVisibility(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "stockctl_activity_visible 1")
	assert.Contains(t, body, "stockctl_activity_episodes_shown_total 1")
}

func gather(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) == 1 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
