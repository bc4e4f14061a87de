package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// Info is a snapshot of a batch run.
type Info struct {
	Total     int
	Completed int
	Failed    int
	Running   []string
	Elapsed   time.Duration
}

// Reporter throttles and formats batch progress lines.
type Reporter struct {
	clock          clock.Clock
	startTime      time.Time
	lastReportTime time.Time
	reportInterval time.Duration
}

// NewReporter creates a reporter that reports at most once per interval.
func NewReporter(c clock.Clock, interval time.Duration) *Reporter {
	if c == nil {
		c = clock.New()
	}
	now := c.Now()
	return &Reporter{
		clock:          c,
		startTime:      now,
		lastReportTime: now,
		reportInterval: interval,
	}
}

// Elapsed returns the time since the reporter was created.
func (r *Reporter) Elapsed() time.Duration {
	return r.clock.Since(r.startTime)
}

// ShouldReport returns true if it's time to report progress
func (r *Reporter) ShouldReport() bool {
	return r.clock.Since(r.lastReportTime) >= r.reportInterval
}

// Report generates a formatted progress line
func (r *Reporter) Report(info Info) string {
	r.lastReportTime = r.clock.Now()

	done := info.Completed + info.Failed
	percentage := 0.0
	if info.Total > 0 {
		percentage = float64(done) / float64(info.Total) * 100
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Progress: %d/%d movements processed (%.1f%%)", done, info.Total, percentage))
	if info.Failed > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", info.Failed))
	}
	sb.WriteString(fmt.Sprintf(" | Elapsed: %s", FormatDuration(info.Elapsed)))

	if eta := CalculateETA(done, info.Total, info.Elapsed); eta > 0 {
		sb.WriteString(fmt.Sprintf(" | ETA: %s", FormatDuration(eta)))
	}
	if len(info.Running) > 0 {
		sb.WriteString(fmt.Sprintf("\n   Running: %s", strings.Join(info.Running, ", ")))
	}
	return sb.String()
}

// CalculateETA estimates time remaining based on current progress
func CalculateETA(completed, total int, elapsed time.Duration) time.Duration {
	if completed <= 0 || total <= 0 || completed >= total {
		return 0
	}

	averageTimePerTask := elapsed / time.Duration(completed)
	remainingTasks := total - completed
	return averageTimePerTask * time.Duration(remainingTasks)
}

// FormatDuration formats a duration in a user-friendly way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
