package batch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/maxkimambo/stockctl/internal/inventory"
	"github.com/maxkimambo/stockctl/internal/logger"
	"github.com/maxkimambo/stockctl/internal/progress"
	"github.com/maxkimambo/stockctl/internal/utils"
)

// DefaultConcurrency bounds in-flight submissions when none is configured.
const DefaultConcurrency = 4

// Recorder receives per-movement outcomes, typically metrics.Metrics.
type Recorder interface {
	RecordMovement(success bool)
}

// Result is the outcome of one submitted movement.
type Result struct {
	Index    int
	Movement inventory.Movement
	ID       string
	Err      error
	Duration time.Duration
}

// Summary aggregates a batch run.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// Runner submits movements with bounded concurrency.
type Runner struct {
	api            inventory.API
	concurrency    int
	failFast       bool
	recorder       Recorder
	clock          clock.Clock
	reportInterval time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency sets the number of parallel submissions.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithFailFast stops scheduling new submissions after the first failure.
func WithFailFast(on bool) Option {
	return func(r *Runner) { r.failFast = on }
}

// WithRecorder reports each outcome to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithClock sets the clock used for timing and progress throttling.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// NewRunner creates a runner submitting through api.
func NewRunner(api inventory.API, opts ...Option) *Runner {
	r := &Runner{
		api:            api,
		concurrency:    DefaultConcurrency,
		clock:          clock.New(),
		reportInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply submits every movement and returns per-item results in input order.
// Individual failures are recorded in the summary; the returned error is
// non-nil only when the run was cut short by ctx or fail-fast.
func (r *Runner) Apply(ctx context.Context, moves []inventory.Movement) (*Summary, error) {
	reporter := progress.NewReporter(r.clock, r.reportInterval)
	results := make([]Result, len(moves))

	var (
		mu        sync.Mutex
		completed int
		failed    int
		running   = map[int]string{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, m := range moves {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Index: i, Movement: m, Err: err}
				return nil
			}

			mu.Lock()
			running[i] = m.SKU
			mu.Unlock()

			start := r.clock.Now()
			created, err := r.api.CreateMovement(gctx, m)
			res := Result{Index: i, Movement: m, Err: err, Duration: r.clock.Since(start)}
			if err == nil {
				res.ID = created.ID
				res.Movement.Type = created.Type
			}
			results[i] = res

			if r.recorder != nil {
				r.recorder.RecordMovement(err == nil)
			}

			mu.Lock()
			delete(running, i)
			if err != nil {
				failed++
			} else {
				completed++
			}
			if reporter.ShouldReport() {
				logger.User.Info(reporter.Report(progress.Info{
					Total:     len(moves),
					Completed: completed,
					Failed:    failed,
					Running:   sortedValues(running),
					Elapsed:   reporter.Elapsed(),
				}))
			}
			mu.Unlock()

			if err != nil {
				logger.Op.WithFields(map[string]interface{}{
					"sku":   m.SKU,
					"index": i,
				}).Warnf("Movement failed: %v", err)
				if r.failFast {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	summary := &Summary{Results: results, Elapsed: reporter.Elapsed()}
	for _, res := range results {
		if res.Err == nil {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return summary, err
}

// Table renders results as a box table.
func (s *Summary) Table() string {
	table := utils.NewTableFormatter([]string{"#", "SKU", "QTY", "TYPE", "FROM", "TO", "RESULT"})
	for _, res := range s.Results {
		outcome := res.ID
		if res.Err != nil {
			outcome = "FAILED: " + res.Err.Error()
		}
		table.AddRow([]string{
			strconv.Itoa(res.Index + 1),
			res.Movement.SKU,
			strconv.Itoa(res.Movement.Quantity),
			string(res.Movement.Classify()),
			dash(res.Movement.From),
			dash(res.Movement.To),
			outcome,
		})
	}
	return table.String()
}

// String summarises the run in one line.
func (s *Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed in %s", s.Succeeded, s.Failed, progress.FormatDuration(s.Elapsed))
}

func sortedValues(m map[int]string) []string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
