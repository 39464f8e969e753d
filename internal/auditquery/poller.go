package auditquery

import (
	"context"
	"fmt"
	"time"
)

// StatusFetcher is the single capability the poller needs from the
// remote service.
type StatusFetcher interface {
	QueryStatus(ctx context.Context, jobID string) (Status, error)
}

// Poller watches a submitted job until it reaches a terminal status or a
// wall-clock budget runs out. The interval is fixed: job completion time
// is unpredictable and frequent polling is cheap relative to job runtime,
// so backoff buys nothing here.
type Poller struct {
	fetch StatusFetcher

	// Observe, when set, is called after every status fetch with the
	// observed status and the elapsed wall-clock time.
	Observe func(status Status, elapsed time.Duration)

	// now and sleep are injectable for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a Poller using the real clock.
func NewPoller(fetch StatusFetcher) *Poller {
	return &Poller{
		fetch: fetch,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Poll fetches the job status every interval until the job is terminal.
// It returns the terminal status, a *JobTimeoutError when the budget is
// exhausted while the job is still pending, or a wrapped fetch/context
// error. The budget check happens before each sleep, so total elapsed
// time may overrun maxWait by at most one interval.
func (p *Poller) Poll(ctx context.Context, jobID string, maxWait, interval time.Duration) (Status, error) {
	start := p.now()
	last := StatusNotStarted

	for {
		if err := ctx.Err(); err != nil {
			return last, fmt.Errorf("auditquery.Poller.Poll: %w", err)
		}

		status, err := p.fetch.QueryStatus(ctx, jobID)
		if err != nil {
			return last, fmt.Errorf("auditquery.Poller.Poll: job %s: %w", jobID, err)
		}
		last = status

		elapsed := p.now().Sub(start)
		if p.Observe != nil {
			p.Observe(status, elapsed)
		}

		if status.Terminal() {
			return status, nil
		}

		// Give up without another fetch if the next check would land
		// past the budget.
		if elapsed+interval > maxWait {
			return last, &JobTimeoutError{
				JobID:      jobID,
				LastStatus: last,
				Elapsed:    elapsed,
				MaxWait:    maxWait,
			}
		}

		if err := p.sleep(ctx, interval); err != nil {
			return last, fmt.Errorf("auditquery.Poller.Poll: %w", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
