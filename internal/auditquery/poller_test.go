package auditquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStatus returns statuses from a fixed sequence; the last entry
// repeats once the sequence is exhausted.
type scriptedStatus struct {
	statuses []Status
	err      error
	calls    int
	jobID    string
}

func (s *scriptedStatus) QueryStatus(_ context.Context, jobID string) (Status, error) {
	s.jobID = jobID
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	idx := min(s.calls-1, len(s.statuses)-1)
	return s.statuses[idx], nil
}

// fakeClock drives the poller deterministically: sleep advances the
// clock instead of waiting.
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	return nil
}

func newTestPoller(fetch StatusFetcher) (*Poller, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	p := NewPoller(fetch)
	p.now = clock.now
	p.sleep = clock.sleep
	return p, clock
}

func TestPollerPoll(t *testing.T) {
	t.Parallel()

	t.Run("terminal succeeded after two sleeps", func(t *testing.T) {
		t.Parallel()

		fetch := &scriptedStatus{statuses: []Status{StatusRunning, StatusRunning, StatusSucceeded}}
		p, clock := newTestPoller(fetch)

		status, err := p.Poll(t.Context(), "job-1", time.Hour, 10*time.Second)

		require.NoError(t, err)
		assert.Equal(t, StatusSucceeded, status)
		assert.Equal(t, 3, fetch.calls)
		assert.Len(t, clock.sleeps, 2)
		assert.Equal(t, "job-1", fetch.jobID)
	})

	t.Run("terminal failed returned without error", func(t *testing.T) {
		t.Parallel()

		fetch := &scriptedStatus{statuses: []Status{StatusNotStarted, StatusFailed}}
		p, _ := newTestPoller(fetch)

		status, err := p.Poll(t.Context(), "job-1", time.Hour, 10*time.Second)

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, status)
	})

	t.Run("budget of two intervals yields three fetches then timeout", func(t *testing.T) {
		t.Parallel()

		interval := 10 * time.Second
		fetch := &scriptedStatus{statuses: []Status{StatusRunning}}
		p, clock := newTestPoller(fetch)

		_, err := p.Poll(t.Context(), "job-1", 2*interval, interval)

		var terr *JobTimeoutError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "job-1", terr.JobID)
		assert.Equal(t, StatusRunning, terr.LastStatus)
		assert.Equal(t, 2*interval, terr.MaxWait)
		assert.Equal(t, 3, fetch.calls)
		assert.Len(t, clock.sleeps, 2)
		// Elapsed never exceeds the budget by more than one interval.
		assert.LessOrEqual(t, terr.Elapsed, terr.MaxWait+interval)
	})

	t.Run("timeout without extra fetch when budget smaller than interval", func(t *testing.T) {
		t.Parallel()

		fetch := &scriptedStatus{statuses: []Status{StatusRunning}}
		p, clock := newTestPoller(fetch)

		_, err := p.Poll(t.Context(), "job-1", time.Second, 10*time.Second)

		var terr *JobTimeoutError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, 1, fetch.calls)
		assert.Empty(t, clock.sleeps)
	})

	t.Run("fetch error propagates wrapped", func(t *testing.T) {
		t.Parallel()

		fetchErr := errors.New("boom")
		fetch := &scriptedStatus{err: fetchErr}
		p, _ := newTestPoller(fetch)

		_, err := p.Poll(t.Context(), "job-1", time.Hour, time.Second)

		require.ErrorIs(t, err, fetchErr)
		assert.Contains(t, err.Error(), "job-1")
	})

	t.Run("cancelled context stops polling", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		fetch := &scriptedStatus{statuses: []Status{StatusRunning}}
		p, _ := newTestPoller(fetch)

		_, err := p.Poll(ctx, "job-1", time.Hour, time.Second)

		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, fetch.calls)
	})

	t.Run("observe callback sees every observation", func(t *testing.T) {
		t.Parallel()

		fetch := &scriptedStatus{statuses: []Status{StatusRunning, StatusSucceeded}}
		p, _ := newTestPoller(fetch)

		var seen []Status
		p.Observe = func(status Status, _ time.Duration) {
			seen = append(seen, status)
		}

		_, err := p.Poll(t.Context(), "job-1", time.Hour, time.Second)

		require.NoError(t, err)
		assert.Equal(t, []Status{StatusRunning, StatusSucceeded}, seen)
	})
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusNotStarted.Terminal())
	assert.False(t, StatusRunning.Terminal())
}
