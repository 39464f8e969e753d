package auditquery

import (
	"fmt"
	"time"
)

// ValidationError reports a bad Spec or filter value. It is returned
// before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("auditquery: invalid query spec: %s: %s", e.Field, e.Reason)
}

// SubmissionError reports that the submit call itself failed. Submission
// is never retried at this layer.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("auditquery: submit query: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailedError reports that the remote service moved the job to the
// failed state. Retrying the same query is unlikely to help.
type JobFailedError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("auditquery: job %s reported failed after %s", e.JobID, e.Elapsed.Round(time.Millisecond))
}

// JobTimeoutError reports that the polling budget was exhausted while the
// job was still in a non-terminal state. Callers may retry with a larger
// budget; the remote job keeps running.
type JobTimeoutError struct {
	JobID      string
	LastStatus Status
	Elapsed    time.Duration
	MaxWait    time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("auditquery: job %s still %s after %s (budget %s)",
		e.JobID, e.LastStatus, e.Elapsed.Round(time.Millisecond), e.MaxWait)
}

// PaginationError reports a failed page fetch mid-drain. Fetched carries
// the number of records accumulated before the failure, for diagnostics
// only; no partial results are ever returned.
type PaginationError struct {
	JobID   string
	PageURL string
	Fetched int
	Err     error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("auditquery: job %s: fetch page %s after %d records: %v",
		e.JobID, e.PageURL, e.Fetched, e.Err)
}

func (e *PaginationError) Unwrap() error { return e.Err }
