package auditquery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Default polling budget and interval, used when Options leaves them zero.
const (
	DefaultMaxWait      = 10 * time.Minute
	DefaultPollInterval = 5 * time.Second
)

// Client is the remote-service surface the orchestrator consumes: the
// four audit-query calls plus the records endpoint for a job. The
// concrete implementation lives in the directory package.
type Client interface {
	SubmitQuery(ctx context.Context, req SubmitRequest) (jobID string, err error)
	RecordsURL(jobID string) string
	DeleteQuery(ctx context.Context, jobID string) error
	StatusFetcher
	PageFetcher
}

// SubmitRequest is the outbound submit payload. DisplayName exists for
// operator traceability on the remote side.
type SubmitRequest struct {
	DisplayName string
	Start       time.Time
	End         time.Time
	Operations  []string
	RecordTypes []string
	UserIDs     []string
	IPAddresses []string
}

// ProgressPublisher receives progress events during Execute. Publish
// failures are logged and never affect the query outcome.
type ProgressPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ProgressEvent is the payload published to QueryChannel(jobID) at each
// lifecycle step of a query.
type ProgressEvent struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Status    string `json:"status,omitempty"`
	Records   int    `json:"records,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// QueryChannel returns the pub/sub channel name for a query job.
func QueryChannel(jobID string) string {
	return "query:" + jobID
}

// Options tunes one Execute call.
type Options struct {
	// MaxWait is the total wall-clock budget for polling.
	MaxWait time.Duration
	// PollInterval is the fixed time between status checks.
	PollInterval time.Duration
	// DeleteOnCompletion removes the remote job after a successful
	// drain. Deletion is best effort.
	DeleteOnCompletion bool
}

// Orchestrator runs audit-log queries end to end: validate, submit,
// poll, drain, project, optionally delete. One Execute call owns one
// remote job; concurrent calls share nothing.
type Orchestrator struct {
	client      Client
	events      ProgressPublisher // nil disables progress events
	maxLookback time.Duration
}

// NewOrchestrator creates an Orchestrator. events may be nil.
// maxLookback <= 0 selects DefaultMaxLookback.
func NewOrchestrator(client Client, events ProgressPublisher, maxLookback time.Duration) *Orchestrator {
	if maxLookback <= 0 {
		maxLookback = DefaultMaxLookback
	}
	return &Orchestrator{
		client:      client,
		events:      events,
		maxLookback: maxLookback,
	}
}

// Execute runs one query synchronously and returns the projected
// records. projection may be empty, selecting DefaultProjection. The
// returned error is one of the taxonomy types (ValidationError,
// SubmissionError, JobFailedError, JobTimeoutError, PaginationError) or
// a wrapped context/transport error; cleanup failures are logged only.
func (o *Orchestrator) Execute(ctx context.Context, spec Spec, projection []string, opts Options) ([]FlatRecord, error) {
	if err := spec.Validate(o.maxLookback); err != nil {
		return nil, err
	}

	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if len(projection) == 0 {
		projection = DefaultProjection
	}

	start := time.Now()

	jobID, err := o.client.SubmitQuery(ctx, SubmitRequest{
		DisplayName: "kestrel-" + uuid.NewString(),
		Start:       spec.Start,
		End:         spec.End,
		Operations:  spec.Operations,
		RecordTypes: spec.RecordTypes,
		UserIDs:     spec.UserIDs,
		IPAddresses: spec.IPAddresses,
	})
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	log.Info().Str("job_id", jobID).Time("window_start", spec.Start).Time("window_end", spec.End).Msg("audit query submitted")
	o.publish(ctx, ProgressEvent{Type: "submitted", JobID: jobID})

	poller := NewPoller(o.client)
	poller.Observe = func(status Status, elapsed time.Duration) {
		o.publish(ctx, ProgressEvent{
			Type:      "status",
			JobID:     jobID,
			Status:    string(status),
			ElapsedMS: elapsed.Milliseconds(),
		})
	}

	status, err := poller.Poll(ctx, jobID, opts.MaxWait, opts.PollInterval)
	if err != nil {
		o.publish(ctx, ProgressEvent{Type: "aborted", JobID: jobID, Status: string(status), Error: err.Error()})
		return nil, err
	}

	if status == StatusFailed {
		failed := &JobFailedError{JobID: jobID, Elapsed: time.Since(start)}
		o.publish(ctx, ProgressEvent{Type: "failed", JobID: jobID, Error: failed.Error()})
		return nil, failed
	}

	raw, err := drainPages(ctx, o.client, jobID, o.client.RecordsURL(jobID))
	if err != nil {
		o.publish(ctx, ProgressEvent{Type: "aborted", JobID: jobID, Error: err.Error()})
		return nil, err
	}

	records := make([]FlatRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, Project(r, projection))
	}

	if opts.DeleteOnCompletion {
		o.cleanup(ctx, jobID)
	}

	log.Info().Str("job_id", jobID).Int("records", len(records)).Dur("elapsed", time.Since(start)).Msg("audit query completed")
	o.publish(ctx, ProgressEvent{Type: "completed", JobID: jobID, Records: len(records), ElapsedMS: time.Since(start).Milliseconds()})

	return records, nil
}

// cleanup deletes the remote job record. Failures downgrade to a warning:
// a leftover job never invalidates results already in hand.
func (o *Orchestrator) cleanup(ctx context.Context, jobID string) {
	if err := o.client.DeleteQuery(ctx, jobID); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("audit query cleanup failed; remote job left behind")
		o.publish(ctx, ProgressEvent{Type: "cleanup_failed", JobID: jobID, Error: err.Error()})
	}
}

func (o *Orchestrator) publish(ctx context.Context, evt ProgressEvent) {
	if o.events == nil {
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}

	if err := o.events.Publish(ctx, QueryChannel(evt.JobID), payload); err != nil {
		log.Warn().Err(err).Str("job_id", evt.JobID).Str("event", evt.Type).Msg("failed to publish query progress event")
	}
}
