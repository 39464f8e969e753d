package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kestrelhq/kestrel/internal/auditquery"
)

type RunQueryInput struct {
	Body struct {
		Start       time.Time `json:"start" doc:"Window start (inclusive), RFC 3339"`
		End         time.Time `json:"end" doc:"Window end (exclusive), RFC 3339"`
		Operations  []string  `json:"operations,omitempty" doc:"Operation name filters"`
		RecordTypes []string  `json:"record_types,omitempty" doc:"Record type filters"`
		UserIDs     []string  `json:"user_ids,omitempty" doc:"User principal filters"`
		IPAddresses []string  `json:"ip_addresses,omitempty" doc:"Source IP filters"`
		Projection  []string  `json:"projection,omitempty" doc:"Dot-path fields to keep; empty selects the default set"`

		MaxWaitSeconds      int  `json:"max_wait_seconds,omitempty" minimum:"0" doc:"Polling budget in seconds (0 = server default)"`
		PollIntervalSeconds int  `json:"poll_interval_seconds,omitempty" minimum:"0" doc:"Seconds between status checks (0 = server default)"`
		DeleteOnCompletion  bool `json:"delete_on_completion,omitempty" doc:"Delete the remote job after a successful drain"`
	}
}

type RunQueryOutput struct {
	Body struct {
		Count   int                     `json:"count" doc:"Number of records returned"`
		Records []auditquery.FlatRecord `json:"records" doc:"Projected audit records"`
	}
}

// RegisterQueryRoutes wires the audit-query operation. defaults fills
// MaxWait and PollInterval when the request leaves them zero.
func RegisterQueryRoutes(api huma.API, runner QueryRunner, defaults auditquery.Options) {
	huma.Register(api, huma.Operation{
		OperationID: "run-audit-query",
		Method:      http.MethodPost,
		Path:        "/audit/queries",
		Summary:     "Run an audit-log query",
		Description: "Submits a query to the directory service, waits for completion and returns the projected records. The connection stays open for the full polling budget.",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *RunQueryInput) (*RunQueryOutput, error) {
		spec := auditquery.Spec{
			Start:       input.Body.Start,
			End:         input.Body.End,
			Operations:  input.Body.Operations,
			RecordTypes: input.Body.RecordTypes,
			UserIDs:     input.Body.UserIDs,
			IPAddresses: input.Body.IPAddresses,
		}

		opts := auditquery.Options{
			MaxWait:            time.Duration(input.Body.MaxWaitSeconds) * time.Second,
			PollInterval:       time.Duration(input.Body.PollIntervalSeconds) * time.Second,
			DeleteOnCompletion: input.Body.DeleteOnCompletion,
		}
		if opts.MaxWait <= 0 {
			opts.MaxWait = defaults.MaxWait
		}
		if opts.PollInterval <= 0 {
			opts.PollInterval = defaults.PollInterval
		}

		records, err := runner.Execute(ctx, spec, input.Body.Projection, opts)
		if err != nil {
			return nil, mapQueryError(err)
		}

		out := &RunQueryOutput{}
		out.Body.Count = len(records)
		out.Body.Records = records
		if out.Body.Records == nil {
			out.Body.Records = []auditquery.FlatRecord{}
		}
		return out, nil
	})
}

// mapQueryError translates the query error taxonomy to HTTP statuses:
// caller mistakes are 422, remote-side failures are 502, an exhausted
// polling budget is 504.
func mapQueryError(err error) error {
	var (
		validationErr *auditquery.ValidationError
		timeoutErr    *auditquery.JobTimeoutError
		submitErr     *auditquery.SubmissionError
		failedErr     *auditquery.JobFailedError
		pageErr       *auditquery.PaginationError
	)

	switch {
	case errors.As(err, &validationErr):
		return huma.Error422UnprocessableEntity(validationErr.Error())
	case errors.As(err, &timeoutErr):
		return huma.Error504GatewayTimeout(timeoutErr.Error())
	case errors.As(err, &submitErr):
		return huma.Error502BadGateway(submitErr.Error())
	case errors.As(err, &failedErr):
		return huma.Error502BadGateway(failedErr.Error())
	case errors.As(err, &pageErr):
		return huma.Error502BadGateway(pageErr.Error())
	default:
		return huma.Error500InternalServerError("audit query failed", err)
	}
}
