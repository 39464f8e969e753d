package v1_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/kestrelhq/kestrel/internal/api/v1"
	"github.com/kestrelhq/kestrel/internal/auditquery"
)

var testDefaults = auditquery.Options{ //nolint:gochecknoglobals // shared test fixture
	MaxWait:      10 * time.Minute,
	PollInterval: 5 * time.Second,
}

func TestRunAuditQuery(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var gotSpec auditquery.Spec
		var gotProjection []string
		var gotOpts auditquery.Options

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, spec auditquery.Spec, projection []string, opts auditquery.Options) ([]auditquery.FlatRecord, error) {
				gotSpec = spec
				gotProjection = projection
				gotOpts = opts
				return []auditquery.FlatRecord{
					{{Path: "id", Value: "r1"}, {Path: "operation", Value: "FileAccessed"}},
					{{Path: "id", Value: "r2"}, {Path: "operation", Value: "FileDeleted"}},
				}, nil
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start":                 start.Format(time.RFC3339),
			"end":                   end.Format(time.RFC3339),
			"operations":            []string{"FileAccessed", "FileDeleted"},
			"user_ids":              []string{"dana@example.test"},
			"projection":            []string{"id", "operation"},
			"max_wait_seconds":      120,
			"poll_interval_seconds": 2,
			"delete_on_completion":  true,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, gotSpec.Start.Equal(start))
		assert.True(t, gotSpec.End.Equal(end))
		assert.Equal(t, []string{"FileAccessed", "FileDeleted"}, gotSpec.Operations)
		assert.Equal(t, []string{"dana@example.test"}, gotSpec.UserIDs)
		assert.Equal(t, []string{"id", "operation"}, gotProjection)
		assert.Equal(t, 2*time.Minute, gotOpts.MaxWait)
		assert.Equal(t, 2*time.Second, gotOpts.PollInterval)
		assert.True(t, gotOpts.DeleteOnCompletion)

		body := resp.Body.String()
		assert.Contains(t, body, `"count":2`)
		assert.Contains(t, body, `"operation":"FileAccessed"`)
	})

	t.Run("server defaults fill unset wait and interval", func(t *testing.T) {
		t.Parallel()

		var gotOpts auditquery.Options
		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, opts auditquery.Options) ([]auditquery.FlatRecord, error) {
				gotOpts = opts
				return nil, nil
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, testDefaults.MaxWait, gotOpts.MaxWait)
		assert.Equal(t, testDefaults.PollInterval, gotOpts.PollInterval)
		assert.False(t, gotOpts.DeleteOnCompletion)
	})

	t.Run("zero records yields empty array not null", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, _ auditquery.Options) ([]auditquery.FlatRecord, error) {
				return nil, nil
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"records":[]`)
	})

	t.Run("validation error maps to 422", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, _ auditquery.Options) ([]auditquery.FlatRecord, error) {
				return nil, &auditquery.ValidationError{Field: "end", Reason: "must be after start"}
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "must be after start")
	})

	t.Run("timeout maps to 504", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, _ auditquery.Options) ([]auditquery.FlatRecord, error) {
				return nil, &auditquery.JobTimeoutError{JobID: "j1", LastStatus: auditquery.StatusRunning, Elapsed: time.Minute, MaxWait: time.Minute}
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusGatewayTimeout, resp.Code)
	})

	t.Run("submission failure maps to 502", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, _ auditquery.Options) ([]auditquery.FlatRecord, error) {
				return nil, &auditquery.SubmissionError{Err: assert.AnError}
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusBadGateway, resp.Code)
	})

	t.Run("job failure maps to 502", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, _ auditquery.Options) ([]auditquery.FlatRecord, error) {
				return nil, &auditquery.JobFailedError{JobID: "j1", Elapsed: time.Minute}
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusBadGateway, resp.Code)
	})

	t.Run("pagination failure maps to 502", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, _ auditquery.Options) ([]auditquery.FlatRecord, error) {
				return nil, &auditquery.PaginationError{JobID: "j1", PageURL: "p2", Fetched: 50, Err: assert.AnError}
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusBadGateway, resp.Code)
	})

	t.Run("unknown error maps to 500", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		runner := &mockRunner{
			executeFunc: func(_ context.Context, _ auditquery.Spec, _ []string, _ auditquery.Options) ([]auditquery.FlatRecord, error) {
				return nil, assert.AnError
			},
		}
		v1.RegisterQueryRoutes(api, runner, testDefaults)

		resp := api.Post("/audit/queries", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}
