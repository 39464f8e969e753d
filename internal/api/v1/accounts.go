package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kestrelhq/kestrel/internal/accounts"
	"github.com/kestrelhq/kestrel/internal/server/middleware"
)

type UserActionInput struct {
	UserID string `path:"id" doc:"User ID or principal name"`
}

type DeviceActionInput struct {
	DeviceID string `path:"id" doc:"Device ID"`
}

type ActionStatusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type ListActionsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Maximum entries to return"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Entries to skip"`
}

type ListActionsOutput struct {
	Body []*accounts.ActionEntry
}

func okStatus() *ActionStatusOutput {
	out := &ActionStatusOutput{}
	out.Body.Status = "ok"
	return out
}

func RegisterAccountRoutes(api huma.API, admin AccountAdmin) {
	huma.Register(api, huma.Operation{
		OperationID: "disable-account",
		Method:      http.MethodPost,
		Path:        "/users/{id}/disable",
		Summary:     "Block sign-in for a user",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *UserActionInput) (*ActionStatusOutput, error) {
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing actor context")
		}

		if err := admin.DisableAccount(ctx, actor, input.UserID); err != nil {
			return nil, huma.Error502BadGateway("failed to disable account", err)
		}
		return okStatus(), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "enable-account",
		Method:      http.MethodPost,
		Path:        "/users/{id}/enable",
		Summary:     "Restore sign-in for a user",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *UserActionInput) (*ActionStatusOutput, error) {
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing actor context")
		}

		if err := admin.EnableAccount(ctx, actor, input.UserID); err != nil {
			return nil, huma.Error502BadGateway("failed to enable account", err)
		}
		return okStatus(), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-sessions",
		Method:      http.MethodPost,
		Path:        "/users/{id}/revoke-sessions",
		Summary:     "Invalidate all refresh tokens for a user",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *UserActionInput) (*ActionStatusOutput, error) {
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing actor context")
		}

		if err := admin.RevokeSessions(ctx, actor, input.UserID); err != nil {
			return nil, huma.Error502BadGateway("failed to revoke sessions", err)
		}
		return okStatus(), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "disable-device",
		Method:      http.MethodPost,
		Path:        "/devices/{id}/disable",
		Summary:     "Block a registered device",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *DeviceActionInput) (*ActionStatusOutput, error) {
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing actor context")
		}

		if err := admin.DisableDevice(ctx, actor, input.DeviceID); err != nil {
			return nil, huma.Error502BadGateway("failed to disable device", err)
		}
		return okStatus(), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-actions",
		Method:      http.MethodGet,
		Path:        "/actions",
		Summary:     "List recent admin actions",
		Tags:        []string{"Accounts"},
	}, func(ctx context.Context, input *ListActionsInput) (*ListActionsOutput, error) {
		entries, err := admin.RecentActions(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list actions", err)
		}
		if entries == nil {
			entries = []*accounts.ActionEntry{}
		}
		return &ListActionsOutput{Body: entries}, nil
	})
}
