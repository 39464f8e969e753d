package middleware

import (
	"context"
)

type contextKey string

const (
	ContextKeyActor contextKey = "actor"
)

// ActorFromContext returns the authenticated caller identity (the JWT
// subject) set by the Auth middleware.
func ActorFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyActor).(string)
	return v, ok
}
