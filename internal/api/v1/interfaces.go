package v1

import (
	"context"

	"github.com/kestrelhq/kestrel/internal/accounts"
	"github.com/kestrelhq/kestrel/internal/auditquery"
	"github.com/kestrelhq/kestrel/internal/reports"
)

// QueryRunner runs one audit-log query end to end.
type QueryRunner interface {
	Execute(ctx context.Context, spec auditquery.Spec, projection []string, opts auditquery.Options) ([]auditquery.FlatRecord, error)
}

// Reporter produces the license and role reports.
type Reporter interface {
	Licenses(ctx context.Context) ([]reports.LicenseRow, error)
	Roles(ctx context.Context) ([]reports.RoleMemberRow, error)
	UserLicenses(ctx context.Context, userID string) ([]reports.UserLicenseRow, error)
}

// AccountAdmin performs user and device lifecycle actions.
type AccountAdmin interface {
	DisableAccount(ctx context.Context, actor, userID string) error
	EnableAccount(ctx context.Context, actor, userID string) error
	RevokeSessions(ctx context.Context, actor, userID string) error
	DisableDevice(ctx context.Context, actor, deviceID string) error
	RecentActions(ctx context.Context, limit, offset int) ([]*accounts.ActionEntry, error)
}
