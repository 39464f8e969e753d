package v1_test

import (
	"context"

	"github.com/kestrelhq/kestrel/internal/accounts"
	"github.com/kestrelhq/kestrel/internal/auditquery"
	"github.com/kestrelhq/kestrel/internal/reports"
	"github.com/kestrelhq/kestrel/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the actor identity for DoCtx
// ---------------------------------------------------------------------------

func actorCtx(actor string) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyActor, actor)
}

// ---------------------------------------------------------------------------
// Mock QueryRunner
// ---------------------------------------------------------------------------

type mockRunner struct {
	executeFunc func(ctx context.Context, spec auditquery.Spec, projection []string, opts auditquery.Options) ([]auditquery.FlatRecord, error)
}

func (m *mockRunner) Execute(ctx context.Context, spec auditquery.Spec, projection []string, opts auditquery.Options) ([]auditquery.FlatRecord, error) {
	return m.executeFunc(ctx, spec, projection, opts)
}

// ---------------------------------------------------------------------------
// Mock Reporter
// ---------------------------------------------------------------------------

type mockReporter struct {
	licensesFunc     func(ctx context.Context) ([]reports.LicenseRow, error)
	rolesFunc        func(ctx context.Context) ([]reports.RoleMemberRow, error)
	userLicensesFunc func(ctx context.Context, userID string) ([]reports.UserLicenseRow, error)
}

func (m *mockReporter) Licenses(ctx context.Context) ([]reports.LicenseRow, error) {
	return m.licensesFunc(ctx)
}

func (m *mockReporter) Roles(ctx context.Context) ([]reports.RoleMemberRow, error) {
	return m.rolesFunc(ctx)
}

func (m *mockReporter) UserLicenses(ctx context.Context, userID string) ([]reports.UserLicenseRow, error) {
	return m.userLicensesFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Mock AccountAdmin
// ---------------------------------------------------------------------------

type mockAdmin struct {
	disableAccountFunc func(ctx context.Context, actor, userID string) error
	enableAccountFunc  func(ctx context.Context, actor, userID string) error
	revokeFunc         func(ctx context.Context, actor, userID string) error
	disableDeviceFunc  func(ctx context.Context, actor, deviceID string) error
	recentActionsFunc  func(ctx context.Context, limit, offset int) ([]*accounts.ActionEntry, error)
}

func (m *mockAdmin) DisableAccount(ctx context.Context, actor, userID string) error {
	return m.disableAccountFunc(ctx, actor, userID)
}

func (m *mockAdmin) EnableAccount(ctx context.Context, actor, userID string) error {
	return m.enableAccountFunc(ctx, actor, userID)
}

func (m *mockAdmin) RevokeSessions(ctx context.Context, actor, userID string) error {
	return m.revokeFunc(ctx, actor, userID)
}

func (m *mockAdmin) DisableDevice(ctx context.Context, actor, deviceID string) error {
	return m.disableDeviceFunc(ctx, actor, deviceID)
}

func (m *mockAdmin) RecentActions(ctx context.Context, limit, offset int) ([]*accounts.ActionEntry, error) {
	return m.recentActionsFunc(ctx, limit, offset)
}
