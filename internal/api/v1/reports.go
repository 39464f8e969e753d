package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kestrelhq/kestrel/internal/reports"
)

type LicenseReportOutput struct {
	Body []reports.LicenseRow
}

type RoleReportOutput struct {
	Body []reports.RoleMemberRow
}

type UserLicensesInput struct {
	UserID string `path:"id" doc:"User ID or principal name"`
}

type UserLicensesOutput struct {
	Body []reports.UserLicenseRow
}

func RegisterReportRoutes(api huma.API, reporter Reporter) {
	huma.Register(api, huma.Operation{
		OperationID: "report-licenses",
		Method:      http.MethodGet,
		Path:        "/reports/licenses",
		Summary:     "Tenant license inventory",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, _ *struct{}) (*LicenseReportOutput, error) {
		rows, err := reporter.Licenses(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to fetch license inventory", err)
		}
		return &LicenseReportOutput{Body: rows}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-roles",
		Method:      http.MethodGet,
		Path:        "/reports/roles",
		Summary:     "Administrative role membership",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, _ *struct{}) (*RoleReportOutput, error) {
		rows, err := reporter.Roles(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to fetch role membership", err)
		}
		return &RoleReportOutput{Body: rows}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-user-licenses",
		Method:      http.MethodGet,
		Path:        "/reports/users/{id}/licenses",
		Summary:     "Licenses assigned to one user",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *UserLicensesInput) (*UserLicensesOutput, error) {
		rows, err := reporter.UserLicenses(ctx, input.UserID)
		if err != nil {
			return nil, huma.Error502BadGateway("failed to fetch user licenses", err)
		}
		return &UserLicensesOutput{Body: rows}, nil
	})
}
