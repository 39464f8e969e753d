// Package reports reshapes directory inventory endpoints into flat
// report rows. It holds no state beyond its collaborators.
package reports

import (
	"context"
	"fmt"

	"github.com/kestrelhq/kestrel/internal/directory"
	"github.com/kestrelhq/kestrel/internal/refdata"
)

// DirectoryReader is the read-only directory surface the reports need.
type DirectoryReader interface {
	ListSubscribedSKUs(ctx context.Context) ([]directory.SubscribedSKU, error)
	ListUserLicenseDetails(ctx context.Context, userID string) ([]directory.LicenseDetail, error)
	ListDirectoryRoles(ctx context.Context) ([]directory.DirectoryRole, error)
	ListRoleMembers(ctx context.Context, roleID string) ([]directory.User, error)
}

// Service produces the license and role reports.
type Service struct {
	dir   DirectoryReader
	names *refdata.Cache
}

// New creates a report Service. names resolves SKU identifiers to
// product names and must be loaded by the caller.
func New(dir DirectoryReader, names *refdata.Cache) *Service {
	return &Service{dir: dir, names: names}
}

// LicenseRow is one tenant SKU with resolved product name and unit math.
type LicenseRow struct {
	SKUID         string `json:"sku_id"`
	SKUPartNumber string `json:"sku_part_number"`
	ProductName   string `json:"product_name"`
	Consumed      int    `json:"consumed"`
	Enabled       int    `json:"enabled"`
	Suspended     int    `json:"suspended"`
	Warning       int    `json:"warning"`
	Available     int    `json:"available"`
}

// Licenses reports the tenant license inventory, one row per SKU.
func (s *Service) Licenses(ctx context.Context) ([]LicenseRow, error) {
	skus, err := s.dir.ListSubscribedSKUs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports.Service.Licenses: %w", err)
	}

	rows := make([]LicenseRow, 0, len(skus))
	for _, sku := range skus {
		rows = append(rows, LicenseRow{
			SKUID:         sku.SKUID,
			SKUPartNumber: sku.SKUPartNumber,
			ProductName:   s.names.FriendlyName(sku.SKUPartNumber),
			Consumed:      sku.ConsumedUnits,
			Enabled:       sku.PrepaidUnits.Enabled,
			Suspended:     sku.PrepaidUnits.Suspended,
			Warning:       sku.PrepaidUnits.Warning,
			Available:     sku.PrepaidUnits.Enabled - sku.ConsumedUnits,
		})
	}

	return rows, nil
}

// RoleMemberRow is one member of one administrative role.
type RoleMemberRow struct {
	RoleID            string `json:"role_id"`
	RoleName          string `json:"role_name"`
	UserID            string `json:"user_id"`
	UserPrincipalName string `json:"user_principal_name"`
	DisplayName       string `json:"display_name"`
	AccountEnabled    bool   `json:"account_enabled"`
}

// Roles reports every activated role flattened to one row per member.
// Roles without members contribute no rows.
func (s *Service) Roles(ctx context.Context) ([]RoleMemberRow, error) {
	roles, err := s.dir.ListDirectoryRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports.Service.Roles: %w", err)
	}

	var rows []RoleMemberRow
	for _, role := range roles {
		members, err := s.dir.ListRoleMembers(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("reports.Service.Roles: role %s: %w", role.ID, err)
		}
		for _, m := range members {
			rows = append(rows, RoleMemberRow{
				RoleID:            role.ID,
				RoleName:          role.DisplayName,
				UserID:            m.ID,
				UserPrincipalName: m.UserPrincipalName,
				DisplayName:       m.DisplayName,
				AccountEnabled:    m.AccountEnabled,
			})
		}
	}

	return rows, nil
}

// UserLicenseRow is one license held by a user, with plan names resolved.
type UserLicenseRow struct {
	SKUID         string   `json:"sku_id"`
	SKUPartNumber string   `json:"sku_part_number"`
	ProductName   string   `json:"product_name"`
	ServicePlans  []string `json:"service_plans"`
}

// UserLicenses reports the licenses assigned to one user.
func (s *Service) UserLicenses(ctx context.Context, userID string) ([]UserLicenseRow, error) {
	details, err := s.dir.ListUserLicenseDetails(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reports.Service.UserLicenses: user %s: %w", userID, err)
	}

	rows := make([]UserLicenseRow, 0, len(details))
	for _, d := range details {
		plans := make([]string, 0, len(d.ServicePlans))
		for _, p := range d.ServicePlans {
			plans = append(plans, s.names.FriendlyName(p.ServicePlanName))
		}
		rows = append(rows, UserLicenseRow{
			SKUID:         d.SKUID,
			SKUPartNumber: d.SKUPartNumber,
			ProductName:   s.names.FriendlyName(d.SKUPartNumber),
			ServicePlans:  plans,
		})
	}

	return rows, nil
}
