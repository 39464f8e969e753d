package directory

import "fmt"

// User is a directory user account.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	AccountEnabled    bool   `json:"accountEnabled"`
}

// SubscribedSKU is one license SKU held by the tenant.
type SubscribedSKU struct {
	SKUID         string       `json:"skuId"`
	SKUPartNumber string       `json:"skuPartNumber"`
	ConsumedUnits int          `json:"consumedUnits"`
	PrepaidUnits  PrepaidUnits `json:"prepaidUnits"`
}

// PrepaidUnits breaks down the purchased unit counts of a SKU.
type PrepaidUnits struct {
	Enabled   int `json:"enabled"`
	Suspended int `json:"suspended"`
	Warning   int `json:"warning"`
}

// LicenseDetail is one license assigned to a user.
type LicenseDetail struct {
	SKUID         string        `json:"skuId"`
	SKUPartNumber string        `json:"skuPartNumber"`
	ServicePlans  []ServicePlan `json:"servicePlans"`
}

// ServicePlan is one service enabled by a license.
type ServicePlan struct {
	ServicePlanID      string `json:"servicePlanId"`
	ServicePlanName    string `json:"servicePlanName"`
	ProvisioningStatus string `json:"provisioningStatus"`
}

// DirectoryRole is an activated administrative role.
type DirectoryRole struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory: %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}
