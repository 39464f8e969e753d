package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/kestrelhq/kestrel/internal/auditquery"
)

// Config holds remote directory service connection settings.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// RequestsPerSecond throttles all outbound calls; zero disables
	// throttling.
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the remote directory/security service. All calls share
// one token source and one rate limiter; the client itself is stateless
// and safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Compile-time check: Client satisfies the audit-query orchestrator's surface.
var _ auditquery.Client = (*Client)(nil) //nolint:gochecknoglobals // compile-time check

// New creates a Client authenticated with the OAuth2 client-credentials
// flow. The token source refreshes transparently; no session handling
// happens above this layer.
func New(ctx context.Context, cfg Config) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}

	return NewWithHTTPClient(cfg.BaseURL, cc.Client(ctx), cfg.RequestsPerSecond, cfg.Burst)
}

// NewWithHTTPClient creates a Client around an existing, already
// authenticated HTTP client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, requestsPerSecond float64, burst int) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// auditQueryRequest is the wire form of a query submission. Filter
// fields are omitted entirely when empty.
type auditQueryRequest struct {
	Type                string    `json:"type"`
	DisplayName         string    `json:"displayName"`
	FilterStartDateTime time.Time `json:"filterStartDateTime"`
	FilterEndDateTime   time.Time `json:"filterEndDateTime"`
	OperationFilters    []string  `json:"operationFilters,omitempty"`
	RecordTypeFilters   []string  `json:"recordTypeFilters,omitempty"`
	UserIDsFilters      []string  `json:"userIdsFilters,omitempty"`
	IPAddressFilters    []string  `json:"ipAddressFilters,omitempty"`
}

// SubmitQuery creates a new audit-log query job and returns its id.
func (c *Client) SubmitQuery(ctx context.Context, req auditquery.SubmitRequest) (string, error) {
	body := auditQueryRequest{
		Type:                "auditLogQuery",
		DisplayName:         req.DisplayName,
		FilterStartDateTime: req.Start,
		FilterEndDateTime:   req.End,
		OperationFilters:    req.Operations,
		RecordTypeFilters:   req.RecordTypes,
		UserIDsFilters:      req.UserIDs,
		IPAddressFilters:    req.IPAddresses,
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/security/auditLog/queries", body, &out); err != nil {
		return "", fmt.Errorf("directory.Client.SubmitQuery: %w", err)
	}

	return out.ID, nil
}

// QueryStatus fetches the current status of a query job.
func (c *Client) QueryStatus(ctx context.Context, jobID string) (auditquery.Status, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, c.queryURL(jobID), nil, &out); err != nil {
		return "", fmt.Errorf("directory.Client.QueryStatus: %w", err)
	}

	return auditquery.Status(out.Status), nil
}

// RecordsURL returns the first-page records endpoint for a query job.
func (c *Client) RecordsURL(jobID string) string {
	return c.queryURL(jobID) + "/records"
}

// FetchRecordsPage fetches one result page. pageURL is either the
// records endpoint or a continuation handle returned by a previous page,
// followed verbatim.
func (c *Client) FetchRecordsPage(ctx context.Context, pageURL string) (auditquery.RecordsPage, error) {
	var out struct {
		Value    []map[string]any `json:"value"`
		NextPage string           `json:"nextPage"`
	}
	if err := c.do(ctx, http.MethodGet, pageURL, nil, &out); err != nil {
		return auditquery.RecordsPage{}, fmt.Errorf("directory.Client.FetchRecordsPage: %w", err)
	}

	return auditquery.RecordsPage{Records: out.Value, NextPage: out.NextPage}, nil
}

// DeleteQuery removes a query job record on the remote side. It does
// not guarantee the remote compute is stopped.
func (c *Client) DeleteQuery(ctx context.Context, jobID string) error {
	if err := c.do(ctx, http.MethodDelete, c.queryURL(jobID), nil, nil); err != nil {
		return fmt.Errorf("directory.Client.DeleteQuery: %w", err)
	}
	return nil
}

// GetUser fetches one user by id or principal name.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/users/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, fmt.Errorf("directory.Client.GetUser: %w", err)
	}
	return &out, nil
}

// SetAccountEnabled flips a user's accountEnabled flag.
func (c *Client) SetAccountEnabled(ctx context.Context, userID string, enabled bool) error {
	body := map[string]bool{"accountEnabled": enabled}
	if err := c.do(ctx, http.MethodPatch, c.baseURL+"/users/"+url.PathEscape(userID), body, nil); err != nil {
		return fmt.Errorf("directory.Client.SetAccountEnabled: %w", err)
	}
	return nil
}

// RevokeSignInSessions invalidates all refresh tokens issued to a user.
func (c *Client) RevokeSignInSessions(ctx context.Context, userID string) error {
	endpoint := c.baseURL + "/users/" + url.PathEscape(userID) + "/revokeSignInSessions"
	if err := c.do(ctx, http.MethodPost, endpoint, nil, nil); err != nil {
		return fmt.Errorf("directory.Client.RevokeSignInSessions: %w", err)
	}
	return nil
}

// SetDeviceEnabled flips a device's accountEnabled flag.
func (c *Client) SetDeviceEnabled(ctx context.Context, deviceID string, enabled bool) error {
	body := map[string]bool{"accountEnabled": enabled}
	if err := c.do(ctx, http.MethodPatch, c.baseURL+"/devices/"+url.PathEscape(deviceID), body, nil); err != nil {
		return fmt.Errorf("directory.Client.SetDeviceEnabled: %w", err)
	}
	return nil
}

// ListSubscribedSKUs returns the tenant's license inventory.
func (c *Client) ListSubscribedSKUs(ctx context.Context) ([]SubscribedSKU, error) {
	var out struct {
		Value []SubscribedSKU `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/subscribedSkus", nil, &out); err != nil {
		return nil, fmt.Errorf("directory.Client.ListSubscribedSKUs: %w", err)
	}
	return out.Value, nil
}

// ListUserLicenseDetails returns the licenses assigned to one user.
func (c *Client) ListUserLicenseDetails(ctx context.Context, userID string) ([]LicenseDetail, error) {
	var out struct {
		Value []LicenseDetail `json:"value"`
	}
	endpoint := c.baseURL + "/users/" + url.PathEscape(userID) + "/licenseDetails"
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("directory.Client.ListUserLicenseDetails: %w", err)
	}
	return out.Value, nil
}

// ListDirectoryRoles returns the activated administrative roles.
func (c *Client) ListDirectoryRoles(ctx context.Context) ([]DirectoryRole, error) {
	var out struct {
		Value []DirectoryRole `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/directoryRoles", nil, &out); err != nil {
		return nil, fmt.Errorf("directory.Client.ListDirectoryRoles: %w", err)
	}
	return out.Value, nil
}

// ListRoleMembers returns the members of one directory role.
func (c *Client) ListRoleMembers(ctx context.Context, roleID string) ([]User, error) {
	var out struct {
		Value []User `json:"value"`
	}
	endpoint := c.baseURL + "/directoryRoles/" + url.PathEscape(roleID) + "/members"
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("directory.Client.ListRoleMembers: %w", err)
	}
	return out.Value, nil
}

func (c *Client) queryURL(jobID string) string {
	return c.baseURL + "/security/auditLog/queries/" + url.PathEscape(jobID)
}

// do performs one rate-limited request. Non-2xx responses become an
// *APIError; there is no retry at this layer.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, URL: endpoint, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}

	return nil
}
