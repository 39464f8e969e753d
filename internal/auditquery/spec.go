package auditquery

import (
	"fmt"
	"regexp"
	"time"
)

// Status is the remote job status as reported by the directory service.
type Status string

const (
	StatusNotStarted Status = "notStarted"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the remote service will make no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// DefaultMaxLookback bounds how far back a query window may start.
const DefaultMaxLookback = 30 * 24 * time.Hour

// DefaultProjection is the canonical field set used when the caller
// supplies no projection paths.
var DefaultProjection = []string{ //nolint:gochecknoglobals // fixed default
	"id",
	"createdDateTime",
	"auditLogRecordType",
	"operation",
	"userPrincipalName",
	"ipAddress",
}

// filterValuePattern is the allow-list for filter values placed into
// outbound filter expressions. Anything outside alphanumerics, hyphen,
// underscore and dot is rejected to prevent filter injection.
var filterValuePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`) //nolint:gochecknoglobals // compiled once

// Spec is the immutable input to one audit-log query: a half-open time
// window [Start, End) and optional filter sets.
type Spec struct {
	Start time.Time
	End   time.Time

	Operations  []string
	RecordTypes []string
	UserIDs     []string
	IPAddresses []string
}

// Validate checks window ordering, the lookback bound and every filter
// value against the allow-list. maxLookback <= 0 selects the default.
// It performs no I/O; Execute calls it before any network traffic.
func (s Spec) Validate(maxLookback time.Duration) error {
	if maxLookback <= 0 {
		maxLookback = DefaultMaxLookback
	}

	if s.Start.IsZero() {
		return &ValidationError{Field: "start", Reason: "required"}
	}
	if s.End.IsZero() {
		return &ValidationError{Field: "end", Reason: "required"}
	}
	if !s.Start.Before(s.End) {
		return &ValidationError{Field: "start", Reason: "must be before end"}
	}
	if s.End.Sub(s.Start) > maxLookback {
		return &ValidationError{
			Field:  "end",
			Reason: fmt.Sprintf("window exceeds maximum lookback of %s", maxLookback),
		}
	}

	for field, values := range map[string][]string{
		"operations":  s.Operations,
		"recordTypes": s.RecordTypes,
		"userIds":     s.UserIDs,
		"ipAddresses": s.IPAddresses,
	} {
		for _, v := range values {
			if !filterValuePattern.MatchString(v) {
				return &ValidationError{
					Field:  field,
					Reason: fmt.Sprintf("value %q contains characters outside the allow-list", v),
				}
			}
		}
	}

	return nil
}
