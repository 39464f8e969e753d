// Package accounts performs user and device lifecycle actions against
// the directory service, recording each mutation in the local action log.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kestrelhq/kestrel/internal/directory"
)

// ActionEntry records one admin mutation performed through this service.
type ActionEntry struct {
	ID         uuid.UUID      `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ActionLog persists action entries.
type ActionLog interface {
	Record(ctx context.Context, entry *ActionEntry) error
	List(ctx context.Context, limit, offset int) ([]*ActionEntry, error)
}

// Notifier pushes a human-readable notice about an action. Failures are
// never fatal.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// DirectoryWriter is the mutating directory surface the service needs.
type DirectoryWriter interface {
	GetUser(ctx context.Context, userID string) (*directory.User, error)
	SetAccountEnabled(ctx context.Context, userID string, enabled bool) error
	RevokeSignInSessions(ctx context.Context, userID string) error
	SetDeviceEnabled(ctx context.Context, deviceID string, enabled bool) error
}

// Service executes lifecycle actions. The remote write failing fails the
// action; action-log and notification failures are logged and swallowed,
// since the directory change has already happened.
type Service struct {
	dir     DirectoryWriter
	actions ActionLog
	notify  Notifier // nil disables notifications
}

// New creates an accounts Service. notify may be nil.
func New(dir DirectoryWriter, actions ActionLog, notify Notifier) *Service {
	return &Service{dir: dir, actions: actions, notify: notify}
}

// DisableAccount blocks sign-in for a user.
func (s *Service) DisableAccount(ctx context.Context, actor, userID string) error {
	if err := s.dir.SetAccountEnabled(ctx, userID, false); err != nil {
		return fmt.Errorf("accounts.Service.DisableAccount: %w", err)
	}
	s.record(ctx, actor, "account.disable", "user", userID, nil)
	s.announce(ctx, fmt.Sprintf("account %s disabled by %s", s.describeUser(ctx, userID), actor))
	return nil
}

// EnableAccount restores sign-in for a user.
func (s *Service) EnableAccount(ctx context.Context, actor, userID string) error {
	if err := s.dir.SetAccountEnabled(ctx, userID, true); err != nil {
		return fmt.Errorf("accounts.Service.EnableAccount: %w", err)
	}
	s.record(ctx, actor, "account.enable", "user", userID, nil)
	s.announce(ctx, fmt.Sprintf("account %s enabled by %s", s.describeUser(ctx, userID), actor))
	return nil
}

// RevokeSessions invalidates every refresh token issued to a user.
func (s *Service) RevokeSessions(ctx context.Context, actor, userID string) error {
	if err := s.dir.RevokeSignInSessions(ctx, userID); err != nil {
		return fmt.Errorf("accounts.Service.RevokeSessions: %w", err)
	}
	s.record(ctx, actor, "account.revoke_sessions", "user", userID, nil)
	s.announce(ctx, fmt.Sprintf("sessions revoked for %s by %s", s.describeUser(ctx, userID), actor))
	return nil
}

// DisableDevice blocks a registered device.
func (s *Service) DisableDevice(ctx context.Context, actor, deviceID string) error {
	if err := s.dir.SetDeviceEnabled(ctx, deviceID, false); err != nil {
		return fmt.Errorf("accounts.Service.DisableDevice: %w", err)
	}
	s.record(ctx, actor, "device.disable", "device", deviceID, nil)
	s.announce(ctx, fmt.Sprintf("device %s disabled by %s", deviceID, actor))
	return nil
}

// RecentActions lists the most recent action-log entries.
func (s *Service) RecentActions(ctx context.Context, limit, offset int) ([]*ActionEntry, error) {
	entries, err := s.actions.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("accounts.Service.RecentActions: %w", err)
	}
	return entries, nil
}

func (s *Service) record(ctx context.Context, actor, action, targetType, targetID string, details map[string]any) {
	entry := &ActionEntry{
		ID:         uuid.New(),
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := s.actions.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Str("target_id", targetID).Msg("failed to record action log entry")
	}
}

func (s *Service) announce(ctx context.Context, text string) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(ctx, text); err != nil {
		log.Warn().Err(err).Msg("failed to send action notification")
	}
}

// describeUser prefers the principal name for readability and falls
// back to the raw id when the lookup fails.
func (s *Service) describeUser(ctx context.Context, userID string) string {
	u, err := s.dir.GetUser(ctx, userID)
	if err != nil || u.UserPrincipalName == "" {
		return userID
	}
	return u.UserPrincipalName
}
