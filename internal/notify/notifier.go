// Package notify pushes operator notices to a Slack channel.
package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/kestrelhq/kestrel/internal/accounts"
)

// SlackAPI abstracts the subset of the Slack client used by the
// notifier. This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackNotifier posts plain-text notices to a fixed channel.
type SlackNotifier struct {
	api     SlackAPI
	channel string
}

// Compile-time interface check.
var _ accounts.Notifier = (*SlackNotifier)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackNotifier creates a SlackNotifier posting to channelID.
func NewSlackNotifier(api SlackAPI, channelID string) *SlackNotifier {
	return &SlackNotifier{api: api, channel: channelID}
}

// Notify posts text to the configured channel.
func (n *SlackNotifier) Notify(ctx context.Context, text string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.SlackNotifier.Notify: %w", err)
	}
	return nil
}
