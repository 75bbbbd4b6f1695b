// Package notify sends best-effort operator notifications. A notify
// failure never blocks or fails the dispatch that triggered it.
package notify

import (
	"context"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Notifier posts a one-line message to an operator channel.
type Notifier struct {
	Client  *slack.Client
	Channel string
	Logger  *zap.Logger
}

// New builds a Notifier. If token is empty, Notify becomes a no-op — useful
// for local dev where no Slack app is configured.
func New(token, channel string, logger *zap.Logger) *Notifier {
	var client *slack.Client
	if token != "" {
		client = slack.New(token)
	}
	return &Notifier{Client: client, Channel: channel, Logger: logger}
}

// Notify posts message to the configured channel, fire-and-forget. Errors
// are logged, never propagated.
func (n *Notifier) Notify(ctx context.Context, message string) {
	if n.Client == nil || n.Channel == "" {
		return
	}
	go func() {
		_, _, err := n.Client.PostMessageContext(ctx, n.Channel, slack.MsgOptionText(message, false))
		if err != nil && n.Logger != nil {
			n.Logger.Warn("slack notification failed", zap.Error(err))
		}
	}()
}
