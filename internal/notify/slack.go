// Package notify posts derived-document completion notices to Slack.
package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/Addis4/kt-ai/internal/explore"
)

// SlackPoster is the minimal Slack API surface needed to post notices.
type SlackPoster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier implements explore.GenerationListener by posting a short
// message per terminal generation state. Delivery is best effort; a
// failed post is logged and dropped.
type SlackNotifier struct {
	client  SlackPoster
	channel string
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier for the given bot token and channel.
func NewSlackNotifier(token, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
		logger:  logger.With().Str("component", "slack_notifier").Logger(),
	}
}

// SetClient sets a custom Slack client (for testing).
func (n *SlackNotifier) SetClient(c SlackPoster) {
	n.client = c
}

// GenerationCompleted implements explore.GenerationListener.
func (n *SlackNotifier) GenerationCompleted(sessionID, messageID string, format explore.DocFormat, g explore.Generation) {
	var text string
	switch g.Status {
	case explore.GenSucceeded:
		text = fmt.Sprintf(":page_facing_up: %s is ready: %s (session %s)", g.FileName, g.URL, sessionID)
	case explore.GenFailed:
		text = fmt.Sprintf(":warning: %s generation failed for session %s: %s", format.Title(), sessionID, g.Error)
	default:
		return
	}

	_, _, err := n.client.PostMessage(n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Error().Err(err).
			Str("session_id", sessionID).
			Str("message_id", messageID).
			Str("format", string(format)).
			Msg("failed to post generation notice")
		return
	}
	n.logger.Debug().Str("session_id", sessionID).Str("format", string(format)).Msg("generation notice posted")
}
