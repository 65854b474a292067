package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackNotifier posts notifications as Slack block messages.
type SlackNotifier struct {
	api            *slack.Client
	defaultChannel string
}

// NewSlackNotifier creates a notifier for the given bot token. Options are
// passed to the Slack client (tests use slack.OptionAPIURL).
func NewSlackNotifier(token, defaultChannel string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		api:            slack.New(token, opts...),
		defaultChannel: defaultChannel,
	}
}

// Notify posts n to its channel or the default channel.
func (s *SlackNotifier) Notify(ctx context.Context, n Notification) error {
	channel := n.Channel
	if channel == "" {
		channel = s.defaultChannel
	}
	if channel == "" {
		return errors.New("no slack channel configured")
	}

	_, _, err := s.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(fallbackText(n), false),
		slack.MsgOptionBlocks(buildBlocks(n)...),
	)
	if err != nil {
		return fmt.Errorf("post to %s: %w", channel, err)
	}
	return nil
}

// maxSectionFields is Slack's limit on fields in one section block.
const maxSectionFields = 10

func fallbackText(n Notification) string {
	if n.Title == "" {
		return n.Text
	}
	return n.Title + ": " + n.Text
}

func buildBlocks(n Notification) []slack.Block {
	var blocks []slack.Block
	if n.Title != "" {
		blocks = append(blocks, slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, n.Title, false, false),
		))
	}
	if n.Text != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, n.Text, false, false),
			nil, nil,
		))
	}
	if len(n.Fields) > 0 {
		fields := make([]*slack.TextBlockObject, 0, len(n.Fields))
		for i, f := range n.Fields {
			if i == maxSectionFields {
				break
			}
			fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*%s*\n%s", f.Name, f.Value), false, false))
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}
	return blocks
}
