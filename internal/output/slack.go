package output

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/dynoinc/incidentreport/internal/report"
)

// Slack section blocks hold at most 3000 characters.
const maxSectionText = 3000

type SlackConfig struct {
	BotToken  string `split_words:"true"`
	ChannelID string `split_words:"true"`
	APIURL    string `envconfig:"API_URL"`
}

// Slack posts one message per report, the table in a code block.
type Slack struct {
	client    *slack.Client
	channelID string
}

func NewSlack(cfg SlackConfig) (*Slack, error) {
	if cfg.BotToken == "" || cfg.ChannelID == "" {
		return nil, errors.New("slack bot token and channel ID are required")
	}

	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	return &Slack{
		client:    slack.New(cfg.BotToken, opts...),
		channelID: cfg.ChannelID,
	}, nil
}

func (s *Slack) Write(ctx context.Context, reports ...report.Report) error {
	for _, r := range reports {
		title := Title(r)
		if _, _, err := s.client.PostMessageContext(ctx, s.channelID,
			slack.MsgOptionText(title, false),
			slack.MsgOptionBlocks(slackBlocks(title, r)...),
		); err != nil {
			return fmt.Errorf("posting %q to slack: %w", title, err)
		}
	}
	return nil
}

func slackBlocks(title string, r report.Report) []slack.Block {
	table := renderTable(r)
	limit := maxSectionText - len("```\n```")
	if len(table) > limit {
		table = truncate(table, limit-len("...\n")) + "...\n"
	}

	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "```\n"+table+"```", false, false),
			nil, nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("%d rows", len(r.Rows)), false, false),
		),
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
