package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// TelegramNotifier implements Notifier via the Telegram Bot API.
type TelegramNotifier struct {
	name   string
	bot    *telego.Bot
	chatID telego.ChatID
}

var _ Notifier = (*TelegramNotifier)(nil)

type telegramConfig struct {
	apiServer string
	client    *http.Client
}

// TelegramOption configures a TelegramNotifier.
type TelegramOption func(*telegramConfig)

// WithAPIServer points the bot at a different Bot API server.
func WithAPIServer(url string) TelegramOption {
	return func(c *telegramConfig) {
		c.apiServer = url
	}
}

// WithTelegramHTTPClient sets the HTTP client used for Bot API calls.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(c *telegramConfig) {
		c.client = client
	}
}

// NewTelegramNotifier creates a TelegramNotifier posting to chatID, which
// is either a numeric chat id or an @channel username.
func NewTelegramNotifier(name, token, chatID string, opts ...TelegramOption) (*TelegramNotifier, error) {
	cfg := telegramConfig{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&cfg)
	}

	botOpts := []telego.BotOption{
		telego.WithHTTPClient(cfg.client),
		telego.WithDiscardLogger(),
	}
	if cfg.apiServer != "" {
		botOpts = append(botOpts, telego.WithAPIServer(cfg.apiServer))
	}

	bot, err := telego.NewBot(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot for %s: %w", name, err)
	}

	return &TelegramNotifier{
		name:   name,
		bot:    bot,
		chatID: parseChatID(chatID),
	}, nil
}

func parseChatID(s string) telego.ChatID {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tu.ID(id)
	}
	if !strings.HasPrefix(s, "@") {
		s = "@" + s
	}
	return tu.Username(s)
}

// Name returns the messenger name.
func (t *TelegramNotifier) Name() string {
	return t.name
}

// SendEvent sends a change event as a Markdown message.
func (t *TelegramNotifier) SendEvent(ctx context.Context, ev domain.ChangeEvent) error {
	return t.send(ctx, formatTelegramEvent(&ev))
}

// SendMessage sends plain text.
func (t *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	return t.send(ctx, escapeMarkdown(text))
}

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	msg := tu.Message(t.chatID, text).WithParseMode(telego.ModeMarkdown)
	if _, err := t.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

func formatTelegramEvent(ev *domain.ChangeEvent) string {
	l := ev.Listing

	var b strings.Builder
	fmt.Fprintf(&b, "*%s: %s*\n", alertContent, escapeMarkdown(stockText(ev)))
	fmt.Fprintf(&b, "[%s](%s)\n", escapeMarkdown(truncate(l.Title, maxTitleLength)), l.DetailURL)
	fmt.Fprintf(&b, "Price: %s", escapeMarkdown(l.Price))
	if ev.Kind == domain.EventUpdated && ev.PreviousPrice != "" {
		fmt.Fprintf(&b, " (was %s)", escapeMarkdown(ev.PreviousPrice))
	}
	fmt.Fprintf(&b, "\nWebsite: %s", escapeMarkdown(l.SourceID))
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// escapeMarkdown escapes the entity characters of Telegram's legacy
// Markdown mode.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
