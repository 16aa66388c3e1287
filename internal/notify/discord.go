package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	name       string
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

var _ Notifier = (*DiscordNotifier)(nil)

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(name, webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		name:       name,
		webhookURL: webhookURL,
		client:     http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title     string              `json:"title"`
	URL       string              `json:"url,omitempty"`
	Color     int                 `json:"color"`
	Fields    []discordEmbedField `json:"fields,omitempty"`
	Thumbnail *discordThumbnail   `json:"thumbnail,omitempty"`
	Footer    *discordFooter      `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordThumbnail struct {
	URL string `json:"url"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Name returns the messenger name.
func (d *DiscordNotifier) Name() string {
	return d.name
}

// SendEvent sends a change event as a Discord embed.
func (d *DiscordNotifier) SendEvent(ctx context.Context, ev domain.ChangeEvent) error {
	payload := discordWebhookPayload{
		Username: botName,
		Content:  alertContent,
		Embeds:   []discordEmbed{d.buildEmbed(&ev)},
	}
	return d.post(ctx, payload)
}

// SendMessage sends plain text content.
func (d *DiscordNotifier) SendMessage(ctx context.Context, text string) error {
	return d.post(ctx, discordWebhookPayload{Username: botName, Content: text})
}

func (d *DiscordNotifier) buildEmbed(ev *domain.ChangeEvent) discordEmbed {
	l := ev.Listing
	embed := discordEmbed{
		Title: truncate(l.Title, maxTitleLength),
		URL:   l.DetailURL,
		Color: l.SeverityColor,
		Fields: []discordEmbedField{
			{Name: "Price", Value: l.Price, Inline: true},
			{Name: "Stock", Value: stockText(ev), Inline: true},
			{Name: "Website", Value: l.SourceID, Inline: true},
		},
		Footer: &discordFooter{
			Text: fmt.Sprintf("%s - %s", botName, d.now().Format(footerLayout)),
		},
	}

	if ev.Kind == domain.EventUpdated && ev.PreviousPrice != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name: "Was", Value: ev.PreviousPrice, Inline: true,
		})
	}

	if l.ImageURL != "" {
		embed.Thumbnail = &discordThumbnail{URL: escapeSpaces(l.ImageURL)}
	}

	return embed
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
