package cmd

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoppen/amiibot/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSourceSpec(t *testing.T) {
	t.Parallel()

	spec := sourceSpec(&config.SourceConfig{
		ID:    "shop.test",
		Name:  "Test Shop",
		Pages: []string{"https://shop.test/amiibo"},
		Selectors: config.SelectorConfig{
			Item:  "div.card",
			Title: "h3",
			Price: "span.price",
			Stock: "div.stock",
		},
		InStockText:    "Available",
		SkipOutOfStock: true,
	})

	assert.Equal(t, "shop.test", spec.ID)
	assert.Equal(t, "div.card", spec.Selectors.Item)
	assert.Equal(t, "div.stock", spec.Stock.Selector)
	assert.Equal(t, "Available", spec.Stock.InStockText)
	assert.True(t, spec.Stock.SkipOutOfStock)
}

func TestBuildCollectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sources []config.SourceConfig
		want    []string
		wantErr string
	}{
		{
			name:    "presets resolve",
			sources: []config.SourceConfig{{ID: "shopto.net"}, {ID: "game.co.uk"}},
			want:    []string{"shopto.net", "game.co.uk"},
		},
		{
			name:    "unknown source skipped",
			sources: []config.SourceConfig{{ID: "nowhere.example"}, {ID: "thesource.ca"}},
			want:    []string{"thesource.ca"},
		},
		{
			name:    "nothing usable",
			sources: []config.SourceConfig{{ID: "nowhere.example"}},
			wantErr: "no usable sources configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{Sources: tt.sources}
			cfg.Scrape.RateLimit.PerSecond = 1
			cfg.Scrape.RateLimit.Burst = 1

			collectors, err := buildCollectors(cfg, quietLogger())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			got := make([]string, len(collectors))
			for i, c := range collectors {
				got[i] = c.Source()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildNotifiers(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Messengers: map[string]config.MessengerConfig{
		"zulu": {
			Type:       config.MessengerDiscord,
			Active:     true,
			WebhookURL: "https://discord.com/api/webhooks/1/abc",
		},
		"alpha": {
			Type:     config.MessengerTelegram,
			Active:   true,
			BotToken: "123456789:AAbbccddeeffgghhiijjkkllmmnnooppqqr",
			ChatID:   "-100200300",
		},
		"off": {
			Type:       config.MessengerDiscord,
			WebhookURL: "https://discord.com/api/webhooks/2/def",
		},
	}}

	for _, quiet := range []bool{false, true} {
		notifiers, err := buildNotifiers(cfg, quietLogger(), quiet)
		require.NoError(t, err)
		require.Len(t, notifiers, 2)
		assert.Equal(t, "alpha", notifiers[0].Name())
		assert.Equal(t, "zulu", notifiers[1].Name())
	}
}

func TestBuildNotifiers_BadTelegramToken(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Messengers: map[string]config.MessengerConfig{
		"chat": {Type: config.MessengerTelegram, Active: true, BotToken: "nope", ChatID: "1"},
	}}

	_, err := buildNotifiers(cfg, quietLogger(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating telegram messenger chat")
}
