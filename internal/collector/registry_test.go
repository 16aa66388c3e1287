package collector_test

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoppen/amiibot/internal/collector"
)

func TestPresets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"game.co.uk",
		"meccha-japan.com",
		"play-asia.com",
		"shopto.net",
		"thesource.ca",
	}, collector.Presets())

	spec, ok := collector.Preset("play-asia.com")
	require.True(t, ok)
	assert.Len(t, spec.Pages, 10)

	spec.Pages[0] = "mutated"
	again, _ := collector.Preset("play-asia.com")
	assert.NotEqual(t, "mutated", again.Pages[0])

	_, ok = collector.Preset("nope")
	assert.False(t, ok)
}

func TestRegistry_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		spec       collector.Spec
		wantErr    error
		wantSource string
	}{
		{
			name:       "preset by id",
			spec:       collector.Spec{ID: "shopto.net"},
			wantSource: "shopto.net",
		},
		{
			name:       "preset with page override",
			spec:       collector.Spec{ID: "game.co.uk", Pages: []string{"http://shop.test/game"}},
			wantSource: "game.co.uk",
		},
		{
			name:       "custom source",
			spec:       testSpec("http://shop.test/list"),
			wantSource: "shop.test",
		},
		{
			name:    "unknown source",
			spec:    collector.Spec{ID: "unknown.example"},
			wantErr: collector.ErrUnknownSource,
		},
	}

	reg := collector.NewRegistry(collector.WithLogger(quietLogger()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := reg.Build(tt.spec)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, c.Source())
		})
	}
}

func TestRegistry_PresetPageOverrideIsScraped(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponderWithQuery("GET", "http://shop.test/game",
		map[string]string{"inStockOnly": "true", "pageSize": "100", "sortBy": "RELEASE_DATE_DESC"},
		htmlResponder(`<html><body>
<article class="product">
  <h2><a href="/amiibo/mario">Mario amiibo</a></h2>
  <span class="value">£12.99</span>
  <img class="optimisedImg" src="/img/mario.jpg">
</article>
</body></html>`),
	)

	reg := collector.NewRegistry(
		collector.WithTransport(transport),
		collector.WithLogger(quietLogger()),
	)
	c, err := reg.Build(collector.Spec{ID: "game.co.uk", Pages: []string{"http://shop.test/game"}})
	require.NoError(t, err)

	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mario amiibo", got[0].Title)
	assert.Equal(t, "http://shop.test/amiibo/mario", got[0].DetailURL)
	assert.Equal(t, "game.co.uk", got[0].SourceID)
}
