package collector

import (
	"fmt"
	"slices"
	"sort"
)

// presets are the built-in source definitions, keyed by source id.
var presets = map[string]Spec{
	"game.co.uk": {
		ID:    "game.co.uk",
		Name:  "Game UK",
		Pages: []string{"https://www.game.co.uk/en/amiibo/"},
		Params: map[string]string{
			"inStockOnly": "true",
			"pageSize":    "100",
			"sortBy":      "RELEASE_DATE_DESC",
		},
		Selectors: Selectors{
			Item:  "article.product",
			Title: "h2 a",
			Price: "span.value",
			Link:  "h2 a",
			Image: "img.optimisedImg",
		},
	},
	"shopto.net": {
		ID:    "shopto.net",
		Name:  "Shopto",
		Pages: []string{"https://www.shopto.net/en/nintendo-amiibo/"},
		Selectors: Selectors{
			Item:  "div.itemlist2",
			Title: "div.itemlist__description",
			Price: "div.cross_price",
			Link:  "a.itemlist__container",
			Image: "div.image img",
		},
		Stock: StockRule{Selector: "div.inventory", OutOfStockText: "Sold out"},
	},
	"play-asia.com": {
		ID:    "play-asia.com",
		Name:  "Playasia",
		Pages: pagedURLs("https://www.play-asia.com/games/amiibos/14/712od#fc=s:3,m:6,p:%d", 1, 10),
		Selectors: Selectors{
			Item:  "div.p_prev",
			Title: "span.p_prev_n",
			Price: "span.price_val",
			Link:  "a",
			Image: "img.p_prev_img",
		},
	},
	"meccha-japan.com": {
		ID:    "meccha-japan.com",
		Name:  "Meccha Japan",
		Pages: pagedURLs("https://meccha-japan.com/en/367-amiibo?page=%d", 1, 4),
		Selectors: Selectors{
			Item:  "article.product-miniature",
			Title: "h2[class^='product-title'] a",
			Price: "span[class^='price']",
			Link:  "a",
			Image: "img",
		},
		Stock: StockRule{Selector: "div[class^='oos-label']", SkipOutOfStock: true},
	},
	"thesource.ca": {
		ID:    "thesource.ca",
		Name:  "The Source",
		Pages: pagedURLs("https://www.thesource.ca/en-ca/search?q=amiibo&page=%d", 0, 1),
		Selectors: Selectors{
			Item:  "div.productListItem",
			Title: "div[class^='productMainLink'] span",
			Price: "div[class^='sale-price']",
			Link:  "a",
			Image: "img[class^='primary-image']",
		},
		Stock: StockRule{Selector: "button", InStockText: "Add to Cart"},
	},
}

func pagedURLs(format string, first, last int) []string {
	out := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, fmt.Sprintf(format, i))
	}
	return out
}

// Presets returns the ids of the built-in sources, sorted.
func Presets() []string {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Preset returns a copy of the built-in spec for id.
func Preset(id string) (Spec, bool) {
	spec, ok := presets[id]
	if !ok {
		return Spec{}, false
	}
	spec.Pages = slices.Clone(spec.Pages)
	return spec, true
}

// Registry builds Collectors from source specs.
type Registry struct {
	opts []HTMLOption
}

// NewRegistry returns a Registry whose collectors share opts.
func NewRegistry(opts ...HTMLOption) *Registry {
	return &Registry{opts: opts}
}

// Build returns a collector for spec. A spec carrying only an id is
// resolved against the presets; fields set on spec override the preset.
// An id with neither a preset nor an item selector yields ErrUnknownSource.
func (r *Registry) Build(spec Spec) (Collector, error) {
	merged := spec
	if base, ok := Preset(spec.ID); ok {
		merged = overlay(base, spec)
	} else if spec.Selectors.Item == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, spec.ID)
	}

	c, err := NewHTMLCollector(merged, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("building collector for %s: %w", spec.ID, err)
	}
	return c, nil
}

func overlay(base, over Spec) Spec {
	if over.Name != "" {
		base.Name = over.Name
	}
	if len(over.Pages) > 0 {
		base.Pages = over.Pages
	}
	if len(over.Params) > 0 {
		base.Params = over.Params
	}
	if over.Selectors.Item != "" {
		base.Selectors = over.Selectors
	}
	if over.Stock.Selector != "" {
		base.Stock = over.Stock
	}
	return base
}
