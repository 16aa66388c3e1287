// Package collector fetches listings from external retail sources. Every
// source is one Collector; the Registry maps source identifiers to
// constructors for the built-in HTML presets and custom selector specs.
package collector

import (
	"context"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// Collector returns the current listings of one source. Failures are
// reported through the error taxonomy in this package.
type Collector interface {
	Source() string
	Collect(ctx context.Context) ([]domain.Listing, error)
}

// Selectors are the CSS selectors used to pull one listing out of an item
// element. Title, Price, Link and Image are evaluated relative to Item.
type Selectors struct {
	Item  string `yaml:"item"`
	Title string `yaml:"title"`
	Price string `yaml:"price"`
	Link  string `yaml:"link"`
	Image string `yaml:"image"`
	// ImageAttr defaults to "src".
	ImageAttr string `yaml:"image_attr"`
}

// StockRule decides whether an item is in stock.
//
// With no Selector every item is in stock. Otherwise the trimmed text of
// the first match is compared: InStockText must equal it, or
// OutOfStockText must not. With neither text set, the presence of the
// element marks the item out of stock.
type StockRule struct {
	Selector       string `yaml:"selector"`
	InStockText    string `yaml:"in_stock_text"`
	OutOfStockText string `yaml:"out_of_stock_text"`
	// SkipOutOfStock drops out of stock items instead of reporting them.
	SkipOutOfStock bool `yaml:"skip_out_of_stock"`
}

// Spec describes how to scrape one source.
type Spec struct {
	ID    string
	Name  string
	Pages []string
	// Params are added to the query string of every page.
	Params    map[string]string
	Selectors Selectors
	Stock     StockRule
}
