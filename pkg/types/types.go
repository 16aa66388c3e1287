// Package domain defines the core business types for amiibot.
package domain

import (
	"time"
)

// Stock labels produced by collectors and by reconciliation.
const (
	StockInStock     = "In stock"
	StockOutOfStock  = "Out of Stock"
	StockPriceChange = "Price change"
	StockDelisted    = "Delisted"
)

// Severity colors (24-bit RGB) attached to listings and events.
const (
	ColorInStock     = 0x00FF00
	ColorOutOfStock  = 0xFF0000
	ColorPriceChange = 0xFFFFFF
	ColorDelisted    = 0xFF0000
	ColorDefault     = 0x0000FF

	maxColor = 0xFFFFFF
)

// Listing is one product offer observed on a source during a single poll.
// DetailURL is the natural key within a source.
type Listing struct {
	SourceID      string `json:"source_id"`
	Title         string `json:"title"`
	Price         string `json:"price"`
	StockLabel    string `json:"stock_label"`
	DetailURL     string `json:"detail_url"`
	ImageURL      string `json:"image_url"`
	SeverityColor int    `json:"severity_color"`
}

// StockRecord is the persisted, currently-believed-true listing for a
// (source, detail_url) pair.
type StockRecord struct {
	ID         int64     `json:"id"           db:"id"`
	SourceID   string    `json:"source_id"    db:"source_id"`
	Title      string    `json:"title"        db:"title"`
	Price      string    `json:"price"        db:"price"`
	StockLabel string    `json:"stock_label"  db:"stock_label"`
	DetailURL  string    `json:"detail_url"   db:"detail_url"`
	ImageURL   string    `json:"image_url"    db:"image_url"`
	LastSeenAt time.Time `json:"last_seen_at" db:"last_seen_at"`
}

// Listing returns the record as a Listing snapshot with the given label and color.
func (r *StockRecord) Listing(label string, color int) Listing {
	return Listing{
		SourceID:      r.SourceID,
		Title:         r.Title,
		Price:         r.Price,
		StockLabel:    label,
		DetailURL:     r.DetailURL,
		ImageURL:      r.ImageURL,
		SeverityColor: color,
	}
}

// SourceSyncState records the last time a source was attempted, successful or not.
type SourceSyncState struct {
	SourceID      string    `json:"source_id"       db:"source_id"`
	LastAttemptAt time.Time `json:"last_attempt_at" db:"last_attempt_at"`
}

// FailureState tracks back-to-back failed or empty polls of a source.
type FailureState struct {
	SourceID            string     `json:"source_id"                 db:"source_id"`
	ConsecutiveFailures int        `json:"consecutive_failures"      db:"consecutive_failures"`
	LastFailureAt       time.Time  `json:"last_failure_at"           db:"last_failure_at"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty" db:"last_success_at"`
}

// EventKind classifies a ChangeEvent.
type EventKind string

// Event kinds.
const (
	EventNew      EventKind = "new"
	EventUpdated  EventKind = "updated"
	EventDelisted EventKind = "delisted"
)

// ChangeEvent is a notification-worthy transition found by reconciliation.
type ChangeEvent struct {
	Kind    EventKind `json:"kind"`
	Listing Listing   `json:"listing"`
	// PreviousPrice is set for EventUpdated only.
	PreviousPrice string `json:"previous_price,omitempty"`
}

// Stats is a summary of the persisted ledger used by the heartbeat and API.
type Stats struct {
	TotalListings  int `json:"total_listings"`
	TotalSources   int `json:"total_sources"`
	FailingSources int `json:"failing_sources"`
}

// SourceStatus joins the sync and failure state of one source.
type SourceStatus struct {
	SourceID            string     `json:"source_id"`
	Listings            int        `json:"listings"`
	LastAttemptAt       *time.Time `json:"last_attempt_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
}
