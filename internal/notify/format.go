package notify

import (
	"strings"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

const (
	botName      = "Amiibot"
	alertContent = "Stock alert"
	footerLayout = "2006-01-02 15:04:05"

	maxTitleLength = 256
)

// truncate shortens s to at most limit runes, ending in "...".
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}

// escapeSpaces makes image URLs with literal spaces usable by Discord.
func escapeSpaces(u string) string {
	return strings.ReplaceAll(u, " ", "%20")
}

// stockText is the label shown for an event's stock state.
func stockText(ev *domain.ChangeEvent) string {
	if ev.Listing.StockLabel != "" {
		return ev.Listing.StockLabel
	}
	switch ev.Kind {
	case domain.EventDelisted:
		return domain.StockDelisted
	case domain.EventUpdated:
		return domain.StockPriceChange
	default:
		return domain.StockInStock
	}
}
