package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ecoppen/amiibot/internal/store"
)

// FormatUptime renders d as "1d 2h 30m 45s", omitting leading zero units.
// Seconds are always present.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))
	return strings.Join(parts, " ")
}

// TrackingMessage is the startup announcement for the given sources.
func TrackingMessage(sources []string) string {
	return fmt.Sprintf("Now tracking %d sites: %s", len(sources), strings.Join(sources, ", "))
}

// HeartbeatMessage builds the periodic status message from ledger stats.
func HeartbeatMessage(ctx context.Context, s store.Store, started, now time.Time) (string, error) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		return "", fmt.Errorf("getting stats: %w", err)
	}
	return fmt.Sprintf("Amiibot heartbeat: %d listings across %d sources, %d failing, uptime %s",
		stats.TotalListings,
		stats.TotalSources,
		stats.FailingSources,
		FormatUptime(now.Sub(started)),
	), nil
}
