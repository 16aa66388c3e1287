// Package notify defines the notification interface and the messenger
// implementations that deliver stock change events.
package notify

import (
	"context"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// Notifier delivers messages to one configured messenger.
type Notifier interface {
	// Name is the messenger name from configuration.
	Name() string
	// SendEvent delivers a rich stock change notification.
	SendEvent(ctx context.Context, ev domain.ChangeEvent) error
	// SendMessage delivers plain text.
	SendMessage(ctx context.Context, text string) error
}
