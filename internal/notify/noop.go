package notify

import (
	"context"
	"log/slog"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// NoOpNotifier implements Notifier by logging discarded messages. It
// stands in for real messengers on dry runs.
type NoOpNotifier struct {
	name string
	log  *slog.Logger
}

var _ Notifier = (*NoOpNotifier)(nil)

// NewNoOpNotifier creates a notifier that discards messages with a log line.
func NewNoOpNotifier(name string, log *slog.Logger) *NoOpNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &NoOpNotifier{name: name, log: log}
}

// Name returns the messenger name.
func (n *NoOpNotifier) Name() string {
	return n.name
}

// SendEvent logs and discards a change event.
func (n *NoOpNotifier) SendEvent(_ context.Context, ev domain.ChangeEvent) error {
	n.log.Debug("notification discarded (messenger inactive)",
		"messenger", n.name,
		"kind", ev.Kind,
		"url", ev.Listing.DetailURL,
	)
	return nil
}

// SendMessage logs and discards a text message.
func (n *NoOpNotifier) SendMessage(_ context.Context, text string) error {
	n.log.Debug("message discarded (messenger inactive)", "messenger", n.name, "text", text)
	return nil
}
