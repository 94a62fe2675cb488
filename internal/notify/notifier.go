// Package notify delivers rendered report artifacts to external channels
// (Telegram, Discord). Delivery failures are collected and surfaced to the
// caller for logging; the notifier itself never retries and never takes the
// process down.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is the interface each notification channel must implement.
type Sender interface {
	// Send delivers a text message.
	Send(ctx context.Context, title, message string) error
	// SendPhoto delivers a PNG image with a caption.
	SendPhoto(ctx context.Context, image []byte, caption string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches report artifacts to one or more Senders.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. An
// empty sender list is valid; Deliver then becomes a no-op, which lets the
// watcher run without any channel configured.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// SenderCount returns the number of configured channels.
func (n *Notifier) SenderCount() int {
	return len(n.senders)
}

// Deliver sends the text and each image to every sender. Text and images are
// independent attempts: a failure in one never suppresses the others in the
// same cycle. All failures are logged and folded into the returned error;
// the caller decides whether the cycle counts as failed.
func (n *Notifier) Deliver(ctx context.Context, title, text string, images [][]byte, caption string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if text != "" {
			if err := s.Send(ctx, title, text); err != nil {
				n.logger.ErrorContext(ctx, "text delivery failed",
					slog.String("sender", s.Name()),
					slog.String("error", err.Error()),
				)
				errs = append(errs, fmt.Sprintf("%s text: %v", s.Name(), err))
			}
		}
		for i, img := range images {
			if len(img) == 0 {
				continue
			}
			if err := s.SendPhoto(ctx, img, caption); err != nil {
				n.logger.ErrorContext(ctx, "image delivery failed",
					slog.String("sender", s.Name()),
					slog.Int("image", i),
					slog.String("error", err.Error()),
				)
				errs = append(errs, fmt.Sprintf("%s image %d: %v", s.Name(), i, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d delivery failure(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Notice sends a short informational message (startup/shutdown) to all
// senders, ignoring failures beyond a log line.
func (n *Notifier) Notice(ctx context.Context, title, message string) {
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.WarnContext(ctx, "notice delivery failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}
