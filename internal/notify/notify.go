package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

// Notifier delivers prayer alerts. Delivery is fire-and-forget for the
// scheduler: errors are logged, never retried.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, alert model.Alert) error

func (f NotifierFunc) Notify(ctx context.Context, alert model.Alert) error { return f(ctx, alert) }

// LogNotifier writes alerts to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, alert model.Alert) error {
	log.Info().
		Str("alert_id", alert.ID).
		Str("prayer", string(alert.Prayer)).
		Time("at", alert.At).
		Dur("remaining", alert.Remaining).
		Bool("sound", alert.Sound).
		Bool("vibrate", alert.Vibrate).
		Msg(alert.Title)
	return nil
}

// Multi sends every alert to all notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alert model.Alert) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
