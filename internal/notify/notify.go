// Package notify turns change events into user notifications.
package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/Domenick1991/itinerary/internal/settings"
	"github.com/sirupsen/logrus"
)

type Preferences interface {
	Bool(ctx context.Context, key settings.Key) (bool, error)
}

// Notifier writes a notification for every event that carries one.
type Notifier struct {
	prefs  Preferences
	logger logrus.FieldLogger
}

func NewNotifier(prefs Preferences, logger logrus.FieldLogger) *Notifier {
	return &Notifier{prefs: prefs, logger: logger}
}

func (n *Notifier) Send(ctx context.Context, event kafka.Event) error {
	if !event.Notifies() {
		return nil
	}

	lockScreen := false
	if n.prefs != nil {
		var err error
		if lockScreen, err = n.prefs.Bool(ctx, settings.ShowNotificationOnLockScreen); err != nil {
			return fmt.Errorf("read notification preference: %w", err)
		}
	}

	n.logger.WithFields(logrus.Fields{
		"event":       event.Type,
		"entity_kind": event.EntityKind,
		"entity_id":   event.EntityID,
		"lock_screen": lockScreen,
	}).Info(Message(event))
	return nil
}

// Message is the text shown to the user for event.
func Message(event kafka.Event) string {
	name := event.Name
	if name == "" {
		name = event.EntityID
	}
	switch event.Type {
	case kafka.ReservationAdded:
		return fmt.Sprintf("New reservation: %s", name)
	case kafka.TripGroupAdded:
		return fmt.Sprintf("New trip: %s", name)
	default:
		return fmt.Sprintf("%s: %s", event.Type, name)
	}
}
