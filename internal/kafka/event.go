package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	ReservationAdded   EventType = "reservation_added"
	ReservationUpdated EventType = "reservation_updated"
	ReservationRemoved EventType = "reservation_removed"
	TripGroupAdded     EventType = "trip_group_added"
	TripGroupChanged   EventType = "trip_group_changed"
	TripGroupRemoved   EventType = "trip_group_removed"
	PassChanged        EventType = "pass_changed"
	PassRemoved        EventType = "pass_removed"
)

// Event is the payload published for every change to stored data.
type Event struct {
	Type       EventType         `json:"type"`
	EntityKind domain.EntityKind `json:"entity_kind"`
	EntityID   string            `json:"entity_id"`
	Name       string            `json:"name,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Notifies reports whether the event is also sent to the notifications topic.
func (e Event) Notifies() bool {
	return e.Type == ReservationAdded || e.Type == TripGroupAdded
}

func DecodeEvent(msg kafka.Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return Event{}, fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
	}
	return event, nil
}
