package domain

import "time"

type EntityKind string

const (
	EntityReservation EntityKind = "reservation"
	EntityTripGroup   EntityKind = "trip_group"
	EntityPass        EntityKind = "pass"
	EntityDocument    EntityKind = "document"
)

type DeletionState string

const (
	DeletionPending   DeletionState = "PENDING"
	DeletionCommitted DeletionState = "COMMITTED"
	DeletionCancelled DeletionState = "CANCELLED"
	DeletionExpired   DeletionState = "EXPIRED"
)

// DeletionRequest is the pending half of a two-step delete. Nothing is removed until it is committed.
type DeletionRequest struct {
	Token     string        `json:"token"`
	Kind      EntityKind    `json:"kind"`
	EntityID  string        `json:"entity_id"`
	State     DeletionState `json:"state"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Authorizes reports whether the request permits deleting the given entity.
func (r *DeletionRequest) Authorizes(kind EntityKind, id string) bool {
	return r != nil && r.State == DeletionCommitted && r.Kind == kind && r.EntityID == id
}
