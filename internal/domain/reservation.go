package domain

import (
	"strings"
	"time"
)

type ReservationKind string

const (
	KindFlight     ReservationKind = "flight"
	KindTrain      ReservationKind = "train"
	KindBus        ReservationKind = "bus"
	KindLodging    ReservationKind = "lodging"
	KindEvent      ReservationKind = "event"
	KindRentalCar  ReservationKind = "rental_car"
	KindRestaurant ReservationKind = "restaurant"
)

// IsTransport reports whether reservations of this kind move the traveler between two places.
func (k ReservationKind) IsTransport() bool {
	switch k {
	case KindFlight, KindTrain, KindBus:
		return true
	}
	return false
}

type Location struct {
	Name    string `json:"name,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (l Location) IsZero() bool {
	return l.Name == "" && l.City == "" && l.Country == "" && l.Code == ""
}

// DisplayName prefers the city over the place name.
func (l Location) DisplayName() string {
	if l.City != "" {
		return l.City
	}
	if l.Name != "" {
		return l.Name
	}
	return l.Code
}

// SameCity compares two locations at city level.
func (l Location) SameCity(other Location) bool {
	if l.IsZero() || other.IsZero() {
		return false
	}
	if l.City != "" && other.City != "" {
		return strings.EqualFold(strings.TrimSpace(l.City), strings.TrimSpace(other.City))
	}
	if l.Code != "" && other.Code != "" {
		return strings.EqualFold(l.Code, other.Code)
	}
	return strings.EqualFold(strings.TrimSpace(l.Name), strings.TrimSpace(other.Name))
}

type Reservation struct {
	ID                string          `json:"id"`
	Kind              ReservationKind `json:"kind"`
	Name              string          `json:"name,omitempty"`
	ReservationNumber string          `json:"reservation_number,omitempty"`
	UnderName         string          `json:"under_name,omitempty"`
	TripNumber        string          `json:"trip_number,omitempty"`
	Departure         Location        `json:"departure,omitempty"`
	Arrival           Location        `json:"arrival,omitempty"`
	Location          Location        `json:"location,omitempty"`
	Start             time.Time       `json:"start"`
	End               time.Time       `json:"end,omitempty"`
	DocumentIDs       []string        `json:"document_ids,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (r Reservation) DepartureLocation() Location {
	if r.Kind.IsTransport() {
		return r.Departure
	}
	return r.Location
}

func (r Reservation) ArrivalLocation() Location {
	if r.Kind.IsTransport() {
		return r.Arrival
	}
	return r.Location
}

// EndTime falls back to Start for reservations without an end.
func (r Reservation) EndTime() time.Time {
	if r.End.IsZero() {
		return r.Start
	}
	return r.End
}

// IsLocationChange reports whether the reservation ends in a different city than it starts.
func (r Reservation) IsLocationChange() bool {
	if !r.Kind.IsTransport() {
		return false
	}
	return !r.Departure.SameCity(r.Arrival)
}

// SameTrip reports whether both reservations are for the same journey, possibly for different travelers.
func (r Reservation) SameTrip(other Reservation) bool {
	if r.Kind != other.Kind {
		return false
	}
	if !r.Start.Equal(other.Start) {
		return false
	}
	if r.Kind.IsTransport() {
		return strings.EqualFold(r.TripNumber, other.TripNumber) &&
			r.Departure.SameCity(other.Departure) &&
			r.Arrival.SameCity(other.Arrival)
	}
	return strings.EqualFold(r.Name, other.Name) && r.Location.SameCity(other.Location)
}

// IsSame reports whether other describes the same reservation, so that importing it again updates r.
func (r Reservation) IsSame(other Reservation) bool {
	if !r.SameTrip(other) {
		return false
	}
	if r.ReservationNumber != "" && other.ReservationNumber != "" && !strings.EqualFold(r.ReservationNumber, other.ReservationNumber) {
		return false
	}
	if r.UnderName != "" && other.UnderName != "" && !strings.EqualFold(r.UnderName, other.UnderName) {
		return false
	}
	return true
}

// MergeFrom fills r with the non-empty values of other, keeping identity and documents.
func (r *Reservation) MergeFrom(other Reservation) {
	if other.Name != "" {
		r.Name = other.Name
	}
	if other.ReservationNumber != "" {
		r.ReservationNumber = other.ReservationNumber
	}
	if other.UnderName != "" {
		r.UnderName = other.UnderName
	}
	if other.TripNumber != "" {
		r.TripNumber = other.TripNumber
	}
	if !other.Departure.IsZero() {
		r.Departure = other.Departure
	}
	if !other.Arrival.IsZero() {
		r.Arrival = other.Arrival
	}
	if !other.Location.IsZero() {
		r.Location = other.Location
	}
	if !other.End.IsZero() {
		r.End = other.End
	}
}

// Title is the human readable label used for naming and notifications.
func (r Reservation) Title() string {
	if r.Kind.IsTransport() {
		return r.Departure.DisplayName() + " - " + r.Arrival.DisplayName()
	}
	if r.Name != "" {
		return r.Name
	}
	return r.Location.DisplayName()
}
