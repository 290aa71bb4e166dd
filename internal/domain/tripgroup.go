package domain

import (
	"sort"
	"time"
)

type TripGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Automatic bool      `json:"automatic"`
	Elements  []string  `json:"elements"`
	Begin     time.Time `json:"begin,omitempty"`
	End       time.Time `json:"end,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g TripGroup) Contains(reservationID string) bool {
	for _, id := range g.Elements {
		if id == reservationID {
			return true
		}
	}
	return false
}

// SortReservations orders reservations by start, then end, then id.
func SortReservations(list []Reservation) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Start.Equal(list[j].Start) {
			return list[i].Start.Before(list[j].Start)
		}
		if !list[i].EndTime().Equal(list[j].EndTime()) {
			return list[i].EndTime().Before(list[j].EndTime())
		}
		return list[i].ID < list[j].ID
	})
}

// SetMembers replaces the elements with the given reservations in chronological order and updates Begin/End.
func (g *TripGroup) SetMembers(members []Reservation) {
	sorted := make([]Reservation, len(members))
	copy(sorted, members)
	SortReservations(sorted)

	g.Elements = make([]string, 0, len(sorted))
	g.Begin, g.End = time.Time{}, time.Time{}
	for _, r := range sorted {
		g.Elements = append(g.Elements, r.ID)
		if g.Begin.IsZero() || r.Start.Before(g.Begin) {
			g.Begin = r.Start
		}
		if r.EndTime().After(g.End) {
			g.End = r.EndTime()
		}
	}
}
