// Package grouping detects trips in a chronological list of reservations.
package grouping

import (
	"fmt"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/google/uuid"
)

const (
	// MaximumTripDuration in days.
	MaximumTripDuration = 20
	MaximumTripElements = 20
	MinimumTripElements = 2
)

// Proposal is a detected trip. GroupID is an existing automatic group when Created is false.
type Proposal struct {
	GroupID  string
	Created  bool
	Name     string
	Elements []string
}

type resNum struct {
	kind domain.ReservationKind
	num  string
}

type Engine struct {
	reservations []domain.Reservation
	membership   map[string]string
	newID        func() string
}

type Option func(*Engine)

func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

// NewEngine takes the reservations eligible for automatic grouping and their current automatic group membership.
func NewEngine(reservations []domain.Reservation, membership map[string]string, opts ...Option) *Engine {
	sorted := make([]domain.Reservation, len(reservations))
	copy(sorted, reservations)
	domain.SortReservations(sorted)

	m := make(map[string]string, len(membership))
	for k, v := range membership {
		m[k] = v
	}

	e := &Engine{reservations: sorted, membership: m, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Membership returns the reservation to group assignment after scanning.
func (e *Engine) Membership() map[string]string {
	return e.membership
}

func (e *Engine) ScanAll() []Proposal {
	var proposals []Proposal
	prevGroup := ""
	for i, res := range e.reservations {
		groupID, grouped := e.membership[res.ID]
		if grouped && groupID == prevGroup {
			// inside a group found earlier
			continue
		}
		prevGroup = groupID

		if !res.IsLocationChange() {
			continue
		}
		if p := e.scanOne(i); p != nil {
			proposals = append(proposals, *p)
			prevGroup = p.GroupID
		}
	}
	return proposals
}

func (e *Engine) scanOne(begin int) *Proposal {
	beginRes := e.reservations[begin]
	beginDeparture := beginRes.DepartureLocation()
	groupID := e.membership[beginRes.ID]

	numbers := []resNum{{kind: beginRes.Kind, num: beginRes.ReservationNumber}}

	res := beginRes
	resNumIdx, connectedIdx := -1, -1
	resNumDone, connectedDone := false, false

	for i := begin + 1; i < len(e.reservations); i++ {
		prevRes := res
		cur := e.reservations[i]
		if !cur.IsLocationChange() {
			continue
		}
		res = cur

		// another traveler on the same trip
		if prevRes.SameTrip(cur) {
			if connectedIdx == i-1 {
				connectedIdx++
			}
			if resNumIdx == i-1 {
				resNumIdx++
			}
			continue
		}

		if resNumDone && connectedDone {
			break
		}
		if i-begin > MaximumTripElements {
			break
		}
		if daysBetween(beginRes.Start, cur.EndTime()) > MaximumTripDuration {
			break
		}

		if !connectedDone {
			if !prevRes.ArrivalLocation().SameCity(cur.DepartureLocation()) {
				connectedIdx = -1
				connectedDone = true
			} else {
				connectedIdx = i
			}
			// back where we started
			if beginDeparture.SameCity(cur.ArrivalLocation()) {
				connectedDone = true
			}
		}

		if !resNumDone {
			found := -1
			for j, n := range numbers {
				if n.kind == cur.Kind {
					found = j
					break
				}
			}
			if found < 0 {
				// a change of transport mode only continues the trip while connectivity agrees
				if !connectedDone {
					numbers = append(numbers, resNum{kind: cur.Kind, num: cur.ReservationNumber})
				}
			} else if cur.ReservationNumber != "" && numbers[found].num == cur.ReservationNumber {
				resNumIdx = i
			} else {
				resNumDone = true
			}
		}
	}

	if !connectedDone {
		connectedIdx = -1
	}
	end := connectedIdx
	if resNumIdx > end {
		end = resNumIdx
	}
	if end < 0 || end-begin < MinimumTripElements {
		return nil
	}
	if groupID != "" && e.membership[e.reservations[end].ID] == groupID {
		return nil
	}

	members := e.reservations[begin : end+1]
	p := &Proposal{GroupID: groupID, Name: GuessName(members)}
	if p.GroupID == "" {
		p.GroupID = e.newID()
		p.Created = true
	}
	for _, r := range members {
		p.Elements = append(p.Elements, r.ID)
		e.membership[r.ID] = p.GroupID
	}
	return p
}

// GuessName derives "Destination (Month Year)" from chronologically ordered members.
func GuessName(members []domain.Reservation) string {
	if len(members) == 0 {
		return ""
	}
	first, last := members[0], members[len(members)-1]

	var dest string
	beginLoc := first.DepartureLocation()
	endLoc := last.ArrivalLocation()
	if beginLoc.SameCity(endLoc) {
		middle := members[(len(members)-1+len(members)%2)/2]
		if middle.IsLocationChange() {
			dest = middle.ArrivalLocation().DisplayName()
		} else {
			dest = middle.Location.DisplayName()
		}
	} else {
		dest = endLoc.DisplayName()
	}

	begin := first.Start
	end := last.EndTime()
	if begin.Year() == end.Year() {
		if begin.Month() == end.Month() {
			return fmt.Sprintf("%s (%s %d)", dest, begin.Month(), begin.Year())
		}
		return fmt.Sprintf("%s (%s/%s %d)", dest, begin.Month(), end.Month(), begin.Year())
	}
	return fmt.Sprintf("%s (%d/%d)", dest, begin.Year(), end.Year())
}

// daysBetween counts calendar days from a to b in a's time zone.
func daysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
