package domain

import "time"

type CandidateKind string

const (
	CandidateReservation CandidateKind = "reservation"
	CandidatePass        CandidateKind = "pass"
)

// Candidate is an imported element waiting for the user to accept it.
type Candidate struct {
	ID          string        `json:"id"`
	Kind        CandidateKind `json:"kind"`
	Reservation *Reservation  `json:"reservation,omitempty"`
	Pass        *Pass         `json:"pass,omitempty"`
	// Travelers lists every traveler of a batched multi-traveler reservation.
	Travelers []string `json:"travelers,omitempty"`
	Selected  bool     `json:"selected"`
}

// ImportSession holds staged candidates between import and commit.
type ImportSession struct {
	ID            string      `json:"id"`
	Source        string      `json:"source"`
	TripName      string      `json:"trip_name,omitempty"`
	TargetGroupID string      `json:"target_group_id,omitempty"`
	Candidates    []Candidate `json:"candidates"`
	CreatedAt     time.Time   `json:"created_at"`
	ExpiresAt     time.Time   `json:"expires_at"`
}

func (s ImportSession) HasSelection() bool {
	for _, c := range s.Candidates {
		if c.Selected {
			return true
		}
	}
	return false
}

func (s ImportSession) Selected() []Candidate {
	var out []Candidate
	for _, c := range s.Candidates {
		if c.Selected {
			out = append(out, c)
		}
	}
	return out
}

// CanAutoCommit is true when every staged candidate is selected.
func (s ImportSession) CanAutoCommit() bool {
	if len(s.Candidates) == 0 {
		return false
	}
	for _, c := range s.Candidates {
		if !c.Selected {
			return false
		}
	}
	return true
}

// Selection returns the time range covered by the selected reservations.
func (s ImportSession) Selection() (begin, end time.Time) {
	for _, c := range s.Candidates {
		if !c.Selected || c.Reservation == nil {
			continue
		}
		if begin.IsZero() || c.Reservation.Start.Before(begin) {
			begin = c.Reservation.Start
		}
		if c.Reservation.EndTime().After(end) {
			end = c.Reservation.EndTime()
		}
	}
	return begin, end
}
