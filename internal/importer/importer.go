// Package importer turns itinerary documents and boarding pass barcodes into import candidates.
package importer

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/google/uuid"
)

// Parse detects the content type of data and extracts its elements.
func Parse(data []byte, fileName string, ref time.Time) (*Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "empty document"}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case ext == ".json" || ext == ".jsonld" || trimmed[0] == '{' || trimmed[0] == '[':
		return ParseJSON(trimmed)
	case trimmed[0] == 'M' && len(trimmed) >= bcbpHeaderSize+bcbpLegSize:
		reservations, err := ParseBoardingPass(string(trimmed), ref)
		if err != nil {
			return nil, err
		}
		return &Result{Reservations: reservations}, nil
	}
	return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "unsupported document " + fileName}
}

// Candidates stages the result: reservations first in chronological order, then passes.
// Reservations of several travelers on the same trip are batched into one candidate.
func Candidates(res *Result) ([]domain.Candidate, error) {
	if res == nil || (len(res.Reservations) == 0 && len(res.Passes) == 0) {
		return nil, domain.ImportError{Reason: domain.ImportNoCandidatesFound}
	}

	reservations := make([]domain.Reservation, len(res.Reservations))
	copy(reservations, res.Reservations)
	domain.SortReservations(reservations)

	var out []domain.Candidate
	for i := range reservations {
		r := reservations[i]
		if n := len(out); n > 0 && out[n-1].Reservation != nil && out[n-1].Reservation.SameTrip(r) &&
			!strings.EqualFold(out[n-1].Reservation.UnderName, r.UnderName) {
			out[n-1].Travelers = appendTraveler(out[n-1].Travelers, r.UnderName)
			continue
		}
		out = append(out, domain.Candidate{
			ID:          uuid.NewString(),
			Kind:        domain.CandidateReservation,
			Reservation: &r,
			Travelers:   appendTraveler(nil, r.UnderName),
			Selected:    true,
		})
	}
	for i := range res.Passes {
		p := res.Passes[i]
		out = append(out, domain.Candidate{
			ID:       uuid.NewString(),
			Kind:     domain.CandidatePass,
			Pass:     &p,
			Selected: true,
		})
	}
	return out, nil
}

// Expand returns one reservation per traveler of a batched candidate.
func Expand(c domain.Candidate) []domain.Reservation {
	if c.Reservation == nil {
		return nil
	}
	if len(c.Travelers) <= 1 {
		return []domain.Reservation{*c.Reservation}
	}
	out := make([]domain.Reservation, 0, len(c.Travelers))
	for _, traveler := range c.Travelers {
		r := *c.Reservation
		r.UnderName = traveler
		out = append(out, r)
	}
	return out
}

func appendTraveler(list []string, name string) []string {
	if name == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, name) {
			return list
		}
	}
	return append(list, name)
}
