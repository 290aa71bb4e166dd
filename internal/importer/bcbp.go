package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
)

const (
	bcbpHeaderSize = 23
	bcbpLegSize    = 35
)

// ParseBoardingPass decodes the mandatory items of an IATA BCBP (format M) barcode.
// ref anchors the year of the day-of-year flight dates.
func ParseBoardingPass(payload string, ref time.Time) ([]domain.Reservation, error) {
	payload = strings.TrimRight(payload, "\r\n")
	if len(payload) < bcbpHeaderSize+bcbpLegSize || payload[0] != 'M' {
		return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "not an IATA boarding pass"}
	}
	legs, err := strconv.Atoi(payload[1:2])
	if err != nil || legs < 1 || legs > 4 {
		return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "invalid leg count"}
	}
	passenger := passengerName(payload[2:22])

	var out []domain.Reservation
	pos := bcbpHeaderSize
	for i := 0; i < legs; i++ {
		if len(payload) < pos+bcbpLegSize+2 {
			return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: fmt.Sprintf("leg %d truncated", i+1)}
		}
		leg := payload[pos : pos+bcbpLegSize]
		res, err := parseLeg(leg, passenger, ref)
		if err != nil {
			return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: fmt.Sprintf("leg %d", i+1), Err: err}
		}
		out = append(out, res)

		varSize, err := strconv.ParseInt(payload[pos+bcbpLegSize:pos+bcbpLegSize+2], 16, 32)
		if err != nil {
			return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "invalid variable field size", Err: err}
		}
		pos += bcbpLegSize + 2 + int(varSize)
	}
	return out, nil
}

func parseLeg(leg, passenger string, ref time.Time) (domain.Reservation, error) {
	pnr := strings.TrimSpace(leg[0:7])
	from := strings.TrimSpace(leg[7:10])
	to := strings.TrimSpace(leg[10:13])
	carrier := strings.TrimSpace(leg[13:16])
	flight := strings.TrimLeft(strings.TrimSpace(leg[16:21]), "0")
	dayOfYear, err := strconv.Atoi(strings.TrimSpace(leg[21:24]))
	if err != nil || dayOfYear < 1 || dayOfYear > 366 {
		return domain.Reservation{}, fmt.Errorf("invalid flight date %q", leg[21:24])
	}
	if len(from) != 3 || len(to) != 3 {
		return domain.Reservation{}, fmt.Errorf("invalid airport codes %q/%q", from, to)
	}

	start := resolveDayOfYear(dayOfYear, ref)
	return domain.Reservation{
		Kind:              domain.KindFlight,
		ReservationNumber: pnr,
		UnderName:         passenger,
		TripNumber:        carrier + " " + flight,
		Departure:         domain.Location{Name: from, Code: from},
		Arrival:           domain.Location{Name: to, Code: to},
		Start:             start,
	}, nil
}

// passengerName turns "DOE/JOHN MR" into "JOHN MR DOE".
func passengerName(field string) string {
	field = strings.TrimSpace(field)
	last, first, ok := strings.Cut(field, "/")
	if !ok {
		return field
	}
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// resolveDayOfYear picks the year that puts the date closest to ref.
func resolveDayOfYear(day int, ref time.Time) time.Time {
	ref = ref.UTC()
	best := time.Time{}
	var bestDiff time.Duration
	for _, year := range []int{ref.Year() - 1, ref.Year(), ref.Year() + 1} {
		candidate := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
		if candidate.Year() != year {
			continue
		}
		diff := candidate.Sub(ref)
		if diff < 0 {
			diff = -diff
		}
		if best.IsZero() || diff < bestDiff {
			best, bestDiff = candidate, diff
		}
	}
	return best
}
