package onlineticket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	SNCFVendorID        = "sncf"
	DefaultSNCFEndpoint = "https://www.sncf-connect.com/bff/api/v1/trips/trips-by-criteria"
)

type SNCFVendor struct {
	client
}

func NewSNCFVendor(endpoint string, timeout time.Duration, logger logrus.FieldLogger) *SNCFVendor {
	if endpoint == "" {
		endpoint = DefaultSNCFEndpoint
	}
	return &SNCFVendor{client: newClient(endpoint, timeout, logger)}
}

func (v *SNCFVendor) ID() string { return SNCFVendorID }

func (v *SNCFVendor) ValidateReference(ref string) bool {
	return matches(ref, "alphanum,len=6")
}

type sncfRequest struct {
	Reference string `json:"reference"`
	Name      string `json:"name"`
}

type sncfStop struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type sncfReply struct {
	Trips []struct {
		TrainNumber   string   `json:"trainNumber"`
		Origin        sncfStop `json:"origin"`
		Destination   sncfStop `json:"destination"`
		DepartureTime string   `json:"departureTime"`
		ArrivalTime   string   `json:"arrivalTime"`
	} `json:"trips"`
}

func (v *SNCFVendor) Lookup(ctx context.Context, name, ref string) ([]domain.Reservation, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !CanSearch(v, name, ref) {
		return nil, domain.ImportError{Reason: domain.ImportInvalidReference, Msg: "invalid booking reference " + ref}
	}

	body, err := json.Marshal(sncfRequest{Reference: ref, Name: name})
	if err != nil {
		return nil, err
	}
	data, err := v.post(ctx, "application/json", body)
	if err != nil {
		return nil, err
	}

	var reply sncfReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: "unexpected reply", Err: err}
	}

	var out []domain.Reservation
	for _, trip := range reply.Trips {
		start, err := time.Parse(time.RFC3339, trip.DepartureTime)
		if err != nil {
			return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: "invalid departure time", Err: err}
		}
		end, _ := time.Parse(time.RFC3339, trip.ArrivalTime)
		out = append(out, domain.Reservation{
			Kind:              domain.KindTrain,
			ReservationNumber: ref,
			UnderName:         name,
			TripNumber:        trip.TrainNumber,
			Departure:         domain.Location{Name: trip.Origin.Name, City: trip.Origin.City},
			Arrival:           domain.Location{Name: trip.Destination.Name, City: trip.Destination.City},
			Start:             start,
			End:               end,
		})
	}
	if len(out) == 0 {
		return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: "booking not found"}
	}
	v.logger.WithFields(logrus.Fields{"vendor": SNCFVendorID, "trips": len(out)}).Debug("booking found")
	return out, nil
}
