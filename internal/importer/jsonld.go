package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
)

// Result is everything extracted from one import source.
type Result struct {
	TripName     string
	Reservations []domain.Reservation
	Passes       []domain.Pass
}

type bundle struct {
	TripGroup *struct {
		Name string `json:"name"`
	} `json:"tripGroup"`
	Elements []json.RawMessage `json:"elements"`
}

type node struct {
	Type string `json:"@type"`
	Name string `json:"name"`

	ReservationNumber string          `json:"reservationNumber"`
	UnderName         json.RawMessage `json:"underName"`
	ReservationFor    *node           `json:"reservationFor"`

	// trips
	FlightNumber     string          `json:"flightNumber"`
	TrainNumber      string          `json:"trainNumber"`
	BusNumber        string          `json:"busNumber"`
	Airline          *node           `json:"airline"`
	IataCode         string          `json:"iataCode"`
	DepartureAirport *node           `json:"departureAirport"`
	ArrivalAirport   *node           `json:"arrivalAirport"`
	DepartureStation *node           `json:"departureStation"`
	ArrivalStation   *node           `json:"arrivalStation"`
	DepartureBusStop *node           `json:"departureBusStop"`
	ArrivalBusStop   *node           `json:"arrivalBusStop"`
	DepartureTime    json.RawMessage `json:"departureTime"`
	ArrivalTime      json.RawMessage `json:"arrivalTime"`

	// places
	Address  json.RawMessage `json:"address"`
	Location *node           `json:"location"`

	// stationary reservations
	CheckinTime     json.RawMessage `json:"checkinTime"`
	CheckoutTime    json.RawMessage `json:"checkoutTime"`
	StartDate       json.RawMessage `json:"startDate"`
	EndDate         json.RawMessage `json:"endDate"`
	StartTime       json.RawMessage `json:"startTime"`
	EndTime         json.RawMessage `json:"endTime"`
	PickupTime      json.RawMessage `json:"pickupTime"`
	DropoffTime     json.RawMessage `json:"dropoffTime"`
	PickupLocation  *node           `json:"pickupLocation"`
	DropoffLocation *node           `json:"dropoffLocation"`

	// memberships
	ProgramName      string          `json:"programName"`
	Member           json.RawMessage `json:"member"`
	MembershipNumber string          `json:"membershipNumber"`
	ValidFrom        json.RawMessage `json:"validFrom"`
	ValidUntil       json.RawMessage `json:"validUntil"`
}

type address struct {
	AddressLocality string          `json:"addressLocality"`
	AddressCountry  json.RawMessage `json:"addressCountry"`
}

// ParseJSON reads an itinerary document: a single element, an array of elements
// or an export bundle carrying trip metadata.
func ParseJSON(data []byte) (*Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "empty document"}
	}

	var raw []json.RawMessage
	result := &Result{}

	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Err: err}
		}
	case '{':
		var b bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Err: err}
		}
		if b.Elements != nil || b.TripGroup != nil {
			raw = b.Elements
			if b.TripGroup != nil {
				result.TripName = strings.TrimSpace(b.TripGroup.Name)
			}
		} else {
			raw = []json.RawMessage{data}
		}
	default:
		return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "not a JSON document"}
	}

	for i, elem := range raw {
		var n node
		if err := json.Unmarshal(elem, &n); err != nil {
			return nil, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: fmt.Sprintf("element %d", i), Err: err}
		}
		if err := result.add(n); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *Result) add(n node) error {
	switch n.Type {
	case "ProgramMembership":
		p, err := toPass(n)
		if err != nil {
			return err
		}
		r.Passes = append(r.Passes, p)
		return nil
	case "FlightReservation", "TrainReservation", "BusReservation", "LodgingReservation",
		"EventReservation", "RentalCarReservation", "FoodEstablishmentReservation":
		res, err := toReservation(n)
		if err != nil {
			return err
		}
		r.Reservations = append(r.Reservations, res)
		return nil
	default:
		// unknown types are ignored, like any other unrecognized content
		return nil
	}
}

func toReservation(n node) (domain.Reservation, error) {
	res := domain.Reservation{
		ReservationNumber: n.ReservationNumber,
		UnderName:         personName(n.UnderName),
	}
	f := n.ReservationFor
	if f == nil {
		f = &node{}
	}

	var err error
	switch n.Type {
	case "FlightReservation":
		res.Kind = domain.KindFlight
		res.TripNumber = f.FlightNumber
		if f.Airline != nil && f.Airline.IataCode != "" {
			res.TripNumber = f.Airline.IataCode + " " + f.FlightNumber
		}
		res.Departure = toLocation(f.DepartureAirport)
		res.Arrival = toLocation(f.ArrivalAirport)
		res.Start, err = parseTime(f.DepartureTime)
		if err == nil {
			res.End, err = parseTime(f.ArrivalTime)
		}
	case "TrainReservation":
		res.Kind = domain.KindTrain
		res.TripNumber = f.TrainNumber
		res.Departure = toLocation(f.DepartureStation)
		res.Arrival = toLocation(f.ArrivalStation)
		res.Start, err = parseTime(f.DepartureTime)
		if err == nil {
			res.End, err = parseTime(f.ArrivalTime)
		}
	case "BusReservation":
		res.Kind = domain.KindBus
		res.TripNumber = f.BusNumber
		res.Departure = toLocation(f.DepartureBusStop)
		res.Arrival = toLocation(f.ArrivalBusStop)
		res.Start, err = parseTime(f.DepartureTime)
		if err == nil {
			res.End, err = parseTime(f.ArrivalTime)
		}
	case "LodgingReservation":
		res.Kind = domain.KindLodging
		res.Name = f.Name
		res.Location = toLocation(f)
		res.Start, err = parseTime(n.CheckinTime)
		if err == nil {
			res.End, err = parseTime(n.CheckoutTime)
		}
	case "EventReservation":
		res.Kind = domain.KindEvent
		res.Name = f.Name
		res.Location = toLocation(f.Location)
		res.Start, err = parseTime(f.StartDate)
		if err == nil {
			res.End, err = parseTime(f.EndDate)
		}
	case "RentalCarReservation":
		res.Kind = domain.KindRentalCar
		res.Name = f.Name
		res.Location = toLocation(n.PickupLocation)
		res.Start, err = parseTime(n.PickupTime)
		if err == nil {
			res.End, err = parseTime(n.DropoffTime)
		}
	case "FoodEstablishmentReservation":
		res.Kind = domain.KindRestaurant
		res.Name = f.Name
		res.Location = toLocation(f)
		res.Start, err = parseTime(n.StartTime)
		if err == nil {
			res.End, err = parseTime(n.EndTime)
		}
	}
	if err != nil {
		return domain.Reservation{}, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: n.Type, Err: err}
	}
	if res.Start.IsZero() {
		return domain.Reservation{}, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: n.Type + " without start time"}
	}
	return res, nil
}

func toPass(n node) (domain.Pass, error) {
	p := domain.Pass{
		Type:         domain.PassProgramMembership,
		Name:         n.ProgramName,
		MemberName:   personName(n.Member),
		MemberNumber: n.MembershipNumber,
	}
	if p.Name == "" {
		p.Name = n.Name
	}
	from, err := parseTime(n.ValidFrom)
	if err != nil {
		return domain.Pass{}, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "validFrom", Err: err}
	}
	until, err := parseTime(n.ValidUntil)
	if err != nil {
		return domain.Pass{}, domain.ImportError{Reason: domain.ImportInvalidDocument, Msg: "validUntil", Err: err}
	}
	if !from.IsZero() {
		p.ValidFrom = &from
	}
	if !until.IsZero() {
		p.ValidUntil = &until
	}
	return p, nil
}

func toLocation(n *node) domain.Location {
	if n == nil {
		return domain.Location{}
	}
	loc := domain.Location{Name: n.Name, Code: n.IataCode}
	if len(n.Address) == 0 {
		return loc
	}
	var text string
	if err := json.Unmarshal(n.Address, &text); err == nil {
		loc.City = text
		return loc
	}
	var addr address
	if err := json.Unmarshal(n.Address, &addr); err == nil {
		loc.City = addr.AddressLocality
		loc.Country = nameOf(addr.AddressCountry)
	}
	return loc
}

// personName accepts either a plain string or a Person object.
func personName(raw json.RawMessage) string {
	return nameOf(raw)
}

func nameOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj struct {
		Name       string `json:"name"`
		GivenName  string `json:"givenName"`
		FamilyName string `json:"familyName"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.Name != "" {
		return obj.Name
	}
	return strings.TrimSpace(obj.GivenName + " " + obj.FamilyName)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime reads an ISO 8601 string or a {"@value": ..., "timezone": ...} object.
func parseTime(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var value, zone string
	if err := json.Unmarshal(raw, &value); err != nil {
		var qualified struct {
			Value    string `json:"@value"`
			Timezone string `json:"timezone"`
		}
		if err := json.Unmarshal(raw, &qualified); err != nil {
			return time.Time{}, fmt.Errorf("unsupported time value %s", string(raw))
		}
		value, zone = qualified.Value, qualified.Timezone
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	loc := time.UTC
	if zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", value)
}
