package onlineticket

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	DBVendorID = "db"
	// DefaultDBEndpoint is the mobile order lookup service.
	DefaultDBEndpoint = "https://fahrkarten.bahn.de/mobile/dbc/xs.go?"
)

var kwidPattern = regexp.MustCompile(`kwid="([^"]*)"`)

// DBVendor talks to the Deutsche Bahn order lookup. 12-digit order numbers need a
// find-order round trip to obtain a kwid; 6-character booking codes are looked up directly.
type DBVendor struct {
	client
}

func NewDBVendor(endpoint string, timeout time.Duration, logger logrus.FieldLogger) *DBVendor {
	if endpoint == "" {
		endpoint = DefaultDBEndpoint
	}
	return &DBVendor{client: newClient(endpoint, timeout, logger)}
}

func (v *DBVendor) ID() string { return DBVendorID }

func (v *DBVendor) ValidateReference(ref string) bool {
	return isOrderNumber(ref) || matches(ref, "alphanum,len=6")
}

func isOrderNumber(ref string) bool {
	return matches(ref, "number,len=12")
}

func (v *DBVendor) Lookup(ctx context.Context, name, ref string) ([]domain.Reservation, error) {
	name = strings.TrimSpace(name)
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !CanSearch(v, name, ref) {
		return nil, domain.ImportError{Reason: domain.ImportInvalidReference, Msg: "invalid booking reference " + ref}
	}

	if !isOrderNumber(ref) {
		return v.orderDetails(ctx, name, ref, "")
	}

	reply, err := v.post(ctx, "application/xml", findOrderRequest(name, ref))
	if err != nil {
		return nil, err
	}
	kwids := findKwids(reply)
	if len(kwids) == 0 {
		return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: "order not found"}
	}
	v.logger.WithFields(logrus.Fields{"vendor": DBVendorID, "order": ref, "kwids": len(kwids)}).Debug("resolved order kwids")

	// an order split over several tickets has one kwid per ticket
	var (
		out     []domain.Reservation
		lastErr error
	)
	for _, kwid := range kwids {
		list, err := v.orderDetails(ctx, name, ref, kwid)
		if err != nil {
			if domain.ImportReasonOf(err) != domain.ImportNotFound {
				return nil, err
			}
			v.logger.WithError(err).WithField("kwid", kwid).Debug("order details not available")
			lastErr = err
			continue
		}
		out = append(out, list...)
	}
	if len(out) == 0 {
		return nil, lastErr
	}
	return out, nil
}

func (v *DBVendor) orderDetails(ctx context.Context, name, ref, kwid string) ([]domain.Reservation, error) {
	reply, err := v.post(ctx, "application/xml", orderDetailsRequest(name, ref, kwid))
	if err != nil {
		return nil, err
	}
	return decodeOrderDetails(reply, ref, name)
}

// findKwids returns the distinct non-empty kwids of a find-order reply, in reply order.
func findKwids(reply []byte) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range kwidPattern.FindAllSubmatch(reply, -1) {
		kwid := string(m[1])
		if kwid == "" || seen[kwid] {
			continue
		}
		seen[kwid] = true
		out = append(out, kwid)
	}
	return out
}

func findOrderRequest(name, ref string) []byte {
	return []byte(fmt.Sprintf(`<rqfindorder version="1.0"><rqheader v="23080000" os="KCI" app="NAVIGATOR"/><rqorder on="%s"/><authname tln="%s"/></rqfindorder>`,
		xmlEscape(ref), xmlEscape(name)))
}

func orderDetailsRequest(name, ref, kwid string) []byte {
	order := fmt.Sprintf(`<rqorder on="%s"/>`, xmlEscape(ref))
	if kwid != "" {
		order = fmt.Sprintf(`<rqorder on="%s" kwid="%s"/>`, xmlEscape(ref), xmlEscape(kwid))
	}
	return []byte(fmt.Sprintf(`<rqorderdetails version="1.0"><rqheader v="23040000" os="KCI" app="KCI-Webservice"/>%s<authname tln="%s"/></rqorderdetails>`,
		order, xmlEscape(name)))
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

type orderDetailsReply struct {
	XMLName xml.Name `xml:"rporderdetails"`
	Error   *struct {
		Code string `xml:"nr,attr"`
		Text string `xml:"txt,attr"`
	} `xml:"rperror"`
	Order struct {
		Number   string `xml:"on,attr"`
		Segments []struct {
			Train     string `xml:"zugnr,attr"`
			Departure struct {
				Name string `xml:"n,attr"`
				Time string `xml:"dt,attr"`
			} `xml:"dep"`
			Arrival struct {
				Name string `xml:"n,attr"`
				Time string `xml:"dt,attr"`
			} `xml:"arr"`
		} `xml:"schedulelist>out>trainlist>train"`
	} `xml:"order"`
}

func decodeOrderDetails(data []byte, ref, name string) ([]domain.Reservation, error) {
	var reply orderDetailsReply
	if err := xml.Unmarshal(data, &reply); err != nil {
		return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: "unexpected order details reply", Err: err}
	}
	if reply.Error != nil {
		return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: strings.TrimSpace(reply.Error.Code + " " + reply.Error.Text)}
	}

	var out []domain.Reservation
	for _, seg := range reply.Order.Segments {
		start, err := time.Parse(time.RFC3339, seg.Departure.Time)
		if err != nil {
			return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: "invalid departure time", Err: err}
		}
		end, _ := time.Parse(time.RFC3339, seg.Arrival.Time)
		out = append(out, domain.Reservation{
			Kind:              domain.KindTrain,
			ReservationNumber: ref,
			UnderName:         name,
			TripNumber:        seg.Train,
			Departure:         stationLocation(seg.Departure.Name),
			Arrival:           stationLocation(seg.Arrival.Name),
			Start:             start,
			End:               end,
		})
	}
	if len(out) == 0 {
		return nil, domain.ImportError{Reason: domain.ImportNotFound, Msg: "order has no journeys"}
	}
	return out, nil
}

// stationLocation derives the city from names like "Berlin Hbf".
func stationLocation(name string) domain.Location {
	name = strings.TrimSpace(name)
	city := name
	if i := strings.IndexAny(name, " (,"); i > 0 {
		city = name[:i]
	}
	return domain.Location{Name: name, City: city}
}
