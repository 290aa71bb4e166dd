// Package onlineticket looks up bookings at railway vendors by traveler name and booking reference.
package onlineticket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Vendor is one online ticket source. Each vendor owns its reference format.
type Vendor interface {
	ID() string
	ValidateReference(ref string) bool
	Lookup(ctx context.Context, name, ref string) ([]domain.Reservation, error)
}

// CanSearch is true iff the name is filled in and the vendor accepts the reference.
func CanSearch(v Vendor, name, ref string) bool {
	if v == nil || strings.TrimSpace(name) == "" {
		return false
	}
	return v.ValidateReference(strings.TrimSpace(ref))
}

type Registry struct {
	vendors map[string]Vendor
	order   []string
}

func NewRegistry(vendors ...Vendor) *Registry {
	r := &Registry{vendors: make(map[string]Vendor, len(vendors))}
	for _, v := range vendors {
		r.vendors[v.ID()] = v
		r.order = append(r.order, v.ID())
	}
	return r
}

func (r *Registry) Get(id string) (Vendor, bool) {
	v, ok := r.vendors[id]
	return v, ok
}

func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

var validate = validator.New()

func matches(value, rule string) bool {
	return value != "" && validate.Var(value, rule) == nil
}

// client carries the HTTP plumbing shared by vendors.
type client struct {
	endpoint string
	http     *http.Client
	logger   logrus.FieldLogger
}

func newClient(endpoint string, timeout time.Duration, logger logrus.FieldLogger) client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (c client) post(ctx context.Context, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.ImportError{Reason: domain.ImportNetworkError, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.ImportError{Reason: domain.ImportNetworkError, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ImportError{Reason: domain.ImportNetworkError, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.ImportError{Reason: domain.ImportNetworkError, Msg: fmt.Sprintf("vendor returned status %d", resp.StatusCode)}
	}
	return data, nil
}
