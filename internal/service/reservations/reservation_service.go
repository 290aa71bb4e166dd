package reservations

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/events"
	"github.com/Domenick1991/itinerary/internal/form"
	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/Domenick1991/itinerary/internal/repository"
	"github.com/Domenick1991/itinerary/internal/service/documents"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ReservationUseCase interface {
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	List(ctx context.Context) ([]domain.Reservation, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.Reservation, error)
	EditField(ctx context.Context, id, field, value string) (*domain.Reservation, error)
	AddDocument(ctx context.Context, id, name string, data []byte) (*domain.Document, error)
	Documents(ctx context.Context, id string) (documents.List, error)
	Upsert(ctx context.Context, r domain.Reservation) (*domain.Reservation, bool, error)
	DeleteReservation(ctx context.Context, req *domain.DeletionRequest) error
	DeleteDocument(ctx context.Context, req *domain.DeletionRequest) error
	RemoveAll(ctx context.Context, ids []string) error
}

// GroupTracker is told about reservations that left the store or moved in time so it can fix group membership.
type GroupTracker interface {
	ReservationRemoved(ctx context.Context, reservationID string) error
	ReservationChanged(ctx context.Context, reservationID string) error
}

// EditableFields lists the fields accepted by EditField.
var EditableFields = []string{"name", "reservation_number", "under_name", "start", "end"}

type ReservationService struct {
	reservations repository.ReservationRepository
	groups       repository.TripGroupRepository
	documents    documents.DocumentUseCase
	forms        *form.Validator
	events       *events.Publisher
	tracker      GroupTracker
	logger       logrus.FieldLogger
	mu           sync.Mutex
}

type ReservationServiceOption func(*ReservationService)

func WithPublisher(p *events.Publisher) ReservationServiceOption {
	return func(s *ReservationService) {
		s.events = p
	}
}

func NewReservationService(
	reservations repository.ReservationRepository,
	groups repository.TripGroupRepository,
	docs documents.DocumentUseCase,
	logger logrus.FieldLogger,
	opts ...ReservationServiceOption,
) *ReservationService {
	s := &ReservationService{
		reservations: reservations,
		groups:       groups,
		documents:    docs,
		forms:        form.New(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetGroupTracker wires the trip service after both services exist.
func (s *ReservationService) SetGroupTracker(t GroupTracker) {
	s.tracker = t
}

func (s *ReservationService) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

func (s *ReservationService) List(ctx context.Context) ([]domain.Reservation, error) {
	list, err := s.reservations.List(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortReservations(list)
	return list, nil
}

func (s *ReservationService) ListByGroup(ctx context.Context, groupID string) ([]domain.Reservation, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(g.Elements) == 0 {
		return []domain.Reservation{}, nil
	}
	return s.reservations.ListByIDs(ctx, g.Elements)
}

func (s *ReservationService) EditField(ctx context.Context, id, field, value string) (*domain.Reservation, error) {
	s.mu.Lock()
	r, err := s.editField(ctx, id, field, strings.TrimSpace(value))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// a moved reservation may change its group's order and span
	if (field == "start" || field == "end") && s.tracker != nil {
		if err := s.tracker.ReservationChanged(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (s *ReservationService) editField(ctx context.Context, id, field, value string) (*domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	values := map[string]string{
		"name":  r.Name,
		"start": r.Start.Format(form.DateTimeLayout),
	}
	if !r.End.IsZero() {
		values["end"] = r.End.Format(form.DateTimeLayout)
	}
	switch field {
	case "name", "reservation_number", "under_name", "start", "end":
		values[field] = value
	default:
		return nil, domain.ValidationError{Field: field, Msg: "field is not editable"}
	}
	if err := s.forms.Require("reservation", values); err != nil {
		return nil, err
	}
	// events keep the rules of the form they were created with
	if r.Kind == domain.KindEvent {
		if err := s.forms.Require("event", values); err != nil {
			return nil, err
		}
	}

	switch field {
	case "name":
		r.Name = value
	case "reservation_number":
		r.ReservationNumber = value
	case "under_name":
		r.UnderName = value
	case "start":
		r.Start, _ = time.Parse(form.DateTimeLayout, value)
	case "end":
		r.End = time.Time{}
		if value != "" {
			r.End, _ = time.Parse(form.DateTimeLayout, value)
		}
	}

	if err := s.reservations.Update(ctx, r); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, kafka.ReservationUpdated, domain.EntityReservation, r.ID, r.Title())
	return r, nil
}

func (s *ReservationService) AddDocument(ctx context.Context, id, name string, data []byte) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.Attach(ctx, r.ID, name, data)
	if err != nil {
		return nil, err
	}
	r.DocumentIDs = append(r.DocumentIDs, doc.ID)
	if err := s.reservations.Update(ctx, r); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, kafka.ReservationUpdated, domain.EntityReservation, r.ID, r.Title())
	return doc, nil
}

func (s *ReservationService) Documents(ctx context.Context, id string) (documents.List, error) {
	if _, err := s.reservations.GetByID(ctx, id); err != nil {
		return documents.List{}, err
	}
	return s.documents.List(ctx, id)
}

// Upsert merges r into an existing reservation describing the same booking, or stores it as new.
func (s *ReservationService) Upsert(ctx context.Context, r domain.Reservation) (*domain.Reservation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.reservations.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range existing {
		current := existing[i]
		if !current.IsSame(r) {
			continue
		}
		current.MergeFrom(r)
		if err := s.reservations.Update(ctx, &current); err != nil {
			return nil, false, err
		}
		s.events.Publish(ctx, kafka.ReservationUpdated, domain.EntityReservation, current.ID, current.Title())
		return &current, false, nil
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.DocumentIDs = nil
	if err := s.reservations.Create(ctx, &r); err != nil {
		return nil, false, err
	}
	s.logger.WithFields(logrus.Fields{"reservation": r.ID, "kind": r.Kind}).Info("reservation added")
	s.events.Publish(ctx, kafka.ReservationAdded, domain.EntityReservation, r.ID, r.Title())
	return &r, true, nil
}

// Exists and Delete make the service the deleter of reservations.
func (s *ReservationService) Exists(ctx context.Context, id string) error {
	_, err := s.reservations.GetByID(ctx, id)
	return err
}

func (s *ReservationService) Delete(ctx context.Context, req *domain.DeletionRequest) error {
	return s.DeleteReservation(ctx, req)
}

func (s *ReservationService) DeleteReservation(ctx context.Context, req *domain.DeletionRequest) error {
	if req == nil || !req.Authorizes(domain.EntityReservation, req.EntityID) {
		return domain.ErrConfirmationRequired
	}

	s.mu.Lock()
	err := s.remove(ctx, req.EntityID)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.tracker != nil {
		if err := s.tracker.ReservationRemoved(ctx, req.EntityID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAll deletes reservations on behalf of a confirmed group deletion. Group membership is left to the caller.
func (s *ReservationService) RemoveAll(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if err := s.remove(ctx, id); err != nil && !domain.IsNotFound(err) {
			return err
		}
	}
	return nil
}

func (s *ReservationService) remove(ctx context.Context, id string) error {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.documents.RemoveOwned(ctx, id); err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("reservation", id).Info("reservation removed")
	s.events.Publish(ctx, kafka.ReservationRemoved, domain.EntityReservation, id, r.Title())
	return nil
}

// DeleteDocument removes one attached document and unlinks it from its reservation.
func (s *ReservationService) DeleteDocument(ctx context.Context, req *domain.DeletionRequest) error {
	if req == nil || !req.Authorizes(domain.EntityDocument, req.EntityID) {
		return domain.ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.documents.Get(ctx, req.EntityID)
	if err != nil {
		return err
	}
	if err := s.documents.Remove(ctx, doc.ID); err != nil {
		return err
	}

	r, err := s.reservations.GetByID(ctx, doc.OwnerID)
	if domain.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	kept := r.DocumentIDs[:0]
	for _, id := range r.DocumentIDs {
		if id != doc.ID {
			kept = append(kept, id)
		}
	}
	r.DocumentIDs = kept
	if err := s.reservations.Update(ctx, r); err != nil {
		return err
	}
	s.events.Publish(ctx, kafka.ReservationUpdated, domain.EntityReservation, r.ID, r.Title())
	return nil
}

// DocumentRemover exposes document removal to the deletion service.
func (s *ReservationService) DocumentRemover() DocumentDeleter {
	return DocumentDeleter{s: s}
}

type DocumentDeleter struct {
	s *ReservationService
}

func (d DocumentDeleter) Exists(ctx context.Context, id string) error {
	_, err := d.s.documents.Get(ctx, id)
	return err
}

func (d DocumentDeleter) Delete(ctx context.Context, req *domain.DeletionRequest) error {
	return d.s.DeleteDocument(ctx, req)
}

var _ ReservationUseCase = (*ReservationService)(nil)
