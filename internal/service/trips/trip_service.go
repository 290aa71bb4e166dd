package trips

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/events"
	"github.com/Domenick1991/itinerary/internal/form"
	"github.com/Domenick1991/itinerary/internal/grouping"
	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/Domenick1991/itinerary/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Targets understood by AssignToGroup besides a group id.
const (
	TargetAuto = "auto"
	TargetNew  = "new"
)

const fallbackTripName = "Trip"

type TripUseCase interface {
	List(ctx context.Context) ([]domain.TripGroup, error)
	Get(ctx context.Context, id string) (*domain.TripGroup, error)
	CreateGroup(ctx context.Context, name string) (*domain.TripGroup, error)
	RenameGroup(ctx context.Context, id, name string) (*domain.TripGroup, error)
	AddEvent(ctx context.Context, groupID string, input EventInput) (*domain.Reservation, error)
	AssignToGroup(ctx context.Context, target, tripName string, reservationIDs []string) (*domain.TripGroup, error)
	Rescan(ctx context.Context) error
	ReservationRemoved(ctx context.Context, reservationID string) error
	ReservationChanged(ctx context.Context, reservationID string) error
	DeleteGroup(ctx context.Context, req *domain.DeletionRequest) error
}

type Cache interface {
	GetTripGroups(ctx context.Context) ([]domain.TripGroup, error)
	SetTripGroups(ctx context.Context, groups []domain.TripGroup) error
	InvalidateTripGroups(ctx context.Context) error
}

// ReservationWriter is the part of the reservation service the trip service drives.
type ReservationWriter interface {
	Upsert(ctx context.Context, r domain.Reservation) (*domain.Reservation, bool, error)
	RemoveAll(ctx context.Context, ids []string) error
}

type EventInput struct {
	Name     string          `json:"name"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Location domain.Location `json:"location"`
}

type TripService struct {
	groups       repository.TripGroupRepository
	reservations repository.ReservationRepository
	writer       ReservationWriter
	cache        Cache
	events       *events.Publisher
	forms        *form.Validator
	logger       logrus.FieldLogger
	newID        func() string
	mu           sync.Mutex
}

type TripServiceOption func(*TripService)

func WithCache(c Cache) TripServiceOption {
	return func(s *TripService) {
		s.cache = c
	}
}

func WithPublisher(p *events.Publisher) TripServiceOption {
	return func(s *TripService) {
		s.events = p
	}
}

func NewTripService(
	groups repository.TripGroupRepository,
	reservations repository.ReservationRepository,
	writer ReservationWriter,
	logger logrus.FieldLogger,
	opts ...TripServiceOption,
) *TripService {
	s := &TripService{
		groups:       groups,
		reservations: reservations,
		writer:       writer,
		forms:        form.New(),
		logger:       logger,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TripService) List(ctx context.Context) ([]domain.TripGroup, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTripGroups(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []domain.TripGroup{}
	}
	if s.cache != nil {
		_ = s.cache.SetTripGroups(ctx, groups)
	}
	return groups, nil
}

func (s *TripService) Get(ctx context.Context, id string) (*domain.TripGroup, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *TripService) CreateGroup(ctx context.Context, name string) (*domain.TripGroup, error) {
	name = strings.TrimSpace(name)
	if err := s.forms.Require("trip", map[string]string{"name": name}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := &domain.TripGroup{ID: s.newID(), Name: name, Elements: []string{}}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	s.changed(ctx, kafka.TripGroupAdded, g)
	return g, nil
}

// RenameGroup makes the group explicit, so later scans keep its name and members.
func (s *TripService) RenameGroup(ctx context.Context, id, name string) (*domain.TripGroup, error) {
	name = strings.TrimSpace(name)
	if err := s.forms.Require("trip", map[string]string{"name": name}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Name = name
	g.Automatic = false
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, err
	}
	s.changed(ctx, kafka.TripGroupChanged, g)
	return g, nil
}

func (s *TripService) AddEvent(ctx context.Context, groupID string, input EventInput) (*domain.Reservation, error) {
	values := map[string]string{"name": input.Name, "start": input.Start, "end": input.End}
	if err := s.forms.Require("event", values); err != nil {
		return nil, err
	}
	start, _ := time.Parse(form.DateTimeLayout, strings.TrimSpace(input.Start))
	var end time.Time
	if v := strings.TrimSpace(input.End); v != "" {
		end, _ = time.Parse(form.DateTimeLayout, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	r, _, err := s.writer.Upsert(ctx, domain.Reservation{
		Kind:     domain.KindEvent,
		Name:     strings.TrimSpace(input.Name),
		Location: input.Location,
		Start:    start,
		End:      end,
	})
	if err != nil {
		return nil, err
	}
	if err := s.addMembers(ctx, g, []string{r.ID}); err != nil {
		return nil, err
	}
	return r, nil
}

// AssignToGroup places committed reservations into a trip. target is a group id, TargetNew, or
// TargetAuto (also ""): a named trip is created or reused, otherwise the automatic scan decides.
func (s *TripService) AssignToGroup(ctx context.Context, target, tripName string, reservationIDs []string) (*domain.TripGroup, error) {
	if len(reservationIDs) == 0 {
		return nil, nil
	}
	tripName = strings.TrimSpace(tripName)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch target {
	case "", TargetAuto:
		if tripName == "" {
			if err := s.rescan(ctx); err != nil {
				return nil, err
			}
			return s.groups.FindByReservation(ctx, reservationIDs[0])
		}
		g, err := s.explicitByName(ctx, tripName)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return s.createWith(ctx, tripName, reservationIDs)
		}
		if err := s.addMembers(ctx, g, reservationIDs); err != nil {
			return nil, err
		}
		return g, nil
	case TargetNew:
		name := tripName
		if name == "" {
			members, err := s.reservations.ListByIDs(ctx, reservationIDs)
			if err != nil {
				return nil, err
			}
			name = grouping.GuessName(members)
		}
		if name == "" {
			name = fallbackTripName
		}
		return s.createWith(ctx, name, reservationIDs)
	default:
		g, err := s.groups.GetByID(ctx, target)
		if err != nil {
			return nil, err
		}
		if err := s.addMembers(ctx, g, reservationIDs); err != nil {
			return nil, err
		}
		return g, nil
	}
}

func (s *TripService) explicitByName(ctx context.Context, name string) (*domain.TripGroup, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if !groups[i].Automatic && strings.EqualFold(groups[i].Name, name) {
			return &groups[i], nil
		}
	}
	return nil, nil
}

func (s *TripService) createWith(ctx context.Context, name string, ids []string) (*domain.TripGroup, error) {
	g := &domain.TripGroup{ID: s.newID(), Name: name, Elements: []string{}}
	if err := s.detach(ctx, ids, ""); err != nil {
		return nil, err
	}
	members, err := s.reservations.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	g.SetMembers(members)
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	s.changed(ctx, kafka.TripGroupAdded, g)
	return g, nil
}

func (s *TripService) addMembers(ctx context.Context, g *domain.TripGroup, ids []string) error {
	if err := s.detach(ctx, ids, g.ID); err != nil {
		return err
	}
	members, err := s.reservations.ListByIDs(ctx, union(g.Elements, ids))
	if err != nil {
		return err
	}
	g.SetMembers(members)
	if g.Automatic {
		g.Name = grouping.GuessName(members)
	}
	if err := s.groups.Update(ctx, g); err != nil {
		return err
	}
	s.changed(ctx, kafka.TripGroupChanged, g)
	return nil
}

// detach removes reservations from whatever group holds them, except keep.
func (s *TripService) detach(ctx context.Context, ids []string, keep string) error {
	for _, id := range ids {
		g, err := s.groups.FindByReservation(ctx, id)
		if err != nil {
			return err
		}
		if g == nil || g.ID == keep {
			continue
		}
		if err := s.dropMember(ctx, g, id); err != nil {
			return err
		}
	}
	return nil
}

// dropMember removes one reservation from g. Automatic groups dissolve below two members,
// explicit groups when they become empty.
func (s *TripService) dropMember(ctx context.Context, g *domain.TripGroup, reservationID string) error {
	remaining := make([]string, 0, len(g.Elements))
	for _, id := range g.Elements {
		if id != reservationID {
			remaining = append(remaining, id)
		}
	}

	if (g.Automatic && len(remaining) < 2) || (!g.Automatic && len(remaining) == 0) {
		if err := s.groups.Delete(ctx, g.ID); err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{"group": g.ID, "name": g.Name}).Info("trip group dissolved")
		s.changed(ctx, kafka.TripGroupRemoved, g)
		return nil
	}

	members, err := s.reservations.ListByIDs(ctx, remaining)
	if err != nil {
		return err
	}
	g.SetMembers(members)
	if g.Automatic {
		g.Name = grouping.GuessName(members)
	}
	if err := s.groups.Update(ctx, g); err != nil {
		return err
	}
	s.changed(ctx, kafka.TripGroupChanged, g)
	return nil
}

func (s *TripService) Rescan(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rescan(ctx)
}

// rescan runs automatic trip detection over every reservation outside explicit groups.
func (s *TripService) rescan(ctx context.Context) error {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return err
	}
	reservations, err := s.reservations.List(ctx)
	if err != nil {
		return err
	}

	explicit := make(map[string]bool)
	automatic := make(map[string]domain.TripGroup)
	membership := make(map[string]string)
	for _, g := range groups {
		for _, id := range g.Elements {
			if g.Automatic {
				membership[id] = g.ID
			} else {
				explicit[id] = true
			}
		}
		if g.Automatic {
			automatic[g.ID] = g
		}
	}

	eligible := make([]domain.Reservation, 0, len(reservations))
	byID := make(map[string]domain.Reservation, len(reservations))
	for _, r := range reservations {
		byID[r.ID] = r
		if !explicit[r.ID] {
			eligible = append(eligible, r)
		}
	}

	engine := grouping.NewEngine(eligible, membership, grouping.WithIDGenerator(s.newID))
	proposals := engine.ScanAll()
	if len(proposals) == 0 {
		return nil
	}

	names := make(map[string]string)
	created := make(map[string]bool)
	for _, p := range proposals {
		names[p.GroupID] = p.Name
		if p.Created {
			created[p.GroupID] = true
			automatic[p.GroupID] = domain.TripGroup{ID: p.GroupID, Automatic: true}
		}
	}

	members := make(map[string][]domain.Reservation)
	for resID, groupID := range engine.Membership() {
		if r, ok := byID[resID]; ok {
			members[groupID] = append(members[groupID], r)
		}
	}

	ids := make([]string, 0, len(automatic))
	for id := range automatic {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		g := automatic[id]
		isNew := created[id]
		before := strings.Join(g.Elements, ",")

		if len(members[id]) < 2 {
			if !isNew {
				if err := s.groups.Delete(ctx, id); err != nil && !domain.IsNotFound(err) {
					return err
				}
				s.changed(ctx, kafka.TripGroupRemoved, &g)
			}
			continue
		}

		g.SetMembers(members[id])
		if name, ok := names[id]; ok {
			g.Name = name
		} else {
			g.Name = grouping.GuessName(members[id])
		}

		if isNew {
			if err := s.groups.Create(ctx, &g); err != nil {
				return err
			}
			s.logger.WithFields(logrus.Fields{"group": g.ID, "name": g.Name, "elements": len(g.Elements)}).Info("trip detected")
			s.changed(ctx, kafka.TripGroupAdded, &g)
			continue
		}
		if before == strings.Join(g.Elements, ",") {
			continue
		}
		if err := s.groups.Update(ctx, &g); err != nil {
			return err
		}
		s.changed(ctx, kafka.TripGroupChanged, &g)
	}
	return nil
}

func (s *TripService) ReservationRemoved(ctx context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.groups.FindByReservation(ctx, reservationID)
	if err != nil || g == nil {
		return err
	}
	return s.dropMember(ctx, g, reservationID)
}

// ReservationChanged reorders the group holding a reservation whose times were edited,
// then rescans so automatic trips follow the new times.
func (s *TripService) ReservationChanged(ctx context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.groups.FindByReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if g != nil {
		members, err := s.reservations.ListByIDs(ctx, g.Elements)
		if err != nil {
			return err
		}
		g.SetMembers(members)
		if g.Automatic {
			g.Name = grouping.GuessName(members)
		}
		if err := s.groups.Update(ctx, g); err != nil {
			return err
		}
		s.changed(ctx, kafka.TripGroupChanged, g)
	}
	return s.rescan(ctx)
}

// Exists and Delete make the service the deleter of trip groups.
func (s *TripService) Exists(ctx context.Context, id string) error {
	_, err := s.groups.GetByID(ctx, id)
	return err
}

func (s *TripService) Delete(ctx context.Context, req *domain.DeletionRequest) error {
	return s.DeleteGroup(ctx, req)
}

// DeleteGroup removes the group together with its member reservations and their documents.
func (s *TripService) DeleteGroup(ctx context.Context, req *domain.DeletionRequest) error {
	if req == nil || !req.Authorizes(domain.EntityTripGroup, req.EntityID) {
		return domain.ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.groups.GetByID(ctx, req.EntityID)
	if err != nil {
		return err
	}
	if err := s.writer.RemoveAll(ctx, g.Elements); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, g.ID); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"group": g.ID, "name": g.Name, "elements": len(g.Elements)}).Info("trip group deleted")
	s.changed(ctx, kafka.TripGroupRemoved, g)
	return nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func (s *TripService) changed(ctx context.Context, eventType kafka.EventType, g *domain.TripGroup) {
	if s.cache != nil {
		if err := s.cache.InvalidateTripGroups(ctx); err != nil {
			s.logger.WithError(err).Warn("failed to invalidate trip group cache")
		}
	}
	s.events.Publish(ctx, eventType, domain.EntityTripGroup, g.ID, g.Name)
}

var _ TripUseCase = (*TripService)(nil)
