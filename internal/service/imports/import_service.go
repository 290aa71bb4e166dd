package imports

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/importer"
	"github.com/Domenick1991/itinerary/internal/onlineticket"
	"github.com/Domenick1991/itinerary/internal/service/trips"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultSessionTTL = 30 * time.Minute

type ImportUseCase interface {
	ImportFile(ctx context.Context, data []byte, fileName string, opts ...StageOption) (*domain.ImportSession, error)
	ImportBarcode(ctx context.Context, payload string, opts ...StageOption) (*domain.ImportSession, error)
	ImportOnline(ctx context.Context, vendorID, name, ref string, opts ...StageOption) (*domain.ImportSession, error)
	CanSearch(vendorID, name, ref string) bool
	GetSession(ctx context.Context, id string) (*domain.ImportSession, error)
	SetSelected(ctx context.Context, sessionID, candidateID string, selected bool) (*domain.ImportSession, error)
	SelectAll(ctx context.Context, sessionID string, selected bool) (*domain.ImportSession, error)
	Discard(ctx context.Context, sessionID string) error
	Commit(ctx context.Context, sessionID, target string) (*CommitResult, error)
	AutoCommit(ctx context.Context, session *domain.ImportSession) (*CommitResult, bool, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, id string) (*domain.ImportSession, error)
	SaveSession(ctx context.Context, session *domain.ImportSession) error
	DeleteSession(ctx context.Context, id string) error
}

// ReservationWriter stores committed reservations. RemoveAll undoes the ones a failed commit created.
type ReservationWriter interface {
	Upsert(ctx context.Context, r domain.Reservation) (*domain.Reservation, bool, error)
	RemoveAll(ctx context.Context, ids []string) error
}

type PassImporter interface {
	Import(ctx context.Context, p domain.Pass) (*domain.Pass, bool, error)
	DiscardImported(ctx context.Context, ids []string) error
}

type GroupAssigner interface {
	Get(ctx context.Context, id string) (*domain.TripGroup, error)
	AssignToGroup(ctx context.Context, target, tripName string, reservationIDs []string) (*domain.TripGroup, error)
	ReservationRemoved(ctx context.Context, reservationID string) error
}

// Sources reports which online vendors the user enabled.
type Sources interface {
	SourceEnabled(ctx context.Context, id string) (bool, error)
}

type CommitResult struct {
	Reservations []domain.Reservation `json:"reservations"`
	Passes       []domain.Pass        `json:"passes"`
	Group        *domain.TripGroup    `json:"group,omitempty"`
}

type ImportService struct {
	sessions     SessionStore
	reservations ReservationWriter
	passes       PassImporter
	groups       GroupAssigner
	vendors      *onlineticket.Registry
	sources      Sources
	sessionTTL   time.Duration
	logger       logrus.FieldLogger
	now          func() time.Time
	mu           sync.Mutex
}

type ImportServiceOption func(*ImportService)

func WithVendors(r *onlineticket.Registry) ImportServiceOption {
	return func(s *ImportService) {
		s.vendors = r
	}
}

func WithSources(src Sources) ImportServiceOption {
	return func(s *ImportService) {
		s.sources = src
	}
}

func WithSessionTTL(ttl time.Duration) ImportServiceOption {
	return func(s *ImportService) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

type stageConfig struct {
	target string
}

type StageOption func(*stageConfig)

// WithTarget preselects the group a later commit goes to.
func WithTarget(groupID string) StageOption {
	return func(c *stageConfig) {
		c.target = strings.TrimSpace(groupID)
	}
}

func NewImportService(
	sessions SessionStore,
	reservations ReservationWriter,
	passes PassImporter,
	groups GroupAssigner,
	logger logrus.FieldLogger,
	opts ...ImportServiceOption,
) *ImportService {
	s := &ImportService{
		sessions:     sessions,
		reservations: reservations,
		passes:       passes,
		groups:       groups,
		vendors:      onlineticket.NewRegistry(),
		sessionTTL:   defaultSessionTTL,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ImportService) ImportFile(ctx context.Context, data []byte, fileName string, opts ...StageOption) (*domain.ImportSession, error) {
	res, err := importer.Parse(data, fileName, s.now())
	if err != nil {
		return nil, err
	}
	return s.stage(ctx, "file:"+fileName, res, opts)
}

func (s *ImportService) ImportBarcode(ctx context.Context, payload string, opts ...StageOption) (*domain.ImportSession, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, domain.ValidationError{Field: "payload", Msg: "required"}
	}
	reservations, err := importer.ParseBoardingPass(payload, s.now())
	if err != nil {
		return nil, err
	}
	return s.stage(ctx, "barcode", &importer.Result{Reservations: reservations}, opts)
}

func (s *ImportService) CanSearch(vendorID, name, ref string) bool {
	v, ok := s.vendors.Get(vendorID)
	if !ok {
		return false
	}
	return onlineticket.CanSearch(v, name, ref)
}

// ImportOnline looks the booking up at the vendor. Nothing is staged when the lookup fails or ctx is cancelled.
func (s *ImportService) ImportOnline(ctx context.Context, vendorID, name, ref string, opts ...StageOption) (*domain.ImportSession, error) {
	v, ok := s.vendors.Get(vendorID)
	if !ok {
		return nil, domain.ValidationError{Field: "vendor", Msg: "unknown vendor " + vendorID}
	}
	if s.sources != nil {
		enabled, err := s.sources.SourceEnabled(ctx, vendorID)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, domain.ValidationError{Field: "vendor", Msg: vendorID + " is not an enabled information source"}
		}
	}
	if !onlineticket.CanSearch(v, name, ref) {
		return nil, domain.ImportError{Reason: domain.ImportInvalidReference, Msg: "invalid name or reference"}
	}

	reservations, err := v.Lookup(ctx, strings.TrimSpace(name), strings.TrimSpace(ref))
	if err != nil {
		s.logger.WithError(err).WithField("vendor", vendorID).Warn("online lookup failed")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.stage(ctx, "online:"+vendorID, &importer.Result{Reservations: reservations}, opts)
}

func (s *ImportService) stage(ctx context.Context, source string, res *importer.Result, opts []StageOption) (*domain.ImportSession, error) {
	candidates, err := importer.Candidates(res)
	if err != nil {
		return nil, err
	}
	cfg := stageConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	now := s.now().UTC()
	session := &domain.ImportSession{
		ID:            uuid.NewString(),
		Source:        source,
		TripName:      res.TripName,
		TargetGroupID: cfg.target,
		Candidates:    candidates,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.sessionTTL),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"session": session.ID, "source": source, "candidates": len(candidates)}).Info("import staged")
	return session, nil
}

func (s *ImportService) GetSession(ctx context.Context, id string) (*domain.ImportSession, error) {
	return s.sessions.GetSession(ctx, id)
}

func (s *ImportService) SetSelected(ctx context.Context, sessionID, candidateID string, selected bool) (*domain.ImportSession, error) {
	return s.update(ctx, sessionID, func(session *domain.ImportSession) error {
		for i := range session.Candidates {
			if session.Candidates[i].ID == candidateID {
				session.Candidates[i].Selected = selected
				return nil
			}
		}
		return domain.NotFoundError{Resource: "candidate", ID: candidateID}
	})
}

func (s *ImportService) SelectAll(ctx context.Context, sessionID string, selected bool) (*domain.ImportSession, error) {
	return s.update(ctx, sessionID, func(session *domain.ImportSession) error {
		for i := range session.Candidates {
			session.Candidates[i].Selected = selected
		}
		return nil
	})
}

func (s *ImportService) update(ctx context.Context, sessionID string, fn func(*domain.ImportSession) error) (*domain.ImportSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ImportService) Discard(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.DeleteSession(ctx, sessionID)
}

// Commit stores the selected candidates and places the reservations into a trip.
// target is a group id, "new" or "auto"; empty falls back to the session's preselected group.
func (s *ImportService) Commit(ctx context.Context, sessionID, target string) (*CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, session, target)
}

// AutoCommit commits a freshly staged session when every candidate is selected.
func (s *ImportService) AutoCommit(ctx context.Context, session *domain.ImportSession) (*CommitResult, bool, error) {
	if session == nil || !session.CanAutoCommit() {
		return nil, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.commit(ctx, session, "")
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (s *ImportService) commit(ctx context.Context, session *domain.ImportSession, target string) (*CommitResult, error) {
	if !session.HasSelection() {
		return nil, domain.ValidationError{Field: "candidates", Msg: "nothing selected"}
	}
	target = strings.TrimSpace(target)
	if target == "" {
		target = session.TargetGroupID
	}
	switch target {
	case "", trips.TargetAuto, trips.TargetNew:
	default:
		if _, err := s.groups.Get(ctx, target); err != nil {
			return nil, err
		}
	}

	result := &CommitResult{Reservations: []domain.Reservation{}, Passes: []domain.Pass{}}
	var (
		ids   []string
		added created
	)
	for _, c := range session.Selected() {
		if c.Kind != domain.CandidateReservation {
			continue
		}
		for _, r := range importer.Expand(c) {
			stored, isNew, err := s.reservations.Upsert(ctx, r)
			if err != nil {
				s.undo(ctx, added)
				return nil, err
			}
			if isNew {
				added.reservations = append(added.reservations, stored.ID)
			}
			result.Reservations = append(result.Reservations, *stored)
			ids = append(ids, stored.ID)
		}
	}

	if len(ids) > 0 {
		g, err := s.groups.AssignToGroup(ctx, target, session.TripName, ids)
		if err != nil {
			s.undo(ctx, added)
			return nil, err
		}
		result.Group = g
	}

	for _, c := range session.Selected() {
		if c.Kind != domain.CandidatePass || c.Pass == nil {
			continue
		}
		stored, isNew, err := s.passes.Import(ctx, *c.Pass)
		if err != nil {
			s.undo(ctx, added)
			return nil, err
		}
		if isNew {
			added.passes = append(added.passes, stored.ID)
		}
		result.Passes = append(result.Passes, *stored)
	}

	if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
		s.logger.WithError(err).WithField("session", session.ID).Warn("failed to drop committed import session")
	}
	s.logger.WithFields(logrus.Fields{
		"session":      session.ID,
		"reservations": len(result.Reservations),
		"passes":       len(result.Passes),
	}).Info("import committed")
	return result, nil
}

// created lists what a commit added, so a failed commit can take it back.
type created struct {
	reservations []string
	passes       []string
}

// undo removes the elements a failed commit created. Merged updates to existing elements are kept.
func (s *ImportService) undo(ctx context.Context, c created) {
	ctx = context.WithoutCancel(ctx)
	if len(c.passes) > 0 {
		if err := s.passes.DiscardImported(ctx, c.passes); err != nil {
			s.logger.WithError(err).Error("failed to roll back imported passes")
		}
	}
	if len(c.reservations) == 0 {
		return
	}
	if err := s.reservations.RemoveAll(ctx, c.reservations); err != nil {
		s.logger.WithError(err).Error("failed to roll back imported reservations")
		return
	}
	for _, id := range c.reservations {
		if err := s.groups.ReservationRemoved(ctx, id); err != nil {
			s.logger.WithError(err).WithField("reservation", id).Error("failed to detach rolled back reservation")
		}
	}
}

var _ ImportUseCase = (*ImportService)(nil)
