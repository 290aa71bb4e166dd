package deletion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultLockTTL = 30 * time.Second

type DeletionUseCase interface {
	Request(ctx context.Context, kind domain.EntityKind, id string) (*domain.DeletionRequest, error)
	Confirm(ctx context.Context, token string) (*domain.DeletionRequest, error)
	Cancel(ctx context.Context, token string) (*domain.DeletionRequest, error)
	ExpirePending(ctx context.Context) ([]domain.DeletionRequest, error)
}

// Deleter removes one kind of entity once a request for it is committed.
type Deleter interface {
	Exists(ctx context.Context, id string) error
	Delete(ctx context.Context, req *domain.DeletionRequest) error
}

type Lock interface {
	AcquireDeletionLock(ctx context.Context, token string, ttl time.Duration) (bool, error)
	ReleaseDeletionLock(ctx context.Context, token string) error
}

type DeletionService struct {
	requests        repository.DeletionRepository
	deleters        map[domain.EntityKind]Deleter
	lock            Lock
	confirmationTTL time.Duration
	lockTTL         time.Duration
	logger          logrus.FieldLogger
	now             func() time.Time
	mu              sync.Mutex
}

type DeletionServiceOption func(*DeletionService)

func WithLock(l Lock) DeletionServiceOption {
	return func(s *DeletionService) {
		s.lock = l
	}
}

func WithDeleter(kind domain.EntityKind, d Deleter) DeletionServiceOption {
	return func(s *DeletionService) {
		s.deleters[kind] = d
	}
}

func NewDeletionService(requests repository.DeletionRepository, confirmationTTL time.Duration, logger logrus.FieldLogger, opts ...DeletionServiceOption) *DeletionService {
	s := &DeletionService{
		requests:        requests,
		deleters:        make(map[domain.EntityKind]Deleter),
		confirmationTTL: confirmationTTL,
		lockTTL:         defaultLockTTL,
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request opens a pending deletion. Nothing is removed until Confirm.
func (s *DeletionService) Request(ctx context.Context, kind domain.EntityKind, id string) (*domain.DeletionRequest, error) {
	deleter, ok := s.deleters[kind]
	if !ok {
		return nil, domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("cannot delete %q", kind)}
	}
	if err := deleter.Exists(ctx, id); err != nil {
		return nil, err
	}

	req := &domain.DeletionRequest{
		Token:     uuid.NewString(),
		Kind:      kind,
		EntityID:  id,
		ExpiresAt: s.now().Add(s.confirmationTTL),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"token": req.Token, "kind": kind, "id": id}).Info("deletion requested")
	return req, nil
}

// Confirm runs the deleter for a pending request exactly once.
func (s *DeletionService) Confirm(ctx context.Context, token string) (*domain.DeletionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock != nil {
		ok, err := s.lock.AcquireDeletionLock(ctx, token, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ConflictError{Resource: "deletion request", Msg: "confirmation already in progress"}
		}
		defer func() {
			if err := s.lock.ReleaseDeletionLock(ctx, token); err != nil {
				s.logger.WithError(err).WithField("token", token).Warn("failed to release deletion lock")
			}
		}()
	}

	current, err := s.requests.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if current.State != domain.DeletionPending {
		return nil, domain.ConflictError{Resource: "deletion request", Msg: "request is " + string(current.State)}
	}
	if !s.now().Before(current.ExpiresAt) {
		if _, err := s.requests.UpdateState(ctx, token, domain.DeletionExpired); err != nil {
			return nil, err
		}
		return nil, domain.ConflictError{Resource: "deletion request", Msg: "request expired"}
	}

	deleter, ok := s.deleters[current.Kind]
	if !ok {
		return nil, domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("cannot delete %q", current.Kind)}
	}

	authorized := *current
	authorized.State = domain.DeletionCommitted
	if err := deleter.Delete(ctx, &authorized); err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("delete %s %s: %w", current.Kind, current.EntityID, err)
	}

	updated, err := s.requests.UpdateState(ctx, token, domain.DeletionCommitted)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"token": token, "kind": updated.Kind, "id": updated.EntityID}).Info("deletion confirmed")
	return updated, nil
}

// Cancel is idempotent for requests that are already cancelled or expired.
func (s *DeletionService) Cancel(ctx context.Context, token string) (*domain.DeletionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.requests.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch current.State {
	case domain.DeletionCancelled, domain.DeletionExpired:
		return current, nil
	case domain.DeletionCommitted:
		return nil, domain.ConflictError{Resource: "deletion request", Msg: "request is already committed"}
	}

	updated, err := s.requests.UpdateState(ctx, token, domain.DeletionCancelled)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("token", token).Info("deletion cancelled")
	return updated, nil
}

func (s *DeletionService) ExpirePending(ctx context.Context) ([]domain.DeletionRequest, error) {
	expired, err := s.requests.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, req := range expired {
		s.logger.WithFields(logrus.Fields{"token": req.Token, "kind": req.Kind, "id": req.EntityID}).Info("deletion request expired")
	}
	return expired, nil
}

var _ DeletionUseCase = (*DeletionService)(nil)
