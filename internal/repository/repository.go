package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
)

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	Update(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	// List returns all reservations ordered by start.
	List(ctx context.Context) ([]domain.Reservation, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Reservation, error)
	Delete(ctx context.Context, id string) error
}

type TripGroupRepository interface {
	Create(ctx context.Context, g *domain.TripGroup) error
	Update(ctx context.Context, g *domain.TripGroup) error
	GetByID(ctx context.Context, id string) (*domain.TripGroup, error)
	// FindByReservation returns nil without error when the reservation is not grouped.
	FindByReservation(ctx context.Context, reservationID string) (*domain.TripGroup, error)
	// List returns all groups ordered by begin.
	List(ctx context.Context) ([]domain.TripGroup, error)
	Delete(ctx context.Context, id string) error
}

type PassRepository interface {
	Create(ctx context.Context, p *domain.Pass) error
	Update(ctx context.Context, p *domain.Pass) error
	GetByID(ctx context.Context, id string) (*domain.Pass, error)
	List(ctx context.Context) ([]domain.Pass, error)
	Delete(ctx context.Context, id string) error
}

type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
}

type DeletionRepository interface {
	Create(ctx context.Context, req *domain.DeletionRequest) error
	GetByToken(ctx context.Context, token string) (*domain.DeletionRequest, error)
	UpdateState(ctx context.Context, token string, state domain.DeletionState) (*domain.DeletionRequest, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.DeletionRequest, error)
}
