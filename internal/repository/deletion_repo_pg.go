package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deletionColumns = `token, entity_kind, entity_id, state, expires_at, created_at, updated_at`

type PGDeletionRepository struct {
	db *pgxpool.Pool
}

func NewDeletionRepository(db *pgxpool.Pool) DeletionRepository {
	return &PGDeletionRepository{db: db}
}

func (r *PGDeletionRepository) Create(ctx context.Context, req *domain.DeletionRequest) error {
	req.State = domain.DeletionPending
	return r.db.QueryRow(ctx, `INSERT INTO deletion_requests (token, entity_kind, entity_id, state, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`, req.Token, req.Kind, req.EntityID, req.State, req.ExpiresAt).
		Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *PGDeletionRepository) GetByToken(ctx context.Context, token string) (*domain.DeletionRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+deletionColumns+` FROM deletion_requests WHERE token=$1`, token)
	req, err := scanDeletion(row)
	if err != nil {
		return nil, notFound(err, "deletion request", token)
	}
	return req, nil
}

func (r *PGDeletionRepository) UpdateState(ctx context.Context, token string, state domain.DeletionState) (*domain.DeletionRequest, error) {
	row := r.db.QueryRow(ctx, `UPDATE deletion_requests SET state=$1, updated_at=now() WHERE token=$2 RETURNING `+deletionColumns, state, token)
	req, err := scanDeletion(row)
	if err != nil {
		return nil, notFound(err, "deletion request", token)
	}
	return req, nil
}

func (r *PGDeletionRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.DeletionRequest, error) {
	rows, err := r.db.Query(ctx, `UPDATE deletion_requests SET state=$1, updated_at=now() WHERE state=$2 AND expires_at <= $3 RETURNING `+deletionColumns,
		domain.DeletionExpired, domain.DeletionPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.DeletionRequest
	for rows.Next() {
		req, err := scanDeletion(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *req)
	}
	return expired, rows.Err()
}

func scanDeletion(row pgx.Row) (*domain.DeletionRequest, error) {
	var req domain.DeletionRequest
	if err := row.Scan(&req.Token, &req.Kind, &req.EntityID, &req.State, &req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

// notFound maps pgx.ErrNoRows to a domain NotFoundError.
func notFound(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, ID: id, Err: err}
	}
	return err
}

var _ DeletionRepository = (*PGDeletionRepository)(nil)
