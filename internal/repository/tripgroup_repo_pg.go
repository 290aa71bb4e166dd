package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tripGroupColumns = `id, name, automatic, elements, begin_at, end_at, created_at, updated_at`

type PGTripGroupRepository struct {
	db *pgxpool.Pool
}

func NewTripGroupRepository(db *pgxpool.Pool) TripGroupRepository {
	return &PGTripGroupRepository{db: db}
}

func (r *PGTripGroupRepository) Create(ctx context.Context, g *domain.TripGroup) error {
	return r.db.QueryRow(ctx, `INSERT INTO trip_groups (id, name, automatic, elements, begin_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`, g.ID, g.Name, g.Automatic, documentIDs(g.Elements), nullTime(g.Begin), nullTime(g.End)).
		Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *PGTripGroupRepository) Update(ctx context.Context, g *domain.TripGroup) error {
	err := r.db.QueryRow(ctx, `UPDATE trip_groups SET name=$2, automatic=$3, elements=$4, begin_at=$5, end_at=$6, updated_at=now()
		WHERE id=$1 RETURNING updated_at`, g.ID, g.Name, g.Automatic, documentIDs(g.Elements), nullTime(g.Begin), nullTime(g.End)).
		Scan(&g.UpdatedAt)
	return notFound(err, "trip group", g.ID)
}

func (r *PGTripGroupRepository) GetByID(ctx context.Context, id string) (*domain.TripGroup, error) {
	g, err := scanTripGroup(r.db.QueryRow(ctx, `SELECT `+tripGroupColumns+` FROM trip_groups WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "trip group", id)
	}
	return g, nil
}

func (r *PGTripGroupRepository) FindByReservation(ctx context.Context, reservationID string) (*domain.TripGroup, error) {
	g, err := scanTripGroup(r.db.QueryRow(ctx, `SELECT `+tripGroupColumns+` FROM trip_groups WHERE $1 = ANY(elements) LIMIT 1`, reservationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *PGTripGroupRepository) List(ctx context.Context) ([]domain.TripGroup, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tripGroupColumns+` FROM trip_groups ORDER BY begin_at NULLS LAST, created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.TripGroup
	for rows.Next() {
		g, err := scanTripGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func (r *PGTripGroupRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM trip_groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "trip group", ID: id}
	}
	return nil
}

func scanTripGroup(row pgx.Row) (*domain.TripGroup, error) {
	var (
		g          domain.TripGroup
		begin, end *time.Time
	)
	if err := row.Scan(&g.ID, &g.Name, &g.Automatic, &g.Elements, &begin, &end, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	if begin != nil {
		g.Begin = *begin
	}
	if end != nil {
		g.End = *end
	}
	return &g, nil
}

var _ TripGroupRepository = (*PGTripGroupRepository)(nil)
