package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `id, kind, name, reservation_number, under_name, trip_number, departure, arrival, location, start_at, end_at, document_ids, created_at, updated_at`

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	dep, arr, loc, err := marshalLocations(res)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `INSERT INTO reservations (id, kind, name, reservation_number, under_name, trip_number, departure, arrival, location, start_at, end_at, document_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		res.ID, res.Kind, res.Name, res.ReservationNumber, res.UnderName, res.TripNumber, dep, arr, loc, res.Start, nullTime(res.End), documentIDs(res.DocumentIDs)).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

func (r *PGReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	dep, arr, loc, err := marshalLocations(res)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `UPDATE reservations SET name=$2, reservation_number=$3, under_name=$4, trip_number=$5, departure=$6, arrival=$7, location=$8,
		start_at=$9, end_at=$10, document_ids=$11, updated_at=now()
		WHERE id=$1 RETURNING updated_at`,
		res.ID, res.Name, res.ReservationNumber, res.UnderName, res.TripNumber, dep, arr, loc, res.Start, nullTime(res.End), documentIDs(res.DocumentIDs)).
		Scan(&res.UpdatedAt)
	return notFound(err, "reservation", res.ID)
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id)
	res, err := scanReservation(row)
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	return res, nil
}

func (r *PGReservationRepository) List(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY start_at, coalesce(end_at, start_at), id`)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ANY($1) ORDER BY start_at, coalesce(end_at, start_at), id`, ids)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "reservation", ID: id}
	}
	return nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var (
		res           domain.Reservation
		dep, arr, loc []byte
		end           *time.Time
	)
	if err := row.Scan(&res.ID, &res.Kind, &res.Name, &res.ReservationNumber, &res.UnderName, &res.TripNumber,
		&dep, &arr, &loc, &res.Start, &end, &res.DocumentIDs, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	if end != nil {
		res.End = *end
	}
	for _, pair := range []struct {
		raw []byte
		dst *domain.Location
	}{{dep, &res.Departure}, {arr, &res.Arrival}, {loc, &res.Location}} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func marshalLocations(res *domain.Reservation) (dep, arr, loc []byte, err error) {
	if dep, err = json.Marshal(res.Departure); err != nil {
		return nil, nil, nil, err
	}
	if arr, err = json.Marshal(res.Arrival); err != nil {
		return nil, nil, nil, err
	}
	if loc, err = json.Marshal(res.Location); err != nil {
		return nil, nil, nil, err
	}
	return dep, arr, loc, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func documentIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
