package repository

import (
	"context"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const passColumns = `id, type, name, member_name, member_number, valid_from, valid_until, created_at, updated_at`

type PGPassRepository struct {
	db *pgxpool.Pool
}

func NewPassRepository(db *pgxpool.Pool) PassRepository {
	return &PGPassRepository{db: db}
}

func (r *PGPassRepository) Create(ctx context.Context, p *domain.Pass) error {
	return r.db.QueryRow(ctx, `INSERT INTO passes (id, type, name, member_name, member_number, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`, p.ID, p.Type, p.Name, p.MemberName, p.MemberNumber, p.ValidFrom, p.ValidUntil).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PGPassRepository) Update(ctx context.Context, p *domain.Pass) error {
	err := r.db.QueryRow(ctx, `UPDATE passes SET type=$2, name=$3, member_name=$4, member_number=$5, valid_from=$6, valid_until=$7, updated_at=now()
		WHERE id=$1 RETURNING updated_at`, p.ID, p.Type, p.Name, p.MemberName, p.MemberNumber, p.ValidFrom, p.ValidUntil).
		Scan(&p.UpdatedAt)
	return notFound(err, "pass", p.ID)
}

func (r *PGPassRepository) GetByID(ctx context.Context, id string) (*domain.Pass, error) {
	p, err := scanPass(r.db.QueryRow(ctx, `SELECT `+passColumns+` FROM passes WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "pass", id)
	}
	return p, nil
}

func (r *PGPassRepository) List(ctx context.Context) ([]domain.Pass, error) {
	rows, err := r.db.Query(ctx, `SELECT `+passColumns+` FROM passes ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []domain.Pass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, *p)
	}
	return passes, rows.Err()
}

func (r *PGPassRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM passes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "pass", ID: id}
	}
	return nil
}

func scanPass(row pgx.Row) (*domain.Pass, error) {
	var p domain.Pass
	if err := row.Scan(&p.ID, &p.Type, &p.Name, &p.MemberName, &p.MemberNumber, &p.ValidFrom, &p.ValidUntil, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PassRepository = (*PGPassRepository)(nil)
