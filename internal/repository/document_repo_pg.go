package repository

import (
	"context"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGDocumentRepository struct {
	db *pgxpool.Pool
}

func NewDocumentRepository(db *pgxpool.Pool) DocumentRepository {
	return &PGDocumentRepository{db: db}
}

func (r *PGDocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	return r.db.QueryRow(ctx, `INSERT INTO documents (id, owner_id, name, content_type, size, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`, d.ID, d.OwnerID, d.Name, d.ContentType, d.Size, d.StorageKey).
		Scan(&d.CreatedAt)
}

func (r *PGDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	err := r.db.QueryRow(ctx, `SELECT id, owner_id, name, content_type, size, storage_key, created_at FROM documents WHERE id=$1`, id).
		Scan(&d.ID, &d.OwnerID, &d.Name, &d.ContentType, &d.Size, &d.StorageKey, &d.CreatedAt)
	if err != nil {
		return nil, notFound(err, "document", id)
	}
	return &d, nil
}

func (r *PGDocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := r.db.Query(ctx, `SELECT id, owner_id, name, content_type, size, storage_key, created_at FROM documents WHERE owner_id=$1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.ContentType, &d.Size, &d.StorageKey, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PGDocumentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "document", ID: id}
	}
	return nil
}

var _ DocumentRepository = (*PGDocumentRepository)(nil)
