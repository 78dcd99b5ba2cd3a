package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fieldops/fieldservice/internal/domain"
)

// DocumentFilter narrows document listings. Set fields are ANDed.
type DocumentFilter struct {
	ClientID     *string
	ModuleID     *string
	ModuleTypeID *string
}

// DocumentRepository persists document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)
	Count(ctx context.Context, filter DocumentFilter) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByClient(ctx context.Context, clientID string) (int64, error)
	DeleteByModule(ctx context.Context, moduleID string) (int64, error)
}

type documentRepository struct {
	db DBTX
}

// NewDocumentRepository constructs repository.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, name, file_url, storage_path, content_type, size_bytes,
               client_id, module_id, module_type_id, created_at`

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	const query = `
        INSERT INTO documents (name, file_url, storage_path, content_type, size_bytes, client_id, module_id, module_type_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		doc.Name,
		doc.FileURL,
		doc.StoragePath,
		doc.ContentType,
		doc.SizeBytes,
		doc.ClientID,
		doc.ModuleID,
		doc.ModuleTypeID,
	).Scan(&doc.ID, &doc.CreatedAt)
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id))
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error) {
	where, args := documentWhere(filter)
	rows, err := r.db.Query(ctx, `SELECT `+documentColumns+` FROM documents WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *doc)
	}
	return result, rows.Err()
}

func (r *documentRepository) Count(ctx context.Context, filter DocumentFilter) (int, error) {
	where, args := documentWhere(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	return affectedOrNoRows(r.db.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id))
}

func (r *documentRepository) DeleteByClient(ctx context.Context, clientID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM documents WHERE client_id=$1`, clientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *documentRepository) DeleteByModule(ctx context.Context, moduleID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM documents WHERE module_id=$1`, moduleID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func documentWhere(filter DocumentFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.ModuleID != nil {
		args = append(args, *filter.ModuleID)
		clauses = append(clauses, fmt.Sprintf("module_id=$%d", len(args)))
	}
	if filter.ModuleTypeID != nil {
		args = append(args, *filter.ModuleTypeID)
		clauses = append(clauses, fmt.Sprintf("module_type_id=$%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.FileURL,
		&doc.StoragePath,
		&doc.ContentType,
		&doc.SizeBytes,
		&doc.ClientID,
		&doc.ModuleID,
		&doc.ModuleTypeID,
		&doc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}
