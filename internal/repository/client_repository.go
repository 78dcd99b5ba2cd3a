package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldops/fieldservice/internal/domain"
)

// ClientFilter narrows client listings.
type ClientFilter struct {
	SearchTerm *string
	Limit      int
	Offset     int
}

// ClientRepository handles persistence for clients.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]domain.Client, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

type clientRepository struct {
	db DBTX
}

// NewClientRepository instantiates the repository.
func NewClientRepository(db DBTX) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (name, contact_name, email, phone, address, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		client.Name,
		client.ContactName,
		client.Email,
		client.Phone,
		client.Address,
		client.Notes,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `
        UPDATE clients SET name=$1, contact_name=$2, email=$3, phone=$4, address=$5, notes=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		client.Name,
		client.ContactName,
		client.Email,
		client.Phone,
		client.Address,
		client.Notes,
		client.ID,
	).Scan(&client.UpdatedAt)
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	const query = `
        SELECT id, name, contact_name, email, phone, address, notes, created_at, updated_at
        FROM clients WHERE id=$1`
	var client domain.Client
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.ContactName,
		&client.Email,
		&client.Phone,
		&client.Address,
		&client.Notes,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter) ([]domain.Client, error) {
	query := `
        SELECT id, name, contact_name, email, phone, address, notes, created_at, updated_at
        FROM clients`
	args := []any{}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		query += fmt.Sprintf(" WHERE LOWER(name) LIKE $%d", len(args))
	}
	query += " ORDER BY name ASC" + pageClause(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		var client domain.Client
		if err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.ContactName,
			&client.Email,
			&client.Phone,
			&client.Address,
			&client.Notes,
			&client.CreatedAt,
			&client.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, client)
	}
	return result, rows.Err()
}

func (r *clientRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count)
	return count, err
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	return affectedOrNoRows(r.db.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id))
}
