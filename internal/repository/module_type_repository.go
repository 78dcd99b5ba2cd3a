package repository

import (
	"context"

	"github.com/fieldops/fieldservice/internal/domain"
)

// ModuleTypeRepository manages the product catalog.
type ModuleTypeRepository interface {
	Create(ctx context.Context, mt *domain.ModuleType) error
	Update(ctx context.Context, mt *domain.ModuleType) error
	GetByID(ctx context.Context, id string) (*domain.ModuleType, error)
	List(ctx context.Context) ([]domain.ModuleType, error)
	Delete(ctx context.Context, id string) error
}

type moduleTypeRepository struct {
	db DBTX
}

// NewModuleTypeRepository builds the repository.
func NewModuleTypeRepository(db DBTX) ModuleTypeRepository {
	return &moduleTypeRepository{db: db}
}

func (r *moduleTypeRepository) Create(ctx context.Context, mt *domain.ModuleType) error {
	const query = `
        INSERT INTO module_types (name, manufacturer, model, description)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		mt.Name,
		mt.Manufacturer,
		mt.Model,
		mt.Description,
	).Scan(&mt.ID, &mt.CreatedAt)
}

func (r *moduleTypeRepository) Update(ctx context.Context, mt *domain.ModuleType) error {
	const query = `
        UPDATE module_types SET name=$1, manufacturer=$2, model=$3, description=$4
        WHERE id=$5`
	return affectedOrNoRows(r.db.Exec(ctx, query,
		mt.Name,
		mt.Manufacturer,
		mt.Model,
		mt.Description,
		mt.ID,
	))
}

func (r *moduleTypeRepository) GetByID(ctx context.Context, id string) (*domain.ModuleType, error) {
	const query = `
        SELECT id, name, manufacturer, model, description, created_at
        FROM module_types WHERE id=$1`
	var mt domain.ModuleType
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&mt.ID,
		&mt.Name,
		&mt.Manufacturer,
		&mt.Model,
		&mt.Description,
		&mt.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &mt, nil
}

func (r *moduleTypeRepository) List(ctx context.Context) ([]domain.ModuleType, error) {
	const query = `
        SELECT id, name, manufacturer, model, description, created_at
        FROM module_types ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ModuleType
	for rows.Next() {
		var mt domain.ModuleType
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.Manufacturer, &mt.Model, &mt.Description, &mt.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, mt)
	}
	return result, rows.Err()
}

func (r *moduleTypeRepository) Delete(ctx context.Context, id string) error {
	return affectedOrNoRows(r.db.Exec(ctx, `DELETE FROM module_types WHERE id=$1`, id))
}
