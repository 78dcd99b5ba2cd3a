package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fieldops/fieldservice/internal/domain"
)

// ModuleFilter narrows installed module listings.
type ModuleFilter struct {
	ClientID     *string
	ModuleTypeID *string
	Limit        int
	Offset       int
}

// ModuleRepository manages installed modules.
type ModuleRepository interface {
	Create(ctx context.Context, module *domain.Module) error
	Update(ctx context.Context, module *domain.Module) error
	GetByID(ctx context.Context, id string) (*domain.Module, error)
	List(ctx context.Context, filter ModuleFilter) ([]domain.Module, error)
	Count(ctx context.Context, filter ModuleFilter) (int, error)
	Delete(ctx context.Context, id string) error
}

type moduleRepository struct {
	db DBTX
}

// NewModuleRepository builds the repository.
func NewModuleRepository(db DBTX) ModuleRepository {
	return &moduleRepository{db: db}
}

const moduleSelect = `
        SELECT m.id, m.client_id, m.module_type_id, COALESCE(mt.name, ''), m.serial_number,
               m.install_date, m.location, m.created_at
        FROM modules m LEFT JOIN module_types mt ON mt.id = m.module_type_id`

func (r *moduleRepository) Create(ctx context.Context, module *domain.Module) error {
	const query = `
        INSERT INTO modules (client_id, module_type_id, serial_number, install_date, location)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		module.ClientID,
		module.ModuleTypeID,
		module.SerialNumber,
		dateArg(module.InstallDate),
		module.Location,
	).Scan(&module.ID, &module.CreatedAt)
}

func (r *moduleRepository) Update(ctx context.Context, module *domain.Module) error {
	const query = `
        UPDATE modules SET module_type_id=$1, serial_number=$2, install_date=$3, location=$4
        WHERE id=$5`
	return affectedOrNoRows(r.db.Exec(ctx, query,
		module.ModuleTypeID,
		module.SerialNumber,
		dateArg(module.InstallDate),
		module.Location,
		module.ID,
	))
}

func (r *moduleRepository) GetByID(ctx context.Context, id string) (*domain.Module, error) {
	return scanModule(r.db.QueryRow(ctx, moduleSelect+` WHERE m.id=$1`, id))
}

func (r *moduleRepository) List(ctx context.Context, filter ModuleFilter) ([]domain.Module, error) {
	where, args := moduleWhere(filter, "m.")
	query := moduleSelect + ` WHERE ` + where + ` ORDER BY m.created_at ASC, m.id ASC` + pageClause(filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Module
	for rows.Next() {
		module, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *module)
	}
	return result, rows.Err()
}

func (r *moduleRepository) Count(ctx context.Context, filter ModuleFilter) (int, error) {
	where, args := moduleWhere(filter, "")
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM modules WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *moduleRepository) Delete(ctx context.Context, id string) error {
	return affectedOrNoRows(r.db.Exec(ctx, `DELETE FROM modules WHERE id=$1`, id))
}

func moduleWhere(filter ModuleFilter, prefix string) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("%sclient_id=$%d", prefix, len(args)))
	}
	if filter.ModuleTypeID != nil {
		args = append(args, *filter.ModuleTypeID)
		clauses = append(clauses, fmt.Sprintf("%smodule_type_id=$%d", prefix, len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanModule(row pgx.Row) (*domain.Module, error) {
	var (
		module  domain.Module
		install pgtype.Date
	)
	if err := row.Scan(
		&module.ID,
		&module.ClientID,
		&module.ModuleTypeID,
		&module.ModuleTypeName,
		&module.SerialNumber,
		&install,
		&module.Location,
		&module.CreatedAt,
	); err != nil {
		return nil, err
	}
	module.InstallDate = dateFromPg(install)
	return &module, nil
}
