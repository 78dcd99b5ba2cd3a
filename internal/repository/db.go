package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fieldops/fieldservice/internal/domain"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories sharing one database handle.
type Store struct {
	Clients     ClientRepository
	ModuleTypes ModuleTypeRepository
	Modules     ModuleRepository
	Tickets     TicketRepository
	Documents   DocumentRepository
	Users       UserRepository
}

// NewStore builds Postgres repositories over db.
func NewStore(db DBTX) Store {
	return Store{
		Clients:     NewClientRepository(db),
		ModuleTypes: NewModuleTypeRepository(db),
		Modules:     NewModuleRepository(db),
		Tickets:     NewTicketRepository(db),
		Documents:   NewDocumentRepository(db),
		Users:       NewUserRepository(db),
	}
}

func dateArg(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return pgtype.Date{Time: d.Time(time.UTC), Valid: true}
}

func dateFromPg(d pgtype.Date) *domain.Date {
	if !d.Valid {
		return nil
	}
	out := domain.DateOf(d.Time)
	return &out
}

func affectedOrNoRows(cmd pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func pageClause(limit, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		if offset == 0 {
			return ""
		}
		return fmt.Sprintf(" OFFSET %d", offset)
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
