package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fieldops/fieldservice/internal/domain"
)

// TicketFilter captures ticket search parameters. A zero Limit returns every match.
type TicketFilter struct {
	ClientID      *string
	ModuleID      *string
	Statuses      []domain.TicketStatus
	Priorities    []domain.TicketPriority
	ScheduledOnly bool
	ScheduledOn   *domain.Date
	SearchTerm    *string
	Limit         int
	Offset        int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByClient(ctx context.Context, clientID string) (int64, error)
	DeleteByModule(ctx context.Context, moduleID string) (int64, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, client_id, client_name, module_id, module_serial, title, description,
               status, priority, scheduled_date, latitude, longitude, photos, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (client_id, client_name, module_id, module_serial, title, description,
            status, priority, scheduled_date, latitude, longitude, photos)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	if ticket.Photos == nil {
		ticket.Photos = []string{}
	}
	return r.db.QueryRow(ctx, query,
		ticket.ClientID,
		ticket.ClientName,
		ticket.ModuleID,
		ticket.ModuleSerial,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		dateArg(ticket.ScheduledDate),
		ticket.Latitude,
		ticket.Longitude,
		ticket.Photos,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, scheduled_date=$5,
            latitude=$6, longitude=$7, photos=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	if ticket.Photos == nil {
		ticket.Photos = []string{}
	}
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		dateArg(ticket.ScheduledDate),
		ticket.Latitude,
		ticket.Longitude,
		ticket.Photos,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := ticketWhere(filter)
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` + where +
		` ORDER BY created_at ASC, id ASC` + pageClause(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := ticketWhere(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return affectedOrNoRows(r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) DeleteByClient(ctx context.Context, clientID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE client_id=$1`, clientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) DeleteByModule(ctx context.Context, moduleID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE module_id=$1`, moduleID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func ticketWhere(filter TicketFilter) (string, []any) {
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
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ScheduledOnly {
		clauses = append(clauses, "scheduled_date IS NOT NULL")
	}
	if filter.ScheduledOn != nil {
		args = append(args, dateArg(filter.ScheduledOn))
		clauses = append(clauses, fmt.Sprintf("scheduled_date=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket    domain.Ticket
		scheduled pgtype.Date
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.ClientID,
		&ticket.ClientName,
		&ticket.ModuleID,
		&ticket.ModuleSerial,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&scheduled,
		&ticket.Latitude,
		&ticket.Longitude,
		&ticket.Photos,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.ScheduledDate = dateFromPg(scheduled)
	return &ticket, nil
}
