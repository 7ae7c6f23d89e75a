package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// TicketFilter captures ticket search parameters. UnitIDs restricts results
// to tickets owned by those units; an empty slice means no restriction.
type TicketFilter struct {
	UnitIDs   []string
	TankID    *string
	Status    *domain.TicketStatus
	IssueType *domain.IssueType
	Priority  *domain.TicketPriority
	Limit     int
	Offset    int
}

// TicketRepository encapsulates maintenance ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.MaintenanceTicket) error
	Update(ctx context.Context, ticket *domain.MaintenanceTicket) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.MaintenanceTicket, error)
	HasOpenTicket(ctx context.Context, tankID string, issueType domain.IssueType, since time.Time) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.MaintenanceTicket) error {
	const query = `
        INSERT INTO maintenance_tickets (unit_id, tank_id, title, description, issue_type, priority, status, reported_by, assigned_to, readings_data, resolution_notes, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.UnitID,
		ticket.TankID,
		ticket.Title,
		ticket.Description,
		ticket.IssueType,
		ticket.Priority,
		ticket.Status,
		ticket.ReportedBy,
		ticket.AssignedTo,
		ticket.ReadingsData,
		ticket.ResolutionNotes,
		ticket.ResolvedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.MaintenanceTicket) error {
	const query = `
        UPDATE maintenance_tickets SET title=$1, description=$2, issue_type=$3, priority=$4,
            status=$5, assigned_to=$6, resolution_notes=$7, resolved_at=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.IssueType,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
		ticket.ResolutionNotes,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error) {
	const query = `
        SELECT id, unit_id, tank_id, title, description, issue_type, priority, status,
               reported_by, assigned_to, readings_data, resolution_notes, resolved_at, created_at, updated_at
        FROM maintenance_tickets WHERE id=$1`

	var ticket domain.MaintenanceTicket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.UnitID,
		&ticket.TankID,
		&ticket.Title,
		&ticket.Description,
		&ticket.IssueType,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ReportedBy,
		&ticket.AssignedTo,
		&ticket.ReadingsData,
		&ticket.ResolutionNotes,
		&ticket.ResolvedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM maintenance_tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HasOpenTicket reports whether an open or in-progress ticket exists for the
// tank and issue type created at or after the given instant. This read and
// the subsequent insert are not transactional; concurrent identical readings
// can still both pass the check.
func (r *ticketRepository) HasOpenTicket(ctx context.Context, tankID string, issueType domain.IssueType, since time.Time) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM maintenance_tickets
            WHERE tank_id=$1 AND issue_type=$2 AND status IN ('open','in_progress') AND created_at >= $3
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, tankID, issueType, since).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.MaintenanceTicket, error) {
	base := `SELECT id, unit_id, tank_id, title, description, issue_type, priority, status,
                    reported_by, assigned_to, readings_data, resolution_notes, resolved_at, created_at, updated_at
             FROM maintenance_tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.UnitIDs) > 0 {
		args = append(args, filter.UnitIDs)
		clauses = append(clauses, fmt.Sprintf("unit_id = ANY($%d)", len(args)))
	}
	if filter.TankID != nil {
		args = append(args, *filter.TankID)
		clauses = append(clauses, fmt.Sprintf("tank_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.IssueType != nil {
		args = append(args, *filter.IssueType)
		clauses = append(clauses, fmt.Sprintf("issue_type=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.MaintenanceTicket, error) {
	var result []domain.MaintenanceTicket
	for rows.Next() {
		var ticket domain.MaintenanceTicket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UnitID,
			&ticket.TankID,
			&ticket.Title,
			&ticket.Description,
			&ticket.IssueType,
			&ticket.Priority,
			&ticket.Status,
			&ticket.ReportedBy,
			&ticket.AssignedTo,
			&ticket.ReadingsData,
			&ticket.ResolutionNotes,
			&ticket.ResolvedAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
