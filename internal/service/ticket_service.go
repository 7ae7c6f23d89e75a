package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hydrowatch/tank-service/internal/domain"
	"github.com/hydrowatch/tank-service/internal/events"
	"github.com/hydrowatch/tank-service/internal/repository"
	apperrors "github.com/hydrowatch/tank-service/pkg/util"
)

// TicketService coordinates the maintenance ticket lifecycle and the scoped
// query surface consumed by the dashboard.
type TicketService struct {
	tickets    repository.TicketRepository
	tanks      repository.TankRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	TankRepo   repository.TankRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes a manual ticket creation payload. IssueType and
// Priority arrive as raw strings and are validated at this boundary.
type TicketCreateInput struct {
	TankID      string
	Title       string
	Description string
	IssueType   string
	Priority    string
}

// TicketPatch carries a sparse update: only non-nil fields are applied.
type TicketPatch struct {
	Status          *string
	AssignedTo      *string
	ResolutionNotes *string
}

// TicketListFilter describes listing filters; all are conjunctive.
type TicketListFilter struct {
	Status    *domain.TicketStatus
	IssueType *domain.IssueType
	Priority  *domain.TicketPriority
	Limit     int
	Offset    int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		tanks:      deps.TankRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket creates a ticket on behalf of a dashboard user. The owning
// unit is resolved through the tank; no partial record is written when the
// tank is missing.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.MaintenanceTicket, error) {
	if strings.TrimSpace(input.TankID) == "" || strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Description) == "" || strings.TrimSpace(input.IssueType) == "" {
		return nil, apperrors.NewValidationError("tank_id, title, description, issue_type required", nil)
	}

	issueType, err := domain.ParseIssueType(input.IssueType)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != "" {
		priority, err = domain.ParseTicketPriority(input.Priority)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
	}

	tank, err := s.tanks.GetByID(ctx, input.TankID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tank", map[string]any{"tank_id": input.TankID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	ticket := &domain.MaintenanceTicket{
		UnitID:      tank.UnitID,
		TankID:      tank.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		IssueType:   issueType,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		ReportedBy:  &userID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	s.publish(ctx, events.Event{
		Type:  events.EventTicketCreated,
		Actor: events.UserActor(userID),
		Payload: events.TicketCreatedPayload{
			TicketID:  ticket.ID,
			TankID:    ticket.TankID,
			UnitID:    ticket.UnitID,
			IssueType: ticket.IssueType,
			Priority:  ticket.Priority,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

// UpdateTicket applies a sparse patch. Fields absent from the patch keep
// their prior values. Patching status to resolved or closed stamps
// ResolvedAt at mutation time; moving back out of those states leaves the
// old timestamp in place.
func (s *TicketService) UpdateTicket(ctx context.Context, userID, ticketID string, patch TicketPatch) (*domain.MaintenanceTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	oldStatus := ticket.Status
	if patch.Status != nil {
		status, err := domain.ParseTicketStatus(*patch.Status)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		ticket.Status = status
		if status.StampsResolution() {
			now := time.Now()
			ticket.ResolvedAt = &now
		}
	}
	if patch.AssignedTo != nil {
		ticket.AssignedTo = patch.AssignedTo
	}
	if patch.ResolutionNotes != nil {
		ticket.ResolutionNotes = patch.ResolutionNotes
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	if ticket.Status != oldStatus {
		s.publish(ctx, events.Event{
			Type:  events.EventTicketStatusChanged,
			Actor: events.UserActor(userID),
			Payload: events.TicketStatusChangedPayload{
				TicketID:  ticket.ID,
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

// DeleteTicket hard-deletes a ticket. A missing id is a not-found error, not
// a no-op success.
func (s *TicketService) DeleteTicket(ctx context.Context, userID, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewStoreUnavailable(err)
	}
	s.publish(ctx, events.Event{
		Type:  events.EventTicketDeleted,
		Actor: events.UserActor(userID),
		Payload: events.TicketDeletedPayload{
			TicketID:  ticket.ID,
			IssueType: ticket.IssueType,
		},
	})
	return nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.MaintenanceTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

// ListTickets returns tickets visible to the actor, most recent first.
// Administrators see everything; other users only tickets belonging to their
// associated units. A user with no unit memberships gets an empty result.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.MaintenanceTicket, error) {
	repoFilter := repository.TicketFilter{
		Status:    filter.Status,
		IssueType: filter.IssueType,
		Priority:  filter.Priority,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	if !actor.IsAdmin() {
		if len(actor.Units) == 0 {
			return []domain.MaintenanceTicket{}, nil
		}
		repoFilter.UnitIDs = actor.Units
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
