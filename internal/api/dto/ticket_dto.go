package dto

import (
	"time"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// CreateTicketRequest payload for manual ticket creation.
type CreateTicketRequest struct {
	TankID      string `json:"tank_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IssueType   string `json:"issue_type"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest carries a sparse patch; omitted fields stay untouched.
type UpdateTicketRequest struct {
	Status          *string `json:"status"`
	AssignedTo      *string `json:"assigned_to"`
	ResolutionNotes *string `json:"resolution_notes"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID              string                  `json:"id"`
	UnitID          string                  `json:"unit_id"`
	TankID          string                  `json:"tank_id"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	IssueType       domain.IssueType        `json:"issue_type"`
	Priority        domain.TicketPriority   `json:"priority"`
	Status          domain.TicketStatus     `json:"status"`
	ReportedBy      *string                 `json:"reported_by"`
	AssignedTo      *string                 `json:"assigned_to"`
	ReadingsData    *domain.ReadingSnapshot `json:"readings_data,omitempty"`
	ResolutionNotes *string                 `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time              `json:"resolved_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.MaintenanceTicket) TicketResponse {
	return TicketResponse{
		ID:              ticket.ID,
		UnitID:          ticket.UnitID,
		TankID:          ticket.TankID,
		Title:           ticket.Title,
		Description:     ticket.Description,
		IssueType:       ticket.IssueType,
		Priority:        ticket.Priority,
		Status:          ticket.Status,
		ReportedBy:      ticket.ReportedBy,
		AssignedTo:      ticket.AssignedTo,
		ReadingsData:    ticket.ReadingsData,
		ResolutionNotes: ticket.ResolutionNotes,
		ResolvedAt:      ticket.ResolvedAt,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}
