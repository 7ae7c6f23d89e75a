package events

import (
	"time"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventReadingReceived     EventType = "reading_received"
)

// Actor encapsulates who caused an event. UserID is nil for system-raised
// events such as automatic ticket creation.
type Actor struct {
	System bool    `json:"system"`
	UserID *string `json:"user_id,omitempty"`
}

// SystemActor marks an event as raised by the detection pipeline.
func SystemActor() Actor {
	return Actor{System: true}
}

// UserActor marks an event as raised by a dashboard user.
func UserActor(userID string) Actor {
	return Actor{UserID: &userID}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID  string                `json:"ticket_id"`
	TankID    string                `json:"tank_id"`
	UnitID    string                `json:"unit_id"`
	IssueType domain.IssueType      `json:"issue_type"`
	Priority  domain.TicketPriority `json:"priority"`
	Title     string                `json:"title"`
	Automatic bool                  `json:"automatic"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  string              `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketID  string           `json:"ticket_id"`
	IssueType domain.IssueType `json:"issue_type"`
}

// ReadingReceivedPayload payload.
type ReadingReceivedPayload struct {
	TankID     string  `json:"tank_id"`
	ReadingID  string  `json:"reading_id"`
	WaterLevel float64 `json:"water_level"`
}
