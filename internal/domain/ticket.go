package domain

import (
	"fmt"
	"time"
)

// IssueType categorizes the anomaly a maintenance ticket tracks.
type IssueType string

const (
	IssueVibration       IssueType = "vibration"
	IssueLowWater        IssueType = "low_water"
	IssueHighTemperature IssueType = "high_temperature"
	IssueSensorFailure   IssueType = "sensor_failure"
	IssueOther           IssueType = "other"
)

// ParseIssueType validates an issue type string received at the API boundary.
func ParseIssueType(raw string) (IssueType, error) {
	switch t := IssueType(raw); t {
	case IssueVibration, IssueLowWater, IssueHighTemperature, IssueSensorFailure, IssueOther:
		return t, nil
	}
	return "", fmt.Errorf("unknown issue type %q", raw)
}

// TicketPriority enumerates remediation urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// ParseTicketPriority validates a priority string received at the API boundary.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	switch p := TicketPriority(raw); p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return p, nil
	}
	return "", fmt.Errorf("unknown ticket priority %q", raw)
}

// TicketStatus enumerates lifecycle states. The machine is permissive: any
// state may move to any other via an explicit update.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// ParseTicketStatus validates a status string received at the API boundary so
// illegal values are rejected instead of stored.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch s := TicketStatus(raw); s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return s, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// StampsResolution reports whether entering this status sets ResolvedAt.
// Leaving a resolving status never clears the timestamp.
func (s TicketStatus) StampsResolution() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Issue is the transient result of classifying a reading. It is never
// persisted standalone; accepted issues materialize as tickets.
type Issue struct {
	Type        IssueType
	Priority    TicketPriority
	Title       string
	Description string
}

// ReadingSnapshot is the immutable copy of the triggering reading stored on an
// automatically raised ticket for audit purposes.
type ReadingSnapshot struct {
	WaterLevel     float64   `json:"water_level"`
	Temperature    float64   `json:"temperature"`
	Vibration      bool      `json:"vibration"`
	VibrationCount int       `json:"vibration_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// MaintenanceTicket is the aggregate tracking remediation of a detected or
// manually reported issue. ReportedBy is nil for system-raised tickets.
type MaintenanceTicket struct {
	ID              string
	UnitID          string
	TankID          string
	Title           string
	Description     string
	IssueType       IssueType
	Priority        TicketPriority
	Status          TicketStatus
	ReportedBy      *string
	AssignedTo      *string
	ReadingsData    *ReadingSnapshot
	ResolutionNotes *string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
