package detection

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hydrowatch/tank-service/internal/config"
	"github.com/hydrowatch/tank-service/internal/domain"
	"github.com/hydrowatch/tank-service/internal/events"
	"github.com/hydrowatch/tank-service/internal/repository"
)

// Report is the explicit outcome of one detection run. The ingest path logs
// it and moves on; a detection failure never propagates to the device-facing
// response.
type Report struct {
	Issues     []domain.Issue
	Created    []domain.MaintenanceTicket
	Suppressed []domain.IssueType
	Err        error
}

// Detector inspects each accepted reading, classifies it, applies the
// deduplication guard, and materializes tickets for issues that pass.
type Detector struct {
	classifier *Classifier
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	cfg        config.DetectionConfig
}

// NewDetector constructs the detector.
func NewDetector(cfg config.DetectionConfig, tickets repository.TicketRepository, dispatcher events.Dispatcher) *Detector {
	return &Detector{
		classifier: NewClassifier(cfg),
		tickets:    tickets,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// DetectIssues runs the full pipeline for one reading. The guard is
// evaluated independently per issue type: an open low_water ticket does not
// suppress a new high_temperature one. Errors from the store are collected
// into the report rather than returned; remaining issues are still
// evaluated.
func (d *Detector) DetectIssues(ctx context.Context, tank *domain.Tank, reading domain.Reading) Report {
	report := Report{Issues: d.classifier.Classify(reading)}
	if len(report.Issues) == 0 {
		return report
	}

	since := time.Now().Add(-d.cfg.DedupWindow)
	for _, issue := range report.Issues {
		exists, err := d.tickets.HasOpenTicket(ctx, tank.ID, issue.Type, since)
		if err != nil {
			if report.Err == nil {
				report.Err = err
			}
			continue
		}
		if exists {
			report.Suppressed = append(report.Suppressed, issue.Type)
			continue
		}

		snapshot := reading.Snapshot()
		if snapshot.Timestamp.IsZero() {
			snapshot.Timestamp = time.Now()
		}
		ticket := domain.MaintenanceTicket{
			UnitID:       tank.UnitID,
			TankID:       tank.ID,
			Title:        issue.Title,
			Description:  issue.Description,
			IssueType:    issue.Type,
			Priority:     issue.Priority,
			Status:       domain.TicketStatusOpen,
			ReadingsData: &snapshot,
		}
		if err := d.tickets.Create(ctx, &ticket); err != nil {
			if report.Err == nil {
				report.Err = err
			}
			continue
		}
		report.Created = append(report.Created, ticket)
		d.publishCreated(ctx, &ticket)
	}
	return report
}

func (d *Detector) publishCreated(ctx context.Context, ticket *domain.MaintenanceTicket) {
	if d.dispatcher == nil {
		return
	}
	_ = d.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketCreated,
		Actor:     events.SystemActor(),
		Timestamp: time.Now(),
		Payload: events.TicketCreatedPayload{
			TicketID:  ticket.ID,
			TankID:    ticket.TankID,
			UnitID:    ticket.UnitID,
			IssueType: ticket.IssueType,
			Priority:  ticket.Priority,
			Title:     ticket.Title,
			Automatic: true,
		},
	})
}
