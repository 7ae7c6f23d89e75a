package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hydrowatch/tank-service/internal/detection"
	"github.com/hydrowatch/tank-service/internal/domain"
	"github.com/hydrowatch/tank-service/internal/events"
	"github.com/hydrowatch/tank-service/internal/observability"
	"github.com/hydrowatch/tank-service/internal/repository"
	apperrors "github.com/hydrowatch/tank-service/pkg/util"
)

const detectionTimeout = 10 * time.Second

// IssueDetector runs the detection pipeline for one accepted reading.
type IssueDetector interface {
	DetectIssues(ctx context.Context, tank *domain.Tank, reading domain.Reading) detection.Report
}

// ReadingCache stores the latest reading snapshot for dashboard polling.
type ReadingCache interface {
	SetLastReading(ctx context.Context, tankID string, snapshot domain.ReadingSnapshot) error
}

// IngestService normalizes and persists device readings, then hands them to
// the detector. The reading write is the primary operation: once it commits,
// nothing downstream may fail the ingest.
type IngestService struct {
	readings   repository.ReadingRepository
	tanks      repository.TankRepository
	detector   IssueDetector
	cache      ReadingCache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	async      bool
}

// IngestDependencies bundles collaborators for the ingest service.
type IngestDependencies struct {
	ReadingRepo repository.ReadingRepository
	TankRepo    repository.TankRepository
	Detector    IssueDetector
	Cache       ReadingCache
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Async       bool
}

// ReadingInput is the validated device payload bound to a unit.
type ReadingInput struct {
	DeviceID       string
	WaterLevel     float64
	Temperature    float64
	Vibration      bool
	VibrationCount int
	SensorStates   []bool
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	return &IngestService{
		readings:   deps.ReadingRepo,
		tanks:      deps.TankRepo,
		detector:   deps.Detector,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		async:      deps.Async,
	}
}

// ProcessReading resolves (or auto-provisions) the tank for the device,
// persists the reading, refreshes the last-reading snapshot and cache, and
// kicks off detection. Detection and cache failures are logged, never
// surfaced to the device.
func (s *IngestService) ProcessReading(ctx context.Context, unit *domain.Unit, input ReadingInput) (*domain.Reading, error) {
	tank, err := s.tanks.GetByDeviceID(ctx, input.DeviceID)
	if errors.Is(err, pgx.ErrNoRows) {
		tank = &domain.Tank{
			UnitID:            unit.ID,
			DeviceID:          input.DeviceID,
			Name:              fmt.Sprintf("Tank %s", input.DeviceID),
			TotalCapacity:     1000,
			NumberOfSensors:   sensorCount(input.SensorStates),
			SensorPercentages: []float64{25, 50, 75, 100},
		}
		if err := s.tanks.Create(ctx, tank); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		s.logger.Info("auto-provisioned tank",
			zap.String("tank_id", tank.ID),
			zap.String("device_id", tank.DeviceID),
			zap.String("unit_id", unit.ID))
	} else if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	reading := &domain.Reading{
		TankID:         tank.ID,
		WaterLevel:     input.WaterLevel,
		Temperature:    input.Temperature,
		Vibration:      input.Vibration,
		VibrationCount: input.VibrationCount,
		SensorStates:   input.SensorStates,
	}
	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	// reading committed; everything below is best effort
	snapshot := reading.Snapshot()
	if err := s.tanks.UpdateLastReading(ctx, tank.ID, snapshot); err != nil {
		s.logger.Warn("failed to update tank last reading", zap.String("tank_id", tank.ID), zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.SetLastReading(ctx, tank.ID, snapshot); err != nil {
			s.logger.Warn("failed to cache last reading", zap.String("tank_id", tank.ID), zap.Error(err))
		}
	}
	s.publishReceived(ctx, tank, reading)

	if s.async {
		go s.runDetection(nil, tank, *reading)
	} else {
		s.runDetection(ctx, tank, *reading)
	}
	return reading, nil
}

// runDetection executes the detector and logs the report. When ctx is nil
// the run is detached from the request with its own timeout, so a slow
// ticket-store write never delays the device-facing response.
func (s *IngestService) runDetection(ctx context.Context, tank *domain.Tank, reading domain.Reading) {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), detectionTimeout)
		defer cancel()
	}

	report := s.detector.DetectIssues(ctx, tank, reading)

	for _, ticket := range report.Created {
		s.metrics.RecordDetection(string(ticket.IssueType), observability.DetectionOutcomeCreated)
	}
	for _, issueType := range report.Suppressed {
		s.metrics.RecordDetection(string(issueType), observability.DetectionOutcomeSuppressed)
	}
	if len(report.Issues) == 0 {
		s.metrics.RecordDetection("none", observability.DetectionOutcomeClean)
	}

	if report.Err != nil {
		s.metrics.RecordDetection("none", observability.DetectionOutcomeError)
		s.logger.Warn("issue detection failed",
			zap.String("tank_id", tank.ID),
			zap.Int("issues", len(report.Issues)),
			zap.Error(report.Err))
		return
	}
	if len(report.Issues) > 0 {
		s.logger.Info("issue detection completed",
			zap.String("tank_id", tank.ID),
			zap.Int("issues", len(report.Issues)),
			zap.Int("tickets_created", len(report.Created)),
			zap.Int("suppressed", len(report.Suppressed)))
	}
}

func (s *IngestService) publishReceived(ctx context.Context, tank *domain.Tank, reading *domain.Reading) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventReadingReceived,
		Actor:     events.SystemActor(),
		Timestamp: time.Now(),
		Payload: events.ReadingReceivedPayload{
			TankID:     tank.ID,
			ReadingID:  reading.ID,
			WaterLevel: reading.WaterLevel,
		},
	})
}

func sensorCount(states []bool) int {
	if len(states) == 0 {
		return 4
	}
	return len(states)
}
