package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hydrowatch/tank-service/internal/config"
	"github.com/hydrowatch/tank-service/internal/detection"
	"github.com/hydrowatch/tank-service/internal/domain"
	"github.com/hydrowatch/tank-service/internal/observability"
	"github.com/hydrowatch/tank-service/internal/repository"
)

type fakeReadingRepo struct {
	readings  []domain.Reading
	createErr error
}

func (f *fakeReadingRepo) Create(ctx context.Context, reading *domain.Reading) error {
	if f.createErr != nil {
		return f.createErr
	}
	reading.ID = uuid.NewString()
	reading.Timestamp = time.Now()
	f.readings = append(f.readings, *reading)
	return nil
}

func (f *fakeReadingRepo) ListByTank(ctx context.Context, tankID string, filter repository.ReadingHistoryFilter) ([]domain.Reading, error) {
	var out []domain.Reading
	for _, r := range f.readings {
		if r.TankID == tankID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeReadingCache struct {
	snapshots map[string]domain.ReadingSnapshot
	setErr    error
}

func (f *fakeReadingCache) SetLastReading(ctx context.Context, tankID string, snapshot domain.ReadingSnapshot) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.snapshots == nil {
		f.snapshots = map[string]domain.ReadingSnapshot{}
	}
	f.snapshots[tankID] = snapshot
	return nil
}

type erroringDetector struct{}

func (erroringDetector) DetectIssues(ctx context.Context, tank *domain.Tank, reading domain.Reading) detection.Report {
	return detection.Report{Err: errors.New("detection store down")}
}

func detectionTestConfig() config.DetectionConfig {
	return config.DetectionConfig{
		VibrationCountLimit: 10,
		LowWaterPercent:     20,
		HighTempCelsius:     40,
		DedupWindow:         24 * time.Hour,
	}
}

func newIngestForTest(readings *fakeReadingRepo, tanks *fakeTankRepo, tickets *fakeTicketRepo, cache *fakeReadingCache) *IngestService {
	var detector IssueDetector = detection.NewDetector(detectionTestConfig(), tickets, nil)
	return NewIngestService(IngestDependencies{
		ReadingRepo: readings,
		TankRepo:    tanks,
		Detector:    detector,
		Cache:       cache,
		Metrics:     observability.NewMetrics(),
		Logger:      zap.NewNop(),
		Async:       false,
	})
}

func testUnit() *domain.Unit {
	return &domain.Unit{ID: "unit-1", Name: "Block A", Status: domain.UnitStatusActive}
}

func TestProcessReading_PersistsAndCaches(t *testing.T) {
	readings := &fakeReadingRepo{}
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	cache := &fakeReadingCache{}
	svc := newIngestForTest(readings, tanks, newFakeTicketRepo(), cache)

	reading, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
		DeviceID:    tank.DeviceID,
		WaterLevel:  55,
		Temperature: 25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.ID == "" || reading.TankID != tank.ID {
		t.Fatalf("reading not persisted correctly: %+v", reading)
	}

	stored, _ := tanks.GetByID(context.Background(), tank.ID)
	if stored.LastReading == nil || stored.LastReading.WaterLevel != 55 {
		t.Fatalf("tank last reading not refreshed: %+v", stored.LastReading)
	}
	if snap, ok := cache.snapshots[tank.ID]; !ok || snap.WaterLevel != 55 {
		t.Fatalf("cache not refreshed: %+v", cache.snapshots)
	}
}

func TestProcessReading_AutoProvisionsUnknownDevice(t *testing.T) {
	readings := &fakeReadingRepo{}
	tanks := newFakeTankRepo()
	svc := newIngestForTest(readings, tanks, newFakeTicketRepo(), &fakeReadingCache{})

	reading, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
		DeviceID:     "esp32-new",
		WaterLevel:   50,
		Temperature:  25,
		SensorStates: []bool{true, true, false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tank, err := tanks.GetByDeviceID(context.Background(), "esp32-new")
	if err != nil {
		t.Fatalf("tank not provisioned: %v", err)
	}
	if tank.UnitID != "unit-1" {
		t.Fatalf("tank bound to wrong unit: %q", tank.UnitID)
	}
	if tank.TotalCapacity != 1000 {
		t.Fatalf("default capacity = %v, want 1000", tank.TotalCapacity)
	}
	if tank.NumberOfSensors != 3 {
		t.Fatalf("sensor count = %d, want 3 from sensor states", tank.NumberOfSensors)
	}
	if len(tank.SensorPercentages) != 4 {
		t.Fatalf("default percentages missing: %v", tank.SensorPercentages)
	}
	if reading.TankID != tank.ID {
		t.Fatalf("reading not linked to provisioned tank")
	}
}

func TestProcessReading_AnomalyCreatesTicketWithSnapshot(t *testing.T) {
	readings := &fakeReadingRepo{}
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	tickets := newFakeTicketRepo()
	svc := newIngestForTest(readings, tanks, tickets, &fakeReadingCache{})

	if _, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
		DeviceID:    tank.DeviceID,
		WaterLevel:  15,
		Temperature: 25,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tickets.tickets) != 1 {
		t.Fatalf("expected 1 automatic ticket, got %d", len(tickets.tickets))
	}
	for _, tk := range tickets.tickets {
		if tk.IssueType != domain.IssueLowWater {
			t.Fatalf("issue type = %q, want low_water", tk.IssueType)
		}
		if tk.Priority != domain.TicketPriorityCritical {
			t.Fatalf("priority = %q, want critical", tk.Priority)
		}
		if tk.ReadingsData == nil || tk.ReadingsData.WaterLevel != 15 {
			t.Fatalf("snapshot not attached: %+v", tk.ReadingsData)
		}
		if tk.ReportedBy != nil {
			t.Fatalf("automatic ticket must have no reporter")
		}
	}
}

func TestProcessReading_RepeatedAnomalyDoesNotDuplicate(t *testing.T) {
	readings := &fakeReadingRepo{}
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	tickets := newFakeTicketRepo()
	svc := newIngestForTest(readings, tanks, tickets, &fakeReadingCache{})

	for i := 0; i < 3; i++ {
		if _, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
			DeviceID:    tank.DeviceID,
			WaterLevel:  15,
			Temperature: 25,
		}); err != nil {
			t.Fatalf("reading %d: %v", i, err)
		}
	}

	if len(tickets.tickets) != 1 {
		t.Fatalf("repeated readings must reuse the open ticket, got %d", len(tickets.tickets))
	}
	if len(readings.readings) != 3 {
		t.Fatalf("every reading must be persisted, got %d", len(readings.readings))
	}
}

func TestProcessReading_RecordsDetectionOutcomes(t *testing.T) {
	readings := &fakeReadingRepo{}
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	tickets := newFakeTicketRepo()
	metrics := observability.NewMetrics()

	svc := NewIngestService(IngestDependencies{
		ReadingRepo: readings,
		TankRepo:    tanks,
		Detector:    detection.NewDetector(detectionTestConfig(), tickets, nil),
		Cache:       &fakeReadingCache{},
		Metrics:     metrics,
		Logger:      zap.NewNop(),
		Async:       false,
	})

	for i := 0; i < 2; i++ {
		if _, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
			DeviceID:    tank.DeviceID,
			WaterLevel:  15,
			Temperature: 25,
		}); err != nil {
			t.Fatalf("reading %d: %v", i, err)
		}
	}

	if got := metrics.DetectionCount("low_water", observability.DetectionOutcomeCreated); got != 1 {
		t.Fatalf("created count = %d, want 1", got)
	}
	if got := metrics.DetectionCount("low_water", observability.DetectionOutcomeSuppressed); got != 1 {
		t.Fatalf("suppressed count = %d, want 1", got)
	}
}

func TestProcessReading_DetectionFailureDoesNotFailIngest(t *testing.T) {
	readings := &fakeReadingRepo{}
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")

	svc := NewIngestService(IngestDependencies{
		ReadingRepo: readings,
		TankRepo:    tanks,
		Detector:    erroringDetector{},
		Cache:       &fakeReadingCache{},
		Metrics:     observability.NewMetrics(),
		Logger:      zap.NewNop(),
		Async:       false,
	})

	reading, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
		DeviceID:    tank.DeviceID,
		WaterLevel:  15,
		Temperature: 25,
	})
	if err != nil {
		t.Fatalf("detection failure must not surface: %v", err)
	}
	if reading.ID == "" {
		t.Fatalf("reading must still be persisted")
	}
	if len(readings.readings) != 1 {
		t.Fatalf("expected 1 stored reading, got %d", len(readings.readings))
	}
}

func TestProcessReading_CacheFailureDoesNotFailIngest(t *testing.T) {
	readings := &fakeReadingRepo{}
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newIngestForTest(readings, tanks, newFakeTicketRepo(), &fakeReadingCache{setErr: errors.New("redis down")})

	if _, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
		DeviceID:    tank.DeviceID,
		WaterLevel:  55,
		Temperature: 25,
	}); err != nil {
		t.Fatalf("cache failure must not surface: %v", err)
	}
}

func TestProcessReading_StoreFailureSurfaces(t *testing.T) {
	readings := &fakeReadingRepo{createErr: errors.New("db down")}
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newIngestForTest(readings, tanks, newFakeTicketRepo(), &fakeReadingCache{})

	if _, err := svc.ProcessReading(context.Background(), testUnit(), ReadingInput{
		DeviceID:    tank.DeviceID,
		WaterLevel:  55,
		Temperature: 25,
	}); err == nil {
		t.Fatalf("reading store failure must fail the ingest")
	}
}
