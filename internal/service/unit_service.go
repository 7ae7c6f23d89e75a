package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hydrowatch/tank-service/internal/domain"
	"github.com/hydrowatch/tank-service/internal/repository"
	apperrors "github.com/hydrowatch/tank-service/pkg/util"
)

// ReadingCacheReader reads the cached latest snapshot for a tank.
type ReadingCacheReader interface {
	LastReading(ctx context.Context, tankID string) (*domain.ReadingSnapshot, error)
}

// UnitService covers the unit/tank pass-through surface the dashboard uses.
type UnitService struct {
	units    repository.UnitRepository
	tanks    repository.TankRepository
	readings repository.ReadingRepository
	cache    ReadingCacheReader
}

// UnitDependencies bundles repositories for the unit service.
type UnitDependencies struct {
	UnitRepo    repository.UnitRepository
	TankRepo    repository.TankRepository
	ReadingRepo repository.ReadingRepository
	Cache       ReadingCacheReader
}

// NewUnitService constructs the service.
func NewUnitService(deps UnitDependencies) *UnitService {
	return &UnitService{
		units:    deps.UnitRepo,
		tanks:    deps.TankRepo,
		readings: deps.ReadingRepo,
		cache:    deps.Cache,
	}
}

// CreateUnit provisions a unit with a fresh device API key.
func (s *UnitService) CreateUnit(ctx context.Context, actorID, name, description, location string) (*domain.Unit, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(location) == "" {
		return nil, apperrors.NewValidationError("name and location required", nil)
	}
	unit := &domain.Unit{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Location:    strings.TrimSpace(location),
		APIKey:      generateAPIKey(),
		Status:      domain.UnitStatusActive,
		CreatedBy:   actorID,
	}
	if err := s.units.Create(ctx, unit); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return unit, nil
}

// ListUnits returns all units for admins, or the actor's units otherwise.
func (s *UnitService) ListUnits(ctx context.Context, actor *domain.User) ([]domain.Unit, error) {
	units, err := s.units.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if actor.IsAdmin() {
		return units, nil
	}
	member := make(map[string]struct{}, len(actor.Units))
	for _, id := range actor.Units {
		member[id] = struct{}{}
	}
	scoped := make([]domain.Unit, 0, len(units))
	for _, unit := range units {
		if _, ok := member[unit.ID]; ok {
			scoped = append(scoped, unit)
		}
	}
	return scoped, nil
}

// GetUnit fetches a unit the actor may see.
func (s *UnitService) GetUnit(ctx context.Context, actor *domain.User, unitID string) (*domain.Unit, error) {
	unit, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("unit", map[string]any{"unit_id": unitID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if !s.canAccess(actor, unit.ID) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return unit, nil
}

// ListTanks returns the tanks of a unit the actor may see.
func (s *UnitService) ListTanks(ctx context.Context, actor *domain.User, unitID string) ([]domain.Tank, error) {
	if _, err := s.GetUnit(ctx, actor, unitID); err != nil {
		return nil, err
	}
	tanks, err := s.tanks.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tanks, nil
}

// GetTank fetches a tank the actor may see.
func (s *UnitService) GetTank(ctx context.Context, actor *domain.User, tankID string) (*domain.Tank, error) {
	tank, err := s.tanks.GetByID(ctx, tankID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tank", map[string]any{"tank_id": tankID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if !s.canAccess(actor, tank.UnitID) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return tank, nil
}

// TankLastReading returns the freshest snapshot for a tank, preferring the
// cache and falling back to the persisted tank row.
func (s *UnitService) TankLastReading(ctx context.Context, actor *domain.User, tankID string) (*domain.ReadingSnapshot, error) {
	tank, err := s.tanks.GetByID(ctx, tankID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tank", map[string]any{"tank_id": tankID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if !s.canAccess(actor, tank.UnitID) {
		return nil, apperrors.NewForbidden("access denied")
	}

	if s.cache != nil {
		if snapshot, err := s.cache.LastReading(ctx, tankID); err == nil && snapshot != nil {
			return snapshot, nil
		}
	}
	return tank.LastReading, nil
}

// ReadingHistory returns readings for a tank the actor may see.
func (s *UnitService) ReadingHistory(ctx context.Context, actor *domain.User, tankID string, filter repository.ReadingHistoryFilter) ([]domain.Reading, error) {
	tank, err := s.tanks.GetByID(ctx, tankID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tank", map[string]any{"tank_id": tankID})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if !s.canAccess(actor, tank.UnitID) {
		return nil, apperrors.NewForbidden("access denied")
	}

	readings, err := s.readings.ListByTank(ctx, tankID, filter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return readings, nil
}

func (s *UnitService) canAccess(actor *domain.User, unitID string) bool {
	if actor.IsAdmin() {
		return true
	}
	for _, id := range actor.Units {
		if id == unitID {
			return true
		}
	}
	return false
}

func generateAPIKey() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
