package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// TankRepository encapsulates tank persistence.
type TankRepository interface {
	Create(ctx context.Context, tank *domain.Tank) error
	GetByID(ctx context.Context, id string) (*domain.Tank, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*domain.Tank, error)
	ListByUnit(ctx context.Context, unitID string) ([]domain.Tank, error)
	UpdateLastReading(ctx context.Context, tankID string, snapshot domain.ReadingSnapshot) error
}

type tankRepository struct {
	pool *pgxpool.Pool
}

// NewTankRepository instantiates repository.
func NewTankRepository(pool *pgxpool.Pool) TankRepository {
	return &tankRepository{pool: pool}
}

func (r *tankRepository) Create(ctx context.Context, tank *domain.Tank) error {
	const query = `
        INSERT INTO tanks (unit_id, device_id, name, total_capacity, number_of_sensors, sensor_percentages)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		tank.UnitID,
		tank.DeviceID,
		tank.Name,
		tank.TotalCapacity,
		tank.NumberOfSensors,
		tank.SensorPercentages,
	).Scan(&tank.ID, &tank.CreatedAt)
}

func (r *tankRepository) GetByID(ctx context.Context, id string) (*domain.Tank, error) {
	const query = `
        SELECT id, unit_id, device_id, name, total_capacity, number_of_sensors, sensor_percentages, last_reading, created_at
        FROM tanks WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *tankRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Tank, error) {
	const query = `
        SELECT id, unit_id, device_id, name, total_capacity, number_of_sensors, sensor_percentages, last_reading, created_at
        FROM tanks WHERE device_id=$1`
	return r.fetchSingle(ctx, query, deviceID)
}

func (r *tankRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Tank, error) {
	var tank domain.Tank
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&tank.ID,
		&tank.UnitID,
		&tank.DeviceID,
		&tank.Name,
		&tank.TotalCapacity,
		&tank.NumberOfSensors,
		&tank.SensorPercentages,
		&tank.LastReading,
		&tank.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &tank, nil
}

func (r *tankRepository) ListByUnit(ctx context.Context, unitID string) ([]domain.Tank, error) {
	const query = `
        SELECT id, unit_id, device_id, name, total_capacity, number_of_sensors, sensor_percentages, last_reading, created_at
        FROM tanks WHERE unit_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tank
	for rows.Next() {
		var tank domain.Tank
		if err := rows.Scan(
			&tank.ID,
			&tank.UnitID,
			&tank.DeviceID,
			&tank.Name,
			&tank.TotalCapacity,
			&tank.NumberOfSensors,
			&tank.SensorPercentages,
			&tank.LastReading,
			&tank.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tank)
	}
	return result, rows.Err()
}

func (r *tankRepository) UpdateLastReading(ctx context.Context, tankID string, snapshot domain.ReadingSnapshot) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tanks SET last_reading=$1 WHERE id=$2`, snapshot, tankID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
