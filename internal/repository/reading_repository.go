package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// ReadingHistoryFilter bounds a history query.
type ReadingHistoryFilter struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// ReadingRepository encapsulates sensor reading persistence.
type ReadingRepository interface {
	Create(ctx context.Context, reading *domain.Reading) error
	ListByTank(ctx context.Context, tankID string, filter ReadingHistoryFilter) ([]domain.Reading, error)
}

type readingRepository struct {
	pool *pgxpool.Pool
}

// NewReadingRepository instantiates repository.
func NewReadingRepository(pool *pgxpool.Pool) ReadingRepository {
	return &readingRepository{pool: pool}
}

func (r *readingRepository) Create(ctx context.Context, reading *domain.Reading) error {
	const query = `
        INSERT INTO readings (tank_id, water_level, temperature, vibration, vibration_count, sensor_states)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, timestamp`
	return r.pool.QueryRow(ctx, query,
		reading.TankID,
		reading.WaterLevel,
		reading.Temperature,
		reading.Vibration,
		reading.VibrationCount,
		reading.SensorStates,
	).Scan(&reading.ID, &reading.Timestamp)
}

func (r *readingRepository) ListByTank(ctx context.Context, tankID string, filter ReadingHistoryFilter) ([]domain.Reading, error) {
	clauses := []string{"tank_id=$1"}
	args := []any{tankID}

	if filter.Start != nil {
		args = append(args, *filter.Start)
		clauses = append(clauses, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		clauses = append(clauses, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	query := fmt.Sprintf(`
        SELECT id, tank_id, water_level, temperature, vibration, vibration_count, sensor_states, timestamp
        FROM readings WHERE %s ORDER BY timestamp DESC LIMIT %d`,
		strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reading
	for rows.Next() {
		var reading domain.Reading
		if err := rows.Scan(
			&reading.ID,
			&reading.TankID,
			&reading.WaterLevel,
			&reading.Temperature,
			&reading.Vibration,
			&reading.VibrationCount,
			&reading.SensorStates,
			&reading.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, reading)
	}
	return result, rows.Err()
}
