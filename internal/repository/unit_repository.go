package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// UnitRepository encapsulates unit persistence.
type UnitRepository interface {
	Create(ctx context.Context, unit *domain.Unit) error
	GetByID(ctx context.Context, id string) (*domain.Unit, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Unit, error)
	List(ctx context.Context) ([]domain.Unit, error)
}

type unitRepository struct {
	pool *pgxpool.Pool
}

// NewUnitRepository instantiates repository.
func NewUnitRepository(pool *pgxpool.Pool) UnitRepository {
	return &unitRepository{pool: pool}
}

func (r *unitRepository) Create(ctx context.Context, unit *domain.Unit) error {
	const query = `
        INSERT INTO units (name, description, location, api_key, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		unit.Name,
		unit.Description,
		unit.Location,
		unit.APIKey,
		unit.Status,
		unit.CreatedBy,
	).Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt)
}

func (r *unitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	const query = `
        SELECT id, name, description, location, api_key, status, created_by, created_at, updated_at
        FROM units WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *unitRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Unit, error) {
	const query = `
        SELECT id, name, description, location, api_key, status, created_by, created_at, updated_at
        FROM units WHERE api_key=$1`
	return r.fetchSingle(ctx, query, apiKey)
}

func (r *unitRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Unit, error) {
	var unit domain.Unit
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&unit.ID,
		&unit.Name,
		&unit.Description,
		&unit.Location,
		&unit.APIKey,
		&unit.Status,
		&unit.CreatedBy,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) List(ctx context.Context) ([]domain.Unit, error) {
	const query = `
        SELECT id, name, description, location, api_key, status, created_by, created_at, updated_at
        FROM units ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Unit
	for rows.Next() {
		var unit domain.Unit
		if err := rows.Scan(
			&unit.ID,
			&unit.Name,
			&unit.Description,
			&unit.Location,
			&unit.APIKey,
			&unit.Status,
			&unit.CreatedBy,
			&unit.CreatedAt,
			&unit.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, unit)
	}
	return result, rows.Err()
}
