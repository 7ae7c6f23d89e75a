package dto

import (
	"time"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// CreateUnitRequest payload for unit provisioning.
type CreateUnitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// UnitResponse represents a unit. The API key is only included on creation.
type UnitResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	APIKey      string            `json:"api_key,omitempty"`
	Status      domain.UnitStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewUnitResponse maps a domain unit without exposing the API key.
func NewUnitResponse(unit *domain.Unit) UnitResponse {
	return UnitResponse{
		ID:          unit.ID,
		Name:        unit.Name,
		Description: unit.Description,
		Location:    unit.Location,
		Status:      unit.Status,
		CreatedAt:   unit.CreatedAt,
	}
}

// TankResponse represents a tank with its last reading snapshot.
type TankResponse struct {
	ID              string                  `json:"id"`
	UnitID          string                  `json:"unit_id"`
	DeviceID        string                  `json:"device_id"`
	Name            string                  `json:"name"`
	TotalCapacity   float64                 `json:"total_capacity"`
	NumberOfSensors int                     `json:"number_of_sensors"`
	LastReading     *domain.ReadingSnapshot `json:"last_reading,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// NewTankResponse maps a domain tank.
func NewTankResponse(tank *domain.Tank) TankResponse {
	return TankResponse{
		ID:              tank.ID,
		UnitID:          tank.UnitID,
		DeviceID:        tank.DeviceID,
		Name:            tank.Name,
		TotalCapacity:   tank.TotalCapacity,
		NumberOfSensors: tank.NumberOfSensors,
		LastReading:     tank.LastReading,
		CreatedAt:       tank.CreatedAt,
	}
}
