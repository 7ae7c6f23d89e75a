package dto

import (
	"time"

	"github.com/hydrowatch/tank-service/internal/domain"
)

// ReceiveReadingRequest is the device payload shape posted by the ESP32.
// WaterLevel and Temperature are pointers so a missing field can be told
// apart from a zero value.
type ReceiveReadingRequest struct {
	DeviceID       string   `json:"device_id"`
	WaterLevel     *float64 `json:"water_level"`
	Temperature    *float64 `json:"temperature"`
	Vibration      bool     `json:"vibration"`
	VibrationCount int      `json:"vibration_count"`
	SensorStates   []bool   `json:"sensor_states"`
}

// ReadingResponse represents a stored reading.
type ReadingResponse struct {
	ID             string    `json:"id"`
	TankID         string    `json:"tank_id"`
	WaterLevel     float64   `json:"water_level"`
	Temperature    float64   `json:"temperature"`
	Vibration      bool      `json:"vibration"`
	VibrationCount int       `json:"vibration_count"`
	SensorStates   []bool    `json:"sensor_states"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewReadingResponse maps a domain reading.
func NewReadingResponse(reading *domain.Reading) ReadingResponse {
	return ReadingResponse{
		ID:             reading.ID,
		TankID:         reading.TankID,
		WaterLevel:     reading.WaterLevel,
		Temperature:    reading.Temperature,
		Vibration:      reading.Vibration,
		VibrationCount: reading.VibrationCount,
		SensorStates:   reading.SensorStates,
		Timestamp:      reading.Timestamp,
	}
}
