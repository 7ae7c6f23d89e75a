package domain

import "time"

// Reading is one timestamped sample of sensor values from a tank.
type Reading struct {
	ID             string
	TankID         string
	WaterLevel     float64
	Temperature    float64
	Vibration      bool
	VibrationCount int
	SensorStates   []bool
	Timestamp      time.Time
}

// Snapshot copies the reading values into the immutable form stored on
// tickets and on the tank's last-reading field.
func (r Reading) Snapshot() ReadingSnapshot {
	return ReadingSnapshot{
		WaterLevel:     r.WaterLevel,
		Temperature:    r.Temperature,
		Vibration:      r.Vibration,
		VibrationCount: r.VibrationCount,
		Timestamp:      r.Timestamp,
	}
}
