package domain

import "time"

// Tank is a physical water reservoir instrumented with sensors. Tanks are
// auto-provisioned when an unknown device id reports under a valid unit key.
type Tank struct {
	ID                string
	UnitID            string
	DeviceID          string
	Name              string
	TotalCapacity     float64
	NumberOfSensors   int
	SensorPercentages []float64
	LastReading       *ReadingSnapshot
	CreatedAt         time.Time
}
