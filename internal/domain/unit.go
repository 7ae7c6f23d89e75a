package domain

import "time"

// UnitStatus enumerates operational states for a unit.
type UnitStatus string

const (
	UnitStatusActive      UnitStatus = "ACTIVE"
	UnitStatusInactive    UnitStatus = "INACTIVE"
	UnitStatusMaintenance UnitStatus = "MAINTENANCE"
)

// Unit is a site grouping one or more tanks. Devices authenticate ingest
// requests with the unit's API key.
type Unit struct {
	ID          string
	Name        string
	Description string
	Location    string
	APIKey      string
	Status      UnitStatus
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
