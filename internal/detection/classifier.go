package detection

import (
	"fmt"

	"github.com/hydrowatch/tank-service/internal/config"
	"github.com/hydrowatch/tank-service/internal/domain"
)

// Classifier maps a reading to zero or more candidate issues using the
// configured thresholds. Classification is pure and total: it performs no
// I/O, and values that fail a comparison (including NaN) simply do not
// trigger.
type Classifier struct {
	cfg config.DetectionConfig
}

// NewClassifier builds a classifier around the given thresholds.
func NewClassifier(cfg config.DetectionConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify evaluates every rule independently; a single reading can produce
// up to one issue per rule. Priority is a fixed function of the issue type
// and never varies with the reading magnitude.
func (c *Classifier) Classify(reading domain.Reading) []domain.Issue {
	var issues []domain.Issue

	if reading.VibrationCount > c.cfg.VibrationCountLimit {
		issues = append(issues, domain.Issue{
			Type:        domain.IssueVibration,
			Priority:    domain.TicketPriorityHigh,
			Title:       "Excessive vibration detected",
			Description: fmt.Sprintf("The tank reported %d vibration events. This can indicate structural or installation problems.", reading.VibrationCount),
		})
	}

	if reading.WaterLevel < c.cfg.LowWaterPercent {
		issues = append(issues, domain.Issue{
			Type:        domain.IssueLowWater,
			Priority:    domain.TicketPriorityCritical,
			Title:       "Critical water level",
			Description: fmt.Sprintf("Water level is at %.1f%%. System operation may be affected.", reading.WaterLevel),
		})
	}

	if reading.Temperature > c.cfg.HighTempCelsius {
		issues = append(issues, domain.Issue{
			Type:        domain.IssueHighTemperature,
			Priority:    domain.TicketPriorityMedium,
			Title:       "High temperature",
			Description: fmt.Sprintf("Temperature is at %.1f°C. This can indicate a system problem.", reading.Temperature),
		})
	}

	return issues
}
