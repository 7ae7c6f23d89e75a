package detection

import (
	"math"
	"testing"

	"github.com/hydrowatch/tank-service/internal/config"
	"github.com/hydrowatch/tank-service/internal/domain"
)

func testDetectionConfig() config.DetectionConfig {
	return config.DetectionConfig{
		VibrationCountLimit: 10,
		LowWaterPercent:     20,
		HighTempCelsius:     40,
	}
}

func issueTypes(issues []domain.Issue) map[domain.IssueType]domain.Issue {
	out := make(map[domain.IssueType]domain.Issue, len(issues))
	for _, i := range issues {
		out[i.Type] = i
	}
	return out
}

func TestClassify_NormalReadingProducesNothing(t *testing.T) {
	c := NewClassifier(testDetectionConfig())
	issues := c.Classify(domain.Reading{WaterLevel: 55, Temperature: 25, VibrationCount: 2})
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %d", len(issues))
	}
}

func TestClassify_Boundaries(t *testing.T) {
	c := NewClassifier(testDetectionConfig())

	cases := []struct {
		name    string
		reading domain.Reading
		want    int
	}{
		{"vibration at limit does not trigger", domain.Reading{WaterLevel: 50, Temperature: 25, VibrationCount: 10}, 0},
		{"vibration above limit triggers", domain.Reading{WaterLevel: 50, Temperature: 25, VibrationCount: 11}, 1},
		{"water at threshold does not trigger", domain.Reading{WaterLevel: 20, Temperature: 25}, 0},
		{"water below threshold triggers", domain.Reading{WaterLevel: 19.9, Temperature: 25}, 1},
		{"temperature at threshold does not trigger", domain.Reading{WaterLevel: 50, Temperature: 40}, 0},
		{"temperature above threshold triggers", domain.Reading{WaterLevel: 50, Temperature: 40.1}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.reading)
			if len(got) != tc.want {
				t.Fatalf("got %d issues, want %d", len(got), tc.want)
			}
		})
	}
}

func TestClassify_MultipleIssuesFromOneReading(t *testing.T) {
	c := NewClassifier(testDetectionConfig())
	issues := c.Classify(domain.Reading{WaterLevel: 10, Temperature: 45, VibrationCount: 15})
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}

	byType := issueTypes(issues)
	if _, ok := byType[domain.IssueVibration]; !ok {
		t.Fatalf("missing vibration issue")
	}
	if _, ok := byType[domain.IssueLowWater]; !ok {
		t.Fatalf("missing low_water issue")
	}
	if _, ok := byType[domain.IssueHighTemperature]; !ok {
		t.Fatalf("missing high_temperature issue")
	}
}

func TestClassify_PriorityIsFixedPerIssueType(t *testing.T) {
	c := NewClassifier(testDetectionConfig())

	// Extreme magnitudes must not escalate priority.
	issues := c.Classify(domain.Reading{WaterLevel: 0.1, Temperature: 99, VibrationCount: 999})
	byType := issueTypes(issues)

	if got := byType[domain.IssueVibration].Priority; got != domain.TicketPriorityHigh {
		t.Fatalf("vibration priority = %q, want high", got)
	}
	if got := byType[domain.IssueLowWater].Priority; got != domain.TicketPriorityCritical {
		t.Fatalf("low_water priority = %q, want critical", got)
	}
	if got := byType[domain.IssueHighTemperature].Priority; got != domain.TicketPriorityMedium {
		t.Fatalf("high_temperature priority = %q, want medium", got)
	}
}

func TestClassify_NaNDoesNotTrigger(t *testing.T) {
	c := NewClassifier(testDetectionConfig())
	issues := c.Classify(domain.Reading{WaterLevel: math.NaN(), Temperature: math.NaN()})
	if len(issues) != 0 {
		t.Fatalf("NaN readings must not classify, got %d issues", len(issues))
	}
}
