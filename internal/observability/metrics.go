package observability

import (
	"strconv"
	"sync"
	"time"
)

// Detection outcome labels used with RecordDetection.
const (
	DetectionOutcomeCreated    = "created"
	DetectionOutcomeSuppressed = "suppressed"
	DetectionOutcomeError      = "error"
	DetectionOutcomeClean      = "clean"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	detectionCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		errorCount:     make(map[string]int64),
		detectionCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordDetection counts detection pipeline outcomes per issue type.
func (m *Metrics) RecordDetection(issueType, outcome string) {
	if m == nil {
		return
	}
	key := issueType + "|" + outcome
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detectionCount[key]++
}

// DetectionCount returns the counter for an issue type and outcome.
func (m *Metrics) DetectionCount(issueType, outcome string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detectionCount[issueType+"|"+outcome]
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
