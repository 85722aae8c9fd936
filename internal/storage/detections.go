// Package storage keeps an in-memory record of completed detections and
// running counters for the stats endpoint. Nothing here is persisted;
// the engine itself stays stateless and results live only as long as
// the process.
package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Detection is one recorded classification outcome.
type Detection struct {
	ID             string
	Classification string
	Confidence     float64
	AILikelihood   float64
	Language       string
	Format         string
	SizeBytes      int64
	UserID         string
	CreatedAt      string
}

// Snapshot is a point-in-time view of the running counters.
type Snapshot struct {
	TotalRequests int64
	Failed        int64
	ByLabel       map[string]int64
	ByLanguage    map[string]int64
}

var (
	mu         sync.Mutex
	detections = make(map[string]*Detection)
	total      int64
	failed     int64
	byLabel    = make(map[string]int64)
	byLanguage = make(map[string]int64)
)

// Record stores a detection outcome and returns its assigned ID.
func Record(d Detection) string {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	mu.Lock()
	defer mu.Unlock()
	detections[d.ID] = &d
	total++
	byLabel[d.Classification]++
	byLanguage[d.Language]++
	return d.ID
}

// RecordFailure counts a request that reached the engine but failed.
func RecordFailure() {
	mu.Lock()
	defer mu.Unlock()
	total++
	failed++
}

// Get retrieves a recorded detection by ID.
func Get(id string) (Detection, bool) {
	mu.Lock()
	defer mu.Unlock()
	d, ok := detections[id]
	if !ok {
		return Detection{}, false
	}
	return *d, true
}

// Stats returns a copy of the running counters.
func Stats() Snapshot {
	mu.Lock()
	defer mu.Unlock()

	s := Snapshot{
		TotalRequests: total,
		Failed:        failed,
		ByLabel:       make(map[string]int64, len(byLabel)),
		ByLanguage:    make(map[string]int64, len(byLanguage)),
	}
	for k, v := range byLabel {
		s.ByLabel[k] = v
	}
	for k, v := range byLanguage {
		s.ByLanguage[k] = v
	}
	return s
}

// Reset clears all records and counters. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	detections = make(map[string]*Detection)
	total, failed = 0, 0
	byLabel = make(map[string]int64)
	byLanguage = make(map[string]int64)
}
