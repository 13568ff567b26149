package pipeline

import (
	"sync"
	"time"

	"github.com/banshee-data/fieldwalls/internal/lidar/walls"
)

// Snapshot is the state held by LastGood after a scan.
type Snapshot struct {
	Walls  walls.FieldWalls
	ScanID string    // scan the walls came from
	At     time.Time // when they were detected
	Valid  bool      // false until the first successful detection

	Successes           uint64
	Failures            uint64
	ConsecutiveFailures int
}

// Age returns how old the retained walls are at now.
func (s Snapshot) Age(now time.Time) time.Duration {
	if !s.Valid {
		return 0
	}
	return now.Sub(s.At)
}

// LastGood retains the most recent successful FieldWalls across scans.
// Failed detections leave the walls untouched and only bump the counters.
type LastGood struct {
	mu   sync.Mutex
	snap Snapshot
}

// Observe records the outcome of one scan and returns the updated state.
func (l *LastGood) Observe(scanID string, fw walls.FieldWalls, err error, at time.Time) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.snap.Failures++
		l.snap.ConsecutiveFailures++
		return l.snap
	}
	l.snap.Walls, l.snap.ScanID, l.snap.At, l.snap.Valid = fw, scanID, at, true
	l.snap.Successes++
	l.snap.ConsecutiveFailures = 0
	return l.snap
}

// Snapshot returns the current state.
func (l *LastGood) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}
