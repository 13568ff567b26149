package pipeline

import (
	"github.com/banshee-data/fieldwalls/internal/lidar/ld06"
)

// ScanReport is handed to the sink of NewScanCallback for every scan.
type ScanReport struct {
	ScanID string
	Result Result
	Err    error
	Last   Snapshot // retained walls after this scan
}

// NewScanCallback returns a function that runs detection on each scan,
// records the outcome in last (which may be nil) and passes a report to
// sink (which may be nil). Empty scans are ignored.
func (d *Detector) NewScanCallback(last *LastGood, sink func(ScanReport)) func(ld06.Scan) {
	if last == nil {
		last = &LastGood{}
	}
	return func(scan ld06.Scan) {
		if len(scan.Points) == 0 {
			return
		}
		res, err := d.Detect(scan.Points)
		snap := last.Observe(scan.ID, res.Walls, err, d.clock().Now())
		if err != nil && snap.Valid {
			diagf("scan %s: keeping walls from scan %s (%d consecutive failures)",
				scan.ID, snap.ScanID, snap.ConsecutiveFailures)
		}
		if sink != nil {
			sink(ScanReport{ScanID: scan.ID, Result: res, Err: err, Last: snap})
		}
	}
}
