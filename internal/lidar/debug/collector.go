package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/banshee-data/fieldwalls/internal/lidar/ld06"
	"github.com/banshee-data/fieldwalls/internal/lidar/pipeline"
	"github.com/banshee-data/fieldwalls/internal/monitoring"
)

// Collector writes a plot (and, when the detector keeps its accumulator, a
// heatmap) for every Nth scan into a directory.
type Collector struct {
	mu      sync.Mutex
	dir     string
	every   int
	seen    int
	written []string
	plot    PlotOptions
}

// NewCollector creates dir and returns a collector that records every
// every-th scan. every < 1 records all scans.
func NewCollector(dir string, every int, o PlotOptions) (*Collector, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if every < 1 {
		every = 1
	}
	return &Collector{dir: dir, every: every, plot: o}, nil
}

// Record writes the artifacts for one scan. Failed detections are plotted
// without walls.
func (c *Collector) Record(scan ld06.Scan, report pipeline.ScanReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seen++
	if (c.seen-1)%c.every != 0 {
		return nil
	}

	o := c.plot
	status := "ok"
	fw := &report.Result.Walls
	switch {
	case report.Err != nil:
		status, fw = "failed", nil
	case report.Result.UsedFallback:
		status = "fallback"
	}
	o.Title = fmt.Sprintf("scan %s (%s)", scan.ID, status)

	png := filepath.Join(c.dir, fmt.Sprintf("scan_%04d.png", c.seen))
	if err := PlotScan(png, scan.Points, fw, o); err != nil {
		return err
	}
	c.written = append(c.written, png)

	if acc := report.Result.Accumulator; acc != nil {
		html := filepath.Join(c.dir, fmt.Sprintf("hough_%04d.html", c.seen))
		if err := SaveAccumulatorHeatmap(html, acc, o.Title); err != nil {
			return err
		}
		c.written = append(c.written, html)
	}
	monitoring.Debugf("debug: wrote artifacts for scan %s", scan.ID)
	return nil
}

// Written returns the files written so far.
func (c *Collector) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}
