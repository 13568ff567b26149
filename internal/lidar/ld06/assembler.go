package ld06

import (
	"github.com/google/uuid"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
)

// Scan is one revolution of points in SI units.
type Scan struct {
	ID      string
	Points  []geom.PolarPoint
	Packets int
	Speed   uint16 // degrees per second, from the last packet
}

// ScanAssembler groups packets into revolutions. A revolution ends when the
// raw bearing wraps past 0°. Samples seen before the first wrap belong to a
// partial revolution and are discarded.
type ScanAssembler struct {
	cfg DecoderConfig

	points  []geom.PolarPoint
	packets int
	last    uint16
	seen    bool // at least one sample observed
	aligned bool // a wrap has been observed
}

// NewScanAssembler returns an assembler using cfg for point conversion.
func NewScanAssembler(cfg DecoderConfig) *ScanAssembler {
	return &ScanAssembler{cfg: cfg}
}

// Add feeds one packet. When the packet completes a revolution the scan is
// returned with true; samples after the wrap start the next scan.
func (a *ScanAssembler) Add(p Packet) (Scan, bool) {
	var done Scan
	complete := false
	counted := false
	for _, s := range p.Samples {
		if a.seen && s.Angle < a.last {
			if a.aligned && len(a.points) > 0 {
				done = a.emit(p.Speed)
				complete = true
			} else {
				a.reset()
			}
			a.aligned = true
			counted = false
		}
		a.seen, a.last = true, s.Angle
		if !counted {
			a.packets++
			counted = true
		}
		if pt, ok := a.cfg.Point(s); ok {
			a.points = append(a.points, pt)
		}
	}
	return done, complete
}

// Pending returns the number of points buffered for the current revolution.
func (a *ScanAssembler) Pending() int { return len(a.points) }

func (a *ScanAssembler) emit(speed uint16) Scan {
	s := Scan{
		ID:      uuid.New().String(),
		Points:  a.points,
		Packets: a.packets,
		Speed:   speed,
	}
	a.reset()
	return s
}

func (a *ScanAssembler) reset() {
	a.points = nil
	a.packets = 0
}
