package hough

import (
	"math"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
)

// Cell addresses one accumulator counter. D is the distance bucket (the
// signed distance offset by half the range, so D == half means ρ = 0) and
// A the angle bucket (θ = A·AngleStep, A in [0, AngleBuckets)).
type Cell struct {
	D, A int
}

// Accumulator is the 2-D vote grid over (distance, angle) buckets.
// Counters saturate at math.MaxUint16.
type Accumulator struct {
	cfg       Config
	half      int     // distance buckets per sign
	distances int     // 2·half + 1
	angles    int     // orientations covering [0, π)
	angleStep float64 // π / angles
	votes     []uint16
	cosTheta  []float64
	sinTheta  []float64

	accepted int
	rejected int
}

// NewAccumulator allocates an empty grid for cfg.
func NewAccumulator(cfg Config) (*Accumulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	half := int(math.Round(cfg.MaxRange / cfg.DistanceResolution))
	angles := int(math.Round(math.Pi / cfg.AngleResolution))
	if angles < 2 {
		angles = 2
	}
	acc := &Accumulator{
		cfg:       cfg,
		half:      half,
		distances: 2*half + 1,
		angles:    angles,
		angleStep: math.Pi / float64(angles),
		cosTheta:  make([]float64, angles),
		sinTheta:  make([]float64, angles),
	}
	acc.votes = make([]uint16, acc.distances*acc.angles)
	for a := 0; a < angles; a++ {
		theta := float64(a) * acc.angleStep
		acc.cosTheta[a] = math.Cos(theta)
		acc.sinTheta[a] = math.Sin(theta)
	}
	return acc, nil
}

// Build votes every point of a scan into a fresh accumulator.
func Build(points []geom.PolarPoint, cfg Config) (*Accumulator, error) {
	acc, err := NewAccumulator(cfg)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		acc.AddPoint(p)
	}
	return acc, nil
}

// AddPoint casts one vote per orientation for p. Points that are invalid,
// beyond MaxRange or closer than MinRange are counted as rejected and
// return false.
func (acc *Accumulator) AddPoint(p geom.PolarPoint) bool {
	if !p.Valid() || p.Distance > acc.cfg.MaxRange || p.Distance < acc.cfg.MinRange {
		acc.rejected++
		return false
	}
	acc.accepted++
	c := p.Cartesian()
	for a := 0; a < acc.angles; a++ {
		// ρ = r·cos(φ − θ)
		rho := c.X*acc.cosTheta[a] + c.Y*acc.sinTheta[a]
		d := acc.distanceIndex(rho)
		i := d*acc.angles + a
		if acc.votes[i] < math.MaxUint16 {
			acc.votes[i]++
		}
	}
	return true
}

func (acc *Accumulator) distanceIndex(rho float64) int {
	d := int(math.Round(rho/acc.cfg.DistanceResolution)) + acc.half
	if d < 0 {
		return 0
	}
	if d >= acc.distances {
		return acc.distances - 1
	}
	return d
}

// Config returns the configuration the grid was built with.
func (acc *Accumulator) Config() Config { return acc.cfg }

// DistanceBuckets returns the number of distance buckets (both signs).
func (acc *Accumulator) DistanceBuckets() int { return acc.distances }

// AngleBuckets returns the number of orientations in [0, π).
func (acc *Accumulator) AngleBuckets() int { return acc.angles }

// AngleStep returns the effective angular resolution, π / AngleBuckets.
func (acc *Accumulator) AngleStep() float64 { return acc.angleStep }

// Points returns how many points were accepted into the grid.
func (acc *Accumulator) Points() int { return acc.accepted }

// Rejected returns how many points were filtered out.
func (acc *Accumulator) Rejected() int { return acc.rejected }

// Votes returns the counter of c, or 0 when c is outside the grid.
func (acc *Accumulator) Votes(c Cell) uint16 {
	if !acc.inside(c) {
		return 0
	}
	return acc.votes[c.D*acc.angles+c.A]
}

func (acc *Accumulator) inside(c Cell) bool {
	return c.D >= 0 && c.D < acc.distances && c.A >= 0 && c.A < acc.angles
}

// Line inverts the bucket mapping of c, undoing the sign offset.
func (acc *Accumulator) Line(c Cell) geom.PolarLine {
	return geom.PolarLine{
		Distance: float64(c.D-acc.half) * acc.cfg.DistanceResolution,
		Angle:    float64(c.A) * acc.angleStep,
	}
}

// CellOf returns the cell nearest to l. It reports false when l lies
// beyond the grid's range.
func (acc *Accumulator) CellOf(l geom.PolarLine) (Cell, bool) {
	l = geom.Normalize(l)
	return acc.Wrap(Cell{
		D: int(math.Round(l.Distance/acc.cfg.DistanceResolution)) + acc.half,
		A: int(math.Round(l.Angle / acc.angleStep)),
	})
}

// Wrap maps a cell whose angle index ran past either end of [0, π) onto
// its half-turn twin (the distance index is mirrored for every half turn).
// It reports false when the distance index is outside the grid.
func (acc *Accumulator) Wrap(c Cell) (Cell, bool) {
	mirror := 2 * acc.half
	for c.A < 0 {
		c.A += acc.angles
		c.D = mirror - c.D
	}
	for c.A >= acc.angles {
		c.A -= acc.angles
		c.D = mirror - c.D
	}
	return c, c.D >= 0 && c.D < acc.distances
}

// Peak returns the strongest cell as a HoughLine; ties go to the first
// cell in scan order. It reports false for an empty grid.
func (acc *Accumulator) Peak() (HoughLine, bool) {
	best, bestIdx := uint16(0), -1
	for i, v := range acc.votes {
		if v > best {
			best, bestIdx = v, i
		}
	}
	if bestIdx < 0 {
		return HoughLine{}, false
	}
	c := Cell{D: bestIdx / acc.angles, A: bestIdx % acc.angles}
	return acc.houghLine(c), true
}

func (acc *Accumulator) houghLine(c Cell) HoughLine {
	return HoughLine{
		Line:   acc.Line(c),
		Weight: uint32(acc.Votes(c)),
		Cell:   c,
	}
}

// HoughLineAt returns the candidate stored at c (weight 0 outside the grid).
func (acc *Accumulator) HoughLineAt(c Cell) HoughLine {
	return acc.houghLine(c)
}
