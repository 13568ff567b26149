package pipeline

import (
	"fmt"
	"time"

	"github.com/banshee-data/fieldwalls/internal/config"
	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
	"github.com/banshee-data/fieldwalls/internal/lidar/walls"
	"github.com/banshee-data/fieldwalls/internal/timeutil"
)

// Detector runs accumulation, extraction, matching and refinement on a
// scan. A Detector is safe for concurrent use: every call allocates its own
// accumulator.
type Detector struct {
	Hough hough.Config
	Walls walls.Config

	// KeepAccumulator retains the vote grid in Result for debug output.
	KeepAccumulator bool

	// Clock times the stages and stamps LastGood; nil uses the wall clock.
	Clock timeutil.Clock
}

func (d *Detector) clock() timeutil.Clock {
	if d.Clock == nil {
		return timeutil.RealClock{}
	}
	return d.Clock
}

// NewDetector validates both stage configurations.
func NewDetector(h hough.Config, w walls.Config) (*Detector, error) {
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hough config: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid walls config: %w", err)
	}
	return &Detector{Hough: h, Walls: w}, nil
}

// DetectorFromTuning builds a Detector from a loaded TuningConfig.
func DetectorFromTuning(cfg *config.TuningConfig) (*Detector, error) {
	return NewDetector(hough.ConfigFromTuning(cfg), walls.ConfigFromTuning(cfg))
}

// Timings records how long each stage took.
type Timings struct {
	Accumulate time.Duration
	Extract    time.Duration
	Match      time.Duration
	Refine     time.Duration
}

// Total returns the sum of all stages.
func (t Timings) Total() time.Duration {
	return t.Accumulate + t.Extract + t.Match + t.Refine
}

// Result is the outcome of one Detect call. On failure everything but
// Walls and Unrefined is still populated for diagnostics.
type Result struct {
	Walls     walls.FieldWalls // refined
	Unrefined walls.FieldWalls // as chosen by the matcher

	Candidates   []hough.HoughLine
	Pairs        []walls.Pair
	UsedFallback bool
	Score        float64

	// Corners of the refined walls (W1∩L1, W1∩L2, W2∩L2, W2∩L1), set when
	// HasCorners is true.
	Corners    [4]geom.Point
	HasCorners bool

	PointsUsed     int
	PointsRejected int

	Accumulator *hough.Accumulator // nil unless KeepAccumulator is set
	Timings     Timings
}

// Detect finds the field walls in points. Errors wrap the walls sentinels
// (walls.ErrEmptyCandidates, walls.ErrNoQuadrupleFound,
// walls.ErrFallbackUnavailable); they are expected outcomes for some scans.
func (d *Detector) Detect(points []geom.PolarPoint) (Result, error) {
	var res Result
	clk := d.clock()

	start := clk.Now()
	acc, err := hough.Build(points, d.Hough)
	if err != nil {
		opsf("accumulator: %v", err)
		return res, fmt.Errorf("build accumulator: %w", err)
	}
	res.PointsUsed, res.PointsRejected = acc.Points(), acc.Rejected()
	if d.KeepAccumulator {
		res.Accumulator = acc
	}
	res.Timings.Accumulate = clk.Since(start)

	start = clk.Now()
	res.Candidates = hough.Extract(acc)
	res.Timings.Extract = clk.Since(start)

	start = clk.Now()
	match, err := walls.FindWalls(res.Candidates, acc, d.Walls)
	res.Timings.Match = clk.Since(start)
	res.Pairs = match.Pairs
	if err != nil {
		diagf("no walls in %d points (%d candidates, %d pairs): %v",
			res.PointsUsed, len(res.Candidates), len(res.Pairs), err)
		return res, fmt.Errorf("detect walls: %w", err)
	}
	res.Unrefined, res.UsedFallback, res.Score = match.Walls, match.UsedFallback, match.Score
	if match.UsedFallback {
		diagf("fallback: %d wall guessed from %d pairs", match.Walls.GuessedCount(), len(match.Pairs))
	}

	start = clk.Now()
	res.Walls = walls.Refine(match.Walls, match.Pool, d.Walls)
	res.Timings.Refine = clk.Since(start)

	res.Corners, res.HasCorners = res.Walls.Corners(d.Walls.IntersectionTolerance())
	if !res.HasCorners {
		diagf("refined walls have no corners within %g rad", d.Walls.IntersectionTolerance())
	}

	tracef("walls: %d points, %d candidates, %d pairs, score %.1f, %v",
		res.PointsUsed, len(res.Candidates), len(res.Pairs), res.Score, res.Timings.Total())
	return res, nil
}
