package walls

import (
	"fmt"

	"github.com/banshee-data/fieldwalls/internal/config"
	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/units"
)

// FallbackRanking selects how competing 3-wall reconstructions are ranked.
type FallbackRanking int

const (
	// RankByScore keeps the trio with the largest Σ weight × |distance|,
	// the same measure the 4-wall search maximises.
	RankByScore FallbackRanking = iota
	// RankByLowestWeight keeps the trio with the smallest vote sum.
	RankByLowestWeight
)

func (r FallbackRanking) String() string {
	switch r {
	case RankByLowestWeight:
		return config.FallbackRankingLowestWeight
	default:
		return config.FallbackRankingScore
	}
}

// Config holds the field geometry and the matcher tolerances.
type Config struct {
	FieldLength float64 // meters (default: 2.43)
	FieldWidth  float64 // meters (default: 1.82)

	ParallelTolerance      float64 // rad (default: 0.2)
	PerpendicularTolerance float64 // rad (default: 0.2)
	ExactTolerance         float64 // rad, intersection guard (default: 1e-9)
	SeparationTolerance    float64 // relative, e.g. 0.10 = ±10% (default: 0.10)

	// Partner search radius around the expected cell, in buckets.
	NeighborhoodDistance int // default: 10
	NeighborhoodAngle    int // default: 10

	SimilarityAngle    float64 // refinement angle gate, rad (default: 20°)
	SimilarityDistance float64 // refinement distance gate, m (default: 0.20)

	EnableFallback  bool            // default: true
	FallbackRanking FallbackRanking // default: RankByScore
}

// DefaultConfig returns the compiled-in matcher defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	ranking := RankByScore
	if cfg.GetFallbackRanking() == config.FallbackRankingLowestWeight {
		ranking = RankByLowestWeight
	}
	return Config{
		FieldLength:            cfg.GetFieldLengthM(),
		FieldWidth:             cfg.GetFieldWidthM(),
		ParallelTolerance:      cfg.GetParallelToleranceRad(),
		PerpendicularTolerance: cfg.GetPerpendicularToleranceRad(),
		ExactTolerance:         cfg.GetExactParallelToleranceRad(),
		SeparationTolerance:    cfg.GetSeparationRelativeTolerance(),
		NeighborhoodDistance:   cfg.GetNeighborhoodDistanceBuckets(),
		NeighborhoodAngle:      cfg.GetNeighborhoodAngleBuckets(),
		SimilarityAngle:        units.DegToRad(cfg.GetSimilarityAngleDeg()),
		SimilarityDistance:     cfg.GetSimilarityDistanceM(),
		EnableFallback:         cfg.GetEnableFallback(),
		FallbackRanking:        ranking,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if !(c.FieldLength > 0) || !(c.FieldWidth > 0) {
		return fmt.Errorf("field dimensions must be positive, got %v × %v", c.FieldLength, c.FieldWidth)
	}
	if c.ParallelTolerance < 0 || c.ParallelTolerance >= units.QuarterTurn/2 {
		return fmt.Errorf("ParallelTolerance must be in [0, π/4), got %v", c.ParallelTolerance)
	}
	if c.PerpendicularTolerance < 0 || c.PerpendicularTolerance >= units.QuarterTurn/2 {
		return fmt.Errorf("PerpendicularTolerance must be in [0, π/4), got %v", c.PerpendicularTolerance)
	}
	if c.ExactTolerance < 0 {
		return fmt.Errorf("ExactTolerance must be non-negative, got %v", c.ExactTolerance)
	}
	if c.SeparationTolerance < 0 || c.SeparationTolerance >= 1 {
		return fmt.Errorf("SeparationTolerance must be in [0, 1), got %v", c.SeparationTolerance)
	}
	if c.NeighborhoodDistance < 0 || c.NeighborhoodAngle < 0 {
		return fmt.Errorf("neighbourhood radii must be non-negative, got %d × %d", c.NeighborhoodDistance, c.NeighborhoodAngle)
	}
	if c.SimilarityAngle < 0 || c.SimilarityDistance < 0 {
		return fmt.Errorf("similarity tolerances must be non-negative, got %v rad / %v m", c.SimilarityAngle, c.SimilarityDistance)
	}
	return nil
}

// IntersectionTolerance returns the guard to pass to FieldWalls.Corners:
// ExactTolerance, never below the kernel floor.
func (c Config) IntersectionTolerance() float64 {
	if c.ExactTolerance < geom.MinExactTolerance {
		return geom.MinExactTolerance
	}
	return c.ExactTolerance
}
