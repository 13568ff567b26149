package hough

import (
	"fmt"
	"math"

	"github.com/banshee-data/fieldwalls/internal/config"
	"github.com/banshee-data/fieldwalls/internal/units"
)

// Config describes the accumulator geometry and the extraction threshold.
type Config struct {
	DistanceResolution float64 // meters per distance bucket (default: 0.01)
	AngleResolution    float64 // radians per angle bucket (default: 1°)
	MaxRange           float64 // returns beyond this are discarded (default: 3 m)
	MinRange           float64 // returns closer than this are discarded (default: 0.09 m)
	MinVotes           uint32  // extraction threshold (default: 30)
}

// DefaultConfig returns the compiled-in accumulator defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	minVotes := cfg.GetMinVoteThreshold()
	if minVotes < 1 {
		minVotes = 1
	}
	return Config{
		DistanceResolution: cfg.GetDistanceResolutionM(),
		AngleResolution:    units.DegToRad(cfg.GetAngleResolutionDeg()),
		MaxRange:           cfg.GetMaxRangeM(),
		MinRange:           cfg.GetMinRangeM(),
		MinVotes:           uint32(minVotes),
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if !(c.DistanceResolution > 0) || math.IsInf(c.DistanceResolution, 0) {
		return fmt.Errorf("DistanceResolution must be positive, got %v", c.DistanceResolution)
	}
	if !(c.AngleResolution > 0) || c.AngleResolution > units.QuarterTurn {
		return fmt.Errorf("AngleResolution must be in (0, π/2], got %v", c.AngleResolution)
	}
	if !(c.MaxRange > 0) || math.IsInf(c.MaxRange, 0) {
		return fmt.Errorf("MaxRange must be positive, got %v", c.MaxRange)
	}
	if c.MinRange < 0 || c.MinRange >= c.MaxRange {
		return fmt.Errorf("MinRange must be in [0, MaxRange), got %v", c.MinRange)
	}
	if c.MaxRange/c.DistanceResolution > maxHalfBuckets {
		return fmt.Errorf("MaxRange/DistanceResolution = %.0f exceeds %d buckets", c.MaxRange/c.DistanceResolution, maxHalfBuckets)
	}
	if angles := math.Round(units.HalfTurn / c.AngleResolution); angles > maxAngleBuckets {
		return fmt.Errorf("π/AngleResolution = %.0f exceeds %d buckets", angles, maxAngleBuckets)
	}
	if c.MinVotes == 0 {
		return fmt.Errorf("MinVotes must be at least 1")
	}
	return nil
}

// Grid bounds so a bad config cannot allocate gigabytes.
const (
	maxHalfBuckets  = 100000
	maxAngleBuckets = 3600 // 0.05°
)
