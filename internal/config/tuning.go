package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Fallback ranking policies accepted by fallback_ranking.
const (
	FallbackRankingScore        = "score"
	FallbackRankingLowestWeight = "lowest_weight"
)

// TuningConfig represents the root configuration for tuning parameters.
// Every field is optional; the Get* methods supply the default for any
// field the JSON omits.
type TuningConfig struct {
	// Accumulator params
	DistanceResolutionM *float64 `json:"distance_resolution_m,omitempty"`
	AngleResolutionDeg  *float64 `json:"angle_resolution_deg,omitempty"`
	MaxRangeM           *float64 `json:"max_range_m,omitempty"`
	MinRangeM           *float64 `json:"min_range_m,omitempty"`
	MinVoteThreshold    *int     `json:"min_vote_threshold,omitempty"`

	// Field geometry
	FieldLengthM *float64 `json:"field_length_m,omitempty"`
	FieldWidthM  *float64 `json:"field_width_m,omitempty"`

	// Matcher params
	ParallelToleranceRad        *float64 `json:"parallel_tolerance_rad,omitempty"`
	PerpendicularToleranceRad   *float64 `json:"perpendicular_tolerance_rad,omitempty"`
	ExactParallelToleranceRad   *float64 `json:"exact_parallel_tolerance_rad,omitempty"`
	SeparationRelativeTolerance *float64 `json:"separation_relative_tolerance,omitempty"`
	NeighborhoodDistanceBuckets *int     `json:"neighborhood_distance_buckets,omitempty"`
	NeighborhoodAngleBuckets    *int     `json:"neighborhood_angle_buckets,omitempty"`
	EnableFallback              *bool    `json:"enable_fallback,omitempty"`
	FallbackRanking             *string  `json:"fallback_ranking,omitempty"`

	// Refinement params
	SimilarityAngleDeg  *float64 `json:"similarity_angle_deg,omitempty"`
	SimilarityDistanceM *float64 `json:"similarity_distance_m,omitempty"`

	// Scanner params
	SerialBaudRate   *int  `json:"serial_baud_rate,omitempty"`
	ScannerClockwise *bool `json:"scanner_clockwise,omitempty"`
	MinIntensity     *int  `json:"min_intensity,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the compiled-in defaults. It matches config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		DistanceResolutionM:         ptrFloat64(empty.GetDistanceResolutionM()),
		AngleResolutionDeg:          ptrFloat64(empty.GetAngleResolutionDeg()),
		MaxRangeM:                   ptrFloat64(empty.GetMaxRangeM()),
		MinRangeM:                   ptrFloat64(empty.GetMinRangeM()),
		MinVoteThreshold:            ptrInt(empty.GetMinVoteThreshold()),
		FieldLengthM:                ptrFloat64(empty.GetFieldLengthM()),
		FieldWidthM:                 ptrFloat64(empty.GetFieldWidthM()),
		ParallelToleranceRad:        ptrFloat64(empty.GetParallelToleranceRad()),
		PerpendicularToleranceRad:   ptrFloat64(empty.GetPerpendicularToleranceRad()),
		ExactParallelToleranceRad:   ptrFloat64(empty.GetExactParallelToleranceRad()),
		SeparationRelativeTolerance: ptrFloat64(empty.GetSeparationRelativeTolerance()),
		NeighborhoodDistanceBuckets: ptrInt(empty.GetNeighborhoodDistanceBuckets()),
		NeighborhoodAngleBuckets:    ptrInt(empty.GetNeighborhoodAngleBuckets()),
		EnableFallback:              ptrBool(empty.GetEnableFallback()),
		FallbackRanking:             ptrString(empty.GetFallbackRanking()),
		SimilarityAngleDeg:          ptrFloat64(empty.GetSimilarityAngleDeg()),
		SimilarityDistanceM:         ptrFloat64(empty.GetSimilarityDistanceM()),
		SerialBaudRate:              ptrInt(empty.GetSerialBaudRate()),
		ScannerClockwise:            ptrBool(empty.GetScannerClockwise()),
		MinIntensity:                ptrInt(empty.GetMinIntensity()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/lidar/walls/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"distance_resolution_m", c.DistanceResolutionM},
		{"angle_resolution_deg", c.AngleResolutionDeg},
		{"max_range_m", c.MaxRangeM},
		{"field_length_m", c.FieldLengthM},
		{"field_width_m", c.FieldWidthM},
	}
	for _, p := range positive {
		if p.v != nil && !(*p.v > 0 && !math.IsInf(*p.v, 0)) {
			return fmt.Errorf("%s must be positive and finite, got %v", p.name, *p.v)
		}
	}

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"min_range_m", c.MinRangeM},
		{"parallel_tolerance_rad", c.ParallelToleranceRad},
		{"perpendicular_tolerance_rad", c.PerpendicularToleranceRad},
		{"exact_parallel_tolerance_rad", c.ExactParallelToleranceRad},
		{"separation_relative_tolerance", c.SeparationRelativeTolerance},
		{"similarity_angle_deg", c.SimilarityAngleDeg},
		{"similarity_distance_m", c.SimilarityDistanceM},
	}
	for _, p := range nonNegative {
		if p.v != nil && !(*p.v >= 0 && !math.IsInf(*p.v, 0)) {
			return fmt.Errorf("%s must be non-negative and finite, got %v", p.name, *p.v)
		}
	}

	if c.AngleResolutionDeg != nil && *c.AngleResolutionDeg > 90 {
		return fmt.Errorf("angle_resolution_deg must be at most 90, got %v", *c.AngleResolutionDeg)
	}
	if c.MinRangeM != nil && *c.MinRangeM >= c.GetMaxRangeM() {
		return fmt.Errorf("min_range_m (%v) must be below max_range_m (%v)", *c.MinRangeM, c.GetMaxRangeM())
	}
	if c.SeparationRelativeTolerance != nil && *c.SeparationRelativeTolerance >= 1 {
		return fmt.Errorf("separation_relative_tolerance must be below 1, got %v", *c.SeparationRelativeTolerance)
	}
	if c.MinVoteThreshold != nil && *c.MinVoteThreshold < 1 {
		return fmt.Errorf("min_vote_threshold must be at least 1, got %d", *c.MinVoteThreshold)
	}
	if c.NeighborhoodDistanceBuckets != nil && *c.NeighborhoodDistanceBuckets < 0 {
		return fmt.Errorf("neighborhood_distance_buckets must be non-negative, got %d", *c.NeighborhoodDistanceBuckets)
	}
	if c.NeighborhoodAngleBuckets != nil && *c.NeighborhoodAngleBuckets < 0 {
		return fmt.Errorf("neighborhood_angle_buckets must be non-negative, got %d", *c.NeighborhoodAngleBuckets)
	}
	if c.FallbackRanking != nil {
		switch *c.FallbackRanking {
		case FallbackRankingScore, FallbackRankingLowestWeight:
		default:
			return fmt.Errorf("fallback_ranking must be %q or %q, got %q",
				FallbackRankingScore, FallbackRankingLowestWeight, *c.FallbackRanking)
		}
	}
	if c.SerialBaudRate != nil && *c.SerialBaudRate <= 0 {
		return fmt.Errorf("serial_baud_rate must be positive, got %d", *c.SerialBaudRate)
	}
	if c.MinIntensity != nil && (*c.MinIntensity < 0 || *c.MinIntensity > 255) {
		return fmt.Errorf("min_intensity must be in [0, 255], got %d", *c.MinIntensity)
	}

	return nil
}

// GetDistanceResolutionM returns the distance_resolution_m value or the default.
func (c *TuningConfig) GetDistanceResolutionM() float64 {
	if c.DistanceResolutionM == nil {
		return 0.01 // 1 cm
	}
	return *c.DistanceResolutionM
}

// GetAngleResolutionDeg returns the angle_resolution_deg value or the default.
func (c *TuningConfig) GetAngleResolutionDeg() float64 {
	if c.AngleResolutionDeg == nil {
		return 1.0
	}
	return *c.AngleResolutionDeg
}

// GetMaxRangeM returns the max_range_m value or the default.
func (c *TuningConfig) GetMaxRangeM() float64 {
	if c.MaxRangeM == nil {
		return 3.0
	}
	return *c.MaxRangeM
}

// GetMinRangeM returns the min_range_m value or the default.
func (c *TuningConfig) GetMinRangeM() float64 {
	if c.MinRangeM == nil {
		return 0.09 // returns closer than this hit the robot itself
	}
	return *c.MinRangeM
}

// GetMinVoteThreshold returns the min_vote_threshold value or the default.
func (c *TuningConfig) GetMinVoteThreshold() int {
	if c.MinVoteThreshold == nil {
		return 30
	}
	return *c.MinVoteThreshold
}

// GetFieldLengthM returns the field_length_m value or the default.
func (c *TuningConfig) GetFieldLengthM() float64 {
	if c.FieldLengthM == nil {
		return 2.43
	}
	return *c.FieldLengthM
}

// GetFieldWidthM returns the field_width_m value or the default.
func (c *TuningConfig) GetFieldWidthM() float64 {
	if c.FieldWidthM == nil {
		return 1.82
	}
	return *c.FieldWidthM
}

// GetParallelToleranceRad returns the parallel_tolerance_rad value or the default.
func (c *TuningConfig) GetParallelToleranceRad() float64 {
	if c.ParallelToleranceRad == nil {
		return 0.2
	}
	return *c.ParallelToleranceRad
}

// GetPerpendicularToleranceRad returns the perpendicular_tolerance_rad value or the default.
func (c *TuningConfig) GetPerpendicularToleranceRad() float64 {
	if c.PerpendicularToleranceRad == nil {
		return 0.2
	}
	return *c.PerpendicularToleranceRad
}

// GetExactParallelToleranceRad returns the exact_parallel_tolerance_rad value or the default.
func (c *TuningConfig) GetExactParallelToleranceRad() float64 {
	if c.ExactParallelToleranceRad == nil {
		return 1e-9
	}
	return *c.ExactParallelToleranceRad
}

// GetSeparationRelativeTolerance returns the separation_relative_tolerance value or the default.
func (c *TuningConfig) GetSeparationRelativeTolerance() float64 {
	if c.SeparationRelativeTolerance == nil {
		return 0.10
	}
	return *c.SeparationRelativeTolerance
}

// GetNeighborhoodDistanceBuckets returns the neighborhood_distance_buckets value or the default.
func (c *TuningConfig) GetNeighborhoodDistanceBuckets() int {
	if c.NeighborhoodDistanceBuckets == nil {
		return 10
	}
	return *c.NeighborhoodDistanceBuckets
}

// GetNeighborhoodAngleBuckets returns the neighborhood_angle_buckets value or the default.
func (c *TuningConfig) GetNeighborhoodAngleBuckets() int {
	if c.NeighborhoodAngleBuckets == nil {
		return 10
	}
	return *c.NeighborhoodAngleBuckets
}

// GetEnableFallback returns the enable_fallback value or the default.
func (c *TuningConfig) GetEnableFallback() bool {
	if c.EnableFallback == nil {
		return true
	}
	return *c.EnableFallback
}

// GetFallbackRanking returns the fallback_ranking value or the default.
func (c *TuningConfig) GetFallbackRanking() string {
	if c.FallbackRanking == nil || *c.FallbackRanking == "" {
		return FallbackRankingScore
	}
	return *c.FallbackRanking
}

// GetSimilarityAngleDeg returns the similarity_angle_deg value or the default.
func (c *TuningConfig) GetSimilarityAngleDeg() float64 {
	if c.SimilarityAngleDeg == nil {
		return 20
	}
	return *c.SimilarityAngleDeg
}

// GetSimilarityDistanceM returns the similarity_distance_m value or the default.
func (c *TuningConfig) GetSimilarityDistanceM() float64 {
	if c.SimilarityDistanceM == nil {
		return 0.20
	}
	return *c.SimilarityDistanceM
}

// GetSerialBaudRate returns the serial_baud_rate value or the default.
func (c *TuningConfig) GetSerialBaudRate() int {
	if c.SerialBaudRate == nil {
		return 230400
	}
	return *c.SerialBaudRate
}

// GetScannerClockwise returns the scanner_clockwise value or the default.
func (c *TuningConfig) GetScannerClockwise() bool {
	if c.ScannerClockwise == nil {
		return true
	}
	return *c.ScannerClockwise
}

// GetMinIntensity returns the min_intensity value or the default.
// Returns weaker than this are dropped; 0 keeps every return.
func (c *TuningConfig) GetMinIntensity() int {
	if c.MinIntensity == nil {
		return 0
	}
	return *c.MinIntensity
}
