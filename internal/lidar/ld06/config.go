package ld06

import (
	"github.com/banshee-data/fieldwalls/internal/config"
	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/units"
)

// DecoderConfig controls the raw → SI conversion.
type DecoderConfig struct {
	// Clockwise is set for scanners that report bearings clockwise seen
	// from above (the LD06 does). Bearings are flipped so the output is
	// counter-clockwise from the forward axis.
	Clockwise bool
	// MinIntensity drops weaker returns; 0 keeps every non-zero distance.
	MinIntensity uint8
}

// DefaultDecoderConfig returns the LD06 defaults.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfigFromTuning(config.EmptyTuningConfig())
}

// DecoderConfigFromTuning builds a DecoderConfig from a loaded TuningConfig.
func DecoderConfigFromTuning(cfg *config.TuningConfig) DecoderConfig {
	return DecoderConfig{
		Clockwise:    cfg.GetScannerClockwise(),
		MinIntensity: uint8(cfg.GetMinIntensity()),
	}
}

// Point converts one sample. It reports false for samples without a return.
func (c DecoderConfig) Point(s Sample) (geom.PolarPoint, bool) {
	if s.Distance == 0 || s.Intensity < c.MinIntensity {
		return geom.PolarPoint{}, false
	}
	angle := units.CentidegreesToRadians(s.Angle)
	if c.Clockwise {
		angle = units.WrapTwoPi(-angle)
	}
	return geom.PolarPoint{
		Distance: units.MillimetersToMeters(s.Distance),
		Angle:    angle,
	}, true
}
