// Package config holds the tunable option table from spec.md section 6,
// with the same defaults-plus-validation shape camus's CLI layer uses.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks a Config that fails Validate's consistency checks.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config collects every tunable the placement/SPR engine consults.
type Config struct {
	MinBlength    float64
	MaxBlength    float64
	DefaultBlength float64
	MinBlengthMid float64

	MinImprovement    float64
	MinSPRImprovement float64
	MaxSPRSweeps      int
	MinTotalImprovement float64

	ModelName string

	PseudocountUpdateInterval int

	// LineSearchMaxIterations and LineSearchTolerance bound the
	// golden-section/parabolic 1-D optimizer used by placement (spec.md
	// 4.3.1: "bounded iterations <= 20, tolerance 1e-7").
	LineSearchMaxIterations int
	LineSearchTolerance     float64
}

// Default returns the option table's documented defaults. DefaultBlength
// depends on genome length (spec.md: "0.1 / L"), so it is filled in
// separately by WithGenomeLength.
func Default() Config {
	return Config{
		MinBlength:                1e-9,
		MaxBlength:                1.0,
		DefaultBlength:            0, // set by WithGenomeLength
		MinBlengthMid:             1e-6,
		MinImprovement:            0.1,
		MinSPRImprovement:         0.1,
		MaxSPRSweeps:              20,
		MinTotalImprovement:       1.0,
		ModelName:                 "GTR",
		PseudocountUpdateInterval: 100,
		LineSearchMaxIterations:   20,
		LineSearchTolerance:       1e-7,
	}
}

// WithGenomeLength fills in DefaultBlength (0.1/L) for a reference of the
// given length.
func (c Config) WithGenomeLength(length int) Config {
	c.DefaultBlength = 0.1 / float64(length)
	return c
}

// Validate checks the option table's internal consistency, the way camus's
// parseArgs validates its flag values before inference starts. It enforces
// the branch-length chain min_blength < default_blength < max_blength
// (spec.md section 6), returning an error wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if c.MinBlength <= 0 {
		return fmt.Errorf("%w: min_blength must be positive, got %v", ErrInvalidConfig, c.MinBlength)
	}
	if c.DefaultBlength <= c.MinBlength {
		return fmt.Errorf("%w: default_blength (%v) must exceed min_blength (%v)", ErrInvalidConfig, c.DefaultBlength, c.MinBlength)
	}
	if c.MaxBlength <= c.DefaultBlength {
		return fmt.Errorf("%w: max_blength (%v) must exceed default_blength (%v)", ErrInvalidConfig, c.MaxBlength, c.DefaultBlength)
	}
	if c.MinBlengthMid <= 0 {
		return fmt.Errorf("%w: min_blength_mid must be positive, got %v", ErrInvalidConfig, c.MinBlengthMid)
	}
	if c.MinImprovement < 0 {
		return fmt.Errorf("%w: min_improvement must be non-negative, got %v", ErrInvalidConfig, c.MinImprovement)
	}
	if c.MinSPRImprovement < 0 {
		return fmt.Errorf("%w: min_spr_improvement must be non-negative, got %v", ErrInvalidConfig, c.MinSPRImprovement)
	}
	if c.MaxSPRSweeps < 1 {
		return fmt.Errorf("%w: max_spr_sweeps must be at least 1, got %v", ErrInvalidConfig, c.MaxSPRSweeps)
	}
	switch c.ModelName {
	case "JC", "GTR", "UNREST":
	default:
		return fmt.Errorf("%w: unrecognized model_name %q, want one of JC, GTR, UNREST", ErrInvalidConfig, c.ModelName)
	}
	if c.PseudocountUpdateInterval < 1 {
		return fmt.Errorf("%w: pseudocount_update_interval must be at least 1, got %v", ErrInvalidConfig, c.PseudocountUpdateInterval)
	}
	if c.LineSearchMaxIterations < 1 {
		return fmt.Errorf("%w: line search iteration bound must be at least 1, got %v", ErrInvalidConfig, c.LineSearchMaxIterations)
	}
	return nil
}
