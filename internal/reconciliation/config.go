// Package reconciliation implements the statement-to-ledger reconciliation
// engine: normalization, scoring, claim arbitration, classification into
// lifecycle transitions, balance checks and report building.
//
// Everything in this package is pure. It never performs I/O and never mutates
// the candidate pool it is given; callers persist the returned plan.
package reconciliation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid matcher configuration")

// Config holds the matcher and classifier tuning.
type Config struct {
	DateWeight   float64
	AmountWeight float64
	LabelWeight  float64

	// DateWindowDays is the widest date delta that still scores.
	DateWindowDays int

	StrictAmountBand  decimal.Decimal
	LenientAmountBand decimal.Decimal
	// LenientAmount widens the amount window for cross-source reconciliation.
	LenientAmount bool

	// LabelFloor is the minimum fuzzy similarity that earns label points.
	LabelFloor float64
	// DuplicateMargin is the score distance under which two candidates are
	// considered indistinguishable.
	DuplicateMargin float64

	// AmountTolerance is the absolute difference still treated as an exact amount.
	AmountTolerance  decimal.Decimal
	BalanceTolerance decimal.Decimal

	AutoAcceptMedium     bool
	LowMatchExpiryCycles int

	Workers int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DateWeight:           35,
		AmountWeight:         40,
		LabelWeight:          25,
		DateWindowDays:       3,
		StrictAmountBand:     decimal.NewFromFloat(0.05),
		LenientAmountBand:    decimal.NewFromFloat(0.15),
		LabelFloor:           0.5,
		DuplicateMargin:      5,
		AmountTolerance:      decimal.NewFromFloat(0.01),
		BalanceTolerance:     decimal.NewFromFloat(0.01),
		AutoAcceptMedium:     true,
		LowMatchExpiryCycles: 0,
		Workers:              4,
	}
}

// Validate checks weights and bands are within their allowed ranges.
func (c Config) Validate() error {
	if c.DateWeight < 30 || c.DateWeight > 40 {
		return fmt.Errorf("%w: date weight %.1f outside [30,40]", ErrInvalidConfig, c.DateWeight)
	}
	if c.AmountWeight <= 0 || c.AmountWeight > 40 {
		return fmt.Errorf("%w: amount weight %.1f outside (0,40]", ErrInvalidConfig, c.AmountWeight)
	}
	if c.LabelWeight < 20 || c.LabelWeight > 30 {
		return fmt.Errorf("%w: label weight %.1f outside [20,30]", ErrInvalidConfig, c.LabelWeight)
	}
	if c.DateWindowDays < 0 {
		return fmt.Errorf("%w: negative date window", ErrInvalidConfig)
	}
	if c.StrictAmountBand.IsNegative() || c.LenientAmountBand.LessThan(c.StrictAmountBand) {
		return fmt.Errorf("%w: amount bands must satisfy 0 <= strict <= lenient", ErrInvalidConfig)
	}
	if c.LabelFloor < 0 || c.LabelFloor > 1 {
		return fmt.Errorf("%w: label floor %.2f outside [0,1]", ErrInvalidConfig, c.LabelFloor)
	}
	if c.DuplicateMargin < 0 {
		return fmt.Errorf("%w: negative duplicate margin", ErrInvalidConfig)
	}
	if c.LowMatchExpiryCycles < 0 {
		return fmt.Errorf("%w: negative expiry cycles", ErrInvalidConfig)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
