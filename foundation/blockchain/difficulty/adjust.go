package difficulty

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidTimespan is returned when the timestamps bounding an adjustment
// period are out of order, equal, or implausibly far apart.
var ErrInvalidTimespan = errors.New("invalid timespan")

// IsAdjustmentHeight reports whether a block at height h recomputes the
// target.
func IsAdjustmentHeight(h uint64, interval uint64) bool {
	return interval != 0 && h%interval == 0
}

// Adjuster recomputes the target at the end of every adjustment period.
type Adjuster struct {
	Interval           uint64 // Blocks per adjustment period.
	TargetSpacing      uint64 // Seconds expected between blocks.
	MinTarget          Target // Hardest target allowed.
	MaxTarget          Target // Easiest target allowed.
	ClampFactor        uint64 // Timespans are clamped to [span/f, span*f].
	ManipulationFactor uint64 // Timespans above span*f are rejected.
}

// TargetTimespan returns the number of seconds one period should take.
func (a Adjuster) TargetTimespan() uint64 {
	return a.Interval * a.TargetSpacing
}

// Timespan returns last-first after rejecting underflow, zero and values
// beyond the manipulation bound.
func (a Adjuster) Timespan(first uint64, last uint64) (uint64, error) {
	if last < first {
		return 0, fmt.Errorf("first[%d] last[%d] underflow: %w", first, last, ErrInvalidTimespan)
	}

	span := last - first
	if span == 0 {
		return 0, fmt.Errorf("first[%d] last[%d] zero: %w", first, last, ErrInvalidTimespan)
	}

	limit := new(big.Int).Mul(new(big.Int).SetUint64(a.TargetTimespan()), new(big.Int).SetUint64(a.ManipulationFactor))
	if new(big.Int).SetUint64(span).Cmp(limit) > 0 {
		return 0, fmt.Errorf("timespan[%d] exceeds limit[%s]: %w", span, limit, ErrInvalidTimespan)
	}

	return span, nil
}

// NextTarget computes the target for the block following an adjustment
// period that began at first and ended at last, given the target in force
// during the period. The multiplication happens before the division in
// arbitrary precision and the result is clamped to [MinTarget, MaxTarget].
func (a Adjuster) NextTarget(first uint64, last uint64, previous Target) (Target, error) {
	span, err := a.Timespan(first, last)
	if err != nil {
		return Target{}, err
	}

	expected := a.TargetTimespan()
	if expected == 0 {
		return Target{}, errors.New("adjuster has a zero target timespan")
	}

	actual := new(big.Int).SetUint64(span)
	if a.ClampFactor > 1 {
		lo := new(big.Int).SetUint64(expected / a.ClampFactor)
		hi := new(big.Int).Mul(new(big.Int).SetUint64(expected), new(big.Int).SetUint64(a.ClampFactor))

		switch {
		case actual.Cmp(lo) < 0:
			actual = lo
		case actual.Cmp(hi) > 0:
			actual = hi
		}
	}

	v := previous.Big()
	v.Mul(v, actual)
	v.Div(v, new(big.Int).SetUint64(expected))

	switch {
	case v.Cmp(a.MinTarget.Big()) < 0:
		return a.MinTarget, nil
	case v.Cmp(a.MaxTarget.Big()) > 0:
		return a.MaxTarget, nil
	}

	return FromBig(v)
}

// WithinTolerance reports whether an asserted target matches the expected
// one. The tolerance is one unit in the last place of the expected target's
// compact mantissa: |asserted - expected| <= 256^(exponent-3).
func WithinTolerance(asserted Target, expected Target) bool {
	exponent := uint(expected.Bits() >> 24)

	ulp := big.NewInt(1)
	if exponent > 3 {
		ulp.Lsh(ulp, 8*(exponent-3))
	}

	diff := new(big.Int).Sub(asserted.Big(), expected.Big())
	diff.Abs(diff)

	return diff.Cmp(ulp) <= 0
}
