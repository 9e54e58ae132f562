// Package reward computes the block subsidy schedule.
package reward

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned when the subsidy cannot be computed without
// wrapping. It is unreachable for the default schedule.
var ErrOverflow = errors.New("reward calculation overflow")

// Schedule constants for the default emission curve, in base units.
const (
	InitialReward   = 3_237_500_000
	TailEmission    = 50_000_000
	BlocksPerYear   = 52_596
	DecayYears      = 24
	DecayEndHeight  = BlocksPerYear * DecayYears
	TotalDecreasing = InitialReward - TailEmission
)

// Schedule describes a linear decay from Initial to Tail over DecayBlocks
// blocks, after which Tail is paid forever.
type Schedule struct {
	Initial     uint64 `json:"initial"`
	Tail        uint64 `json:"tail"`
	DecayBlocks uint64 `json:"decay_blocks"`
}

// Default returns the production emission schedule.
func Default() Schedule {
	return Schedule{
		Initial:     InitialReward,
		Tail:        TailEmission,
		DecayBlocks: DecayEndHeight,
	}
}

// At returns the subsidy for a block at the specified height:
//
//	Initial - (Initial-Tail)*height/DecayBlocks   while height < DecayBlocks
//	Tail                                          afterwards
//
// The product is formed in 256 bits before the division.
func (s Schedule) At(height uint64) (uint64, error) {
	if s.Tail > s.Initial {
		return 0, fmt.Errorf("tail[%d] above initial[%d]: %w", s.Tail, s.Initial, ErrOverflow)
	}

	if height >= s.DecayBlocks {
		return s.Tail, nil
	}

	decrease, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(s.Initial-s.Tail), uint256.NewInt(height))
	if overflow {
		return 0, fmt.Errorf("height[%d]: %w", height, ErrOverflow)
	}

	decrease.Div(decrease, uint256.NewInt(s.DecayBlocks))
	if !decrease.IsUint64() || decrease.Uint64() > s.Initial {
		return 0, fmt.Errorf("height[%d] decrease[%s]: %w", height, decrease.Dec(), ErrOverflow)
	}

	return s.Initial - decrease.Uint64(), nil
}

// Total returns the cumulative subsidy paid by the blocks up to and
// including the specified height.
func (s Schedule) Total(height uint64) (*uint256.Int, error) {
	total := new(uint256.Int)

	limit := min(height, s.DecayBlocks)
	for h := range limit + 1 {
		r, err := s.At(h)
		if err != nil {
			return nil, err
		}

		if _, overflow := total.AddOverflow(total, uint256.NewInt(r)); overflow {
			return nil, fmt.Errorf("total at height[%d]: %w", h, ErrOverflow)
		}
	}

	if height > s.DecayBlocks {
		tail, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(s.Tail), uint256.NewInt(height-s.DecayBlocks))
		if overflow {
			return nil, fmt.Errorf("tail total: %w", ErrOverflow)
		}

		if _, overflow := total.AddOverflow(total, tail); overflow {
			return nil, fmt.Errorf("total: %w", ErrOverflow)
		}
	}

	return total, nil
}
