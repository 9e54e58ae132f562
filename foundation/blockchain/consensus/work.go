package consensus

import (
	"fmt"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/btpc/blockchain/foundation/blockchain/pow"
)

// checkProofOfWork decodes the asserted target, holds it to the network
// ceiling and verifies the header hash against it.
func (e *Engine) checkProofOfWork(b database.Block, height uint64) error {
	target, err := difficulty.FromBits(b.Header.Bits)
	if err != nil {
		return &DifficultyError{Kind: ErrInvalidTarget, Height: height, GotBits: b.Header.Bits, Err: err}
	}

	if target.Cmp(e.params.MaxTarget) > 0 {
		return &DifficultyError{
			Kind:    ErrInvalidTarget,
			Height:  height,
			GotBits: b.Header.Bits,
			Err:     fmt.Errorf("easier than network maximum %08x", e.params.MaxTarget.Bits()),
		}
	}

	if !pow.Verify(b.Header, target) {
		return &ProofOfWorkError{Kind: ErrInvalidProof, Hash: b.Hash(), Bits: b.Header.Bits}
	}

	return nil
}

// checkDifficulty enforces the retarget schedule. Outside adjustment
// heights the target must not change; at adjustment heights it must match
// the target recomputed from the finished period. Bypass networks skip the
// check entirely.
func (e *Engine) checkDifficulty(b database.Block, previous database.Block, height uint64) error {
	if e.params.Bypass {
		return nil
	}

	if !difficulty.IsAdjustmentHeight(height, e.params.AdjustmentInterval) {
		if b.Header.Bits != previous.Header.Bits {
			return &DifficultyError{Kind: ErrUnexpectedChange, Height: height, GotBits: b.Header.Bits, WantBits: previous.Header.Bits}
		}
		return nil
	}

	expected, err := e.ExpectedTarget(previous, height)
	if err != nil {
		return err
	}

	asserted, err := difficulty.FromBits(b.Header.Bits)
	if err != nil {
		return &DifficultyError{Kind: ErrInvalidTarget, Height: height, GotBits: b.Header.Bits, Err: err}
	}

	if !difficulty.WithinTolerance(asserted, expected) {
		return &DifficultyError{Kind: ErrIncorrectAdjustment, Height: height, GotBits: b.Header.Bits, WantBits: expected.Bits()}
	}

	return nil
}

// ExpectedTarget returns the target a block at height must carry given its
// parent. Outside adjustment heights, and on bypass networks, this is the
// parent's target.
func (e *Engine) ExpectedTarget(previous database.Block, height uint64) (difficulty.Target, error) {
	prevTarget, err := difficulty.FromBits(previous.Header.Bits)
	if err != nil {
		return difficulty.Target{}, &DifficultyError{Kind: ErrInvalidTarget, Height: height - 1, GotBits: previous.Header.Bits, Err: err}
	}

	if e.params.Bypass || !difficulty.IsAdjustmentHeight(height, e.params.AdjustmentInterval) || height < e.params.AdjustmentInterval {
		return prevTarget, nil
	}

	first, err := e.ledger.GetBlockByHeight(height - e.params.AdjustmentInterval)
	if err != nil {
		return difficulty.Target{}, storageErr(fmt.Sprintf("get block %d", height-e.params.AdjustmentInterval), err)
	}

	firstTS, lastTS := first.Header.TimeStamp, previous.Header.TimeStamp

	next, err := e.params.Adjuster().NextTarget(firstTS, lastTS, prevTarget)
	if err != nil {
		return difficulty.Target{}, &DifficultyError{Kind: ErrInvalidTimespan, Height: height, First: firstTS, Last: lastTS, Err: err}
	}

	return next, nil
}
