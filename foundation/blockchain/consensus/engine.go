// Package consensus decides whether a candidate block may extend the chain.
// Validation is a pure function of the candidate, its parent, the network
// parameters and the ledger view; nothing is written.
package consensus

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events occur in the
// processing of validation.
type EventHandler func(v string, args ...any)

// Ledger is the read side of the storage collaborator used during
// validation.
type Ledger interface {
	GetUTXO(op database.OutPoint) (database.UTXO, error)
	HasTransaction(txID signature.Hash) (bool, error)
	GetBlockByHeight(height uint64) (database.Block, error)
}

// Engine validates blocks for one network. It holds the immutable network
// parameters and a cursor at the current tip height.
type Engine struct {
	params   genesis.Params
	ledger   Ledger
	verifier signature.Verifier
	now      func() time.Time
	ev       EventHandler
	height   atomic.Uint64
}

// WithClock replaces the wall clock used for the future timestamp window.
func WithClock(now func() time.Time) func(e *Engine) {
	return func(e *Engine) {
		e.now = now
	}
}

// WithEvHandler sets the handler that receives validation events.
func WithEvHandler(ev EventHandler) func(e *Engine) {
	return func(e *Engine) {
		e.ev = ev
	}
}

// WithHeight positions the tip cursor.
func WithHeight(height uint64) func(e *Engine) {
	return func(e *Engine) {
		e.height.Store(height)
	}
}

// NewEngine constructs an engine for the network over the ledger view.
func NewEngine(params genesis.Params, ledger Ledger, verifier signature.Verifier, options ...func(e *Engine)) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}

	if ledger == nil || verifier == nil {
		return nil, errors.New("ledger and verifier are required")
	}

	e := Engine{
		params:   params,
		ledger:   ledger,
		verifier: verifier,
		now:      time.Now,
		ev:       func(string, ...any) {},
	}

	for _, option := range options {
		option(&e)
	}

	return &e, nil
}

// Params returns the network parameters.
func (e *Engine) Params() genesis.Params {
	return e.params
}

// Height returns the height of the current tip.
func (e *Engine) Height() uint64 {
	return e.height.Load()
}

// SetHeight moves the tip cursor after a batch has been applied.
func (e *Engine) SetHeight(height uint64) {
	e.height.Store(height)
}

// =============================================================================

// ValidateBlock checks a candidate that extends previous, the block at the
// current tip. Checks run in order and stop at the first failure:
// structure, timestamps, proof of work, difficulty, transactions. On
// success the returned batch holds every ledger mutation the block makes.
func (e *Engine) ValidateBlock(candidate database.Block, previous database.Block) (database.Batch, error) {
	height := e.Height() + 1
	hash := candidate.Hash()

	e.ev("consensus: ValidateBlock: validate: blk[%d]: hash[%s]", height, hash)

	tip, err := e.ledger.GetBlockByHeight(height - 1)
	if err != nil {
		return database.Batch{}, storageErr("get tip block", err)
	}

	if tip.Hash() != previous.Hash() {
		return database.Batch{}, structural(-1, "previous block %s is not the tip %s", previous.Hash(), tip.Hash())
	}

	e.ev("consensus: ValidateBlock: validate: blk[%d]: check: structure", height)
	if err := e.checkStructure(candidate, previous, height); err != nil {
		return database.Batch{}, err
	}

	e.ev("consensus: ValidateBlock: validate: blk[%d]: check: timestamps", height)
	if err := e.checkTimestamps(candidate, previous, height); err != nil {
		return database.Batch{}, err
	}

	e.ev("consensus: ValidateBlock: validate: blk[%d]: check: proof of work", height)
	if err := e.checkProofOfWork(candidate, height); err != nil {
		return database.Batch{}, err
	}

	e.ev("consensus: ValidateBlock: validate: blk[%d]: check: difficulty", height)
	if err := e.checkDifficulty(candidate, previous, height); err != nil {
		return database.Batch{}, err
	}

	e.ev("consensus: ValidateBlock: validate: blk[%d]: check: transactions[%d]", height, len(candidate.Txs))
	batch, err := e.checkTransactions(candidate, height)
	if err != nil {
		return database.Batch{}, err
	}

	e.ev("consensus: ValidateBlock: validate: blk[%d]: valid", height)

	return batch, nil
}

// MedianTimePast returns the median timestamp of the block at height and
// up to MedianTimeBlocks-1 of its ancestors. tip is the block at height.
func (e *Engine) MedianTimePast(tip database.Block, height uint64) (uint64, error) {
	n := uint64(e.params.MedianTimeBlocks)
	if n > height+1 {
		n = height + 1
	}

	stamps := make([]uint64, 0, n)
	stamps = append(stamps, tip.Header.TimeStamp)

	for h := height - n + 1; h < height; h++ {
		b, err := e.ledger.GetBlockByHeight(h)
		if err != nil {
			return 0, storageErr(fmt.Sprintf("get block %d", h), err)
		}
		stamps = append(stamps, b.Header.TimeStamp)
	}

	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	return stamps[len(stamps)/2], nil
}
