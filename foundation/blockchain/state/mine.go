package state

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/btpc/blockchain/foundation/blockchain/pow"
)

// ErrNoMinerScript is returned when mining is requested without a script
// to pay the reward to.
var ErrNoMinerScript = errors.New("no miner script configured")

// blockSizeReserve keeps room in a candidate for the header, coinbase and
// varint growth.
const blockSizeReserve = 1_000

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The best mempool transactions are
// included and the coinbase pays the subsidy plus their fees.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	if len(s.minerScript) == 0 {
		return database.Block{}, ErrNoMinerScript
	}

	s.evHandler("state: MineNewBlock: MINING: prepare candidate")

	block, err := s.candidate()
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: bits[%08x] txs[%d]", block.Header.Bits, len(block.Txs))

	// Attempt to solve the POW puzzle. This can be cancelled. An exhausted
	// nonce space moves the timestamp forward and searches again.
	for {
		target, err := difficulty.FromBits(block.Header.Bits)
		if err != nil {
			return database.Block{}, err
		}

		nonce, err := pow.Mine(ctx, block.Header, target, s.miningWorkers, pow.EventHandler(s.evHandler))
		if err == nil {
			block.Header.Nonce = nonce
			break
		}

		if !errors.Is(err, pow.ErrNonceExhausted) {
			return database.Block{}, err
		}

		block.Header.TimeStamp++
		s.evHandler("state: MineNewBlock: MINING: nonce space exhausted: timestamp[%d]", block.Header.TimeStamp)
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	if err := s.validateUpdateDatabase(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// candidate assembles an unsolved block on top of the current tip.
func (s *State) candidate() (database.Block, error) {
	prev, height, target, mtp, err := s.tipContext()
	if err != nil {
		return database.Block{}, err
	}

	ts := uint64(max(s.now().Unix(), 0))
	ts = max(ts, mtp+1)
	if !s.params.Bypass {
		ts = max(ts, prev.Header.TimeStamp+s.params.MinBlockSpacing)
	}

	subsidy, err := s.params.Reward.At(height)
	if err != nil {
		return database.Block{}, err
	}

	var (
		txs  []database.Tx
		fees uint64
		size = database.HeaderSize + blockSizeReserve + len(s.minerScript)
	)

	for _, ptx := range s.mempool.PickBest(s.maxBlockTxs) {
		if size+ptx.Size > s.params.MaxBlockSize {
			continue
		}

		total, carry := bits.Add64(fees, ptx.Fee, 0)
		if carry != 0 {
			break
		}

		fees = total
		size += ptx.Size
		txs = append(txs, ptx.Tx)
	}

	value, carry := bits.Add64(subsidy, fees, 0)
	if carry != 0 {
		return database.Block{}, fmt.Errorf("subsidy[%d] fees[%d] overflow", subsidy, fees)
	}

	coinbase := database.NewCoinbaseTx(height, s.params.ForkID, []database.TxOut{{Value: value, LockingScript: s.minerScript}}, nil)

	header := database.BlockHeader{
		Version:       1,
		PrevBlockHash: prev.Hash(),
		TimeStamp:     ts,
		Bits:          target.Bits(),
	}

	return database.NewBlock(header, append([]database.Tx{coinbase}, txs...))
}

// tipContext reads the tip and the history a new block depends on under
// the read lock so no apply can interleave.
func (s *State) tipContext() (database.Block, uint64, difficulty.Target, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prev := s.latestBlock
	height := s.engine.Height() + 1

	target, err := s.engine.ExpectedTarget(prev, height)
	if err != nil {
		return database.Block{}, 0, difficulty.Target{}, 0, fmt.Errorf("expected target: %w", err)
	}

	mtp, err := s.engine.MedianTimePast(prev, height-1)
	if err != nil {
		return database.Block{}, 0, difficulty.Target{}, 0, fmt.Errorf("median time past: %w", err)
	}

	return prev, height, target, mtp, nil
}
