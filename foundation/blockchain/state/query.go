package state

import (
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Status is a summary of the chain tip.
type Status struct {
	Network       string            `json:"network"`
	ForkID        uint8             `json:"fork_id"`
	Height        uint64            `json:"height"`
	Hash          signature.Hash    `json:"hash"`
	TimeStamp     uint64            `json:"timestamp"`
	Bits          uint32            `json:"bits"`
	Target        difficulty.Target `json:"target"`
	Work          string            `json:"work"`
	MedianTime    uint64            `json:"median_time"`
	NextSubsidy   uint64            `json:"next_subsidy"`
	MempoolLength int               `json:"mempool_length"`
}

// Params returns the network parameters.
func (s *State) Params() genesis.Params {
	return s.params
}

// LatestBlock returns a copy the current latest block.
func (s *State) LatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestBlock
}

// Height returns the height of the latest block.
func (s *State) Height() uint64 {
	return s.engine.Height()
}

// BlockByHeight returns the block at the specified height.
func (s *State) BlockByHeight(height uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.storage.GetBlockByHeight(height)
}

// QueryUTXO returns the unspent output at the outpoint.
func (s *State) QueryUTXO(op database.OutPoint) (database.UTXO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.storage.GetUTXO(op)
}

// QueryMempool returns a copy of the mempool in selection order.
func (s *State) QueryMempool() []database.PoolTx {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the number of transactions in the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// Status returns a summary of the chain tip.
func (s *State) Status() (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	height := s.engine.Height()
	tip := s.latestBlock

	target, err := difficulty.FromBits(tip.Header.Bits)
	if err != nil {
		return Status{}, err
	}

	mtp, err := s.engine.MedianTimePast(tip, height)
	if err != nil {
		return Status{}, err
	}

	subsidy, err := s.params.Reward.At(height + 1)
	if err != nil {
		return Status{}, err
	}

	status := Status{
		Network:       s.params.Name,
		ForkID:        s.params.ForkID,
		Height:        height,
		Hash:          tip.Hash(),
		TimeStamp:     tip.Header.TimeStamp,
		Bits:          tip.Header.Bits,
		Target:        target,
		Work:          target.Work().String(),
		MedianTime:    mtp,
		NextSubsidy:   subsidy,
		MempoolLength: s.mempool.Count(),
	}

	return status, nil
}
