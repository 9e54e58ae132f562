// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btpc/blockchain/foundation/blockchain/consensus"
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/btpc/blockchain/foundation/blockchain/mempool"
	"github.com/btpc/blockchain/foundation/blockchain/mempool/selector"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// Metrics receives the counters the state maintains. The node wires this
// to its Prometheus collectors.
type Metrics interface {
	BlockAccepted(height uint64, txs int, took time.Duration)
	BlockRejected(reason error)
	TxAdmitted(mempoolSize int)
	TxRejected(reason error)
	MempoolSize(n int)
}

type nopMetrics struct{}

func (nopMetrics) BlockAccepted(uint64, int, time.Duration) {}
func (nopMetrics) BlockRejected(error) {}
func (nopMetrics) TxAdmitted(int) {}
func (nopMetrics) TxRejected(error) {}
func (nopMetrics) MempoolSize(int) {}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Params         genesis.Params
	Storage        database.Storage
	Verifier       signature.Verifier
	SelectStrategy string
	MaxBlockTxs    int
	MiningWorkers  int
	MinerScript    []byte
	Clock          func() time.Time
	EvHandler      EventHandler
	Metrics        Metrics
}

// State manages the blockchain database.
type State struct {
	mu sync.RWMutex

	params        genesis.Params
	storage       database.Storage
	engine        *consensus.Engine
	mempool       *mempool.Mempool
	latestBlock   database.Block
	minerScript   []byte
	maxBlockTxs   int
	miningWorkers int
	now           func() time.Time
	evHandler     EventHandler
	metrics       Metrics

	Worker Worker
}

// New constructs a new blockchain for data management. An empty storage is
// seeded with the genesis block of the network.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil || cfg.Verifier == nil {
		return nil, errors.New("storage and verifier are required")
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	var metrics Metrics = nopMetrics{}
	if cfg.Metrics != nil {
		metrics = cfg.Metrics
	}

	gen, err := genesis.Block(cfg.Params)
	if err != nil {
		return nil, err
	}

	height, err := bootstrap(cfg.Storage, gen, ev)
	if err != nil {
		return nil, err
	}

	latestBlock, err := cfg.Storage.GetBlockByHeight(height)
	if err != nil {
		return nil, fmt.Errorf("load tip block %d: %w", height, err)
	}

	engine, err := consensus.NewEngine(cfg.Params, cfg.Storage, cfg.Verifier,
		consensus.WithHeight(height),
		consensus.WithClock(now),
		consensus.WithEvHandler(consensus.EventHandler(ev)),
	)
	if err != nil {
		return nil, err
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = selector.StrategyFee
	}

	// Construct a mempool with the specified sort strategy.
	mp, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	maxBlockTxs := cfg.MaxBlockTxs
	if maxBlockTxs <= 0 {
		maxBlockTxs = -1
	}

	workers := cfg.MiningWorkers
	if workers < 1 {
		workers = 1
	}

	state := State{
		params:        cfg.Params,
		storage:       cfg.Storage,
		engine:        engine,
		mempool:       mp,
		latestBlock:   latestBlock,
		minerScript:   cfg.MinerScript,
		maxBlockTxs:   maxBlockTxs,
		miningWorkers: workers,
		now:           now,
		evHandler:     ev,
		metrics:       metrics,
	}

	ev("state: New: network[%s] height[%d] tip[%s]", cfg.Params.Name, height, latestBlock.Hash())

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database file is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// bootstrap writes the genesis block into empty storage and checks stored
// chains start from the expected genesis. It returns the tip height.
func bootstrap(storage database.Storage, gen database.Block, ev EventHandler) (uint64, error) {
	height, err := storage.LatestHeight()
	switch {
	case errors.Is(err, database.ErrNotFound):
		ev("state: bootstrap: writing genesis block[%s]", gen.Hash())

		cb := gen.Txs[0]
		batch := database.Batch{
			Height:   0,
			Block:    gen,
			Inserted: database.NewUTXOs(cb, 0),
			TxIDs:    []signature.Hash{cb.ID()},
		}

		if err := storage.ApplyBatch(batch); err != nil {
			return 0, fmt.Errorf("write genesis: %w", err)
		}

		return 0, nil

	case err != nil:
		return 0, fmt.Errorf("latest height: %w", err)
	}

	stored, err := storage.GetBlockByHeight(0)
	if err != nil {
		return 0, fmt.Errorf("load genesis: %w", err)
	}

	if stored.Hash() != gen.Hash() {
		return 0, fmt.Errorf("stored genesis %s does not match network genesis %s", stored.Hash(), gen.Hash())
	}

	return height, nil
}
