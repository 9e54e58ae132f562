// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/mempool/selector"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// ErrConflict is returned when a transaction spends an output already
// claimed by another pooled transaction.
var ErrConflict = errors.New("conflicts with pooled transaction")

// Mempool represents a cache of validated transactions keyed by txid with
// a second index on the outpoints they spend.
type Mempool struct {
	pool     map[signature.Hash]database.PoolTx
	spends   map[database.OutPoint]signature.Hash
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default sort strategy.
func New() *Mempool {
	mp, _ := NewWithStrategy(selector.StrategyFee)
	return mp
}

// NewWithStrategy constructs a new mempool with specified sort strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[signature.Hash]database.PoolTx),
		spends:   make(map[database.OutPoint]signature.Hash),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool. Adding a transaction already
// in the pool is a no-op.
func (mp *Mempool) Upsert(tx database.PoolTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.ID]; exists {
		return len(mp.pool), nil
	}

	for _, in := range tx.Tx.Inputs {
		if other, exists := mp.spends[in.PrevOut]; exists {
			return 0, fmt.Errorf("outpoint %s spent by %s: %w", in.PrevOut, other, ErrConflict)
		}
	}

	mp.pool[tx.ID] = tx
	for _, in := range tx.Tx.Inputs {
		mp.spends[in.PrevOut] = tx.ID
	}

	return len(mp.pool), nil
}

// Delete removed a transaction from the mempool.
func (mp *Mempool) Delete(id signature.Hash) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.delete(id)
}

// RemoveMined drops the transactions included in the block and any pooled
// transaction that spends an output the block consumed.
func (mp *Mempool) RemoveMined(b database.Block) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	before := len(mp.pool)

	for _, tx := range b.Txs {
		mp.delete(tx.ID())

		if tx.IsCoinbase() {
			continue
		}

		for _, in := range tx.Inputs {
			if id, exists := mp.spends[in.PrevOut]; exists {
				mp.delete(id)
			}
		}
	}

	return before - len(mp.pool)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[signature.Hash]database.PoolTx)
	mp.spends = make(map[database.OutPoint]signature.Hash)
}

// Copy returns every pooled transaction in the configured strategy order.
func (mp *Mempool) Copy() []database.PoolTx {
	return mp.PickBest(-1)
}

// PickBest uses the configured sort strategy to return the next set
// of transactions for the next block.
func (mp *Mempool) PickBest(howMany int) []database.PoolTx {
	var txs []database.PoolTx
	mp.mu.RLock()
	{
		txs = make([]database.PoolTx, 0, len(mp.pool))
		for _, tx := range mp.pool {
			txs = append(txs, tx)
		}
	}
	mp.mu.RUnlock()

	return mp.selectFn(txs, howMany)
}

// =============================================================================

// delete must be called with the write lock held.
func (mp *Mempool) delete(id signature.Hash) {
	tx, exists := mp.pool[id]
	if !exists {
		return
	}

	for _, in := range tx.Tx.Inputs {
		if mp.spends[in.PrevOut] == id {
			delete(mp.spends, in.PrevOut)
		}
	}

	delete(mp.pool, id)
}
