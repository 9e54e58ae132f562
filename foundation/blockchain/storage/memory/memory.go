// Package memory implements the ledger storage in memory. It is used by
// tests and by short lived development nodes.
package memory

import (
	"fmt"
	"sync"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Memory represents the ledger held in maps. This implements the
// database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
	utxos  map[database.OutPoint]database.UTXO
	spent  map[database.OutPoint]struct{}
	txIDs  map[signature.Hash]uint64
}

// New constructs an empty Memory value for use.
func New() *Memory {
	return &Memory{
		utxos: make(map[database.OutPoint]database.UTXO),
		spent: make(map[database.OutPoint]struct{}),
		txIDs: make(map[signature.Hash]uint64),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// GetUTXO returns the unspent output at the outpoint.
func (m *Memory) GetUTXO(op database.OutPoint) (database.UTXO, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u, exists := m.utxos[op]; exists {
		return u, nil
	}

	if _, exists := m.spent[op]; exists {
		return database.UTXO{}, database.ErrSpent
	}

	return database.UTXO{}, database.ErrNotFound
}

// HasTransaction reports whether the txid was registered by an applied
// block.
func (m *Memory) HasTransaction(txID signature.Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.txIDs[txID]
	return exists, nil
}

// GetBlockByHeight returns the block at the specified height.
func (m *Memory) GetBlockByHeight(height uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if height >= uint64(len(m.blocks)) {
		return database.Block{}, fmt.Errorf("block %d: %w", height, database.ErrNotFound)
	}

	return m.blocks[height], nil
}

// LatestHeight returns the height of the last applied block.
func (m *Memory) LatestHeight() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.blocks) == 0 {
		return 0, fmt.Errorf("empty chain: %w", database.ErrNotFound)
	}

	return uint64(len(m.blocks) - 1), nil
}

// ApplyBatch checks the batch preconditions and applies it under one
// lock.
func (m *Memory) ApplyBatch(batch database.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if batch.Height != uint64(len(m.blocks)) {
		return fmt.Errorf("height %d does not extend tip at %d: %w", batch.Height, len(m.blocks)-1, database.ErrConflict)
	}

	for _, id := range batch.TxIDs {
		if _, exists := m.txIDs[id]; exists {
			return fmt.Errorf("txid %s registered: %w", id, database.ErrConflict)
		}
	}

	inserted := make(map[database.OutPoint]struct{}, len(batch.Inserted))
	for _, u := range batch.Inserted {
		if _, exists := m.utxos[u.OutPoint]; exists {
			return fmt.Errorf("output %s exists: %w", u.OutPoint, database.ErrConflict)
		}
		inserted[u.OutPoint] = struct{}{}
	}

	removed := make(map[database.OutPoint]struct{}, len(batch.Removed))
	for _, op := range batch.Removed {
		if _, exists := removed[op]; exists {
			return fmt.Errorf("output %s removed twice: %w", op, database.ErrConflict)
		}
		removed[op] = struct{}{}

		_, unspent := m.utxos[op]
		_, created := inserted[op]
		if !unspent && !created {
			return fmt.Errorf("output %s not unspent: %w", op, database.ErrConflict)
		}
	}

	// Preconditions hold, nothing below can fail.

	for _, u := range batch.Inserted {
		m.utxos[u.OutPoint] = u
	}

	for _, op := range batch.Removed {
		delete(m.utxos, op)
		m.spent[op] = struct{}{}
	}

	for _, id := range batch.TxIDs {
		m.txIDs[id] = batch.Height
	}

	m.blocks = append(m.blocks, batch.Block)

	return nil
}
