package database

import (
	"errors"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Set of errors returned by storage implementations.
var (
	ErrNotFound = errors.New("not found")
	ErrSpent    = errors.New("output already spent")
	ErrConflict = errors.New("batch preconditions no longer hold")
)

// Batch is the complete set of ledger mutations for one accepted block.
// Storage implementations apply it all or not at all. Inserted outputs
// are applied before Removed ones so a block may spend an output created
// by an earlier transaction in the same block.
type Batch struct {
	Height   uint64
	Block    Block
	Removed  []OutPoint
	Inserted []UTXO
	TxIDs    []signature.Hash
}

// Storage is the ledger collaborator consumed by the consensus rules.
//
// GetUTXO returns ErrSpent for an outpoint that existed and has been
// consumed and ErrNotFound for one that never existed. ApplyBatch must
// verify, atomically with the write, that the batch height extends the
// tip (zero on an empty store), that every removed outpoint is unspent or
// inserted by the same batch and that no txid is already registered;
// otherwise it returns ErrConflict and writes nothing.
type Storage interface {
	GetUTXO(op OutPoint) (UTXO, error)
	HasTransaction(txID signature.Hash) (bool, error)
	GetBlockByHeight(height uint64) (Block, error)
	LatestHeight() (uint64, error)
	ApplyBatch(batch Batch) error
	Close() error
}
