// Package disk implements the ledger storage on LevelDB. Every accepted
// block is written as a single synced LevelDB batch.
package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Key prefixes for the records kept in the database.
const (
	prefixBlock = 'b' // height -> serialized block
	prefixUTXO  = 'u' // outpoint -> unspent output
	prefixSpent = 's' // outpoint -> height it was spent at
	prefixTx    = 't' // txid -> height it was registered at
)

var keyTip = []byte("tip")

// Disk represents the ledger stored in a LevelDB database. This implements
// the database.Storage interface.
type Disk struct {
	db *leveldb.DB
	mu sync.Mutex
}

// New opens or creates the LevelDB database at the specified path.
func New(dbPath string) (*Disk, error) {
	db, err := leveldb.OpenFile(dbPath, &opt.Options{
		BlockCacheCapacity: 32 * opt.MiB,
		WriteBuffer:        16 * opt.MiB,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", dbPath, err)
	}

	return &Disk{db: db}, nil
}

// Close releases the database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// GetUTXO returns the unspent output at the outpoint.
func (d *Disk) GetUTXO(op database.OutPoint) (database.UTXO, error) {
	data, err := d.db.Get(outPointKey(prefixUTXO, op), nil)
	switch {
	case err == nil:
		return database.DecodeUTXO(op, data)
	case !errors.Is(err, leveldb.ErrNotFound):
		return database.UTXO{}, err
	}

	spent, err := d.db.Has(outPointKey(prefixSpent, op), nil)
	if err != nil {
		return database.UTXO{}, err
	}

	if spent {
		return database.UTXO{}, database.ErrSpent
	}

	return database.UTXO{}, database.ErrNotFound
}

// HasTransaction reports whether the txid was registered by an applied
// block.
func (d *Disk) HasTransaction(txID signature.Hash) (bool, error) {
	return d.db.Has(txKey(txID), nil)
}

// GetBlockByHeight returns the block at the specified height.
func (d *Disk) GetBlockByHeight(height uint64) (database.Block, error) {
	data, err := d.db.Get(blockKey(height), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Block{}, fmt.Errorf("block %d: %w", height, database.ErrNotFound)
		}
		return database.Block{}, err
	}

	return database.DecodeBlock(data)
}

// LatestHeight returns the height of the last applied block.
func (d *Disk) LatestHeight() (uint64, error) {
	data, err := d.db.Get(keyTip, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, fmt.Errorf("empty chain: %w", database.ErrNotFound)
		}
		return 0, err
	}

	return binary.BigEndian.Uint64(data), nil
}

// ApplyBatch checks the batch preconditions and writes every record for
// the block in one synced LevelDB batch. The mutex makes the checks and
// the write a single compare-and-swap against other writers.
func (d *Disk) ApplyBatch(batch database.Batch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkBatch(batch); err != nil {
		return err
	}

	var heightBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], batch.Height)

	b := new(leveldb.Batch)

	for _, u := range batch.Inserted {
		b.Put(outPointKey(prefixUTXO, u.OutPoint), u.Bytes())
	}

	for _, op := range batch.Removed {
		b.Delete(outPointKey(prefixUTXO, op))
		b.Put(outPointKey(prefixSpent, op), heightBytes[:])
	}

	for _, id := range batch.TxIDs {
		b.Put(txKey(id), heightBytes[:])
	}

	b.Put(blockKey(batch.Height), batch.Block.Bytes())
	b.Put(keyTip, heightBytes[:])

	if err := d.db.Write(b, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write batch for block %d: %w", batch.Height, err)
	}

	return nil
}

// checkBatch verifies the batch still applies to the stored ledger.
func (d *Disk) checkBatch(batch database.Batch) error {
	tip, err := d.LatestHeight()
	switch {
	case errors.Is(err, database.ErrNotFound):
		if batch.Height != 0 {
			return fmt.Errorf("height %d on empty chain: %w", batch.Height, database.ErrConflict)
		}
	case err != nil:
		return err
	case batch.Height != tip+1:
		return fmt.Errorf("height %d does not extend tip at %d: %w", batch.Height, tip, database.ErrConflict)
	}

	for _, id := range batch.TxIDs {
		exists, err := d.HasTransaction(id)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("txid %s registered: %w", id, database.ErrConflict)
		}
	}

	inserted := make(map[database.OutPoint]struct{}, len(batch.Inserted))
	for _, u := range batch.Inserted {
		exists, err := d.db.Has(outPointKey(prefixUTXO, u.OutPoint), nil)
		if err != nil {
			return err
		}
		if exists {
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

		if _, created := inserted[op]; created {
			continue
		}

		unspent, err := d.db.Has(outPointKey(prefixUTXO, op), nil)
		if err != nil {
			return err
		}
		if !unspent {
			return fmt.Errorf("output %s not unspent: %w", op, database.ErrConflict)
		}
	}

	return nil
}

// =============================================================================

func blockKey(height uint64) []byte {
	k := make([]byte, 9)
	k[0] = prefixBlock
	binary.BigEndian.PutUint64(k[1:], height)
	return k
}

func outPointKey(prefix byte, op database.OutPoint) []byte {
	k := make([]byte, 0, 1+signature.HashSize+4)
	k = append(k, prefix)
	k = append(k, op.TxID[:]...)
	return binary.BigEndian.AppendUint32(k, op.Index)
}

func txKey(id signature.Hash) []byte {
	k := make([]byte, 0, 1+signature.HashSize)
	k = append(k, prefixTx)
	return append(k, id[:]...)
}
