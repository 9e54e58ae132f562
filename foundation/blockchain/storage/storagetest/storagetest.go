// Package storagetest provides the behavioral checks every ledger storage
// implementation must pass.
package storagetest

import (
	"errors"
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Factory constructs an empty storage for a single test.
type Factory func(t *testing.T) database.Storage

// Run executes the storage checks against storages built by the factory.
func Run(t *testing.T, factory Factory) {
	t.Run("empty", func(t *testing.T) { empty(t, factory(t)) })
	t.Run("apply", func(t *testing.T) { apply(t, factory(t)) })
	t.Run("conflicts", func(t *testing.T) { conflicts(t, factory(t)) })
	t.Run("intrablock", func(t *testing.T) { intraBlock(t, factory(t)) })
}

// =============================================================================

func coinbaseBatch(t *testing.T, height uint64, value uint64) database.Batch {
	t.Helper()

	cb := database.NewCoinbaseTx(height, 2, []database.TxOut{{Value: value, LockingScript: []byte{0x51}}}, nil)
	return batchFor(t, height, cb)
}

func batchFor(t *testing.T, height uint64, txs ...database.Tx) database.Batch {
	t.Helper()

	blk, err := database.NewBlock(database.BlockHeader{Version: 1, TimeStamp: 1_700_000_000 + height, Bits: 0x407fffff}, txs)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build a block: %v", failed, err)
	}

	batch := database.Batch{Height: height, Block: blk}
	for _, tx := range txs {
		batch.Inserted = append(batch.Inserted, database.NewUTXOs(tx, height)...)
		batch.TxIDs = append(batch.TxIDs, tx.ID())
		if tx.IsCoinbase() {
			continue
		}
		for _, in := range tx.Inputs {
			batch.Removed = append(batch.Removed, in.PrevOut)
		}
	}

	return batch
}

func spend(prev database.OutPoint, value uint64) database.Tx {
	return database.Tx{
		Version: 1,
		Inputs:  []database.TxIn{{PrevOut: prev, UnlockingScript: []byte{0x51}}},
		Outputs: []database.TxOut{{Value: value, LockingScript: []byte{0x51}}},
		ForkID:  2,
	}
}

// =============================================================================

func empty(t *testing.T, s database.Storage) {
	t.Log("Given the need to query an empty ledger.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen nothing has been applied.", testID)
		{
			if _, err := s.LatestHeight(); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould report no tip: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report no tip.", success, testID)

			op := database.OutPoint{TxID: signature.Sum([]byte("nothing"))}
			if _, err := s.GetUTXO(op); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould report an unknown output as not found: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report an unknown output as not found.", success, testID)

			if _, err := s.GetBlockByHeight(0); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould report a missing block as not found: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report a missing block as not found.", success, testID)
		}
	}
}

func apply(t *testing.T, s database.Storage) {
	t.Log("Given the need to apply blocks to the ledger.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen applying a genesis block and a spend.", testID)
		{
			genesis := coinbaseBatch(t, 0, 50)
			if err := s.ApplyBatch(genesis); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to apply the genesis batch: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to apply the genesis batch.", success, testID)

			op := genesis.Inserted[0].OutPoint
			u, err := s.GetUTXO(op)
			if err != nil || u.Value != 50 || !u.Coinbase || u.Height != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould return the coinbase output: %+v %v", failed, testID, u, err)
			}
			t.Logf("\t%s\tTest %d:\tShould return the coinbase output.", success, testID)

			blk, err := s.GetBlockByHeight(0)
			if err != nil || blk.Hash() != genesis.Block.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould return the applied block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould return the applied block.", success, testID)

			next := batchFor(t, 1, database.NewCoinbaseTx(1, 2, []database.TxOut{{Value: 50, LockingScript: []byte{0x51}}}, nil), spend(op, 40))
			if err := s.ApplyBatch(next); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to apply the spending batch: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to apply the spending batch.", success, testID)

			if _, err := s.GetUTXO(op); !errors.Is(err, database.ErrSpent) {
				t.Fatalf("\t%s\tTest %d:\tShould report the consumed output as spent: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the consumed output as spent.", success, testID)

			height, err := s.LatestHeight()
			if err != nil || height != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould report the tip at height 1: got %d %v.", failed, testID, height, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the tip at height 1.", success, testID)

			for _, id := range next.TxIDs {
				exists, err := s.HasTransaction(id)
				if err != nil || !exists {
					t.Fatalf("\t%s\tTest %d:\tShould register every txid of the block: %v", failed, testID, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould register every txid of the block.", success, testID)
		}
	}
}

func conflicts(t *testing.T, s database.Storage) {
	t.Log("Given the need to reject batches that no longer apply.")
	{
		genesis := coinbaseBatch(t, 0, 50)
		if err := s.ApplyBatch(genesis); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the genesis batch: %v", failed, err)
		}
		op := genesis.Inserted[0].OutPoint

		spent := batchFor(t, 1, database.NewCoinbaseTx(1, 2, []database.TxOut{{Value: 50, LockingScript: []byte{0x51}}}, nil), spend(op, 10))
		if err := s.ApplyBatch(spent); err != nil {
			t.Fatalf("\t%s\tShould be able to apply the spending batch: %v", failed, err)
		}

		tt := []struct {
			name  string
			batch database.Batch
		}{
			{"height-gap", coinbaseBatch(t, 5, 50)},
			{"height-replay", coinbaseBatch(t, 1, 51)},
			{"double-spend", batchFor(t, 2, database.NewCoinbaseTx(2, 2, []database.TxOut{{Value: 50, LockingScript: []byte{0x51}}}, nil), spend(op, 20))},
			{"missing-output", batchFor(t, 2, database.NewCoinbaseTx(2, 2, []database.TxOut{{Value: 50, LockingScript: []byte{0x51}}}, nil), spend(database.OutPoint{TxID: signature.Sum([]byte("ghost"))}, 20))},
			{"duplicate-txid", batchFor(t, 2, spent.Block.Txs[0])},
		}

		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen applying a %s batch.", testID, tst.name)
				{
					if err := s.ApplyBatch(tst.batch); !errors.Is(err, database.ErrConflict) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the batch as a conflict: got %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the batch as a conflict.", success, testID)

					height, err := s.LatestHeight()
					if err != nil || height != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould leave the tip untouched: got %d %v.", failed, testID, height, err)
					}
					t.Logf("\t%s\tTest %d:\tShould leave the tip untouched.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func intraBlock(t *testing.T, s database.Storage) {
	t.Log("Given the need to spend an output created in the same block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block chains two transactions.", testID)
		{
			genesis := coinbaseBatch(t, 0, 50)
			if err := s.ApplyBatch(genesis); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to apply the genesis batch: %v", failed, testID, err)
			}

			first := spend(genesis.Inserted[0].OutPoint, 40)
			second := spend(database.OutPoint{TxID: first.ID(), Index: 0}, 30)
			batch := batchFor(t, 1, database.NewCoinbaseTx(1, 2, []database.TxOut{{Value: 50, LockingScript: []byte{0x51}}}, nil), first, second)

			if err := s.ApplyBatch(batch); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the chained spend: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the chained spend.", success, testID)

			if _, err := s.GetUTXO(database.OutPoint{TxID: first.ID(), Index: 0}); !errors.Is(err, database.ErrSpent) {
				t.Fatalf("\t%s\tTest %d:\tShould leave the intermediate output spent: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the intermediate output spent.", success, testID)

			if u, err := s.GetUTXO(database.OutPoint{TxID: second.ID(), Index: 0}); err != nil || u.Value != 30 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the final output unspent: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the final output unspent.", success, testID)
		}
	}
}
