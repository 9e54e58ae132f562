package selector_test

import (
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/mempool/selector"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestSelect(t *testing.T) {
	tran := func(name string, fee uint64, size int, ts uint64) database.PoolTx {
		return database.PoolTx{ID: signature.Sum([]byte(name)), Fee: fee, Size: size, TimeStamp: ts}
	}

	type test struct {
		name     string
		strategy string
		txs      []database.PoolTx
		howMany  int
		best     []uint64
	}

	tt := []test{
		{
			name:     "fee",
			strategy: selector.StrategyFee,
			txs:      []database.PoolTx{tran("a", 10, 100, 1), tran("b", 300, 1000, 1), tran("c", 200, 100, 1)},
			howMany:  -1,
			best:     []uint64{300, 200, 10},
		},
		{
			name:     "fee-limited",
			strategy: selector.StrategyFee,
			txs:      []database.PoolTx{tran("a", 10, 100, 1), tran("b", 300, 1000, 1), tran("c", 200, 100, 1)},
			howMany:  2,
			best:     []uint64{300, 200},
		},
		{
			name:     "fee-tie-oldest-first",
			strategy: selector.StrategyFee,
			txs:      []database.PoolTx{tran("late", 50, 100, 9), tran("early", 50, 100, 3)},
			howMany:  1,
			best:     []uint64{50},
		},
		{
			name:     "feerate",
			strategy: selector.StrategyFeeRate,
			txs:      []database.PoolTx{tran("a", 10, 100, 1), tran("b", 300, 1000, 1), tran("c", 200, 100, 1)},
			howMany:  -1,
			best:     []uint64{200, 300, 10},
		},
	}

	t.Log("Given the need to order pooled transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen selecting with the %s strategy.", testID, tst.name)
				{
					fn, err := selector.Retrieve(tst.strategy)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the strategy: %v", failed, testID, err)
					}

					got := fn(tst.txs, tst.howMany)
					if len(got) != len(tst.best) {
						t.Fatalf("\t%s\tTest %d:\tShould select %d transactions: got %d.", failed, testID, len(tst.best), len(got))
					}

					for i, tx := range got {
						if tx.Fee != tst.best[i] {
							t.Fatalf("\t%s\tTest %d:\tShould order position %d by fee %d: got %d.", failed, testID, i, tst.best[i], tx.Fee)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould select in strategy order.", success, testID)

					if tst.name == "fee-tie-oldest-first" && got[0].TimeStamp != 3 {
						t.Fatalf("\t%s\tTest %d:\tShould prefer the earlier arrival.", failed, testID)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}

	t.Log("Given the need to reject unknown strategies.")
	{
		if _, err := selector.Retrieve("nonce"); err == nil {
			t.Fatalf("\t%s\tShould fail to retrieve an unknown strategy.", failed)
		}
		t.Logf("\t%s\tShould fail to retrieve an unknown strategy.", success)
	}
}
