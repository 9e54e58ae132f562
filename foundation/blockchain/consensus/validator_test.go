package consensus_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/consensus"
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/script"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/btpc/blockchain/foundation/blockchain/storage/memory"
)

// funded returns a chain whose block at height 1 pays the chain key, the
// outpoint of that payment and its value.
func funded(t *testing.T) (*chain, database.OutPoint, uint64) {
	t.Helper()

	c := newChain(t, enforcedParams())
	c.grow(1, 600)

	cb := c.tip().Txs[0]
	return c, database.OutPoint{TxID: cb.ID(), Index: 0}, cb.Outputs[0].Value
}

func Test_Transactions(t *testing.T) {
	type table struct {
		name string
		txs  func(c *chain, op database.OutPoint, value uint64) []database.Tx
		err  error
	}

	tt := []table{
		{
			name: "spend-with-fee",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				return []database.Tx{c.coinbase(c.subsidy() + 1000), c.spend([]database.OutPoint{op}, value-1000)}
			},
		},
		{
			name: "reward-mismatch",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				return []database.Tx{c.coinbase(c.subsidy() + 1001), c.spend([]database.OutPoint{op}, value-1000)}
			},
			err: consensus.ErrRewardMismatch,
		},
		{
			name: "utxo-not-found",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				ghost := database.OutPoint{TxID: signature.Sum([]byte("ghost")), Index: 0}
				return []database.Tx{c.coinbase(c.subsidy()), c.spend([]database.OutPoint{ghost}, 1)}
			},
			err: consensus.ErrUTXONotFound,
		},
		{
			name: "insufficient-inputs",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				return []database.Tx{c.coinbase(c.subsidy()), c.spend([]database.OutPoint{op}, value+1)}
			},
			err: consensus.ErrInsufficientInputs,
		},
		{
			name: "signature-invalid",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				tx := c.spend([]database.OutPoint{op}, value)
				tx.Inputs[0].UnlockingScript[10] ^= 0xff
				return []database.Tx{c.coinbase(c.subsidy()), tx}
			},
			err: consensus.ErrSignatureInvalid,
		},
		{
			name: "immature-coinbase",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				cb := c.coinbase(c.subsidy())
				return []database.Tx{cb, c.spend([]database.OutPoint{{TxID: cb.ID(), Index: 0}}, 1)}
			},
			err: consensus.ErrImmatureCoinbase,
		},
		{
			name: "chained-in-block",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				first := c.spend([]database.OutPoint{op}, value-10)
				second := c.spend([]database.OutPoint{{TxID: first.ID(), Index: 0}}, value-20)
				return []database.Tx{c.coinbase(c.subsidy() + 20), first, second}
			},
		},
		{
			name: "double-spend-in-block",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				return []database.Tx{c.coinbase(c.subsidy()), c.spend([]database.OutPoint{op}, value-1), c.spend([]database.OutPoint{op}, value-2)}
			},
			err: consensus.ErrAlreadySpent,
		},
		{
			name: "duplicate-in-block",
			txs: func(c *chain, op database.OutPoint, value uint64) []database.Tx {
				tx := c.spend([]database.OutPoint{op}, value)
				return []database.Tx{c.coinbase(c.subsidy()), tx, tx}
			},
			err: consensus.ErrDuplicateTransactionID,
		},
	}

	t.Log("Given the need to validate the transactions of a block.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen validating a %s block.", testID, tst.name)
				{
					c, op, value := funded(t)

					tip := c.tip()
					b := c.build(tip.Header.TimeStamp+600, tip.Header.Bits, tst.txs(c, op, value)...)
					err := c.extend(b)

					if tst.err == nil {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould accept the block: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould accept the block.", success, testID)
						return
					}

					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould reject with %v: got %v.", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject with %v.", success, testID, tst.err)

					var te *consensus.TransactionError
					if !errors.As(err, &te) {
						t.Fatalf("\t%s\tTest %d:\tShould return a TransactionError.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould return a TransactionError.", success, testID)

					if c.engine.Height() != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould leave the tip unchanged.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould leave the tip unchanged.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_AppliedSpends(t *testing.T) {
	t.Log("Given the need to reject spends of applied outputs.")
	{
		c, op, value := funded(t)

		spend := c.spend([]database.OutPoint{op}, value-100)
		if err := c.extend(c.next(spend)); err != nil {
			t.Fatalf("\t%s\tShould accept the first spend: %v", failed, err)
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen replaying an applied transaction.", testID)
		{
			err := c.extend(c.next(spend))
			if !errors.Is(err, consensus.ErrDuplicateTransactionID) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the duplicate id: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the duplicate id.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen spending a consumed output again.", testID)
		{
			err := c.extend(c.next(c.spend([]database.OutPoint{op}, value-200)))
			if !errors.Is(err, consensus.ErrAlreadySpent) {
				t.Fatalf("\t%s\tTest %d:\tShould reject as already spent: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject as already spent.", success, testID)

			if errors.Is(err, consensus.ErrUTXONotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not report the output as never created.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not report the output as never created.", success, testID)

			var te *consensus.TransactionError
			if !errors.As(err, &te) || te.OutPoint != op || te.Input != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould identify the offending input.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould identify the offending input.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen spending the output of the applied spend.", testID)
		{
			next := database.OutPoint{TxID: spend.ID(), Index: 0}
			if err := c.extend(c.next(c.spend([]database.OutPoint{next}, value-300))); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the spend: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the spend.", success, testID)
		}
	}
}

func Test_ForkIDSignature(t *testing.T) {
	t.Log("Given the need to bind signatures to one network.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the fork id byte of the signed message changes.", testID)
		{
			c, op, value := funded(t)

			tx := c.spend([]database.OutPoint{op}, value)
			msg := tx.SigningBytes()

			if err := script.Verify(tx.Inputs[0].UnlockingScript, c.lock, msg, signature.NewMLDSA()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould verify the signed message: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould verify the signed message.", success, testID)

			flipped := bytes.Clone(msg)
			flipped[len(flipped)-1] ^= 0x01

			if err := script.Verify(tx.Inputs[0].UnlockingScript, c.lock, flipped, signature.NewMLDSA()); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to verify under another fork id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to verify under another fork id.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen any single byte of the signed message changes.", testID)
		{
			c, op, value := funded(t)

			tx := c.spend([]database.OutPoint{op}, value)
			msg := tx.SigningBytes()
			verifier := signature.NewMLDSA()

			for i := range msg {
				flipped := bytes.Clone(msg)
				flipped[i] ^= 0x01

				if err := script.Verify(tx.Inputs[0].UnlockingScript, c.lock, flipped, verifier); err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould fail to verify with byte %d of %d flipped.", failed, testID, i, len(msg))
				}
			}
			t.Logf("\t%s\tTest %d:\tShould fail to verify with any of %d bytes flipped.", success, testID, len(msg))
		}
	}
}

func Test_ValidateTransaction(t *testing.T) {
	t.Log("Given the need to admit loose transactions.")
	{
		c, op, value := funded(t)

		testID := 0
		t.Logf("\tTest %d:\tWhen the transaction spends a mature output.", testID)
		{
			fee, err := c.engine.ValidateTransaction(c.spend([]database.OutPoint{op}, value-500))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould admit the transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould admit the transaction.", success, testID)

			if fee != 500 {
				t.Fatalf("\t%s\tTest %d:\tShould compute a fee of 500: got %d.", failed, testID, fee)
			}
			t.Logf("\t%s\tTest %d:\tShould compute a fee of 500.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a coinbase is submitted.", testID)
		{
			if _, err := c.engine.ValidateTransaction(c.coinbase(1)); !errors.Is(err, consensus.ErrStructural) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the coinbase: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the coinbase.", success, testID)
		}
	}
}

// =============================================================================

var errBroken = errors.New("disk unavailable")

// brokenLedger fails every output lookup.
type brokenLedger struct {
	*memory.Memory
}

func (brokenLedger) GetUTXO(database.OutPoint) (database.UTXO, error) {
	return database.UTXO{}, errBroken
}

func Test_StorageFailure(t *testing.T) {
	t.Log("Given the need to surface ledger failures.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger cannot read an output.", testID)
		{
			c, op, value := funded(t)

			engine, err := consensus.NewEngine(c.params, brokenLedger{c.store}, signature.NewMLDSA(), consensus.WithHeight(c.engine.Height()))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the engine: %v", failed, testID, err)
			}

			b := c.next(c.spend([]database.OutPoint{op}, value))

			_, err = engine.ValidateBlock(b, c.tip())
			if !errors.Is(err, consensus.ErrLockOrIOFailure) || !errors.Is(err, errBroken) {
				t.Fatalf("\t%s\tTest %d:\tShould report a storage failure wrapping the cause: got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report a storage failure wrapping the cause.", success, testID)
		}
	}
}
