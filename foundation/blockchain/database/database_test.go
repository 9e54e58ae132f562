package database_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func sampleTx() database.Tx {
	return database.Tx{
		Version: 1,
		Inputs: []database.TxIn{
			{
				PrevOut:         database.OutPoint{TxID: signature.Sum([]byte("prev")), Index: 3},
				UnlockingScript: bytes.Repeat([]byte{0xaa}, 300),
				Sequence:        math.MaxUint32,
			},
		},
		Outputs: []database.TxOut{
			{Value: 5_000, LockingScript: []byte{0x51}},
			{Value: 7_000, LockingScript: bytes.Repeat([]byte{0xbb}, 70)},
		},
		LockTime: 9,
		ForkID:   1,
	}
}

func Test_TxCodec(t *testing.T) {
	t.Log("Given the need to serialize transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a signed transaction.", testID)
		{
			tx := sampleTx()

			got, err := database.DecodeTx(bytes.NewReader(tx.Bytes()))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to decode the transaction: %v", failed, testID, err)
			}

			if got.ID() != tx.ID() {
				t.Fatalf("\t%s\tTest %d:\tShould preserve the transaction id across the codec.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould preserve the transaction id across the codec.", success, testID)

			sb := tx.SigningBytes()
			if sb[len(sb)-1] != tx.ForkID {
				t.Fatalf("\t%s\tTest %d:\tShould end the signing bytes with the fork id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould end the signing bytes with the fork id.", success, testID)

			if bytes.Contains(sb, tx.Inputs[0].UnlockingScript) {
				t.Fatalf("\t%s\tTest %d:\tShould not include unlocking scripts in the signing bytes.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not include unlocking scripts in the signing bytes.", success, testID)

			stripped := tx
			stripped.Inputs = []database.TxIn{tx.Inputs[0]}
			stripped.Inputs[0].UnlockingScript = []byte{0x01, 0x02}
			if !bytes.Equal(stripped.SigningBytes(), sb) {
				t.Fatalf("\t%s\tTest %d:\tShould sign the same message regardless of unlocking scripts.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould sign the same message regardless of unlocking scripts.", success, testID)

			other := tx
			other.ForkID = 0
			if bytes.Equal(other.SigningBytes(), sb) {
				t.Fatalf("\t%s\tTest %d:\tShould sign a different message on another fork.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould sign a different message on another fork.", success, testID)
		}
	}
}

func Test_BlockCodec(t *testing.T) {
	t.Log("Given the need to serialize blocks.")
	{
		cb := database.NewCoinbaseTx(42, 2, []database.TxOut{{Value: 100, LockingScript: []byte{0x51}}}, []byte("extra"))

		block, err := database.NewBlock(database.BlockHeader{Version: 1, TimeStamp: 1735689600, Bits: 0x407fffff}, []database.Tx{cb, sampleTx()})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build a block: %v", failed, err)
		}

		if len(block.Header.Bytes()) != database.HeaderSize {
			t.Fatalf("\t%s\tShould serialize the header to %d bytes, got %d.", failed, database.HeaderSize, len(block.Header.Bytes()))
		}
		t.Logf("\t%s\tShould serialize the header to %d bytes.", success, database.HeaderSize)

		got, err := database.DecodeBlock(block.Bytes())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode the block: %v", failed, err)
		}

		if got.Hash() != block.Hash() || len(got.Txs) != 2 || got.Txs[1].ID() != block.Txs[1].ID() {
			t.Fatalf("\t%s\tShould preserve the block across the codec.", failed)
		}
		t.Logf("\t%s\tShould preserve the block across the codec.", success)

		root, err := database.MerkleRoot(got.Txs)
		if err != nil || root != block.Header.MerkleRoot {
			t.Fatalf("\t%s\tShould recompute the same merkle root.", failed)
		}
		t.Logf("\t%s\tShould recompute the same merkle root.", success)

		if _, err := database.DecodeBlock(append(block.Bytes(), 0)); !errors.Is(err, database.ErrTrailingBytes) {
			t.Fatalf("\t%s\tShould reject trailing bytes: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject trailing bytes.", success)

		if _, err := database.DecodeBlock(block.Bytes()[:database.HeaderSize+10]); err == nil {
			t.Fatalf("\t%s\tShould reject a truncated block.", failed)
		}
		t.Logf("\t%s\tShould reject a truncated block.", success)
	}
}

func Test_Coinbase(t *testing.T) {
	t.Log("Given the need to identify coinbase transactions.")
	{
		cb := database.NewCoinbaseTx(7, 0, []database.TxOut{{Value: 1}}, nil)
		if !cb.IsCoinbase() {
			t.Fatalf("\t%s\tShould identify the coinbase.", failed)
		}
		t.Logf("\t%s\tShould identify the coinbase.", success)

		h, err := cb.CoinbaseHeight()
		if err != nil || h != 7 {
			t.Fatalf("\t%s\tShould extract height 7, got %d: %v", failed, h, err)
		}
		t.Logf("\t%s\tShould extract the committed height.", success)

		if database.NewCoinbaseTx(8, 0, []database.TxOut{{Value: 1}}, nil).ID() == cb.ID() {
			t.Fatalf("\t%s\tShould produce distinct ids at distinct heights.", failed)
		}
		t.Logf("\t%s\tShould produce distinct ids at distinct heights.", success)

		if sampleTx().IsCoinbase() {
			t.Fatalf("\t%s\tShould not identify a spend as a coinbase.", failed)
		}
		t.Logf("\t%s\tShould not identify a spend as a coinbase.", success)
	}
}

func Test_OutputSum(t *testing.T) {
	tx := database.Tx{Outputs: []database.TxOut{{Value: math.MaxUint64}, {Value: 1}}}
	if _, err := tx.OutputSum(); !errors.Is(err, database.ErrValueOverflow) {
		t.Fatalf("\t%s\tShould detect output overflow: %v", failed, err)
	}
	t.Logf("\t%s\tShould detect output overflow.", success)

	sum, err := sampleTx().OutputSum()
	if err != nil || sum != 12_000 {
		t.Fatalf("\t%s\tShould sum outputs to 12000, got %d: %v", failed, sum, err)
	}
	t.Logf("\t%s\tShould sum outputs.", success)
}

func Test_UTXO(t *testing.T) {
	t.Log("Given the need to store unspent outputs.")
	{
		cb := database.NewCoinbaseTx(10, 0, []database.TxOut{{Value: 50, LockingScript: []byte{1, 2, 3}}}, nil)
		utxos := database.NewUTXOs(cb, 10)

		u := utxos[0]
		got, err := database.DecodeUTXO(u.OutPoint, u.Bytes())
		if err != nil {
			t.Fatalf("\t%s\tShould decode the output: %v", failed, err)
		}

		if got.Value != 50 || got.Height != 10 || !got.Coinbase || !bytes.Equal(got.LockingScript, u.LockingScript) || got.OutPoint != u.OutPoint {
			t.Fatalf("\t%s\tShould preserve the output across the codec: %+v", failed, got)
		}
		t.Logf("\t%s\tShould preserve the output across the codec.", success)

		if u.SpendableAt(109, 100) || !u.SpendableAt(110, 100) {
			t.Fatalf("\t%s\tShould mature after 100 blocks.", failed)
		}
		t.Logf("\t%s\tShould mature after 100 blocks.", success)
	}
}
