package database

import "github.com/ethereum/go-ethereum/common/hexutil"

// UTXO is an unspent transaction output. Height and Coinbase record where
// the output was created so coinbase maturity can be enforced.
type UTXO struct {
	OutPoint      OutPoint      `json:"outpoint"`
	Value         uint64        `json:"value"`
	LockingScript hexutil.Bytes `json:"locking_script"`
	Height        uint64        `json:"height"`
	Coinbase      bool          `json:"coinbase"`
}

// NewUTXOs returns the unspent outputs created by a transaction accepted
// at the specified height.
func NewUTXOs(tx Tx, height uint64) []UTXO {
	txID := tx.ID()
	coinbase := tx.IsCoinbase()

	utxos := make([]UTXO, len(tx.Outputs))
	for i, out := range tx.Outputs {
		utxos[i] = UTXO{
			OutPoint:      OutPoint{TxID: txID, Index: uint32(i)},
			Value:         out.Value,
			LockingScript: out.LockingScript,
			Height:        height,
			Coinbase:      coinbase,
		}
	}

	return utxos
}

// SpendableAt reports whether the output may be consumed by a block at the
// specified height. Coinbase outputs wait maturity blocks.
func (u UTXO) SpendableAt(height uint64, maturity uint64) bool {
	if !u.Coinbase {
		return true
	}

	if height < u.Height {
		return false
	}

	return height-u.Height >= maturity
}
