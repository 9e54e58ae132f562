package consensus

import (
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/script"
)

// checkStructure validates everything that can be checked without the
// ledger: linkage, sizes, the merkle commitment and coinbase placement.
func (e *Engine) checkStructure(b database.Block, previous database.Block, height uint64) error {
	if b.Header.Version < 1 {
		return structural(-1, "block version %d", b.Header.Version)
	}

	if b.Header.PrevBlockHash != previous.Hash() {
		return structural(-1, "prev hash %s does not match parent %s", b.Header.PrevBlockHash, previous.Hash())
	}

	if len(b.Txs) == 0 {
		return structural(-1, "block has no transactions")
	}

	if size := b.Size(); size > e.params.MaxBlockSize {
		return structural(-1, "block size %d exceeds %d", size, e.params.MaxBlockSize)
	}

	root, err := database.MerkleRoot(b.Txs)
	if err != nil {
		return structural(-1, "merkle root: %v", err)
	}

	if root != b.Header.MerkleRoot {
		return structural(-1, "merkle root %s does not match header %s", root, b.Header.MerkleRoot)
	}

	for i, tx := range b.Txs {
		if err := e.checkTxStructure(i, tx); err != nil {
			return err
		}

		switch {
		case i == 0 && !tx.IsCoinbase():
			return structural(0, "first transaction is not a coinbase")
		case i > 0 && tx.IsCoinbase():
			return structural(i, "coinbase outside the first position")
		}
	}

	cbHeight, err := b.Txs[0].CoinbaseHeight()
	if err != nil {
		return structural(0, "%v", err)
	}

	if cbHeight != height {
		return structural(0, "coinbase commits height %d, block height is %d", cbHeight, height)
	}

	return nil
}

// checkTxStructure validates a transaction in isolation. Coinbase
// transactions are recognized by shape; any other use of the null outpoint
// is rejected.
func (e *Engine) checkTxStructure(i int, tx database.Tx) error {
	switch {
	case tx.Version < 1:
		return structural(i, "version %d", tx.Version)
	case len(tx.Inputs) == 0:
		return structural(i, "no inputs")
	case len(tx.Outputs) == 0:
		return structural(i, "no outputs")
	case len(tx.Inputs) > e.params.MaxTxInputs:
		return structural(i, "%d inputs exceeds %d", len(tx.Inputs), e.params.MaxTxInputs)
	case len(tx.Outputs) > e.params.MaxTxOutputs:
		return structural(i, "%d outputs exceeds %d", len(tx.Outputs), e.params.MaxTxOutputs)
	case tx.ForkID != e.params.ForkID:
		return structural(i, "fork id %d, network fork id %d", tx.ForkID, e.params.ForkID)
	}

	if size := tx.Size(); size > e.params.MaxTxSize {
		return structural(i, "size %d exceeds %d", size, e.params.MaxTxSize)
	}

	coinbase := tx.IsCoinbase()
	seen := make(map[database.OutPoint]struct{}, len(tx.Inputs))

	for j, in := range tx.Inputs {
		if in.PrevOut.IsNull() && !coinbase {
			return structural(i, "input %d spends the null outpoint", j)
		}

		if _, exists := seen[in.PrevOut]; exists {
			return structural(i, "input %d spends %s twice", j, in.PrevOut)
		}
		seen[in.PrevOut] = struct{}{}

		if len(in.UnlockingScript) > script.MaxScriptSize {
			return structural(i, "input %d script of %d bytes", j, len(in.UnlockingScript))
		}
	}

	for j, out := range tx.Outputs {
		if len(out.LockingScript) > script.MaxScriptSize {
			return structural(i, "output %d script of %d bytes", j, len(out.LockingScript))
		}
	}

	return nil
}
