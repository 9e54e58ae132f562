package consensus

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/reward"
	"github.com/btpc/blockchain/foundation/blockchain/script"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// view overlays the outputs created and consumed by the transactions
// already checked in a block on top of the committed ledger.
type view struct {
	ledger  Ledger
	created map[database.OutPoint]database.UTXO
	spent   map[database.OutPoint]struct{}
}

func newView(ledger Ledger) *view {
	return &view{
		ledger:  ledger,
		created: make(map[database.OutPoint]database.UTXO),
		spent:   make(map[database.OutPoint]struct{}),
	}
}

func (v *view) get(op database.OutPoint) (database.UTXO, error) {
	if _, exists := v.spent[op]; exists {
		return database.UTXO{}, database.ErrSpent
	}

	if u, exists := v.created[op]; exists {
		return u, nil
	}

	return v.ledger.GetUTXO(op)
}

func (v *view) spend(op database.OutPoint) {
	v.spent[op] = struct{}{}
}

func (v *view) add(utxos []database.UTXO) {
	for _, u := range utxos {
		v.created[u.OutPoint] = u
	}
}

// =============================================================================

// checkTransactions validates every transaction against the ledger and
// assembles the batch the block applies. Coinbase outputs may not exceed
// the subsidy plus the fees collected.
func (e *Engine) checkTransactions(b database.Block, height uint64) (database.Batch, error) {
	batch := database.Batch{
		Height: height,
		Block:  b,
		TxIDs:  make([]signature.Hash, 0, len(b.Txs)),
	}

	seen := make(map[signature.Hash]struct{}, len(b.Txs))
	for _, tx := range b.Txs {
		id := tx.ID()

		if _, exists := seen[id]; exists {
			return database.Batch{}, &TransactionError{Kind: ErrDuplicateTransactionID, TxID: id, Input: -1, Err: errors.New("repeated within block")}
		}
		seen[id] = struct{}{}

		exists, err := e.ledger.HasTransaction(id)
		if err != nil {
			return database.Batch{}, storageErr("has transaction", err)
		}

		if exists {
			return database.Batch{}, &TransactionError{Kind: ErrDuplicateTransactionID, TxID: id, Input: -1, Err: errors.New("already in chain")}
		}

		batch.TxIDs = append(batch.TxIDs, id)
	}

	v := newView(e.ledger)

	var fees uint64
	for i, tx := range b.Txs {
		utxos := database.NewUTXOs(tx, height)

		if i > 0 {
			fee, removed, err := e.checkInputs(v, tx, batch.TxIDs[i], height)
			if err != nil {
				return database.Batch{}, err
			}

			var carry uint64
			fees, carry = bits.Add64(fees, fee, 0)
			if carry != 0 {
				return database.Batch{}, &TransactionError{Kind: ErrValueOverflow, TxID: batch.TxIDs[i], Input: -1, Err: errors.New("block fees")}
			}

			batch.Removed = append(batch.Removed, removed...)
		}

		v.add(utxos)
		batch.Inserted = append(batch.Inserted, utxos...)
	}

	if err := e.checkReward(b.Txs[0], batch.TxIDs[0], height, fees); err != nil {
		return database.Batch{}, err
	}

	return batch, nil
}

// checkReward holds the coinbase outputs to the subsidy plus fees.
func (e *Engine) checkReward(coinbase database.Tx, id signature.Hash, height uint64, fees uint64) error {
	subsidy, err := e.params.Reward.At(height)
	if err != nil {
		return &TransactionError{Kind: ErrValueOverflow, TxID: id, Input: -1, Err: err}
	}

	allowed, carry := bits.Add64(subsidy, fees, 0)
	if carry != 0 {
		return &TransactionError{Kind: ErrValueOverflow, TxID: id, Input: -1, Err: fmt.Errorf("subsidy[%d] fees[%d]: %w", subsidy, fees, reward.ErrOverflow)}
	}

	paid, err := coinbase.OutputSum()
	if err != nil {
		return &TransactionError{Kind: ErrValueOverflow, TxID: id, Input: -1, Err: err}
	}

	if paid > allowed {
		return &TransactionError{Kind: ErrRewardMismatch, TxID: id, Input: -1, Got: paid, Want: allowed}
	}

	return nil
}

// checkInputs resolves and unlocks every input of a non-coinbase
// transaction and returns its fee and the outpoints it consumes.
func (e *Engine) checkInputs(v *view, tx database.Tx, id signature.Hash, height uint64) (uint64, []database.OutPoint, error) {
	msg := tx.SigningBytes()

	var (
		in      uint64
		removed = make([]database.OutPoint, 0, len(tx.Inputs))
	)

	for j, input := range tx.Inputs {
		op := input.PrevOut

		u, err := v.get(op)
		switch {
		case errors.Is(err, database.ErrNotFound):
			return 0, nil, &TransactionError{Kind: ErrUTXONotFound, TxID: id, Input: j, OutPoint: op}
		case errors.Is(err, database.ErrSpent):
			return 0, nil, &TransactionError{Kind: ErrAlreadySpent, TxID: id, Input: j, OutPoint: op}
		case err != nil:
			return 0, nil, storageErr("get utxo", err)
		}

		if !u.SpendableAt(height, e.params.CoinbaseMaturity) {
			return 0, nil, &TransactionError{Kind: ErrImmatureCoinbase, TxID: id, Input: j, OutPoint: op, Got: height - u.Height, Want: e.params.CoinbaseMaturity}
		}

		if err := script.Verify(input.UnlockingScript, u.LockingScript, msg, e.verifier); err != nil {
			return 0, nil, &TransactionError{Kind: ErrSignatureInvalid, TxID: id, Input: j, OutPoint: op, Err: err}
		}

		var carry uint64
		in, carry = bits.Add64(in, u.Value, 0)
		if carry != 0 {
			return 0, nil, &TransactionError{Kind: ErrValueOverflow, TxID: id, Input: j, OutPoint: op, Err: errors.New("input sum")}
		}

		v.spend(op)
		removed = append(removed, op)
	}

	out, err := tx.OutputSum()
	if err != nil {
		return 0, nil, &TransactionError{Kind: ErrValueOverflow, TxID: id, Input: -1, Err: err}
	}

	if in < out {
		return 0, nil, &TransactionError{Kind: ErrInsufficientInputs, TxID: id, Input: -1, Got: in, Want: out}
	}

	return in - out, removed, nil
}

// =============================================================================

// ValidateTransaction checks a loose transaction against the committed
// ledger as if it were included in the next block and returns its fee.
// It is used to admit transactions to the mempool.
func (e *Engine) ValidateTransaction(tx database.Tx) (uint64, error) {
	if tx.IsCoinbase() {
		return 0, structural(-1, "coinbase transactions cannot be submitted")
	}

	if err := e.checkTxStructure(0, tx); err != nil {
		return 0, err
	}

	id := tx.ID()

	exists, err := e.ledger.HasTransaction(id)
	if err != nil {
		return 0, storageErr("has transaction", err)
	}

	if exists {
		return 0, &TransactionError{Kind: ErrDuplicateTransactionID, TxID: id, Input: -1, Err: errors.New("already in chain")}
	}

	fee, _, err := e.checkInputs(newView(e.ledger), tx, id, e.Height()+1)
	return fee, err
}
