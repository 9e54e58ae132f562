package consensus

import (
	"errors"
	"fmt"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/btpc/blockchain/foundation/blockchain/pow"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Set of error kinds. Every error returned by the engine is one of the
// typed errors below and matches exactly one of these with errors.Is.
var (
	ErrStructural = errors.New("structural violation")

	ErrTooOld             = errors.New("timestamp not after median time past")
	ErrTooFarFuture       = errors.New("timestamp too far in the future")
	ErrTooSoonAfterParent = errors.New("timestamp too soon after parent")

	ErrInvalidProof   = errors.New("invalid proof of work")
	ErrNonceExhausted = pow.ErrNonceExhausted

	ErrUnexpectedChange    = errors.New("unexpected difficulty change")
	ErrIncorrectAdjustment = errors.New("incorrect difficulty adjustment")
	ErrInvalidTimespan     = difficulty.ErrInvalidTimespan
	ErrInvalidTarget       = difficulty.ErrInvalidTarget

	ErrUTXONotFound           = errors.New("utxo not found")
	ErrAlreadySpent           = errors.New("utxo already spent")
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
	ErrSignatureInvalid       = errors.New("signature invalid")
	ErrValueOverflow          = errors.New("value overflow")
	ErrRewardMismatch         = errors.New("coinbase exceeds reward")
	ErrInsufficientInputs     = errors.New("inputs below outputs")
	ErrImmatureCoinbase       = errors.New("coinbase output not mature")

	ErrLockOrIOFailure = errors.New("storage lock or io failure")
)

// =============================================================================

// StructuralError reports a malformed block or transaction.
type StructuralError struct {
	Reason  string
	TxIndex int // -1 when the violation is in the header.
}

func (e *StructuralError) Error() string {
	if e.TxIndex < 0 {
		return fmt.Sprintf("%s: %s", ErrStructural, e.Reason)
	}
	return fmt.Sprintf("%s: tx[%d]: %s", ErrStructural, e.TxIndex, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

func structural(txIndex int, format string, args ...any) error {
	return &StructuralError{Reason: fmt.Sprintf(format, args...), TxIndex: txIndex}
}

// =============================================================================

// TimestampError reports a header timestamp outside its allowed window.
type TimestampError struct {
	Kind      error
	Timestamp uint64
	Limit     uint64
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%s: timestamp[%d] limit[%d]", e.Kind, e.Timestamp, e.Limit)
}

func (e *TimestampError) Unwrap() error { return e.Kind }

// =============================================================================

// ProofOfWorkError reports a header hash that does not meet its target or
// a nonce search that found nothing.
type ProofOfWorkError struct {
	Kind error
	Hash signature.Hash
	Bits uint32
}

func (e *ProofOfWorkError) Error() string {
	return fmt.Sprintf("%s: hash[%s] bits[%08x]", e.Kind, e.Hash, e.Bits)
}

func (e *ProofOfWorkError) Unwrap() error { return e.Kind }

// =============================================================================

// DifficultyError reports a target that breaks the retarget schedule.
type DifficultyError struct {
	Kind     error
	Height   uint64
	GotBits  uint32
	WantBits uint32
	First    uint64 // Period start timestamp, for timespan failures.
	Last     uint64 // Period end timestamp, for timespan failures.
	Err      error
}

func (e *DifficultyError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrInvalidTimespan):
		return fmt.Sprintf("%s: height[%d] first[%d] last[%d]", e.Kind, e.Height, e.First, e.Last)
	case e.Err != nil:
		return fmt.Sprintf("%s: height[%d] bits[%08x]: %v", e.Kind, e.Height, e.GotBits, e.Err)
	}
	return fmt.Sprintf("%s: height[%d] got[%08x] want[%08x]", e.Kind, e.Height, e.GotBits, e.WantBits)
}

func (e *DifficultyError) Unwrap() error { return e.Kind }

// =============================================================================

// TransactionError reports a transaction that cannot be applied to the
// ledger.
type TransactionError struct {
	Kind     error
	TxID     signature.Hash
	Input    int // -1 when not tied to an input.
	OutPoint database.OutPoint
	Got      uint64
	Want     uint64
	Err      error
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("%s: tx[%s]", e.Kind, e.TxID)

	if e.Input >= 0 {
		msg += fmt.Sprintf(" input[%d] outpoint[%s]", e.Input, e.OutPoint)
	}

	if e.Got != 0 || e.Want != 0 {
		msg += fmt.Sprintf(" got[%d] want[%d]", e.Got, e.Want)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *TransactionError) Unwrap() error { return e.Kind }

// =============================================================================

// StorageError reports a failure of the ledger collaborator. Validation
// stops and nothing is applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrLockOrIOFailure, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrLockOrIOFailure, e.Err} }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// =============================================================================

// kinds pairs every error kind with a short stable name for metric labels
// and API responses.
var kinds = []struct {
	err  error
	name string
}{
	{ErrStructural, "structural"},
	{ErrTooOld, "too_old"},
	{ErrTooFarFuture, "too_far_future"},
	{ErrTooSoonAfterParent, "too_soon_after_parent"},
	{ErrInvalidProof, "invalid_proof"},
	{ErrNonceExhausted, "nonce_exhausted"},
	{ErrUnexpectedChange, "unexpected_change"},
	{ErrIncorrectAdjustment, "incorrect_adjustment"},
	{ErrInvalidTimespan, "invalid_timespan"},
	{ErrInvalidTarget, "invalid_target"},
	{ErrUTXONotFound, "utxo_not_found"},
	{ErrAlreadySpent, "already_spent"},
	{ErrDuplicateTransactionID, "duplicate_transaction_id"},
	{ErrSignatureInvalid, "signature_invalid"},
	{ErrValueOverflow, "value_overflow"},
	{ErrRewardMismatch, "reward_mismatch"},
	{ErrInsufficientInputs, "insufficient_inputs"},
	{ErrImmatureCoinbase, "immature_coinbase"},
	{ErrLockOrIOFailure, "lock_or_io_failure"},
}

// Kind returns the error kind matched by err and its short name. The
// second value is "other" when err carries no consensus kind.
func Kind(err error) (error, string) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err, k.name
		}
	}

	return nil, "other"
}
