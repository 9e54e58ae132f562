package database

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrValueOverflow is returned when summing output values wraps a uint64.
var ErrValueOverflow = errors.New("value overflow")

// CoinbaseIndex is the output index carried by the null outpoint of a
// coinbase input.
const CoinbaseIndex = math.MaxUint32

// coinbaseHeightPush is the script opcode that pushes the 8 byte height
// at the start of a coinbase unlocking script.
const coinbaseHeightPush = 8

// =============================================================================

// OutPoint references a single output of a previous transaction.
type OutPoint struct {
	TxID  signature.Hash `json:"txid"`
	Index uint32         `json:"vout"`
}

// NullOutPoint is the outpoint spent by a coinbase input.
var NullOutPoint = OutPoint{Index: CoinbaseIndex}

// IsNull reports whether the outpoint is the coinbase null reference.
func (op OutPoint) IsNull() bool {
	return op == NullOutPoint
}

// String implements the fmt.Stringer interface.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Index)
}

// TxIn spends a previous output.
type TxIn struct {
	PrevOut         OutPoint      `json:"prev_out"`
	UnlockingScript hexutil.Bytes `json:"unlocking_script"`
	Sequence        uint32        `json:"sequence"`
}

// TxOut assigns value to a locking script.
type TxOut struct {
	Value         uint64        `json:"value"`
	LockingScript hexutil.Bytes `json:"locking_script"`
}

// =============================================================================

// Tx is the transactional information between two parties. The ForkID
// commits signatures to a single network.
type Tx struct {
	Version  uint32  `json:"version"`
	Inputs   []TxIn  `json:"inputs"`
	Outputs  []TxOut `json:"outputs"`
	LockTime uint32  `json:"lock_time"`
	ForkID   uint8   `json:"fork_id"`
}

// NewCoinbaseTx constructs the reward claiming transaction for a block at
// the specified height. The height is committed at the front of the
// unlocking script so coinbase ids never repeat across blocks.
func NewCoinbaseTx(height uint64, forkID uint8, outputs []TxOut, extra []byte) Tx {
	script := make([]byte, 0, 9+len(extra))
	script = append(script, coinbaseHeightPush)
	script = binary.LittleEndian.AppendUint64(script, height)
	script = append(script, extra...)

	return Tx{
		Version: 1,
		Inputs: []TxIn{
			{
				PrevOut:         NullOutPoint,
				UnlockingScript: script,
				Sequence:        math.MaxUint32,
			},
		},
		Outputs: outputs,
		ForkID:  forkID,
	}
}

// ID returns the transaction identity: the double SHA-512 of the full
// serialization.
func (tx Tx) ID() signature.Hash {
	return signature.Sum(tx.Bytes())
}

// Hash implements the merkle Hashable interface.
func (tx Tx) Hash() signature.Hash {
	return tx.ID()
}

// IsCoinbase reports whether the transaction has the shape of a coinbase:
// a single input spending the null outpoint.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevOut.IsNull()
}

// CoinbaseHeight extracts the height committed by a coinbase transaction.
func (tx Tx) CoinbaseHeight() (uint64, error) {
	if !tx.IsCoinbase() {
		return 0, errors.New("not a coinbase transaction")
	}

	script := tx.Inputs[0].UnlockingScript
	if len(script) < 9 || script[0] != coinbaseHeightPush {
		return 0, errors.New("coinbase script does not commit a height")
	}

	return binary.LittleEndian.Uint64(script[1:9]), nil
}

// OutputSum returns the sum of all output values, failing on overflow.
func (tx Tx) OutputSum() (uint64, error) {
	var sum uint64
	for i, out := range tx.Outputs {
		var carry uint64
		sum, carry = bits.Add64(sum, out.Value, 0)
		if carry != 0 {
			return 0, fmt.Errorf("output %d: %w", i, ErrValueOverflow)
		}
	}

	return sum, nil
}

// Size returns the serialized size of the transaction in bytes.
func (tx Tx) Size() int {
	return len(tx.Bytes())
}
