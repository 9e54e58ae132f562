package database

import (
	"math"
	"math/bits"
	"time"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// PoolTx is a validated transaction waiting in the mempool with the fee it
// pays and when it arrived.
type PoolTx struct {
	Tx        Tx             `json:"tx"`
	ID        signature.Hash `json:"id"`
	Fee       uint64         `json:"fee"`
	Size      int            `json:"size"`
	TimeStamp uint64         `json:"timestamp"`
}

// NewPoolTx wraps a validated transaction for the mempool.
func NewPoolTx(tx Tx, fee uint64, received time.Time) PoolTx {
	return PoolTx{
		Tx:        tx,
		ID:        tx.ID(),
		Fee:       fee,
		Size:      tx.Size(),
		TimeStamp: uint64(received.UTC().Unix()),
	}
}

// FeeRate returns the fee paid per thousand bytes.
func (ptx PoolTx) FeeRate() uint64 {
	if ptx.Size <= 0 {
		return 0
	}

	hi, lo := bits.Mul64(ptx.Fee, 1000)
	if hi != 0 {
		return math.MaxUint64
	}

	return lo / uint64(ptx.Size)
}
