// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/btpc/blockchain/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFee     = "fee"
	StrategyFeeRate = "feerate"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFee:     feeSelect,
	StrategyFeeRate: feeRateSelect,
}

// Func defines a function that takes the pooled transactions and selects
// howMany of them in an order based on the functions strategy. Receiving -1
// for howMany must return all the transactions in the strategies ordering.
// The input slice may be reordered.
type Func func(transactions []database.PoolTx, howMany int) []database.PoolTx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byFee provides sorting support by the fee value. Ties go to the earlier
// arrival and then to the lower txid so the ordering is total.
type byFee []database.PoolTx

// Len returns the number of transactions in the list.
func (bf byFee) Len() int {
	return len(bf)
}

// Less helps to sort the list by fee in descending order to pick the
// transactions that provide the best reward.
func (bf byFee) Less(i, j int) bool {
	if bf[i].Fee != bf[j].Fee {
		return bf[i].Fee > bf[j].Fee
	}
	return tieBreak(bf[i], bf[j])
}

// Swap moves transactions in the order of the fee value.
func (bf byFee) Swap(i, j int) {
	bf[i], bf[j] = bf[j], bf[i]
}

// =============================================================================

// byFeeRate provides sorting support by fee per thousand bytes.
type byFeeRate []database.PoolTx

// Len returns the number of transactions in the list.
func (br byFeeRate) Len() int {
	return len(br)
}

// Less helps to sort the list by fee rate in descending order so small
// transactions paying well are not crowded out by large ones.
func (br byFeeRate) Less(i, j int) bool {
	ri, rj := br[i].FeeRate(), br[j].FeeRate()
	if ri != rj {
		return ri > rj
	}
	return tieBreak(br[i], br[j])
}

// Swap moves transactions in the order of the fee rate value.
func (br byFeeRate) Swap(i, j int) {
	br[i], br[j] = br[j], br[i]
}

// =============================================================================

func tieBreak(a, b database.PoolTx) bool {
	if a.TimeStamp != b.TimeStamp {
		return a.TimeStamp < b.TimeStamp
	}
	return a.ID.Compare(b.ID) < 0
}

func limit(txs []database.PoolTx, howMany int) []database.PoolTx {
	if howMany < 0 || howMany > len(txs) {
		howMany = len(txs)
	}

	final := make([]database.PoolTx, howMany)
	copy(final, txs)

	return final
}
