package selector

import (
	"sort"

	"github.com/btpc/blockchain/foundation/blockchain/database"
)

// feeSelect returns the transactions paying the highest absolute fee.
var feeSelect = func(txs []database.PoolTx, howMany int) []database.PoolTx {
	sort.Sort(byFee(txs))
	return limit(txs, howMany)
}

// feeRateSelect returns the transactions paying the most per byte. This
// packs more total fee into a size limited block.
var feeRateSelect = func(txs []database.PoolTx, howMany int) []database.PoolTx {
	sort.Sort(byFeeRate(txs))
	return limit(txs, howMany)
}
