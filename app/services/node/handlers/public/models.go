package public

import (
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// submitTx is the payload accepted by the transaction submit endpoint.
type submitTx struct {
	Version  uint32           `json:"version" validate:"required"`
	Inputs   []database.TxIn  `json:"inputs" validate:"required,min=1"`
	Outputs  []database.TxOut `json:"outputs" validate:"required,min=1"`
	LockTime uint32           `json:"lock_time"`
	ForkID   uint8            `json:"fork_id"`
}

func (st submitTx) toTx() database.Tx {
	return database.Tx{
		Version:  st.Version,
		Inputs:   st.Inputs,
		Outputs:  st.Outputs,
		LockTime: st.LockTime,
		ForkID:   st.ForkID,
	}
}

type submitted struct {
	Status string         `json:"status"`
	ID     signature.Hash `json:"id"`
	Fee    uint64         `json:"fee"`
}

type block struct {
	Height uint64         `json:"height"`
	Hash   signature.Hash `json:"hash"`
	Size   int            `json:"size"`
	Block  database.Block `json:"block"`
}

type poolTx struct {
	ID        signature.Hash `json:"id"`
	Fee       uint64         `json:"fee"`
	Size      int            `json:"size"`
	FeeRate   uint64         `json:"fee_rate"`
	TimeStamp uint64         `json:"timestamp"`
	Tx        database.Tx    `json:"tx"`
}

func toPoolTxs(ptxs []database.PoolTx) []poolTx {
	txs := make([]poolTx, len(ptxs))
	for i, ptx := range ptxs {
		txs[i] = poolTx{
			ID:        ptx.ID,
			Fee:       ptx.Fee,
			Size:      ptx.Size,
			FeeRate:   ptx.FeeRate(),
			TimeStamp: ptx.TimeStamp,
			Tx:        ptx.Tx,
		}
	}
	return txs
}
