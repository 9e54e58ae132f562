package private

import (
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// proposedBlock is the payload accepted by the block propose endpoint.
type proposedBlock struct {
	Header database.BlockHeader `json:"header"`
	Txs    []database.Tx        `json:"txs" validate:"required,min=1"`
}

func (pb proposedBlock) toBlock() database.Block {
	return database.Block{
		Header: pb.Header,
		Txs:    pb.Txs,
	}
}

type verdict struct {
	Status string         `json:"status"`
	Height uint64         `json:"height"`
	Hash   signature.Hash `json:"hash"`
}
