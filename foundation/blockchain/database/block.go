package database

import (
	"fmt"
	"time"

	"github.com/btpc/blockchain/foundation/blockchain/merkle"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// HeaderSize is the number of bytes in a serialized block header.
const HeaderSize = 4 + signature.HashSize + signature.HashSize + 8 + 4 + 4

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Version       uint32         `json:"version"`         // Block format version.
	PrevBlockHash signature.Hash `json:"prev_block_hash"` // Hash of the previous block in the chain.
	MerkleRoot    signature.Hash `json:"merkle_root"`     // Merkle root of the transaction ids.
	TimeStamp     uint64         `json:"timestamp"`       // Time the block was mined, unix seconds.
	Bits          uint32         `json:"bits"`            // Compact encoding of the difficulty target.
	Nonce         uint32         `json:"nonce"`           // Value identified to solve the hash solution.
}

// Hash returns the block identity: the double SHA-512 of the serialized
// header.
func (bh BlockHeader) Hash() signature.Hash {
	return signature.Sum(bh.Bytes())
}

// Time returns the header timestamp as a time value.
func (bh BlockHeader) Time() time.Time {
	return time.Unix(int64(bh.TimeStamp), 0).UTC()
}

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader `json:"header"`
	Txs    []Tx        `json:"txs"`
}

// NewBlock constructs a block over the transactions, filling in the merkle
// root of the header.
func NewBlock(header BlockHeader, txs []Tx) (Block, error) {
	root, err := MerkleRoot(txs)
	if err != nil {
		return Block{}, err
	}

	header.MerkleRoot = root

	return Block{Header: header, Txs: txs}, nil
}

// Hash returns the unique hash for the block.
func (b Block) Hash() signature.Hash {
	return b.Header.Hash()
}

// Coinbase returns the first transaction of the block.
func (b Block) Coinbase() (Tx, error) {
	if len(b.Txs) == 0 {
		return Tx{}, fmt.Errorf("block %s has no transactions", b.Hash())
	}

	return b.Txs[0], nil
}

// Size returns the serialized size of the block in bytes.
func (b Block) Size() int {
	return len(b.Bytes())
}

// =============================================================================

// MerkleRoot computes the merkle root over the transaction ids.
func MerkleRoot(txs []Tx) (signature.Hash, error) {
	return merkle.Root(txs)
}
