package database

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// Decoding limits. These bound memory for hostile input; the consensus
// limits are enforced separately and are tighter.
const (
	maxDecodeItems  = 100_000
	maxDecodeScript = 100_000
)

// varIntVersion is passed to the CompactSize routines which ignore the
// protocol version.
const varIntVersion = 0

// ErrTrailingBytes is returned when a decode leaves unread input behind.
var ErrTrailingBytes = errors.New("trailing bytes after decode")

// =============================================================================

// Bytes returns the exact header layout hashed for block identity.
func (bh BlockHeader) Bytes() []byte {
	b := make([]byte, 0, HeaderSize)
	b = binary.LittleEndian.AppendUint32(b, bh.Version)
	b = append(b, bh.PrevBlockHash[:]...)
	b = append(b, bh.MerkleRoot[:]...)
	b = binary.LittleEndian.AppendUint64(b, bh.TimeStamp)
	b = binary.LittleEndian.AppendUint32(b, bh.Bits)
	b = binary.LittleEndian.AppendUint32(b, bh.Nonce)

	return b
}

// DecodeHeader reads a header from its serialized layout.
func DecodeHeader(r io.Reader) (BlockHeader, error) {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return BlockHeader{}, fmt.Errorf("read header: %w", err)
	}

	var bh BlockHeader
	bh.Version = binary.LittleEndian.Uint32(b[0:4])
	copy(bh.PrevBlockHash[:], b[4:68])
	copy(bh.MerkleRoot[:], b[68:132])
	bh.TimeStamp = binary.LittleEndian.Uint64(b[132:140])
	bh.Bits = binary.LittleEndian.Uint32(b[140:144])
	bh.Nonce = binary.LittleEndian.Uint32(b[144:148])

	return bh, nil
}

// =============================================================================

// Bytes returns the full serialization used for transaction identity.
func (tx Tx) Bytes() []byte {
	var buf bytes.Buffer
	tx.encode(&buf, false)
	return buf.Bytes()
}

// SigningBytes returns the canonical message signed by every input. It
// matches Bytes except that each unlocking script is written as empty and
// the fork id byte closes the message.
func (tx Tx) SigningBytes() []byte {
	var buf bytes.Buffer
	tx.encode(&buf, true)
	return buf.Bytes()
}

// encode writes the transaction. Writes to a bytes.Buffer cannot fail so
// the errors from the CompactSize helpers are not checked.
func (tx Tx) encode(buf *bytes.Buffer, signing bool) {
	var scratch [8]byte

	binary.LittleEndian.PutUint32(scratch[:4], tx.Version)
	buf.Write(scratch[:4])

	wire.WriteVarInt(buf, varIntVersion, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf.Write(in.PrevOut.TxID[:])
		binary.LittleEndian.PutUint32(scratch[:4], in.PrevOut.Index)
		buf.Write(scratch[:4])

		switch signing {
		case true:
			wire.WriteVarInt(buf, varIntVersion, 0)
		default:
			wire.WriteVarBytes(buf, varIntVersion, in.UnlockingScript)
		}

		binary.LittleEndian.PutUint32(scratch[:4], in.Sequence)
		buf.Write(scratch[:4])
	}

	wire.WriteVarInt(buf, varIntVersion, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		binary.LittleEndian.PutUint64(scratch[:], out.Value)
		buf.Write(scratch[:])
		wire.WriteVarBytes(buf, varIntVersion, out.LockingScript)
	}

	binary.LittleEndian.PutUint32(scratch[:4], tx.LockTime)
	buf.Write(scratch[:4])
	buf.WriteByte(tx.ForkID)
}

// DecodeTx reads a transaction from its full serialization.
func DecodeTx(r io.Reader) (Tx, error) {
	var tx Tx
	var err error

	if tx.Version, err = readUint32(r); err != nil {
		return Tx{}, fmt.Errorf("read version: %w", err)
	}

	nIn, err := readCount(r)
	if err != nil {
		return Tx{}, fmt.Errorf("read input count: %w", err)
	}

	tx.Inputs = make([]TxIn, nIn)
	for i := range tx.Inputs {
		in := &tx.Inputs[i]

		if _, err := io.ReadFull(r, in.PrevOut.TxID[:]); err != nil {
			return Tx{}, fmt.Errorf("read input %d txid: %w", i, err)
		}

		if in.PrevOut.Index, err = readUint32(r); err != nil {
			return Tx{}, fmt.Errorf("read input %d index: %w", i, err)
		}

		if in.UnlockingScript, err = wire.ReadVarBytes(r, varIntVersion, maxDecodeScript, "unlocking script"); err != nil {
			return Tx{}, fmt.Errorf("read input %d script: %w", i, err)
		}

		if in.Sequence, err = readUint32(r); err != nil {
			return Tx{}, fmt.Errorf("read input %d sequence: %w", i, err)
		}
	}

	nOut, err := readCount(r)
	if err != nil {
		return Tx{}, fmt.Errorf("read output count: %w", err)
	}

	tx.Outputs = make([]TxOut, nOut)
	for i := range tx.Outputs {
		out := &tx.Outputs[i]

		if out.Value, err = readUint64(r); err != nil {
			return Tx{}, fmt.Errorf("read output %d value: %w", i, err)
		}

		if out.LockingScript, err = wire.ReadVarBytes(r, varIntVersion, maxDecodeScript, "locking script"); err != nil {
			return Tx{}, fmt.Errorf("read output %d script: %w", i, err)
		}
	}

	if tx.LockTime, err = readUint32(r); err != nil {
		return Tx{}, fmt.Errorf("read lock time: %w", err)
	}

	var fork [1]byte
	if _, err := io.ReadFull(r, fork[:]); err != nil {
		return Tx{}, fmt.Errorf("read fork id: %w", err)
	}
	tx.ForkID = fork[0]

	return tx, nil
}

// =============================================================================

// Bytes returns the serialized block: header, transaction count and each
// transaction.
func (b Block) Bytes() []byte {
	var buf bytes.Buffer
	buf.Write(b.Header.Bytes())

	wire.WriteVarInt(&buf, varIntVersion, uint64(len(b.Txs)))
	for _, tx := range b.Txs {
		tx.encode(&buf, false)
	}

	return buf.Bytes()
}

// DecodeBlock reads a block from its serialization. The whole input must
// be consumed.
func DecodeBlock(data []byte) (Block, error) {
	r := bytes.NewReader(data)

	header, err := DecodeHeader(r)
	if err != nil {
		return Block{}, err
	}

	n, err := readCount(r)
	if err != nil {
		return Block{}, fmt.Errorf("read tx count: %w", err)
	}

	txs := make([]Tx, n)
	for i := range txs {
		if txs[i], err = DecodeTx(r); err != nil {
			return Block{}, fmt.Errorf("tx %d: %w", i, err)
		}
	}

	if r.Len() != 0 {
		return Block{}, fmt.Errorf("%d bytes: %w", r.Len(), ErrTrailingBytes)
	}

	return Block{Header: header, Txs: txs}, nil
}

// =============================================================================

// Bytes returns the storage encoding of the unspent output.
func (u UTXO) Bytes() []byte {
	var buf bytes.Buffer
	var scratch [8]byte

	binary.LittleEndian.PutUint64(scratch[:], u.Value)
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], u.Height)
	buf.Write(scratch[:])

	switch u.Coinbase {
	case true:
		buf.WriteByte(1)
	default:
		buf.WriteByte(0)
	}

	wire.WriteVarBytes(&buf, varIntVersion, u.LockingScript)

	return buf.Bytes()
}

// DecodeUTXO reads an unspent output for the specified outpoint from its
// storage encoding.
func DecodeUTXO(op OutPoint, data []byte) (UTXO, error) {
	r := bytes.NewReader(data)
	u := UTXO{OutPoint: op}

	var err error
	if u.Value, err = readUint64(r); err != nil {
		return UTXO{}, fmt.Errorf("read value: %w", err)
	}

	if u.Height, err = readUint64(r); err != nil {
		return UTXO{}, fmt.Errorf("read height: %w", err)
	}

	flag, err := r.ReadByte()
	if err != nil {
		return UTXO{}, fmt.Errorf("read coinbase flag: %w", err)
	}
	u.Coinbase = flag == 1

	if u.LockingScript, err = wire.ReadVarBytes(r, varIntVersion, maxDecodeScript, "locking script"); err != nil {
		return UTXO{}, fmt.Errorf("read script: %w", err)
	}

	if r.Len() != 0 {
		return UTXO{}, fmt.Errorf("%d bytes: %w", r.Len(), ErrTrailingBytes)
	}

	return u, nil
}

// =============================================================================

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

func readCount(r io.Reader) (int, error) {
	n, err := wire.ReadVarInt(r, varIntVersion)
	if err != nil {
		return 0, err
	}

	if n > maxDecodeItems {
		return 0, fmt.Errorf("count %d exceeds limit %d", n, maxDecodeItems)
	}

	return int(n), nil
}
