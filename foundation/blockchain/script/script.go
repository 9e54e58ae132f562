// Package script implements the small stack language that locks outputs to
// ML-DSA public keys and unlocks them with signatures.
package script

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Limits applied to every script.
const (
	MaxScriptSize = 10_000
	MaxOps        = 201
	MaxPushSize   = 0xffff
	PubKeyHashLen = 20
)

// Opcodes understood by the interpreter. Values 0x01 through 0x4b push
// that many following bytes.
const (
	OpFalse             = 0x00
	OpPushData1         = 0x4c
	OpPushData2         = 0x4d
	OpTrue              = 0x51
	OpVerify            = 0x69
	OpDup               = 0x76
	OpEqual             = 0x87
	OpEqualVerify       = 0x88
	OpHash160           = 0xa9
	OpCheckMLDSASig     = 0xc8
	OpCheckMLDSASigVrfy = 0xc9
)

// Set of errors returned by the interpreter.
var (
	ErrMalformed       = errors.New("malformed script")
	ErrTooLarge        = errors.New("script too large")
	ErrTooManyOps      = errors.New("too many operations")
	ErrUnsupported     = errors.New("unsupported opcode")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrVerifyFailed    = errors.New("verification failed")
	ErrSignatureFailed = errors.New("signature verification failed")
	ErrFalseResult     = errors.New("script evaluated to false")
)

// =============================================================================

// Instruction is one parsed opcode with its pushed data, if any.
type Instruction struct {
	Op   byte
	Data []byte
}

// Parse splits a script into instructions, enforcing the size and
// operation limits.
func Parse(script []byte) ([]Instruction, error) {
	if len(script) > MaxScriptSize {
		return nil, fmt.Errorf("size[%d] limit[%d]: %w", len(script), MaxScriptSize, ErrTooLarge)
	}

	var ins []Instruction
	for i := 0; i < len(script); {
		op := script[i]
		i++

		var n int
		switch {
		case op >= 0x01 && op <= 0x4b:
			n = int(op)
		case op == OpPushData1:
			if i+1 > len(script) {
				return nil, fmt.Errorf("pushdata1 length at %d: %w", i, ErrMalformed)
			}
			n = int(script[i])
			i++
		case op == OpPushData2:
			if i+2 > len(script) {
				return nil, fmt.Errorf("pushdata2 length at %d: %w", i, ErrMalformed)
			}
			n = int(binary.LittleEndian.Uint16(script[i:]))
			i += 2
		default:
			ins = append(ins, Instruction{Op: op})
			if len(ins) > MaxOps {
				return nil, ErrTooManyOps
			}
			continue
		}

		if i+n > len(script) {
			return nil, fmt.Errorf("push of %d bytes at %d: %w", n, i, ErrMalformed)
		}

		ins = append(ins, Instruction{Op: op, Data: script[i : i+n]})
		if len(ins) > MaxOps {
			return nil, ErrTooManyOps
		}
		i += n
	}

	return ins, nil
}

// =============================================================================

// Builder assembles scripts. The first failed append is kept and every
// later append is ignored; check Err before using the script.
type Builder struct {
	buf bytes.Buffer
	err error
}

// AddOp appends an opcode.
func (b *Builder) AddOp(op byte) *Builder {
	if b.err != nil {
		return b
	}

	b.buf.WriteByte(op)
	return b
}

// AddData appends the smallest push of the data. Data longer than
// MaxPushSize cannot be encoded and fails the builder with ErrTooLarge.
func (b *Builder) AddData(data []byte) *Builder {
	if b.err != nil {
		return b
	}

	n := len(data)
	if n > MaxPushSize {
		b.err = fmt.Errorf("push size[%d] limit[%d]: %w", n, MaxPushSize, ErrTooLarge)
		return b
	}

	switch {
	case n <= 0x4b:
		b.buf.WriteByte(byte(n))
	case n <= 0xff:
		b.buf.WriteByte(OpPushData1)
		b.buf.WriteByte(byte(n))
	default:
		b.buf.WriteByte(OpPushData2)
		b.buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(n)))
	}

	b.buf.Write(data)
	return b
}

// Script returns the assembled bytes.
func (b *Builder) Script() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Err returns the first error raised while assembling the script.
func (b *Builder) Err() error {
	return b.err
}

// =============================================================================

// PubKeyHash returns the 20 byte commitment to a public key used by
// pay-to-pubkey-hash locking scripts.
func PubKeyHash(publicKey []byte) []byte {
	h := signature.Single(publicKey)
	return bytes.Clone(h[:PubKeyHashLen])
}

// PayToPubKeyHash builds the standard locking script:
// DUP HASH160 <hash> EQUALVERIFY CHECKMLDSASIG.
func PayToPubKeyHash(pubKeyHash []byte) []byte {
	var b Builder
	b.AddOp(OpDup).AddOp(OpHash160).AddData(pubKeyHash).AddOp(OpEqualVerify).AddOp(OpCheckMLDSASig)

	return b.Script()
}

// Unlock builds the unlocking script for a pay-to-pubkey-hash output.
func Unlock(sig []byte, publicKey []byte) []byte {
	var b Builder
	b.AddData(sig).AddData(publicKey)

	return b.Script()
}
