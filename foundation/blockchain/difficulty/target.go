// Package difficulty implements the proof of work target, its compact
// encoding and the periodic retargeting rules.
package difficulty

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size is the number of bytes in a target.
const Size = 64

// ErrInvalidTarget is returned for compact encodings that do not describe
// a positive 512 bit target.
var ErrInvalidTarget = errors.New("invalid target")

// two512 is 2^512, the size of the hash space.
var two512 = new(big.Int).Lsh(big.NewInt(1), Size*8)

// Target is a 64 byte big-endian unsigned threshold. A block hash solves
// the puzzle when it is numerically less than or equal to the target, so a
// smaller target is harder.
type Target [Size]byte

// FromBits decodes the compact representation carried in block headers:
// the top byte is the length of the target in bytes and the low 23 bits
// are its most significant digits.
func FromBits(bits uint32) (Target, error) {
	exponent := uint(bits >> 24)
	mantissa := int64(bits & 0x007fffff)

	switch {
	case bits&0x00800000 != 0:
		return Target{}, fmt.Errorf("bits[%08x] negative: %w", bits, ErrInvalidTarget)
	case mantissa == 0:
		return Target{}, fmt.Errorf("bits[%08x] zero mantissa: %w", bits, ErrInvalidTarget)
	case exponent > Size:
		return Target{}, fmt.Errorf("bits[%08x] exponent exceeds %d bytes: %w", bits, Size, ErrInvalidTarget)
	}

	v := big.NewInt(mantissa)
	switch {
	case exponent <= 3:
		v.Rsh(v, 8*(3-exponent))
	default:
		v.Lsh(v, 8*(exponent-3))
	}

	if v.Sign() == 0 {
		return Target{}, fmt.Errorf("bits[%08x] underflows to zero: %w", bits, ErrInvalidTarget)
	}

	return FromBig(v)
}

// MustFromBits is FromBits for package level tables of known values.
func MustFromBits(bits uint32) Target {
	t, err := FromBits(bits)
	if err != nil {
		panic(err)
	}

	return t
}

// FromBig converts an integer into a target.
func FromBig(v *big.Int) (Target, error) {
	if v.Sign() < 0 || v.BitLen() > Size*8 {
		return Target{}, fmt.Errorf("value of %d bits does not fit: %w", v.BitLen(), ErrInvalidTarget)
	}

	var t Target
	v.FillBytes(t[:])

	return t, nil
}

// Big returns the target as an integer.
func (t Target) Big() *big.Int {
	return new(big.Int).SetBytes(t[:])
}

// Cmp compares two targets as unsigned integers.
func (t Target) Cmp(o Target) int {
	return t.Big().Cmp(o.Big())
}

// IsZero reports whether the target is zero and so can never be met.
func (t Target) IsZero() bool {
	return t == Target{}
}

// Bits returns the compact encoding of the target. Digits beyond the
// 23 bit mantissa are truncated. Targets of 2^511 and above need a 65th
// byte of exponent and cannot be represented.
func (t Target) Bits() uint32 {
	v := t.Big()
	size := uint((v.BitLen() + 7) / 8)

	var compact uint32
	switch {
	case size <= 3:
		compact = uint32(v.Uint64() << (8 * (3 - size)))
	default:
		compact = uint32(new(big.Int).Rsh(v, 8*(size-3)).Uint64())
	}

	if compact&0x00800000 != 0 {
		compact >>= 8
		size++
	}

	return compact | uint32(size)<<24
}

// Satisfied reports whether the hash is less than or equal to the target.
// Every byte is inspected regardless of where the first difference lies,
// so the running time does not depend on the values.
func (t Target) Satisfied(hash signature.Hash) bool {
	var lt, gt int
	for i := range Size {
		h, v := int(hash[i]), int(t[i])
		undecided := 1 ^ (lt | gt)
		lt |= subtle.ConstantTimeLessOrEq(h+1, v) & undecided
		gt |= subtle.ConstantTimeLessOrEq(v+1, h) & undecided
	}

	return gt == 0
}

// Work returns the expected number of hashes needed to meet the target,
// floor(2^512 / (target+1)), using integer division only.
func (t Target) Work() *big.Int {
	d := t.Big()
	d.Add(d, big.NewInt(1))

	return d.Div(two512, d)
}

// String implements the fmt.Stringer interface.
func (t Target) String() string {
	return hexutil.Encode(t[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (t *Target) UnmarshalText(data []byte) error {
	b, err := hexutil.Decode(string(data))
	if err != nil {
		return fmt.Errorf("decode target: %w", err)
	}

	if len(b) != Size {
		return fmt.Errorf("invalid target length, got %d, exp %d", len(b), Size)
	}

	copy(t[:], b)
	return nil
}
