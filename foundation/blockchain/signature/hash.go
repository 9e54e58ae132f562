// Package signature provides the hashing and signature capabilities
// consumed by the consensus rules.
package signature

import (
	"bytes"
	"crypto/sha512"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashSize is the number of bytes in a fingerprint.
const HashSize = sha512.Size

// Hash is a double SHA-512 fingerprint. Block identity, transaction
// identity and merkle nodes all use this type.
type Hash [HashSize]byte

// ZeroHash represents a hash code of zeros.
var ZeroHash Hash

// Sum returns the double SHA-512 of the concatenated data.
func Sum(data ...[]byte) Hash {
	h := sha512.New()
	for _, d := range data {
		h.Write(d)
	}

	first := h.Sum(nil)
	return Hash(sha512.Sum512(first))
}

// Single returns a single round SHA-512 of the data. Used where a
// fingerprint is committed inside a script rather than identifying
// a block or transaction.
func Single(data []byte) Hash {
	return Hash(sha512.Sum512(data))
}

// HashFromHex decodes a 0x prefixed hex string into a hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Hash{}, fmt.Errorf("decode hash: %w", err)
	}

	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("invalid hash length, got %d, exp %d", len(b), HashSize)
	}

	return Hash(b), nil
}

// IsZero reports whether every byte of the hash is zero.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Compare orders hashes as big-endian unsigned integers.
func (h Hash) Compare(o Hash) int {
	return bytes.Compare(h[:], o[:])
}

// String implements the fmt.Stringer interface.
func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (h *Hash) UnmarshalText(data []byte) error {
	v, err := HashFromHex(string(data))
	if err != nil {
		return err
	}

	*h = v
	return nil
}
