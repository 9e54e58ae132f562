package signature

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

// Verifier is the opaque signature capability used by the script engine.
// Implementations must not panic on malformed input.
type Verifier interface {
	Verify(msg []byte, sig []byte, publicKey []byte) bool
}

// The set of sizes for the ML-DSA-65 parameter set.
var (
	PublicKeySize = mldsa65.PublicKeySize
	SignatureSize = mldsa65.SignatureSize
	SeedSize      = mldsa65.SeedSize
)

// =============================================================================

// MLDSA verifies ML-DSA-65 (FIPS 204, security level 3) signatures.
type MLDSA struct {
	scheme sign.Scheme
}

// NewMLDSA constructs the ML-DSA-65 verifier.
func NewMLDSA() MLDSA {
	return MLDSA{scheme: mldsa65.Scheme()}
}

// Verify reports whether sig is a valid signature of msg by publicKey.
// Keys and signatures of the wrong size are rejected without reaching
// the verification routine.
func (m MLDSA) Verify(msg []byte, sig []byte, publicKey []byte) bool {
	if len(sig) != m.scheme.SignatureSize() || len(publicKey) != m.scheme.PublicKeySize() {
		return false
	}

	pk, err := m.scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return false
	}

	return m.scheme.Verify(pk, msg, sig, nil)
}

// =============================================================================

// KeyPair holds an ML-DSA-65 key pair used by miners and tests to sign
// transactions.
type KeyPair struct {
	scheme  sign.Scheme
	public  sign.PublicKey
	private sign.PrivateKey
}

// GenerateKeyPair creates a new random key pair.
func GenerateKeyPair() (KeyPair, error) {
	scheme := mldsa65.Scheme()

	pub, priv, err := scheme.GenerateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate key: %w", err)
	}

	return KeyPair{scheme: scheme, public: pub, private: priv}, nil
}

// KeyPairFromSeed derives a deterministic key pair from a seed.
func KeyPairFromSeed(seed []byte) (KeyPair, error) {
	scheme := mldsa65.Scheme()

	if len(seed) != scheme.SeedSize() {
		return KeyPair{}, fmt.Errorf("invalid seed length, got %d, exp %d", len(seed), scheme.SeedSize())
	}

	pub, priv := scheme.DeriveKey(seed)
	return KeyPair{scheme: scheme, public: pub, private: priv}, nil
}

// PublicKey returns the encoded public key.
func (kp KeyPair) PublicKey() ([]byte, error) {
	if kp.public == nil {
		return nil, errors.New("key pair not initialized")
	}

	return kp.public.MarshalBinary()
}

// Sign signs the message with the private key.
func (kp KeyPair) Sign(msg []byte) ([]byte, error) {
	if kp.private == nil {
		return nil, errors.New("key pair not initialized")
	}

	return kp.scheme.Sign(kp.private, msg, nil), nil
}
