package signature_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, signature.SeedSize)
}

func Test_SignVerify(t *testing.T) {
	t.Log("Given the need to sign and verify messages with ML-DSA.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen signing a message with a derived key.", testID)
		{
			kp, err := signature.KeyPairFromSeed(seed(7))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to derive a key pair: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to derive a key pair.", success, testID)

			pub, err := kp.PublicKey()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to encode the public key: %v", failed, testID, err)
			}

			msg := []byte("spend output 0 of tx 0xabc on fork 1")
			sig, err := kp.Sign(msg)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign: %v", failed, testID, err)
			}

			v := signature.NewMLDSA()
			if !v.Verify(msg, sig, pub) {
				t.Fatalf("\t%s\tTest %d:\tShould verify the signature.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould verify the signature.", success, testID)

			for i := range msg {
				m := bytes.Clone(msg)
				m[i] ^= 0x01
				if v.Verify(m, sig, pub) {
					t.Fatalf("\t%s\tTest %d:\tShould reject a message with byte %d flipped.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reject any message with a flipped byte.", success, testID)

			for i := range sig {
				s := bytes.Clone(sig)
				s[i] ^= 0x01
				if v.Verify(msg, s, pub) {
					t.Fatalf("\t%s\tTest %d:\tShould reject a signature with byte %d flipped.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reject any signature with a flipped byte.", success, testID)

			other, err := signature.KeyPairFromSeed(seed(8))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to derive a second key pair: %v", failed, testID, err)
			}
			otherPub, _ := other.PublicKey()
			if v.Verify(msg, sig, otherPub) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the signature under another key.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the signature under another key.", success, testID)

			if v.Verify(msg, sig[:10], pub) || v.Verify(msg, sig, pub[:10]) {
				t.Fatalf("\t%s\tTest %d:\tShould reject truncated inputs.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject truncated inputs.", success, testID)
		}
	}
}

func Test_KeyPairSeedLength(t *testing.T) {
	if _, err := signature.KeyPairFromSeed([]byte{1, 2, 3}); err == nil {
		t.Fatalf("\t%s\tShould reject a short seed.", failed)
	}
	t.Logf("\t%s\tShould reject a short seed.", success)
}

func Test_Hash(t *testing.T) {
	t.Log("Given the need to fingerprint data.")
	{
		h1 := signature.Sum([]byte("btpc"))
		h2 := signature.Sum([]byte("bt"), []byte("pc"))
		if h1 != h2 {
			t.Fatalf("\t%s\tShould hash concatenated parts identically.", failed)
		}
		t.Logf("\t%s\tShould hash concatenated parts identically.", success)

		if h1 == signature.Single([]byte("btpc")) {
			t.Fatalf("\t%s\tShould differ between single and double hashing.", failed)
		}
		t.Logf("\t%s\tShould differ between single and double hashing.", success)

		data, err := json.Marshal(h1)
		if err != nil {
			t.Fatalf("\t%s\tShould marshal the hash: %v", failed, err)
		}

		var h3 signature.Hash
		if err := json.Unmarshal(data, &h3); err != nil {
			t.Fatalf("\t%s\tShould unmarshal the hash: %v", failed, err)
		}

		if h3 != h1 {
			t.Logf("\t\tgot: %s", h3)
			t.Logf("\t\texp: %s", h1)
			t.Fatalf("\t%s\tShould round trip the hash through hex.", failed)
		}
		t.Logf("\t%s\tShould round trip the hash through hex.", success)

		if _, err := signature.HashFromHex("0x0102"); err == nil {
			t.Fatalf("\t%s\tShould reject a short hex hash.", failed)
		}
		t.Logf("\t%s\tShould reject a short hex hash.", success)

		if !signature.ZeroHash.IsZero() || h1.IsZero() {
			t.Fatalf("\t%s\tShould identify the zero hash.", failed)
		}
		t.Logf("\t%s\tShould identify the zero hash.", success)
	}
}
