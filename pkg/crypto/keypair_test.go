package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func TestGenerateKeypair(t *testing.T) {
	kp, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer kp.Zero()

	pub := kp.PublicKey()
	if len(pub) != PublicKeySize {
		t.Errorf("PublicKey() length = %d, want %d", len(pub), PublicKeySize)
	}
	if pub[0] != 0x02 && pub[0] != 0x03 {
		t.Errorf("PublicKey() prefix = %#x, want compressed", pub[0])
	}
	if len(kp.Secret()) != SecretSize {
		t.Errorf("Secret() length = %d, want %d", len(kp.Secret()), SecretSize)
	}
}

func TestGenerateKeypair_Unique(t *testing.T) {
	k1, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	k2, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if bytes.Equal(k1.Secret(), k2.Secret()) {
		t.Error("two generated keypairs should not be identical")
	}
}

func TestGenerateKeypair_ReaderIsolation(t *testing.T) {
	a, err := GenerateKeypair(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	b, err := GenerateKeypair(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if !bytes.Equal(a.PublicKey(), b.PublicKey()) {
		t.Error("same reader state should yield the same keypair")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestGenerateKeypair_EntropyFailure(t *testing.T) {
	_, err := GenerateKeypair(failingReader{})
	if _, ok := IsCryptoError(err); !ok {
		t.Fatalf("GenerateKeypair() error = %v, want CryptoError", err)
	}
}

func TestDerivePublic_KnownVector(t *testing.T) {
	secret := make([]byte, 32)
	secret[31] = 1

	pub, err := DerivePublic(secret)
	if err != nil {
		t.Fatalf("DerivePublic() error: %v", err)
	}
	want := mustHex(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	if !bytes.Equal(pub, want) {
		t.Errorf("DerivePublic(1) = %x, want %x", pub, want)
	}
}

func TestKeypairFromSecret_Invalid(t *testing.T) {
	order := mustHex(t, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	tests := []struct {
		name   string
		secret []byte
	}{
		{"empty", nil},
		{"too short", make([]byte, 16)},
		{"too long", make([]byte, 33)},
		{"zero", make([]byte, 32)},
		{"curve order", order},
		{"all ones", bytes.Repeat([]byte{0xff}, 32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KeypairFromSecret(tt.secret)
			if _, ok := IsCryptoError(err); !ok {
				t.Errorf("KeypairFromSecret() error = %v, want CryptoError", err)
			}
		})
	}
}

func TestKeypairFromSecret_Roundtrip(t *testing.T) {
	original, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	secret := original.Secret()
	restored, err := KeypairFromSecret(secret)
	if err != nil {
		t.Fatalf("KeypairFromSecret() error: %v", err)
	}
	if !bytes.Equal(original.PublicKey(), restored.PublicKey()) {
		t.Error("restored keypair should have the same public key")
	}

	// The keypair must not alias the caller's slice.
	for i := range secret {
		secret[i] = 0
	}
	if bytes.Equal(restored.Secret(), secret) {
		t.Error("clearing the input should not clear the keypair")
	}
}

func TestSign_Verify(t *testing.T) {
	kp, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	digest := HashBlake2b([]byte("test message"))
	sig, err := kp.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if len(sig) != SignatureSize {
		t.Errorf("signature length = %d, want %d", len(sig), SignatureSize)
	}
	if !Verify(kp.PublicKey(), digest[:], sig) {
		t.Error("signature should verify against the correct key and digest")
	}
}

func TestSign_Deterministic(t *testing.T) {
	kp, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	digest := HashBlake2b([]byte("deterministic"))
	sig1, _ := kp.Sign(digest[:])
	sig2, _ := kp.Sign(digest[:])
	if !bytes.Equal(sig1, sig2) {
		t.Error("RFC 6979 signatures should be deterministic")
	}

	sig3, err := Sign(kp.Secret(), digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !bytes.Equal(sig1, sig3) {
		t.Error("package Sign should match Keypair.Sign")
	}
}

func TestSign_InvalidDigestLength(t *testing.T) {
	kp, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	for _, n := range []int{0, 31, 33, 64} {
		if _, err := kp.Sign(make([]byte, n)); err == nil {
			t.Errorf("Sign() should reject %d-byte digest", n)
		}
	}
}

func TestSign_LowS(t *testing.T) {
	kp, err := GenerateKeypair(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	for i := 0; i < 50; i++ {
		digest := HashBlake2b([]byte{byte(i)})
		sig, err := kp.Sign(digest[:])
		if err != nil {
			t.Fatalf("Sign() error: %v", err)
		}
		var s secp256k1.ModNScalar
		s.SetByteSlice(sig[32:])
		if s.IsOverHalfOrder() {
			t.Fatalf("signature %d has high S", i)
		}
	}
}

func TestVerifyStrict_RejectsHighS(t *testing.T) {
	kp, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	digest := HashBlake2b([]byte("malleable"))
	sig, _ := kp.Sign(digest[:])

	var s secp256k1.ModNScalar
	s.SetByteSlice(sig[32:])
	s.Negate()
	high := make([]byte, SignatureSize)
	copy(high, sig[:32])
	s.PutBytesUnchecked(high[32:])

	err = VerifyStrict(kp.PublicKey(), digest[:], high)
	if err == nil {
		t.Fatal("high-S signature should be rejected")
	}
	if _, ok := IsCryptoError(err); !ok {
		t.Errorf("VerifyStrict() error = %v, want CryptoError", err)
	}
}

func TestVerify_InvalidInputs(t *testing.T) {
	kp, _ := GenerateKeypair(nil)
	digest := HashBlake2b([]byte("x"))
	sig, _ := kp.Sign(digest[:])
	pub := kp.PublicKey()

	order := mustHex(t, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	overR := append(append([]byte{}, order...), sig[32:]...)
	zeroS := append(append([]byte{}, sig[:32]...), make([]byte, 32)...)

	tests := []struct {
		name   string
		pub    []byte
		digest []byte
		sig    []byte
	}{
		{"nil everything", nil, nil, nil},
		{"short digest", pub, digest[:16], sig},
		{"short signature", pub, digest[:], sig[:63]},
		{"long signature", pub, digest[:], append(append([]byte{}, sig...), 0)},
		{"uncompressed key length", make([]byte, 65), digest[:], sig},
		{"garbage key", bytes.Repeat([]byte{0x05}, 33), digest[:], sig},
		{"r overflows", pub, digest[:], overR},
		{"s zero", pub, digest[:], zeroS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.pub, tt.digest, tt.sig) {
				t.Error("should return false for invalid inputs")
			}
			if err := VerifyStrict(tt.pub, tt.digest, tt.sig); err == nil {
				t.Error("VerifyStrict should return an error")
			}
		})
	}
}

func TestVerify_WrongKey(t *testing.T) {
	k1, _ := GenerateKeypair(nil)
	k2, _ := GenerateKeypair(nil)
	digest := HashBlake2b([]byte("message"))
	sig, _ := k1.Sign(digest[:])
	if Verify(k2.PublicKey(), digest[:], sig) {
		t.Error("signature should not verify against another key")
	}
}

// Every single-bit flip of the digest or the signature must fail.
func TestSignatureSoundness_RandomKeypairs(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	const keypairs = 128
	const flipsPerKey = 16

	for i := 0; i < keypairs; i++ {
		kp, err := GenerateKeypair(rng)
		if err != nil {
			t.Fatalf("GenerateKeypair() error: %v", err)
		}
		pub := kp.PublicKey()
		digest := make([]byte, DigestSize)
		rng.Read(digest)

		sig, err := kp.Sign(digest)
		if err != nil {
			t.Fatalf("Sign() error: %v", err)
		}
		if !Verify(pub, digest, sig) {
			t.Fatalf("keypair %d: valid signature rejected", i)
		}

		for f := 0; f < flipsPerKey; f++ {
			bit := rng.Intn(DigestSize * 8)
			mutated := append([]byte{}, digest...)
			mutated[bit/8] ^= 1 << (bit % 8)
			if Verify(pub, mutated, sig) {
				t.Fatalf("keypair %d: digest bit %d flip still verifies", i, bit)
			}

			bit = rng.Intn(SignatureSize * 8)
			badSig := append([]byte{}, sig...)
			badSig[bit/8] ^= 1 << (bit % 8)
			if Verify(pub, digest, badSig) {
				t.Fatalf("keypair %d: signature bit %d flip still verifies", i, bit)
			}
		}
		kp.Zero()
	}
}

func TestSignatureSoundness_ExhaustiveFlips(t *testing.T) {
	kp, err := GenerateKeypair(rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	digest := HashBlake2b([]byte("every bit"))
	sig, _ := kp.Sign(digest[:])
	pub := kp.PublicKey()

	for bit := 0; bit < DigestSize*8; bit++ {
		mutated := digest
		mutated[bit/8] ^= 1 << (bit % 8)
		if Verify(pub, mutated[:], sig) {
			t.Fatalf("digest bit %d flip still verifies", bit)
		}
	}
	for bit := 0; bit < SignatureSize*8; bit++ {
		badSig := append([]byte{}, sig...)
		badSig[bit/8] ^= 1 << (bit % 8)
		if Verify(pub, digest[:], badSig) {
			t.Fatalf("signature bit %d flip still verifies", bit)
		}
	}
}

func TestKeypair_Zero(t *testing.T) {
	kp, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	digest := HashBlake2b([]byte("zero"))
	if _, err := kp.Sign(digest[:]); err != nil {
		t.Fatalf("Sign() should work before Zero(): %v", err)
	}

	kp.Zero()

	if !bytes.Equal(kp.Secret(), make([]byte, SecretSize)) {
		t.Error("Secret() should return zeros after Zero()")
	}
	if _, err := kp.Sign(digest[:]); err == nil {
		t.Error("Sign() should fail after Zero()")
	}
}

func TestInterfaces(t *testing.T) {
	kp, err := GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	var s Signer = kp
	var v Verifier = ECDSAVerifier{}

	digest := HashBlake2b([]byte("interface test"))
	sig, err := s.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !v.Verify(s.PublicKey(), digest[:], sig) {
		t.Error("ECDSAVerifier should verify a valid signature")
	}
}
