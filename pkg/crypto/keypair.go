package crypto

import (
	"crypto/rand"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	// SecretSize is the length of a secret scalar.
	SecretSize = 32
	// PublicKeySize is the length of a compressed public key.
	PublicKeySize = 33
	// DigestSize is the length of the pre-hashed message signed.
	DigestSize = 32
	// SignatureSize is the length of a compact r||s signature.
	SignatureSize = 64
)

// Signer signs 32-byte digests with a secp256k1 key.
type Signer interface {
	// Sign produces a 64-byte compact ECDSA signature over a digest.
	Sign(digest []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// Verifier verifies ECDSA/secp256k1 signatures.
type Verifier interface {
	Verify(pub, digest, signature []byte) bool
}

// Keypair holds a secp256k1 secret and its compressed public key.
type Keypair struct {
	key    *secp256k1.PrivateKey
	public []byte
}

// GenerateKeypair creates a keypair with entropy drawn from r. A nil r
// uses crypto/rand. The reader is only read for this call; callers that
// generate concurrently pass independent readers or rely on crypto/rand.
func GenerateKeypair(r io.Reader) (*Keypair, error) {
	if r == nil {
		r = rand.Reader
	}
	key, err := secp256k1.GeneratePrivateKeyFromRand(r)
	if err != nil {
		return nil, &CryptoError{Op: "generate", Reason: "entropy source failed", Err: err}
	}
	return newKeypair(key), nil
}

// KeypairFromSecret imports a 32-byte big-endian secret scalar. Zero and
// scalars not below the curve order are rejected. The input is copied;
// the caller remains responsible for clearing its own slice.
func KeypairFromSecret(secret []byte) (*Keypair, error) {
	var scalar secp256k1.ModNScalar
	if err := parseSecret(&scalar, secret); err != nil {
		return nil, err
	}
	key := secp256k1.NewPrivateKey(&scalar)
	scalar.Zero()
	return newKeypair(key), nil
}

func newKeypair(key *secp256k1.PrivateKey) *Keypair {
	return &Keypair{
		key:    key,
		public: key.PubKey().SerializeCompressed(),
	}
}

func parseSecret(scalar *secp256k1.ModNScalar, secret []byte) error {
	if len(secret) != SecretSize {
		return &CryptoError{Op: "secret", Reason: lengthReason("secret", SecretSize, len(secret))}
	}
	if overflow := scalar.SetByteSlice(secret); overflow {
		scalar.Zero()
		return &CryptoError{Op: "secret", Reason: "scalar is not below the curve order"}
	}
	if scalar.IsZero() {
		return &CryptoError{Op: "secret", Reason: "scalar is zero"}
	}
	return nil
}

// DerivePublic returns the compressed public key for secret.
func DerivePublic(secret []byte) ([]byte, error) {
	kp, err := KeypairFromSecret(secret)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()
	return kp.PublicKey(), nil
}

// PublicKey returns a copy of the compressed 33-byte public key.
func (k *Keypair) PublicKey() []byte {
	out := make([]byte, len(k.public))
	copy(out, k.public)
	return out
}

// Secret returns a copy of the 32-byte secret scalar. The caller owns the
// copy and should clear it when done.
func (k *Keypair) Secret() []byte {
	return k.key.Serialize()
}

// Sign produces a deterministic (RFC 6979) ECDSA signature over a 32-byte
// digest, serialized as 64-byte r||s with s in the lower half of the order.
func (k *Keypair) Sign(digest []byte) ([]byte, error) {
	if k.key.Key.IsZero() {
		return nil, &CryptoError{Op: "sign", Reason: "keypair has been zeroed"}
	}
	if len(digest) != DigestSize {
		return nil, &CryptoError{Op: "sign", Reason: lengthReason("digest", DigestSize, len(digest))}
	}
	sig := ecdsa.Sign(k.key, digest)
	r, s := sig.R(), sig.S()
	out := make([]byte, SignatureSize)
	r.PutBytesUnchecked(out[:32])
	s.PutBytesUnchecked(out[32:])
	return out, nil
}

// Zero clears the secret scalar. The keypair cannot sign afterwards.
func (k *Keypair) Zero() {
	k.key.Zero()
}

// Sign signs digest with a raw secret without retaining it.
func Sign(secret, digest []byte) ([]byte, error) {
	kp, err := KeypairFromSecret(secret)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()
	return kp.Sign(digest)
}

// Verify reports whether sig is a valid low-S signature of digest by pub.
// Malformed inputs yield false.
func Verify(pub, digest, sig []byte) bool {
	return VerifyStrict(pub, digest, sig) == nil
}

// VerifyStrict is Verify with the failure reason. pub must be a 33-byte
// compressed key, digest 32 bytes, and sig 64-byte r||s with 0 < r, s < N
// and s <= N/2.
func VerifyStrict(pub, digest, sig []byte) error {
	if len(pub) != PublicKeySize {
		return &CryptoError{Op: "verify", Reason: lengthReason("public key", PublicKeySize, len(pub))}
	}
	if len(digest) != DigestSize {
		return &CryptoError{Op: "verify", Reason: lengthReason("digest", DigestSize, len(digest))}
	}
	if len(sig) != SignatureSize {
		return &CryptoError{Op: "verify", Reason: lengthReason("signature", SignatureSize, len(sig))}
	}
	pubKey, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return &CryptoError{Op: "verify", Reason: "invalid public key", Err: err}
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return &CryptoError{Op: "verify", Reason: "signature r out of range"}
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
		return &CryptoError{Op: "verify", Reason: "signature s out of range"}
	}
	if s.IsOverHalfOrder() {
		return &CryptoError{Op: "verify", Reason: "signature s is not canonical (high-S)"}
	}

	if !ecdsa.NewSignature(&r, &s).Verify(digest, pubKey) {
		return &CryptoError{Op: "verify", Reason: "signature mismatch"}
	}
	return nil
}

// ECDSAVerifier implements Verifier with the strict low-S rule.
type ECDSAVerifier struct{}

// Verify checks sig against digest and a compressed public key.
func (ECDSAVerifier) Verify(pub, digest, signature []byte) bool {
	return Verify(pub, digest, signature)
}
