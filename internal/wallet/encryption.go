package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption constants.
const (
	SaltSize = 32
	// Encrypted format: [salt(32)][memory(4)][iterations(4)][parallelism(1)][nonce(24)][ciphertext...]
	headerSize = SaltSize + 4 + 4 + 1

	// Upper bound accepted from a keystore file, 4 GiB.
	maxMemoryKiB = 4 * 1024 * 1024
)

// ErrDecrypt is returned when the password is wrong or the data was
// altered.
var ErrDecrypt = errors.New("wrong password or corrupted keystore")

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

func (p EncryptionParams) validate() error {
	if p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("argon2 iterations and parallelism must be positive")
	}
	if p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxMemoryKiB {
		return fmt.Errorf("argon2 memory %d KiB out of range", p.Memory)
	}
	return nil
}

func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

// Encrypt seals data under password with Argon2id + XChaCha20-Poly1305.
// The KDF parameters travel in the header so Decrypt needs only the
// password.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, headerSize+len(nonce)+len(data)+aead.Overhead())
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	// Header is bound as associated data.
	header := append([]byte(nil), out[:headerSize]...)
	return aead.Seal(out, nonce, data, header), nil
}

// Decrypt opens data sealed by Encrypt.
func Decrypt(encrypted, password []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	minSize := headerSize + nonceSize + chacha20poly1305.Overhead
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("encrypted data too short: %d bytes, need at least %d", len(encrypted), minSize)
	}

	salt := encrypted[:SaltSize]
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(encrypted[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(encrypted[SaltSize+4:]),
		Parallelism: encrypted[SaltSize+8],
	}
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("keystore header: %w", err)
	}
	nonce := encrypted[headerSize : headerSize+nonceSize]
	ciphertext := encrypted[headerSize+nonceSize:]

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, encrypted[:headerSize])
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
