package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/crypto"
	"github.com/rooch-network/rooch-go/pkg/types"
)

const (
	keystoreVersion = 1
	keyFileExt      = ".key"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// Keystore errors.
var (
	ErrKeyExists   = errors.New("key already exists")
	ErrKeyNotFound = errors.New("key not found")
)

// keystoreFile is the on-disk JSON format of one key. For mnemonic keys
// the encrypted payload is the BIP-39 seed; for imported keys it is the
// secret scalar.
type keystoreFile struct {
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	Kind           string    `json:"kind"`
	Address        string    `json:"address"`
	PublicKey      string    `json:"public_key"`
	DerivationPath string    `json:"derivation_path,omitempty"`
	Encrypted      []byte    `json:"encrypted"`
}

// Keystore stores one encrypted file per key name in a directory.
type Keystore struct {
	path string
}

// NewKeystore opens the keystore at path, creating the directory.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

// Dir returns the keystore directory.
func (ks *Keystore) Dir() string { return ks.path }

func (ks *Keystore) keyPath(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", fmt.Errorf("invalid key name %q", name)
	}
	return filepath.Join(ks.path, name+keyFileExt), nil
}

// Create stores the key derived from mnemonic at path (DefaultPath when
// empty).
func (ks *Keystore) Create(name, mnemonic, passphrase, path string, password []byte, params EncryptionParams) (*Account, error) {
	if path == "" {
		path = DefaultPath
	}
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	kp, err := DeriveKeypair(seed, path)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	return ks.store(name, KindMnemonic, path, kp.PublicKey(), seed, password, params)
}

// Import stores a raw 32-byte secret key.
func (ks *Keystore) Import(name string, secret, password []byte, params EncryptionParams) (*Account, error) {
	kp, err := crypto.KeypairFromSecret(secret)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	return ks.store(name, KindSecret, "", kp.PublicKey(), secret, password, params)
}

func (ks *Keystore) store(name, kind, path string, pub, payload, password []byte, params EncryptionParams) (*Account, error) {
	file, err := ks.keyPath(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(file); err == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrKeyExists)
	}

	ca, err := address.FromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	addr, _ := ca.Rooch()

	encrypted, err := Encrypt(payload, password, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt key: %w", err)
	}

	kf := &keystoreFile{
		Version:        keystoreVersion,
		CreatedAt:      time.Now().UTC(),
		Kind:           kind,
		Address:        addr.String(),
		PublicKey:      hex.EncodeToString(pub),
		DerivationPath: path,
		Encrypted:      encrypted,
	}
	if err := writeKeyFile(file, kf); err != nil {
		return nil, err
	}
	klog.Wallet.Info().Str("name", name).Str("kind", kind).Str("address", kf.Address).Msg("Key stored")
	return kf.account(name)
}

// Load decrypts the named key.
func (ks *Keystore) Load(name string, password []byte) (*crypto.Keypair, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	payload, err := Decrypt(kf.Encrypted, password)
	if err != nil {
		return nil, err
	}
	defer zero(payload)

	var kp *crypto.Keypair
	switch kf.Kind {
	case KindMnemonic:
		kp, err = DeriveKeypair(payload, kf.DerivationPath)
	case KindSecret:
		kp, err = crypto.KeypairFromSecret(payload)
	default:
		return nil, fmt.Errorf("%q: unknown key kind %q", name, kf.Kind)
	}
	if err != nil {
		return nil, err
	}

	if hex.EncodeToString(kp.PublicKey()) != kf.PublicKey {
		kp.Zero()
		return nil, fmt.Errorf("%q: decrypted key does not match stored public key", name)
	}
	return kp, nil
}

// Account returns the metadata of the named key.
func (ks *Keystore) Account(name string) (*Account, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	return kf.account(name)
}

// List returns every stored key sorted by name.
func (ks *Keystore) List() ([]Account, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var accounts []Account
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != keyFileExt {
			continue
		}
		name := e.Name()[:len(e.Name())-len(keyFileExt)]
		acct, err := ks.Account(name)
		if err != nil {
			klog.Wallet.Warn().Err(err).Str("file", e.Name()).Msg("Skipping unreadable key file")
			continue
		}
		accounts = append(accounts, *acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// Delete removes the named key.
func (ks *Keystore) Delete(name string) error {
	file, err := ks.keyPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%q: %w", name, ErrKeyNotFound)
		}
		return fmt.Errorf("delete key: %w", err)
	}
	klog.Wallet.Info().Str("name", name).Msg("Key deleted")
	return nil
}

func (ks *Keystore) read(name string) (*keystoreFile, error) {
	file, err := ks.keyPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", name, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("read key: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key %q: %w", name, err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version: %d", kf.Version)
	}
	return &kf, nil
}

func writeKeyFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	// Never overwrite an existing key.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrKeyExists)
		}
		return fmt.Errorf("write key: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write key: %w", err)
	}
	return f.Close()
}

func (kf *keystoreFile) account(name string) (*Account, error) {
	addr, err := types.ParseAddress(kf.Address)
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", name, err)
	}
	pub, err := hex.DecodeString(kf.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("key %q: public key: %w", name, err)
	}
	return &Account{
		Name:           name,
		Kind:           kf.Kind,
		Address:        addr,
		PublicKey:      pub,
		DerivationPath: kf.DerivationPath,
		CreatedAt:      kf.CreatedAt,
	}, nil
}
