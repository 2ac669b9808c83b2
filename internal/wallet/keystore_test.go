package wallet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/crypto"
)

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := NewKeystore(filepath.Join(t.TempDir(), "keystore"))
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	return ks
}

func TestKeystore_CreateAndLoad(t *testing.T) {
	ks := testKeystore(t)
	password := []byte("test-password")

	acct, err := ks.Create("main", testMnemonic12, "", "", password, fastParams())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if acct.Kind != KindMnemonic || acct.DerivationPath != DefaultPath {
		t.Errorf("account = %+v", acct)
	}

	want, err := KeypairFromMnemonic(testMnemonic12, "", DefaultPath)
	if err != nil {
		t.Fatal(err)
	}
	kp, err := ks.Load("main", password)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(kp.PublicKey(), want.PublicKey()) {
		t.Error("loaded key does not match mnemonic derivation")
	}

	ca, err := address.FromPublicKey(want.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	wantAddr, _ := ca.Rooch()
	if acct.Address != wantAddr {
		t.Errorf("address = %s, want %s", acct.Address, wantAddr)
	}
}

func TestKeystore_CustomPath(t *testing.T) {
	ks := testKeystore(t)
	path := "m/86'/0'/0'/0/3"
	if _, err := ks.Create("third", testMnemonic12, "", path, []byte("p"), fastParams()); err != nil {
		t.Fatal(err)
	}
	kp, err := ks.Load("third", []byte("p"))
	if err != nil {
		t.Fatal(err)
	}
	want, _ := KeypairFromMnemonic(testMnemonic12, "", path)
	if !bytes.Equal(kp.PublicKey(), want.PublicKey()) {
		t.Error("custom path not honored")
	}
}

func TestKeystore_ImportAndLoad(t *testing.T) {
	ks := testKeystore(t)
	kp, err := crypto.GenerateKeypair(nil)
	if err != nil {
		t.Fatal(err)
	}
	secret := kp.Secret()

	acct, err := ks.Import("imported", secret, []byte("pw"), fastParams())
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if acct.Kind != KindSecret || acct.DerivationPath != "" {
		t.Errorf("account = %+v", acct)
	}
	loaded, err := ks.Load("imported", []byte("pw"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(loaded.Secret(), secret) {
		t.Error("loaded secret differs")
	}

	if _, err := ks.Import("bad", make([]byte, 32), []byte("pw"), fastParams()); err == nil {
		t.Error("zero secret should be rejected")
	}
}

func TestKeystore_Errors(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Create("dup", testMnemonic12, "", "", []byte("p"), fastParams()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate", func() error {
			_, err := ks.Create("dup", testMnemonic24, "", "", []byte("p"), fastParams())
			return err
		}(), ErrKeyExists},
		{"wrong password", func() error {
			_, err := ks.Load("dup", []byte("nope"))
			return err
		}(), ErrDecrypt},
		{"missing load", func() error {
			_, err := ks.Load("ghost", []byte("p"))
			return err
		}(), ErrKeyNotFound},
		{"missing delete", ks.Delete("ghost"), ErrKeyNotFound},
		{"bad mnemonic", func() error {
			_, err := ks.Create("new", "abandon", "", "", []byte("p"), fastParams())
			return err
		}(), ErrInvalidMnemonic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("err = %v, want %v", tt.err, tt.want)
			}
		})
	}

	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := ks.Create(name, testMnemonic12, "", "", []byte("p"), fastParams()); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
}

func TestKeystore_ListAndDelete(t *testing.T) {
	ks := testKeystore(t)
	for _, name := range []string{"zeta", "alpha"} {
		if _, err := ks.Create(name, testMnemonic12, "", "", []byte("p"), fastParams()); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated and unreadable files are skipped.
	os.WriteFile(filepath.Join(ks.Dir(), "notes.txt"), []byte("x"), 0600)
	os.WriteFile(filepath.Join(ks.Dir(), "broken.key"), []byte("{"), 0600)

	accounts, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	var names []string
	for _, a := range accounts {
		names = append(names, a.Name)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	info, err := ks.Account("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(accounts[0], *info, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("Account() differs from List() (-list +account):\n%s", diff)
	}

	if err := ks.Delete("alpha"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	accounts, _ = ks.List()
	if len(accounts) != 1 || accounts[0].Name != "zeta" {
		t.Errorf("after delete: %+v", accounts)
	}
}

func TestKeystore_FilePermissions(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Create("perm", testMnemonic12, "", "", []byte("p"), fastParams()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(ks.Dir(), "perm.key"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 600", perm)
	}
}

func TestAccount_BitcoinAddress(t *testing.T) {
	ks := testKeystore(t)
	acct, err := ks.Create("btc", testMnemonic12, "", "", []byte("p"), fastParams())
	if err != nil {
		t.Fatal(err)
	}
	btc, err := acct.BitcoinAddress(address.BitcoinMainnet)
	if err != nil {
		t.Fatal(err)
	}
	if got := btc.String(); got != "bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr" {
		t.Errorf("bitcoin address = %s", got)
	}
}
