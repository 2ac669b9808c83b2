package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rooch-network/rooch-go/internal/wallet"
	"github.com/rooch-network/rooch-go/pkg/crypto"
	"github.com/urfave/cli/v2"
)

var nameFlag = &cli.StringFlag{Name: "name", Usage: "Key name", Required: true}

func keysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Manage encrypted keys",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Generate a mnemonic and store its derived key",
				Flags: []cli.Flag{
					nameFlag,
					&cli.IntFlag{Name: "words", Value: 12, Usage: "Mnemonic length (12 or 24)"},
					&cli.StringFlag{Name: "mnemonic", Usage: "Recover from an existing mnemonic instead"},
				},
				Action: keysNew,
			},
			{
				Name:   "import",
				Usage:  "Import a raw 32-byte secret key (hex)",
				Flags:  []cli.Flag{nameFlag, &cli.StringFlag{Name: "secret", Required: true}},
				Action: keysImport,
			},
			{Name: "list", Usage: "List stored keys", Action: keysList},
			{Name: "show", Usage: "Show a key's addresses", Flags: []cli.Flag{nameFlag}, Action: keysShow},
			{
				Name:  "sign",
				Usage: "Sign the digest of a message",
				Flags: []cli.Flag{
					nameFlag,
					&cli.StringFlag{Name: "message", Required: true},
					&cli.StringFlag{Name: "hash", Value: string(crypto.Blake2b256), Usage: "Digest: sha256, blake2b256 or blake3"},
				},
				Action: keysSign,
			},
			{Name: "delete", Usage: "Delete a key file", Flags: []cli.Flag{nameFlag}, Action: keysDelete},
		},
	}
}

func keystore(c *cli.Context) (*wallet.Keystore, error) {
	return wallet.NewKeystore(envFrom(c).cfg.KeystoreDir())
}

func keysNew(c *cli.Context) error {
	e := envFrom(c)
	ks, err := keystore(c)
	if err != nil {
		return err
	}

	mnemonic := c.String("mnemonic")
	if mnemonic == "" {
		mnemonic, err = wallet.GenerateMnemonic(c.Int("words"))
		if err != nil {
			return err
		}
		fmt.Println("Mnemonic (write this down!):")
		fmt.Printf("  %s\n\n", mnemonic)
	}

	password, err := readNewPassword()
	if err != nil {
		return err
	}
	acct, err := ks.Create(c.String("name"), mnemonic, "", e.cfg.Keystore.DerivationPath, password, wallet.DefaultParams())
	if err != nil {
		return err
	}
	return printAccount(acct, e)
}

func keysImport(c *cli.Context) error {
	ks, err := keystore(c)
	if err != nil {
		return err
	}
	secret, err := hex.DecodeString(strings.TrimPrefix(c.String("secret"), "0x"))
	if err != nil {
		return fmt.Errorf("invalid secret hex: %w", err)
	}
	password, err := readNewPassword()
	if err != nil {
		return err
	}
	acct, err := ks.Import(c.String("name"), secret, password, wallet.DefaultParams())
	if err != nil {
		return err
	}
	return printAccount(acct, envFrom(c))
}

func keysList(c *cli.Context) error {
	ks, err := keystore(c)
	if err != nil {
		return err
	}
	accounts, err := ks.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No keys found.")
		return nil
	}
	for _, a := range accounts {
		fmt.Printf("%-16s %-8s %s\n", a.Name, a.Kind, a.Address)
	}
	return nil
}

func keysShow(c *cli.Context) error {
	ks, err := keystore(c)
	if err != nil {
		return err
	}
	acct, err := ks.Account(c.String("name"))
	if err != nil {
		return err
	}
	return printAccount(acct, envFrom(c))
}

func keysSign(c *cli.Context) error {
	alg, err := crypto.ParseAlgorithm(c.String("hash"))
	if err != nil {
		return err
	}
	ks, err := keystore(c)
	if err != nil {
		return err
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		return err
	}
	kp, err := ks.Load(c.String("name"), password)
	if err != nil {
		return err
	}
	defer kp.Zero()

	digest, err := crypto.Digest(alg, []byte(c.String("message")))
	if err != nil {
		return err
	}
	sig, err := kp.Sign(digest[:])
	if err != nil {
		return err
	}
	fmt.Printf("Digest:    0x%s\n", digest)
	fmt.Printf("Signature: 0x%x\n", sig)
	return nil
}

func keysDelete(c *cli.Context) error {
	ks, err := keystore(c)
	if err != nil {
		return err
	}
	if err := ks.Delete(c.String("name")); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", c.String("name"))
	return nil
}

func printAccount(acct *wallet.Account, e *env) error {
	btc, err := acct.BitcoinAddress(e.btcNet)
	if err != nil {
		return err
	}
	fmt.Printf("Name:       %s\n", acct.Name)
	fmt.Printf("Kind:       %s\n", acct.Kind)
	fmt.Printf("Address:    %s\n", acct.Address)
	fmt.Printf("Bitcoin:    %s\n", btc)
	fmt.Printf("Public key: 0x%x\n", acct.PublicKey)
	if acct.DerivationPath != "" {
		fmt.Printf("Path:       %s\n", acct.DerivationPath)
	}
	return nil
}
