package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rooch-network/rooch-go/internal/resolvecache"
	"github.com/rooch-network/rooch-go/internal/storage"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/urfave/cli/v2"
)

var chainFlag = &cli.StringFlag{Name: "chain", Value: "bitcoin", Usage: "Address chain (bitcoin, ether, nostr, rooch or a numeric id)"}

func addressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Derive, parse and resolve addresses",
		Subcommands: []*cli.Command{
			{
				Name:      "derive",
				Usage:     "Derive every address of a secp256k1 public key",
				ArgsUsage: "<pubkey-hex>",
				Action:    addressDerive,
			},
			{
				Name:      "parse",
				Usage:     "Parse a foreign address and show its envelope",
				ArgsUsage: "<address>",
				Flags:     []cli.Flag{chainFlag},
				Action:    addressParse,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a foreign address to its Rooch address on the node",
				ArgsUsage: "<address>",
				Flags:     []cli.Flag{chainFlag},
				Action:    addressResolve,
			},
		},
	}
}

func addressDerive(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: rooch-cli address derive <pubkey-hex>")
	}
	pub, err := hex.DecodeString(strings.TrimPrefix(c.Args().First(), "0x"))
	if err != nil {
		return fmt.Errorf("invalid public key hex: %w", err)
	}
	rooch, err := address.FromPublicKey(pub)
	if err != nil {
		return err
	}
	btc, err := address.BitcoinFromPublicKey(pub, envFrom(c).btcNet)
	if err != nil {
		return err
	}
	eth, err := address.EthereumFromPublicKey(pub)
	if err != nil {
		return err
	}
	fmt.Printf("Rooch:    %s\n", rooch)
	fmt.Printf("Bitcoin:  %s\n", btc)
	fmt.Printf("Ethereum: %s\n", eth)
	return nil
}

func parseArg(c *cli.Context) (address.ChainAddress, error) {
	if c.NArg() != 1 {
		return address.ChainAddress{}, fmt.Errorf("usage: rooch-cli address %s --chain <chain> <address>", c.Command.Name)
	}
	chain, err := address.ParseChainID(c.String("chain"))
	if err != nil {
		return address.ChainAddress{}, err
	}
	return address.ParseForeignAddress(chain, c.Args().First())
}

func addressParse(c *cli.Context) error {
	ca, err := parseArg(c)
	if err != nil {
		return err
	}
	env := address.ToMultiChainEnvelope(ca)
	enc, err := env.Encode()
	if err != nil {
		return err
	}
	fmt.Printf("Chain:    %s (%d)\n", ca.Chain(), uint64(ca.Chain()))
	fmt.Printf("Address:  %s\n", ca)
	fmt.Printf("Raw:      0x%x\n", ca.Bytes())
	fmt.Printf("Envelope: 0x%x\n", enc)

	rooch, err := address.ExpectedRoochAddress(ca)
	switch {
	case errors.Is(err, address.ErrNotNative):
		fmt.Println("Rooch:    (resolved by the node's address mapping)")
	case err != nil:
		return err
	default:
		fmt.Printf("Rooch:    %s\n", rooch)
	}
	return nil
}

func addressResolve(c *cli.Context) error {
	e := envFrom(c)
	ca, err := parseArg(c)
	if err != nil {
		return err
	}
	client, err := e.client(c.Context)
	if err != nil {
		return err
	}

	var db storage.DB
	if e.cfg.Cache.Persist {
		bdb, err := storage.NewBadger(e.cfg.CacheDir())
		if err != nil {
			return fmt.Errorf("open resolve cache: %w", err)
		}
		defer bdb.Close()
		db = bdb
	}
	resolver, err := resolvecache.New(client, e.cfg.Cache.Size, db)
	if err != nil {
		return err
	}

	addr, err := resolver.Resolve(c.Context, address.ToMultiChainEnvelope(ca))
	if err != nil {
		return err
	}
	fmt.Println(addr)
	return nil
}
