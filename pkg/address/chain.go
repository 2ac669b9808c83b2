// Package address derives and parses account addresses on the chains Rooch
// maps into its own address space, and builds the MultiChainAddress value
// the on-chain resolver consumes.
package address

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// ChainID is a multi-chain identifier, derived from SLIP-44 coin types.
type ChainID uint64

const (
	ChainBitcoin ChainID = 0
	ChainEther   ChainID = 60
	ChainNostr   ChainID = 1237
	ChainRooch   ChainID = 20230101
)

func (c ChainID) String() string {
	switch c {
	case ChainBitcoin:
		return "bitcoin"
	case ChainEther:
		return "ether"
	case ChainNostr:
		return "nostr"
	case ChainRooch:
		return "rooch"
	default:
		return fmt.Sprintf("chain(%d)", uint64(c))
	}
}

// ParseChainID accepts a chain name or its numeric id.
func ParseChainID(s string) (ChainID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bitcoin", "btc":
		return ChainBitcoin, nil
	case "ether", "eth", "ethereum":
		return ChainEther, nil
	case "nostr":
		return ChainNostr, nil
	case "rooch":
		return ChainRooch, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown chain %q", s)
	}
	switch c := ChainID(n); c {
	case ChainBitcoin, ChainEther, ChainNostr, ChainRooch:
		return c, nil
	}
	return 0, fmt.Errorf("unknown chain id %d", n)
}

// BitcoinNetwork selects the Bitcoin network an address is rendered for.
// Values match the chain's own network numbering.
type BitcoinNetwork uint8

const (
	BitcoinMainnet BitcoinNetwork = 1
	BitcoinTestnet BitcoinNetwork = 2
	BitcoinSignet  BitcoinNetwork = 3
	BitcoinRegtest BitcoinNetwork = 4
)

func (n BitcoinNetwork) String() string {
	switch n {
	case BitcoinMainnet:
		return "mainnet"
	case BitcoinTestnet:
		return "testnet"
	case BitcoinSignet:
		return "signet"
	case BitcoinRegtest:
		return "regtest"
	default:
		return fmt.Sprintf("network(%d)", uint8(n))
	}
}

// Params returns the btcd parameters for n, or nil for an unknown network.
func (n BitcoinNetwork) Params() *chaincfg.Params {
	switch n {
	case BitcoinMainnet:
		return &chaincfg.MainNetParams
	case BitcoinTestnet:
		return &chaincfg.TestNet3Params
	case BitcoinSignet:
		return &chaincfg.SigNetParams
	case BitcoinRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return nil
	}
}

// ParseBitcoinNetwork accepts "mainnet" (or "bitcoin"), "testnet",
// "signet" and "regtest".
func ParseBitcoinNetwork(s string) (BitcoinNetwork, error) {
	switch strings.ToLower(s) {
	case "mainnet", "bitcoin", "main":
		return BitcoinMainnet, nil
	case "testnet", "testnet3", "test":
		return BitcoinTestnet, nil
	case "signet":
		return BitcoinSignet, nil
	case "regtest":
		return BitcoinRegtest, nil
	}
	return 0, fmt.Errorf("unknown bitcoin network %q", s)
}

// parseOrder is the order networks are tried when parsing text. Testnet
// and signet share every prefix, so signet is never inferred from text.
var parseOrder = []BitcoinNetwork{BitcoinMainnet, BitcoinTestnet, BitcoinRegtest}

// BitcoinAddressType is the leading byte of a Bitcoin address in its
// on-chain byte form.
type BitcoinAddressType uint8

const (
	BitcoinP2PKH   BitcoinAddressType = 0
	BitcoinP2SH    BitcoinAddressType = 1
	BitcoinWitness BitcoinAddressType = 2
)

func (t BitcoinAddressType) String() string {
	switch t {
	case BitcoinP2PKH:
		return "p2pkh"
	case BitcoinP2SH:
		return "p2sh"
	case BitcoinWitness:
		return "witness"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}
