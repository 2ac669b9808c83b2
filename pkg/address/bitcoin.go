package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

// BitcoinFromPublicKey returns the key-path-only taproot (P2TR) address
// of a compressed public key, as defined by BIP-86.
func BitcoinFromPublicKey(pub []byte, network BitcoinNetwork) (ChainAddress, error) {
	params := network.Params()
	if params == nil {
		return ChainAddress{}, fmt.Errorf("unknown bitcoin network %d", network)
	}
	if len(pub) != 33 {
		return ChainAddress{}, fmt.Errorf("public key must be 33 bytes, got %d", len(pub))
	}
	key, err := btcec.ParsePubKey(pub)
	if err != nil {
		return ChainAddress{}, fmt.Errorf("parse public key: %w", err)
	}
	output := txscript.ComputeTaprootKeyNoScript(key)
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(output), params)
	if err != nil {
		return ChainAddress{}, fmt.Errorf("taproot address: %w", err)
	}
	return fromBTCUtil(addr, network)
}

// ParseBitcoinAddress parses a base58check (P2PKH, P2SH) or bech32/bech32m
// segwit (v0, v1) address on mainnet, testnet or regtest. Signet shares
// testnet's prefixes and parses as testnet.
func ParseBitcoinAddress(text string) (ChainAddress, error) {
	if text == "" {
		return ChainAddress{}, formatErr(ChainBitcoin, text, "empty address")
	}
	var firstErr error
	for _, network := range parseOrder {
		params := network.Params()
		addr, err := btcutil.DecodeAddress(text, params)
		if err != nil {
			if firstErr == nil || errors.Is(err, btcutil.ErrChecksumMismatch) {
				firstErr = err
			}
			continue
		}
		if !addr.IsForNet(params) {
			continue
		}
		ca, err := fromBTCUtil(addr, network)
		if err != nil {
			return ChainAddress{}, &AddressFormatError{Chain: ChainBitcoin, Input: text, Err: err}
		}
		return ca, nil
	}
	if firstErr == nil {
		firstErr = errors.New("unknown network prefix")
	}
	return ChainAddress{}, &AddressFormatError{Chain: ChainBitcoin, Input: text, Err: firstErr}
}

// BitcoinFromBytes rebuilds a Bitcoin address from its raw form:
// type byte, witness version for witness addresses, then the payload.
func BitcoinFromBytes(raw []byte, network BitcoinNetwork) (ChainAddress, error) {
	params := network.Params()
	if params == nil {
		return ChainAddress{}, fmt.Errorf("unknown bitcoin network %d", network)
	}
	input := fmt.Sprintf("%x", raw)
	if len(raw) < 1 {
		return ChainAddress{}, formatErr(ChainBitcoin, input, "empty address bytes")
	}

	var (
		addr btcutil.Address
		err  error
	)
	switch BitcoinAddressType(raw[0]) {
	case BitcoinP2PKH:
		addr, err = btcutil.NewAddressPubKeyHash(raw[1:], params)
	case BitcoinP2SH:
		addr, err = btcutil.NewAddressScriptHashFromHash(raw[1:], params)
	case BitcoinWitness:
		if len(raw) < 2 {
			return ChainAddress{}, formatErr(ChainBitcoin, input, "missing witness version")
		}
		prog := raw[2:]
		switch version := raw[1]; {
		case version == 0 && len(prog) == 20:
			addr, err = btcutil.NewAddressWitnessPubKeyHash(prog, params)
		case version == 0 && len(prog) == 32:
			addr, err = btcutil.NewAddressWitnessScriptHash(prog, params)
		case version == 1 && len(prog) == 32:
			addr, err = btcutil.NewAddressTaproot(prog, params)
		default:
			err = fmt.Errorf("unsupported witness v%d program of %d bytes", version, len(prog))
		}
	default:
		err = fmt.Errorf("unknown address type %d", raw[0])
	}
	if err != nil {
		return ChainAddress{}, &AddressFormatError{Chain: ChainBitcoin, Input: input, Err: err}
	}
	return fromBTCUtil(addr, network)
}

// fromBTCUtil converts a decoded btcutil address to its raw form.
func fromBTCUtil(addr btcutil.Address, network BitcoinNetwork) (ChainAddress, error) {
	var raw []byte
	switch a := addr.(type) {
	case *btcutil.AddressPubKeyHash:
		raw = append([]byte{byte(BitcoinP2PKH)}, a.Hash160()[:]...)
	case *btcutil.AddressScriptHash:
		raw = append([]byte{byte(BitcoinP2SH)}, a.Hash160()[:]...)
	case *btcutil.AddressWitnessPubKeyHash:
		raw = witnessBytes(a.WitnessVersion(), a.WitnessProgram())
	case *btcutil.AddressWitnessScriptHash:
		raw = witnessBytes(a.WitnessVersion(), a.WitnessProgram())
	case *btcutil.AddressTaproot:
		raw = witnessBytes(a.WitnessVersion(), a.WitnessProgram())
	default:
		return ChainAddress{}, fmt.Errorf("unsupported address kind %T", addr)
	}
	return ChainAddress{
		chain:   ChainBitcoin,
		network: network,
		raw:     raw,
		text:    addr.EncodeAddress(),
	}, nil
}

func witnessBytes(version byte, program []byte) []byte {
	out := make([]byte, 0, 2+len(program))
	out = append(out, byte(BitcoinWitness), version)
	return append(out, program...)
}
