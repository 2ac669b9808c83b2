package harness

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/crypto"
	"github.com/rooch-network/rooch-go/pkg/types"
)

// Fixed inputs of the standard suite.
const (
	FixtureBitcoinAddress = "tb1q3245npm404htfzvulx6v4w65maqzu6atpxyzja"
	PresentObjectPath     = "/object/0x3"
	MissingObjectPath     = "/object/0x100"

	DefaultSignatureRounds = 100
)

var allViews = rpc.StateOptions{Decode: true, ShowDisplay: true}

// CheckRPCVersion fails unless the node speaks exactly the targeted version.
func CheckRPCVersion(ctx context.Context, h *Harness) error {
	if err := h.Client.CheckCompatibility(ctx); err != nil {
		return err
	}
	v, err := h.Client.GetRPCAPIVersion(ctx)
	if err != nil {
		return err
	}
	h.Logger.Debug().Str("version", v).Msg("Node version")
	return nil
}

// CheckBaselineSequence checks that a fresh account reports sequence 0.
func CheckBaselineSequence(ctx context.Context, h *Harness) error {
	kp, err := h.Keys.Generate()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	defer kp.Zero()

	ca, err := address.FromPublicKey(kp.PublicKey())
	if err != nil {
		return err
	}
	addr, _ := ca.Rooch()
	seq, err := h.Client.GetSequenceNumber(ctx, addr)
	if err != nil {
		return err
	}
	if seq != 0 {
		return fmt.Errorf("fresh account %s has sequence number %d", addr, seq)
	}
	return nil
}

// CheckStates checks that a genesis object is returned.
func CheckStates(ctx context.Context, h *Harness) error {
	states, err := h.Client.GetStates(ctx, PresentObjectPath, allViews)
	if err != nil {
		return err
	}
	if len(states) == 0 || states[0] == nil {
		return fmt.Errorf("%s: no state returned", PresentObjectPath)
	}
	h.Logger.Debug().Str("path", PresentObjectPath).Str("type", states[0].ObjectType).Msg("State found")
	return nil
}

// CheckMissingState checks that an unknown object yields no states.
func CheckMissingState(ctx context.Context, h *Harness) error {
	states, err := h.Client.GetStates(ctx, MissingObjectPath, allViews)
	if err != nil {
		return err
	}
	if len(states) != 0 {
		return fmt.Errorf("%s: got %d states, want 0", MissingObjectPath, len(states))
	}
	return nil
}

// CheckSignatures signs random digests with fresh keys and checks that
// each signature verifies and that a single flipped bit breaks it.
func CheckSignatures(ctx context.Context, h *Harness, rounds int) error {
	digest := make([]byte, crypto.DigestSize)
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		kp, err := h.Keys.Generate()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		if _, err := rand.Read(digest); err != nil {
			kp.Zero()
			return err
		}
		sig, err := kp.Sign(digest)
		pub := kp.PublicKey()
		kp.Zero()
		if err != nil {
			return fmt.Errorf("round %d: sign: %w", i, err)
		}
		if !crypto.Verify(pub, digest, sig) {
			return fmt.Errorf("round %d: valid signature rejected", i)
		}

		bit := i % (crypto.DigestSize * 8)
		digest[bit/8] ^= 1 << (bit % 8)
		if crypto.Verify(pub, digest, sig) {
			return fmt.Errorf("round %d: signature accepted for altered digest", i)
		}
		digest[bit/8] ^= 1 << (bit % 8)

		bit = i % (crypto.SignatureSize * 8)
		sig[bit/8] ^= 1 << (bit % 8)
		if crypto.Verify(pub, digest, sig) {
			return fmt.Errorf("round %d: altered signature accepted", i)
		}
	}
	return nil
}

// AddressCase is one resolution check. A zero Want means the locally
// expected Rooch address of Address.
type AddressCase struct {
	Name    string
	Address address.ChainAddress
	Want    types.Address
}

// DefaultAddressCases returns the fixture Bitcoin address plus the
// Bitcoin and Rooch addresses of a freshly generated key.
func DefaultAddressCases(h *Harness) ([]AddressCase, error) {
	fixture, err := address.ParseForeignAddress(address.ChainBitcoin, FixtureBitcoinAddress)
	if err != nil {
		return nil, err
	}

	kp, err := h.Keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	defer kp.Zero()

	btc, err := address.BitcoinFromPublicKey(kp.PublicKey(), address.BitcoinMainnet)
	if err != nil {
		return nil, err
	}
	native, err := address.FromPublicKey(kp.PublicKey())
	if err != nil {
		return nil, err
	}
	derived, _ := native.Rooch()

	return []AddressCase{
		{Name: "fixture", Address: fixture},
		{Name: "fresh_bitcoin", Address: btc, Want: derived},
		{Name: "fresh_rooch", Address: native, Want: derived},
	}, nil
}

// CheckAddressResolution compares the chain's resolver with local
// derivation for every case.
func CheckAddressResolution(ctx context.Context, h *Harness, cases []AddressCase) error {
	for _, c := range cases {
		want := c.Want
		if want.IsZero() {
			var err error
			if want, err = address.ExpectedRoochAddress(c.Address); err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
		}
		got, err := h.Client.ResolveAddress(ctx, address.ToMultiChainEnvelope(c.Address))
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		if got != want {
			return fmt.Errorf("%s: resolver returned %s, derived %s", c.Name, got, want)
		}
		h.Logger.Debug().Str("case", c.Name).Str("address", c.Address.String()).Str("rooch", got.String()).Msg("Address resolved")
	}
	return nil
}
