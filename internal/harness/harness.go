// Package harness runs end-to-end scenarios against a Rooch node. Every
// dependency a scenario uses is carried by the Harness value passed to it.
package harness

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/crypto"
	"github.com/rooch-network/rooch-go/pkg/types"
	"github.com/rs/zerolog"
)

// Client is the part of the RPC façade the scenarios use. It is
// satisfied by *rpcclient.Client.
type Client interface {
	GetRPCAPIVersion(ctx context.Context) (string, error)
	CheckCompatibility(ctx context.Context) error
	GetSequenceNumber(ctx context.Context, addr types.Address) (uint64, error)
	GetStates(ctx context.Context, accessPath string, opts rpc.StateOptions) ([]*rpc.ObjectStateView, error)
	ResolveAddress(ctx context.Context, env address.MultiChainAddress) (types.Address, error)
}

// KeyGenerator produces fresh keypairs.
type KeyGenerator interface {
	Generate() (*crypto.Keypair, error)
}

// RandomKeys generates keypairs from Rand, or crypto/rand when nil.
type RandomKeys struct {
	Rand io.Reader
}

// Generate returns a new keypair.
func (g RandomKeys) Generate() (*crypto.Keypair, error) {
	return crypto.GenerateKeypair(g.Rand)
}

// Harness bundles the dependencies of a scenario run.
type Harness struct {
	Client Client
	Keys   KeyGenerator
	Logger zerolog.Logger
}

// Scenario is one named end-to-end check.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, h *Harness) error
}

// Scenarios returns the standard suite in execution order.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "rpc_version", Run: CheckRPCVersion},
		{Name: "baseline_sequence", Run: CheckBaselineSequence},
		{Name: "states", Run: CheckStates},
		{Name: "missing_state", Run: CheckMissingState},
		{Name: "signatures", Run: func(ctx context.Context, h *Harness) error {
			return CheckSignatures(ctx, h, DefaultSignatureRounds)
		}},
		{Name: "address_resolution", Run: func(ctx context.Context, h *Harness) error {
			cases, err := DefaultAddressCases(h)
			if err != nil {
				return err
			}
			return CheckAddressResolution(ctx, h, cases)
		}},
	}
}

// RunAll runs the standard suite.
func RunAll(ctx context.Context, h *Harness) *Report {
	return Run(ctx, h, Scenarios())
}

// Run executes scenarios in order. A failing scenario does not stop the
// run; a canceled context does.
func Run(ctx context.Context, h *Harness, scenarios []Scenario) *Report {
	report := &Report{Started: time.Now()}
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, Result{Name: sc.Name, Err: err})
			continue
		}
		start := time.Now()
		err := runScenario(ctx, h, sc)
		res := Result{Name: sc.Name, Err: err, Elapsed: time.Since(start)}
		report.Results = append(report.Results, res)

		if err != nil {
			h.Logger.Error().Err(err).Str("scenario", sc.Name).Dur("elapsed", res.Elapsed).Msg("Scenario failed")
		} else {
			h.Logger.Info().Str("scenario", sc.Name).Dur("elapsed", res.Elapsed).Msg("Scenario passed")
		}
	}
	report.Finished = time.Now()
	return report
}

func runScenario(ctx context.Context, h *Harness, sc Scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sc.Run(ctx, h)
}
