package harness

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rooch-network/rooch-go/internal/localnode"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/internal/rpcclient"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/types"
	"github.com/rs/zerolog"
)

func newHarness(t *testing.T, version string) (*Harness, *localnode.Node) {
	t.Helper()
	klog.Init("error", false, "")

	node, err := localnode.NewTestNode(version)
	if err != nil {
		t.Fatalf("start node: %v", err)
	}
	t.Cleanup(func() { node.Stop() })

	return &Harness{
		Client: rpcclient.New(node.URL()),
		Keys:   RandomKeys{},
		Logger: zerolog.Nop(),
	}, node
}

func TestRunAll_LocalNode(t *testing.T) {
	h, _ := newHarness(t, "")
	report := RunAll(context.Background(), h)

	if !report.OK() {
		var buf bytes.Buffer
		report.Write(&buf)
		t.Fatalf("suite failed:\n%s", buf.String())
	}
	if len(report.Results) != len(Scenarios()) {
		t.Errorf("results = %d, want %d", len(report.Results), len(Scenarios()))
	}
}

func TestCheckRPCVersion_Mismatch(t *testing.T) {
	h, _ := newHarness(t, "0.0.1")
	err := CheckRPCVersion(context.Background(), h)
	if _, ok := rpcclient.IsCompatibilityError(err); !ok {
		t.Fatalf("expected CompatibilityError, got %v", err)
	}
}

func TestCheckAddressResolution_ForeignBinding(t *testing.T) {
	h, node := newHarness(t, "")
	eth, err := address.ParseForeignAddress(address.ChainEther, "0x52908400098527886E0F7030069857D2E4169EE7")
	if err != nil {
		t.Fatal(err)
	}
	bound := types.MustParseAddress("0xbeef")
	enc, _ := address.ToMultiChainEnvelope(eth).Encode()
	if err := node.Backend().BindAddress(enc, bound); err != nil {
		t.Fatal(err)
	}

	ok := []AddressCase{{Name: "ether", Address: eth, Want: bound}}
	if err := CheckAddressResolution(context.Background(), h, ok); err != nil {
		t.Errorf("bound address: %v", err)
	}

	noWant := []AddressCase{{Name: "ether", Address: eth}}
	if err := CheckAddressResolution(context.Background(), h, noWant); !errors.Is(err, address.ErrNotNative) {
		t.Errorf("err = %v, want ErrNotNative", err)
	}
}

// fakeClient answers every call with fixed values.
type fakeClient struct {
	version  string
	sequence uint64
	states   []*rpc.ObjectStateView
	resolved types.Address
}

func (f *fakeClient) GetRPCAPIVersion(context.Context) (string, error) { return f.version, nil }

func (f *fakeClient) CheckCompatibility(context.Context) error {
	if f.version != rpcclient.TargetedRPCVersion {
		return &rpcclient.CompatibilityError{Local: rpcclient.TargetedRPCVersion, Remote: f.version}
	}
	return nil
}

func (f *fakeClient) GetSequenceNumber(context.Context, types.Address) (uint64, error) {
	return f.sequence, nil
}

func (f *fakeClient) GetStates(context.Context, string, rpc.StateOptions) ([]*rpc.ObjectStateView, error) {
	return f.states, nil
}

func (f *fakeClient) ResolveAddress(context.Context, address.MultiChainAddress) (types.Address, error) {
	return f.resolved, nil
}

func TestScenarios_DetectBadNode(t *testing.T) {
	h := &Harness{
		Client: &fakeClient{
			version:  rpcclient.TargetedRPCVersion,
			sequence: 3,
			states:   []*rpc.ObjectStateView{{ObjectType: "x"}},
			resolved: types.MustParseAddress("0x1"),
		},
		Keys:   RandomKeys{},
		Logger: zerolog.Nop(),
	}
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(context.Context, *Harness) error
		fail bool
	}{
		{"version", CheckRPCVersion, false},
		{"sequence", CheckBaselineSequence, true},
		{"states", CheckStates, false},
		{"missing", CheckMissingState, true},
		{"resolution", func(ctx context.Context, h *Harness) error {
			cases, err := DefaultAddressCases(h)
			if err != nil {
				return err
			}
			return CheckAddressResolution(ctx, h, cases)
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(ctx, h)
			if (err != nil) != tt.fail {
				t.Errorf("err = %v, want failure %v", err, tt.fail)
			}
		})
	}
}

func TestCheckSignatures(t *testing.T) {
	h := &Harness{Keys: RandomKeys{}, Logger: zerolog.Nop()}
	if err := CheckSignatures(context.Background(), h, DefaultSignatureRounds); err != nil {
		t.Fatalf("CheckSignatures: %v", err)
	}
}

func TestRun_RecoversAndContinues(t *testing.T) {
	h := &Harness{Logger: zerolog.Nop()}
	scenarios := []Scenario{
		{Name: "boom", Run: func(context.Context, *Harness) error { panic("nil client") }},
		{Name: "ok", Run: func(context.Context, *Harness) error { return nil }},
	}
	report := Run(context.Background(), h, scenarios)
	if report.OK() {
		t.Fatal("expected failure")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Name != "boom" {
		t.Errorf("failed = %+v", failed)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "FAIL  boom") || !strings.Contains(out, "1/2 passed") {
		t.Errorf("report output:\n%s", out)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	h := &Harness{Logger: zerolog.Nop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	report := Run(ctx, h, []Scenario{{Name: "skipped", Run: func(context.Context, *Harness) error {
		called = true
		return nil
	}}})
	if called {
		t.Error("scenario ran after cancellation")
	}
	if report.OK() || !errors.Is(report.Results[0].Err, context.Canceled) {
		t.Errorf("result = %+v", report.Results[0])
	}
}
