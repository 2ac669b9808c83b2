// Command rooch-e2e runs the end-to-end suite against a Rooch node.
//
// Usage: go run ./cmd/rooch-e2e/ [--external --rpc-url=<url>]
//
// Without --external it boots an in-process local node on a random port,
// points the client at it and shuts it down afterwards. Exits non-zero
// when any scenario fails. Ctrl+C for early shutdown.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rooch-network/rooch-go/config"
	"github.com/rooch-network/rooch-go/internal/harness"
	"github.com/rooch-network/rooch-go/internal/localnode"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/internal/rpcclient"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "rooch-e2e",
		Usage: "end-to-end checks against a Rooch node",
		Flags: append(config.ClientFlags(),
			&cli.BoolFlag{Name: "external", Usage: "Use the node at --rpc-url instead of booting a local one"},
			&cli.StringSliceFlag{Name: "scenario", Usage: "Run only these scenarios (repeatable)"},
		),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c)
	if err != nil {
		return err
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return err
	}
	logger := klog.WithComponent("e2e")

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	endpoint := cfg.RPC.URL
	if !c.Bool("external") {
		node, err := localnode.NewTestNode("")
		if err != nil {
			return fmt.Errorf("boot local node: %w", err)
		}
		defer node.Stop()
		endpoint = node.URL()
		logger.Info().Str("url", endpoint).Msg("Local node started")
	}

	rpcCfg := cfg.RPC
	rpcCfg.URL = endpoint
	h := &harness.Harness{
		Client: rpcclient.NewFromConfig(rpcCfg),
		Keys:   harness.RandomKeys{},
		Logger: klog.Harness,
	}

	scenarios, err := selectScenarios(c.StringSlice("scenario"))
	if err != nil {
		return err
	}
	logger.Info().Str("url", endpoint).Int("scenarios", len(scenarios)).Msg("Running suite")

	report := harness.Run(ctx, h, scenarios)
	if err := report.Write(os.Stdout); err != nil {
		return err
	}
	if !report.OK() {
		return cli.Exit(fmt.Sprintf("%d scenario(s) failed", len(report.Failed())), 1)
	}
	return nil
}

func selectScenarios(names []string) ([]harness.Scenario, error) {
	all := harness.Scenarios()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]harness.Scenario, len(all))
	for _, sc := range all {
		byName[sc.Name] = sc
	}
	out := make([]harness.Scenario, 0, len(names))
	for _, n := range names {
		sc, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", n)
		}
		out = append(out, sc)
	}
	return out, nil
}
