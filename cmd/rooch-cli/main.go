// rooch-cli is a command-line client for a Rooch node.
//
// Usage:
//
//	rooch-cli [global flags] <command> [flags]
//	rooch-cli keys new --name main
//	rooch-cli address resolve --chain bitcoin <addr>
//	rooch-cli state /object/0x3
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"github.com/rooch-network/rooch-go/config"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rooch-network/rooch-go/internal/rpcclient"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func main() {
	app := &cli.App{
		Name:   "rooch-cli",
		Usage:  "Rooch client: keys, addresses and node queries",
		Flags:  config.ClientFlags(),
		Before: setup,
		Commands: []*cli.Command{
			keysCommand(),
			addressCommand(),
			stateCommand(),
			viewCommand(),
			rpcCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the per-invocation state shared by every command.
type env struct {
	cfg    *config.Config
	btcNet address.BitcoinNetwork
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c)
	if err != nil {
		return err
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return err
	}
	net, err := address.ParseBitcoinNetwork(cfg.Bitcoin.Network)
	if err != nil {
		return err
	}
	c.App.Metadata = map[string]interface{}{"env": &env{cfg: cfg, btcNet: net}}
	return nil
}

func envFrom(c *cli.Context) *env {
	return c.App.Metadata["env"].(*env)
}

// client builds an RPC client and verifies the node speaks our API version.
func (e *env) client(ctx context.Context) (*rpcclient.Client, error) {
	client := rpcclient.NewFromConfig(e.cfg.RPC)
	if err := client.CheckCompatibility(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func readNewPassword() ([]byte, error) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(password) != string(confirm) {
		return nil, fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
