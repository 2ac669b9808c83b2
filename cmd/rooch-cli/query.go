package main

import (
	"fmt"
	"strings"

	"github.com/rooch-network/rooch-go/internal/rpcclient"
	"github.com/rooch-network/rooch-go/pkg/bcs"
	"github.com/rooch-network/rooch-go/pkg/types"
	"github.com/urfave/cli/v2"
)

func stateCommand() *cli.Command {
	return &cli.Command{
		Name:      "state",
		Usage:     "Show the states under an access path",
		ArgsUsage: "<access-path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "decode", Value: true, Usage: "Include decoded values"},
			&cli.BoolFlag{Name: "display", Usage: "Include display fields"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: rooch-cli state <access-path>")
			}
			client, err := envFrom(c).client(c.Context)
			if err != nil {
				return err
			}
			states, err := client.GetStates(c.Context, c.Args().First(), rpcclient.StateOptions{
				Decode:      c.Bool("decode"),
				ShowDisplay: c.Bool("display"),
			})
			if err != nil {
				return err
			}
			return printJSON(states)
		},
	}
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "Execute a view function",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "function", Required: true, Usage: "Function id, e.g. 0x2::account::sequence_number"},
			&cli.StringSliceFlag{Name: "type-arg", Usage: "Type argument (repeatable)"},
			&cli.StringSliceFlag{Name: "arg", Usage: "Argument as <type>:<value>, e.g. u64:5 or address:0x1 (repeatable)"},
			&cli.StringSliceFlag{Name: "returns", Usage: "Decode return values as these types (repeatable)"},
		},
		Action: viewAction,
	}
}

func viewAction(c *cli.Context) error {
	var args []bcs.Value
	for _, raw := range c.StringSlice("arg") {
		v, err := parseTypedArg(raw)
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	var returns []bcs.Type
	for _, raw := range c.StringSlice("returns") {
		t, err := bcs.ParseType(raw)
		if err != nil {
			return err
		}
		returns = append(returns, t)
	}

	client, err := envFrom(c).client(c.Context)
	if err != nil {
		return err
	}
	res, err := client.ExecuteViewFunction(c.Context, rpcclient.FunctionCall{
		Target:   c.String("function"),
		TypeArgs: c.StringSlice("type-arg"),
		Args:     args,
	})
	if err != nil {
		return err
	}
	if len(returns) == 0 {
		return printJSON(res.ReturnValues)
	}
	for i, t := range returns {
		v, err := res.Decode(i, t)
		if err != nil {
			return err
		}
		fmt.Println(v)
	}
	return nil
}

// parseTypedArg splits "<type>:<value>" at the last colon so struct
// and module types keep their "::" separators.
func parseTypedArg(s string) (bcs.Value, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || strings.HasSuffix(s[:i], ":") {
		return bcs.Value{}, fmt.Errorf("argument %q: want <type>:<value>", s)
	}
	t, err := bcs.ParseType(s[:i])
	if err != nil {
		return bcs.Value{}, fmt.Errorf("argument %q: %w", s, err)
	}
	return bcs.ParseValue(t, s[i+1:])
}

func rpcCommand() *cli.Command {
	return &cli.Command{
		Name:  "rpc",
		Usage: "Query node information",
		Subcommands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Show the node API version",
				Action: func(c *cli.Context) error {
					client := rpcclient.NewFromConfig(envFrom(c).cfg.RPC)
					v, err := client.GetRPCAPIVersion(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Node:   %s\n", v)
					fmt.Printf("Client: %s\n", rpcclient.TargetedRPCVersion)
					return nil
				},
			},
			{
				Name:  "chain-id",
				Usage: "Show the node chain id",
				Action: func(c *cli.Context) error {
					client, err := envFrom(c).client(c.Context)
					if err != nil {
						return err
					}
					id, err := client.GetChainID(c.Context)
					if err != nil {
						return err
					}
					fmt.Println(id)
					return nil
				},
			},
			{
				Name:      "sequence",
				Usage:     "Show an account's sequence number",
				ArgsUsage: "<address>",
				Action: func(c *cli.Context) error {
					addr, err := types.ParseAddress(c.Args().First())
					if err != nil {
						return err
					}
					client, err := envFrom(c).client(c.Context)
					if err != nil {
						return err
					}
					seq, err := client.GetSequenceNumber(c.Context, addr)
					if err != nil {
						return err
					}
					fmt.Println(seq)
					return nil
				},
			},
		},
	}
}
