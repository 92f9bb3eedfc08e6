package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	contextcmd "github.com/yourorg/keyfob/internal/commands/context"
	"github.com/yourorg/keyfob/internal/commands/delegate"
	"github.com/yourorg/keyfob/internal/commands/estimate"
	"github.com/yourorg/keyfob/internal/commands/sign"
	"github.com/yourorg/keyfob/internal/commands/signmessage"
	"github.com/yourorg/keyfob/internal/middleware"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "keyfob",
		Usage:   "Self-custodial Ethereum signing toolkit",
		Version: version,
		Description: `keyfob signs EIP-712 typed data, EIP-191 personal messages, and
EIP-7702 delegation transactions with a locally held key. Keys never leave the
machine; broadcasting is opt-in per command.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file to load before reading the config",
			},
		},
		Before: middleware.ChainBeforeFuncs(
			middleware.LoggerBeforeFunc,
			middleware.ConfigBeforeFunc,
		),
		ExitErrHandler: middleware.ExitErrHandler,
		Commands: []*cli.Command{
			contextcmd.Command(),
			sign.Command(),
			signmessage.Command(),
			delegate.Command(),
			estimate.Command(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
