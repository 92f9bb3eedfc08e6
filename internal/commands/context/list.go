package context

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/config"
	"github.com/yourorg/keyfob/internal/eth"
	"github.com/yourorg/keyfob/internal/middleware"
	"github.com/yourorg/keyfob/internal/signer"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List all contexts",
		Action: contextListAction,
	}
}

func contextListAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Info("Listing contexts", zap.Int("count", len(cfg.Contexts)))

	if len(cfg.Contexts) == 0 {
		fmt.Println("No contexts configured")
		fmt.Println("\nTo create a context, run:")
		fmt.Println("  keyfob context create --name default --use")
		return nil
	}

	// Create table
	table := tablewriter.NewWriter(c.App.Writer)
	table.Header("CURRENT", "NAME", "CHAIN", "RPC URL", "SIGNER")

	for name, ctx := range cfg.Contexts {
		current := ""
		if name == cfg.CurrentContext {
			current = "*"
		}

		chain := "-"
		if ctx.ChainID != 0 {
			chain = fmt.Sprintf("%s (%d)", eth.ChainName(ctx.ChainID), ctx.ChainID)
		}

		rpcURL := ctx.RPCURL
		if rpcURL == "" {
			rpcURL = "-"
		}

		// Get signer address if configured
		signerAddr := "-"
		if sig, err := signer.FromContext(ctx); err == nil {
			signerAddr = sig.Address().Hex()
		}

		table.Append([]string{
			current,
			name,
			chain,
			rpcURL,
			signerAddr,
		})
	}

	table.Render()
	return nil
}
