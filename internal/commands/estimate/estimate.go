// Package estimate implements the delegation gas estimation command.
package estimate

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/keyfob/internal/commands/delegate"
	"github.com/yourorg/keyfob/internal/controller"
	"github.com/yourorg/keyfob/internal/eth"
	"github.com/yourorg/keyfob/internal/middleware"
	"github.com/yourorg/keyfob/internal/signer"
)

// Command returns the estimate command
func Command() *cli.Command {
	return &cli.Command{
		Name:   "estimate",
		Usage:  "Estimate gas and fees for a delegation without signing",
		Flags:  delegate.Flags(),
		Action: estimateAction,
	}
}

func estimateAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	cfg, err := delegate.ParseDelegateConfig(c)
	if err != nil {
		return err
	}

	currentCtx, err := middleware.GetCurrentContext(c)
	if err != nil {
		return err
	}
	if currentCtx.RPCURL == "" {
		return fmt.Errorf("rpc-url is required (set it with 'keyfob context set --rpc-url')")
	}
	cfg.FeeCapGwei = currentCtx.FeeCapGwei

	sig, err := signer.FromContext(currentCtx)
	if err != nil {
		return err
	}

	client, err := eth.NewClient(currentCtx.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	ctrl := controller.New(client, sig, log)
	est, err := ctrl.EstimateDelegation(c.Context, *cfg)
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"type":                     string(est.Type),
		"gas-limit":                est.GasLimit,
		"max-fee-per-gas":          est.MaxFeePerGas.String(),
		"max-priority-fee-per-gas": est.MaxPriorityFeePerGas.String(),
		"estimated-gas-cost":       est.EstimatedGasCost.String(),
		"total-cost":               est.TotalCost.String(),
	}

	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	return encoder.Encode(out)
}
