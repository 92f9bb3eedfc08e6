// Package delegate implements the EIP-7702 delegation command.
package delegate

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/controller"
	"github.com/yourorg/keyfob/internal/eth"
	"github.com/yourorg/keyfob/internal/middleware"
	"github.com/yourorg/keyfob/internal/signer"
	"github.com/yourorg/keyfob/internal/txbuilder"
)

// Command returns the delegate command
func Command() *cli.Command {
	return &cli.Command{
		Name:  "delegate",
		Usage: "Delegate this account's code to a contract (EIP-7702)",
		Description: `Builds, signs, and optionally broadcasts a type-0x04 set-code
transaction delegating the signer's account to the target contract. Without
--broadcast the signed raw transaction is printed and nothing goes on-chain.`,
		Flags: append(Flags(),
			&cli.BoolFlag{
				Name:  "broadcast",
				Usage: "Send the signed transaction to the network",
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Block until the broadcast transaction mines",
			},
		),
		Action: delegateAction,
	}
}

// Flags returns the delegation request flags, shared with the estimate
// command. --broadcast is not included; only the delegate command sends.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "delegate",
			Usage:    "Delegation target contract address",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Transaction destination (defaults to the sender)",
		},
		&cli.StringFlag{
			Name:  "value",
			Usage: "Value to send in wei",
		},
		&cli.StringFlag{
			Name:  "data",
			Usage: "Calldata as 0x-prefixed hex",
		},
		&cli.Uint64Flag{
			Name:  "gas-limit",
			Usage: "Gas limit (skips estimation)",
		},
		&cli.StringFlag{
			Name:  "max-fee",
			Usage: "Max fee per gas in wei (requires --priority-fee)",
		},
		&cli.StringFlag{
			Name:  "priority-fee",
			Usage: "Max priority fee per gas in wei (requires --max-fee)",
		},
		&cli.StringFlag{
			Name:  "gas-price",
			Usage: "Legacy gas price in wei",
		},
	}
}

func delegateAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	cfg, err := ParseDelegateConfig(c)
	if err != nil {
		return err
	}
	cfg.Broadcast = c.Bool("broadcast")

	currentCtx, err := middleware.GetCurrentContext(c)
	if err != nil {
		return err
	}
	if currentCtx.RPCURL == "" {
		return fmt.Errorf("rpc-url is required (set it with 'keyfob context set --rpc-url')")
	}
	cfg.ChainID = currentCtx.ChainID
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
	result, err := ctrl.Delegate(c.Context, *cfg)
	if err != nil {
		return err
	}

	log.Info("Delegation transaction signed",
		zap.Uint64("nonce", result.Nonce),
		zap.Uint64("authNonce", result.AuthNonce),
		zap.Uint64("gasLimit", result.Estimate.GasLimit))

	fmt.Fprintln(c.App.Writer, result.RawTransaction)
	if cfg.Broadcast {
		fmt.Fprintf(c.App.Writer, "Transaction hash: %s\n", result.TxHash.Hex())
	}

	if cfg.Broadcast && c.Bool("wait") {
		receipt, err := ctrl.WaitForReceipt(c.Context, result.TxHash)
		if err != nil {
			return err
		}
		status := "success"
		if receipt.Status != 1 {
			status = "reverted"
		}
		fmt.Fprintf(c.App.Writer, "Mined in block %d (%s, gas used %d)\n",
			receipt.BlockNumber.Uint64(), status, receipt.GasUsed)
	}
	return nil
}

// ParseDelegateConfig converts command flags into a controller config. All
// address and hex validation happens here, before any network or signer work.
func ParseDelegateConfig(c *cli.Context) (*controller.DelegateConfig, error) {
	delegateAddr, err := txbuilder.ParseAddress(c.String("delegate"))
	if err != nil {
		return nil, err
	}

	cfg := &controller.DelegateConfig{
		Delegate: delegateAddr,
		GasLimit: c.Uint64("gas-limit"),
	}

	if toStr := c.String("to"); toStr != "" {
		to, err := txbuilder.ParseAddress(toStr)
		if err != nil {
			return nil, err
		}
		cfg.To = &to
	}

	if valueStr := c.String("value"); valueStr != "" {
		value, ok := new(big.Int).SetString(valueStr, 10)
		if !ok || value.Sign() < 0 {
			return nil, fmt.Errorf("%w: invalid value %q", txbuilder.ErrInvalidInput, valueStr)
		}
		cfg.Value = value
	}

	if dataStr := c.String("data"); dataStr != "" {
		data, err := hexutil.Decode(dataStr)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid calldata: %v", txbuilder.ErrInvalidInput, err)
		}
		cfg.Data = data
	}

	cfg.MaxFeePerGas, err = parseWei(c, "max-fee")
	if err != nil {
		return nil, err
	}
	cfg.MaxPriorityFeePerGas, err = parseWei(c, "priority-fee")
	if err != nil {
		return nil, err
	}
	cfg.GasPrice, err = parseWei(c, "gas-price")
	if err != nil {
		return nil, err
	}
	if (cfg.MaxFeePerGas == nil) != (cfg.MaxPriorityFeePerGas == nil) {
		return nil, fmt.Errorf("%w: --max-fee and --priority-fee must be supplied together", txbuilder.ErrInvalidInput)
	}

	return cfg, nil
}

func parseWei(c *cli.Context, flag string) (*big.Int, error) {
	str := c.String(flag)
	if str == "" {
		return nil, nil
	}
	wei, ok := new(big.Int).SetString(str, 10)
	if !ok || wei.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid --%s value %q", txbuilder.ErrInvalidInput, flag, str)
	}
	return wei, nil
}
