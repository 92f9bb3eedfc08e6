// Package signmessage implements the EIP-191 personal message signing command.
package signmessage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/middleware"
	"github.com/yourorg/keyfob/internal/signer"
)

// Command returns the sign-message command
func Command() *cli.Command {
	return &cli.Command{
		Name:  "sign-message",
		Usage: "Sign a personal message (EIP-191)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "message",
				Usage: "Message text to sign",
			},
			&cli.StringFlag{
				Name:  "hex",
				Usage: "Raw message bytes as 0x-prefixed hex (mutually exclusive with --message)",
			},
		},
		Action: signMessageAction,
	}
}

func signMessageAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	var msg []byte
	switch {
	case c.String("message") != "" && c.String("hex") != "":
		return fmt.Errorf("--message and --hex are mutually exclusive")
	case c.String("message") != "":
		msg = []byte(c.String("message"))
	case c.String("hex") != "":
		raw, err := hexutil.Decode(c.String("hex"))
		if err != nil {
			return fmt.Errorf("invalid --hex value: %w", err)
		}
		msg = raw
	default:
		return fmt.Errorf("--message or --hex is required")
	}

	currentCtx, err := middleware.GetCurrentContext(c)
	if err != nil {
		return err
	}
	sig, err := signer.FromContext(currentCtx)
	if err != nil {
		return err
	}

	log.Info("Signing message",
		zap.String("signer", sig.Address().Hex()),
		zap.Int("bytes", len(msg)))

	signature, err := sig.SignMessage(msg)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, hexutil.Encode(signature))
	return nil
}
