// Package sign implements the typed-data signing command.
package sign

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/middleware"
	"github.com/yourorg/keyfob/internal/signer"
	"github.com/yourorg/keyfob/internal/typeddata"
)

// Command returns the sign command
func Command() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Sign an EIP-712 typed-data document",
		Description: `Computes the EIP-712 digest of a typed-data JSON document (the
eth_signTypedData_v4 shape: types, primaryType, domain, message), signs it with
the context signer, and prints the canonical 65-byte signature as hex.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to the typed-data JSON document (reads stdin if omitted)",
			},
			&cli.BoolFlag{
				Name:  "digest-only",
				Usage: "Print the 32-byte digest without signing",
			},
		},
		Action: signAction,
	}
}

func signAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	var (
		doc []byte
		err error
	)
	if path := c.String("file"); path != "" {
		doc, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read typed data file: %w", err)
		}
	} else {
		doc, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read typed data from stdin: %w", err)
		}
	}

	hasher := typeddata.NewHasher(log)
	digest, err := hasher.ComputeDigest(doc)
	if err != nil {
		return err
	}

	if c.Bool("digest-only") {
		fmt.Fprintln(c.App.Writer, hexutil.Encode(digest))
		return nil
	}

	currentCtx, err := middleware.GetCurrentContext(c)
	if err != nil {
		return err
	}
	sig, err := signer.FromContext(currentCtx)
	if err != nil {
		return err
	}

	log.Info("Signing typed data",
		zap.String("signer", sig.Address().Hex()),
		zap.String("digest", hexutil.Encode(digest)))

	v, r, s, err := sig.SignDigest(digest)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, signer.CanonicalHex(v, r, s))
	return nil
}
