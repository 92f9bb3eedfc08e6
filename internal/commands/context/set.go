package context

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/config"
	"github.com/yourorg/keyfob/internal/middleware"
)

func setCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Set context properties",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rpc-url",
				Usage: "Set the Ethereum RPC URL",
			},
			&cli.Uint64Flag{
				Name:  "chain-id",
				Usage: "Set the chain ID",
			},
			&cli.Uint64Flag{
				Name:  "fee-cap-gwei",
				Usage: "Set the derived max-fee cap in gwei",
			},
			&cli.StringFlag{
				Name:  "ecdsa-private-key",
				Usage: "Set ECDSA private key (hex encoded)",
			},
			&cli.StringFlag{
				Name:  "keystore-path",
				Usage: "Set path to keystore file",
			},
			&cli.StringFlag{
				Name:  "keystore-password",
				Usage: "Set keystore password",
			},
		},
		Action: contextSetAction,
	}
}

func contextSetAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.CurrentContext == "" {
		return fmt.Errorf("no current context set")
	}

	ctx, exists := cfg.Contexts[cfg.CurrentContext]
	if !exists {
		return fmt.Errorf("current context '%s' not found", cfg.CurrentContext)
	}

	updated := false

	if url := c.String("rpc-url"); url != "" {
		ctx.RPCURL = url
		updated = true
		log.Info("Updated RPC URL", zap.String("url", url))
	}

	if c.IsSet("chain-id") {
		ctx.ChainID = c.Uint64("chain-id")
		updated = true
		log.Info("Updated chain ID", zap.Uint64("chainId", ctx.ChainID))
	}

	if c.IsSet("fee-cap-gwei") {
		ctx.FeeCapGwei = c.Uint64("fee-cap-gwei")
		updated = true
		log.Info("Updated fee cap", zap.Uint64("gwei", ctx.FeeCapGwei))
	}

	// Handle signer configuration (mutually exclusive)
	if privateKey := c.String("ecdsa-private-key"); privateKey != "" {
		// Setting private key clears keystore settings
		ctx.ECDSAPrivateKey = privateKey
		ctx.KeystorePath = ""
		ctx.KeystorePassword = ""
		updated = true
		log.Info("Updated ECDSA private key")
	}

	if keystorePath := c.String("keystore-path"); keystorePath != "" {
		// Setting keystore clears private key
		ctx.KeystorePath = keystorePath
		ctx.ECDSAPrivateKey = ""
		updated = true
		log.Info("Updated keystore path", zap.String("path", keystorePath))
	}

	if keystorePassword := c.String("keystore-password"); keystorePassword != "" {
		if ctx.KeystorePath == "" {
			return fmt.Errorf("keystore-password requires keystore-path to be set")
		}
		ctx.KeystorePassword = keystorePassword
		updated = true
		log.Info("Updated keystore password")
	}

	if !updated {
		return fmt.Errorf("no values provided to update")
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Context '%s' updated\n", cfg.CurrentContext)
	return nil
}
