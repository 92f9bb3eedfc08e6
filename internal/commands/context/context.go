// Package context implements the context management commands.
package context

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yourorg/keyfob/internal/config"
	"github.com/yourorg/keyfob/internal/eth"
)

// Command returns the context command group
func Command() *cli.Command {
	return &cli.Command{
		Name:  "context",
		Usage: "Manage configuration contexts",
		Subcommands: []*cli.Command{
			createCommand(),
			listCommand(),
			showCommand(),
			setCommand(),
			useCommand(),
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new context",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Context name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "preset",
				Usage: fmt.Sprintf("Start from a network preset (%s)", strings.Join(eth.ListPresets(), ", ")),
			},
			&cli.BoolFlag{
				Name:  "use",
				Usage: "Switch to the new context immediately",
			},
		},
		Action: contextCreateAction,
	}
}

func useCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Switch to a context",
		ArgsUsage: "<name>",
		Action:    contextUseAction,
	}
}

func contextCreateAction(c *cli.Context) error {
	name := c.String("name")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := cfg.Contexts[name]; exists {
		return fmt.Errorf("context '%s' already exists", name)
	}

	ctx := &config.Context{Name: name}
	if presetName := c.String("preset"); presetName != "" {
		preset, ok := eth.GetChainPreset(presetName)
		if !ok {
			return fmt.Errorf("unknown preset '%s' (available: %s)", presetName, strings.Join(eth.ListPresets(), ", "))
		}
		ctx.RPCURL = preset.RPCURL
		ctx.ChainID = preset.ChainID
	}
	cfg.Contexts[name] = ctx
	if c.Bool("use") || cfg.CurrentContext == "" {
		cfg.CurrentContext = name
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Context '%s' created\n", name)
	return nil
}

func contextUseAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: keyfob context use <name>")
	}
	name := c.Args().Get(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := cfg.Contexts[name]; !exists {
		return fmt.Errorf("context '%s' not found", name)
	}

	cfg.CurrentContext = name
	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Switched to context '%s'\n", name)
	return nil
}
