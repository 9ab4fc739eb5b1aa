package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mimir/internal"
	pkgconfig "github.com/starford/mimir/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{internal.WithConfig(cfg)}, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunSync(ctx, cmd.String("document"), opts...)
}

func runParse(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	document := cmd.Args().First()
	if document == "" {
		return fmt.Errorf("usage: mimir parse <document.md>")
	}
	return internal.RunParse(ctx, document, opts...)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "mimir",
		Usage: "Flashcard extraction and synchronization engine for Markdown vaults",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server and vault watcher",
				Action: runServe,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio for LLM integration",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "sync",
				Usage:  "One-shot sync of extracted flashcards to the remote store",
				Action: runSync,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "document",
						Usage: "Sync a single document instead of the whole flashcards folder",
					},
				},
			},
			{
				Name:      "parse",
				Usage:     "Parse a document and print its extracted cards as JSON",
				ArgsUsage: "<document.md>",
				Action:    runParse,
				Flags:     []cli.Flag{configFlag},
			},
		},
		// Bare invocation serves, matching container entrypoints.
		Action: runServe,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
