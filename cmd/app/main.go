package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/smartnotes/internal"
	pkgconfig "github.com/starford/smartnotes/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func importDir(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("import: directory argument is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n, err := internal.Import(ctx, dir, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "imported %d notes\n", n)
	return nil
}

func exportDir(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("export: directory argument is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n, err := internal.Export(ctx, dir, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "exported %d notes\n", n)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "smartnotes",
		Usage:  "Rich-text notes with folders, stars, search and [[wiki-link]] autocomplete",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and event stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the note tools over MCP on stdio",
				Action: runMCP,
			},
			{
				Name:      "import",
				Usage:     "Import a directory of Markdown files",
				ArgsUsage: "<dir>",
				Action:    importDir,
			},
			{
				Name:      "export",
				Usage:     "Export all notes as Markdown files",
				ArgsUsage: "<dir>",
				Action:    exportDir,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
