package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/reportdesk/internal"
	pkgconfig "github.com/starford/reportdesk/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func importCatalog(ctx context.Context, cmd *cli.Command) error {
	n, err := internal.ImportCatalog(ctx, cmd.String("from"), cmd.String("to"))
	if err != nil {
		return fmt.Errorf("import catalog: %w", err)
	}
	slog.Info("catalog imported",
		slog.String("from", cmd.String("from")),
		slog.String("to", cmd.String("to")),
		slog.Int("reports", n))
	return nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "reportdesk",
		Usage:   "Report console backend with filtered report tables and sidebar navigation",
		Version: version,
		Action:  run,
		Flags:   []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the report catalog and menu as MCP tools on stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag()},
			},
			{
				Name:   "import-catalog",
				Usage:  "Copy a YAML catalog into a SQLite catalog",
				Action: importCatalog,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Source YAML catalog", Value: "catalog/reports.yaml"},
					&cli.StringFlag{Name: "to", Usage: "Target SQLite database", Required: true},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
