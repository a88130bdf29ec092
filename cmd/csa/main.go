package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/csaharvest/internal"
	pkgconfig "github.com/starford/csaharvest/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// withOverrides applies the scrape range flags on top of the loaded config.
func withOverrides(cmd *cli.Command, cfg *internal.Config) error {
	if cmd.IsSet("first-year") {
		cfg.Source.FirstYear = int(cmd.Int("first-year"))
	}
	if cmd.IsSet("last-year") {
		cfg.Source.LastYear = int(cmd.Int("last-year"))
	}
	if cmd.IsSet("max-weeks") {
		cfg.Source.MaxWeeks = int(cmd.Int("max-weeks"))
	}
	if err := cfg.Source.Validate(); err != nil {
		return fmt.Errorf("invalid range: %w", err)
	}
	return nil
}

func scrape(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := withOverrides(cmd, cfg); err != nil {
		return err
	}
	if err := internal.Scrape(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("scrape error: %w", err)
	}
	return nil
}

func buildCatalog(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Catalog(ctx, cmd.Bool("resolve"), internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("catalog error: %w", err)
	}
	return nil
}

func extractMessages(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Messages(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("messages error: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.MCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "csa",
		Usage: "Harvest weekly CSA share pages into haul and recipe catalogs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (built-in defaults when missing)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("CSA_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "scrape",
				Usage:  "Fetch every configured week and write csa_hauls.json and csa_recipes.json",
				Action: scrape,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "first-year", Usage: "First year to harvest"},
					&cli.IntFlag{Name: "last-year", Usage: "Last year to harvest"},
					&cli.IntFlag{Name: "max-weeks", Usage: "Weeks to try per year"},
				},
			},
			{
				Name:   "catalog",
				Usage:  "Build products.json and ingredients.json from the scraped catalogs",
				Action: buildCatalog,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "resolve", Usage: "Also write catalogs with item ids filled in"},
				},
			},
			{
				Name:   "messages",
				Usage:  "Move haul messages into strings.json and write csa_hauls.with_string_refs.json",
				Action: extractMessages,
			},
			{
				Name:   "serve",
				Usage:  "Index the catalogs and serve the read-only API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the catalogs to an MCP client over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
