package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/filecat/internal"
	pkgconfig "github.com/starford/filecat/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if p := cmd.String("content"); p != "" {
		cfg.Content.Path = p
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func tree(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Content.Watch = false
	return internal.PrintTree(ctx, os.Stdout, cmd.Bool("sort"), cmd.String("reveal"),
		internal.WithConfig(cfg))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func main() {
	cmd := &cli.Command{
		Name:    "filecat",
		Usage:   "Browse a site's content files as a collapsible directory tree",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "content",
				Usage:   "Content directory (overrides content.path)",
				Sources: cli.EnvVars("FILECAT_CONTENT_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the catalog over HTTP with live updates",
				Action: serve,
			},
			{
				Name:  "tree",
				Usage: "Print the visible catalog tree once",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Sort siblings by name"},
					&cli.StringFlag{Name: "reveal", Aliases: []string{"r"}, Usage: "Expand the ancestors of this file"},
				},
				Action: tree,
			},
			{
				Name:   "mcp",
				Usage:  "Serve catalog tools to an MCP client over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
