package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dailybrief/internal"
	"github.com/starford/dailybrief/internal/publisher"
	pkgconfig "github.com/starford/dailybrief/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func report(cmd *cli.Command, cfg *internal.Config, res *publisher.Result) {
	w := cmd.Root().Writer
	if res.PostPath != "" {
		fmt.Fprintf(w, "Wrote %s\n", filepath.Join(cfg.Site.Dir, filepath.FromSlash(res.PostPath)))
	}
	fmt.Fprintf(w, "Wrote %s\n", filepath.Join(cfg.Site.Dir, res.IndexPath))
	fmt.Fprintf(w, "Index now lists %d post(s).\n", res.PostCount)
}

func publish(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: %s publish <path/to/tucson-brief-YYYY-MM-DD.md>", cmd.Root().Name)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Publish(ctx, cmd.Args().First(),
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
	)
	if err != nil {
		return err
	}
	report(cmd, cfg, res)
	return nil
}

func reindex(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Reindex(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	report(cmd, cfg, res)
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the MCP protocol.
	if err := internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr)); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "dailybrief",
		Usage: "Turn Tucson Daily Brief text files into a static blog",
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
				Name:      "publish",
				Usage:     "Render one briefing into a post and rebuild the index",
				ArgsUsage: "<path/to/tucson-brief-YYYY-MM-DD.md>",
				Action:    publish,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the index from the posts already on disk",
				Action: reindex,
			},
			{
				Name:   "serve",
				Usage:  "Preview the site over HTTP and publish briefings dropped into the inbox",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
