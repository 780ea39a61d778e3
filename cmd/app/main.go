// Command app is the Tennisfel compendium toolchain: it converts a
// LegendKeeper world export into a Foundry VTT module and serves a local
// preview of the result.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v3"

	"github.com/tennisfel/compendium/internal/app"
	"github.com/tennisfel/compendium/internal/archive"
	"github.com/tennisfel/compendium/internal/convert"
	"github.com/tennisfel/compendium/internal/index"
	"github.com/tennisfel/compendium/internal/mcpserver"
	"github.com/tennisfel/compendium/pkg/config"
)

// version is set at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "tennisfel",
		Usage:   "LegendKeeper to Foundry VTT compendium converter",
		Version: version,
		Commands: []*cli.Command{
			convertCommand(),
			verifyCommand(),
			packageCommand(),
			cleanCommand(),
			serveCommand(),
			watchCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config/config.yaml",
		Usage:   "path to the configuration file",
		Sources: cli.EnvVars("TENNISFEL_CONFIG"),
	}
}

func loadConfig(c *cli.Command) (*app.Config, *slog.Logger, error) {
	cfg := app.NewDefaultConfig()
	if err := config.LoadIfPresent(c.String("config"), cfg); err != nil {
		return nil, nil, err
	}
	return cfg, cfg.NewLogger(), nil
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "convert the export into a Foundry module",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			rep, err := convert.Run(ctx, cfg.ConvertOptions(), logger)
			if err != nil {
				return err
			}
			rep.LogSummary(logger)
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check the generated module for missing assets and broken packs",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			problems, err := convert.Verify(cfg.Output.Dir, cfg.Module.ID)
			if err != nil {
				return err
			}
			for _, p := range problems {
				logger.Warn("verification problem", slog.String("problem", p))
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problems found", len(problems))
			}
			logger.Info("module verified", slog.String("dir", cfg.Output.Dir))
			return nil
		},
	}
}

func packageCommand() *cli.Command {
	return &cli.Command{
		Name:  "package",
		Usage: "zip the generated module for distribution",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			problems, err := convert.Verify(cfg.Output.Dir, cfg.Module.ID)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				return fmt.Errorf("refusing to package a broken module: %d problems, run verify", len(problems))
			}

			dst := filepath.Join(cfg.Output.DistDir,
				fmt.Sprintf("%s-%s.zip", cfg.Module.ID, cfg.Module.Version))
			if err := archive.Build(dst, cfg.Output.Dir, cfg.Module.ID); err != nil {
				return err
			}
			logger.Info("module packaged", slog.String("archive", dst))
			return nil
		},
	}
}

func cleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "remove generated packs and manifest",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "all",
				Usage: "also remove the asset cache and the search index",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := convert.Clean(cfg.Output.Dir, cfg.Index.Path, c.Bool("all")); err != nil {
				return err
			}
			logger.Info("cleaned", slog.String("dir", cfg.Output.Dir), slog.Bool("all", c.Bool("all")))
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the preview API and the generated module files",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			return app.Serve(ctx, cfg, logger)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "convert, then serve and rebuild whenever the export changes",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			rep, err := convert.Run(ctx, cfg.ConvertOptions(), logger)
			if err != nil {
				return err
			}
			rep.LogSummary(logger)
			return app.Serve(ctx, cfg, logger, app.WithWatch())
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve the compendium index to MCP clients over stdio",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			repo, err := index.Open(cfg.Index.Path)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()
			return mcpserver.NewServer(repo, cfg.Output.Dir, logger).ServeStdio(version)
		},
	}
}
