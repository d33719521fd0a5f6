package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/config"
	ierrors "github.com/cnosuke/judolhunter/internal/errors"
	"github.com/cnosuke/judolhunter/logger"
	"github.com/cnosuke/judolhunter/runner"
	"github.com/cnosuke/judolhunter/scanner"
	"github.com/cnosuke/judolhunter/server"
	"github.com/cnosuke/judolhunter/types"
)

var (
	// Name, Version and Revision are overridden at build time with -ldflags.
	Name     = "judolhunter"
	Version  = "0.1.0"
	Revision = "xxx"
)

func main() {
	app := &cli.App{
		Name:    Name,
		Usage:   "Detect pages that serve injected gambling content to Googlebot",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"JUDOLHUNTER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "patterns",
				Aliases: []string{"p"},
				Usage:   "pattern file overriding the built-in keyword and domain lists",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level from the configuration",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			discoverCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan one or more URLs for gambling cloaking",
		ArgsUsage: "[url...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "file with one URL per line, # starts a comment"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the results as a JSON array to this file"},
			&cli.BoolFlag{Name: "crawl", Usage: "also scan subpages discovered on each URL"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "number of concurrent scans (overrides runner.max_workers)"},
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON instead of the colored summary"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print progress messages while scanning"},
			&cli.BoolFlag{Name: "no-banner", Usage: "do not print the banner"},
		},
		Action: func(c *cli.Context) error {
			cfg, cleanup, err := setup(c)
			if err != nil {
				return err
			}
			defer cleanup()

			if c.Bool("crawl") {
				cfg.Runner.Crawl = true
			}
			if w := c.Int("workers"); w > 0 {
				cfg.Runner.MaxWorkers = w
			}

			seeds, err := collectSeeds(c.Args().Slice(), c.String("file"))
			if err != nil {
				return err
			}

			engine, err := runner.NewEngine(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			targets := engine.Runner.Targets(ctx, seeds)
			jsonOut := c.Bool("json")
			if !jsonOut {
				if !c.Bool("no-banner") {
					printBanner(os.Stdout)
				}
				printHeader(os.Stdout, len(targets), cfg.Runner.Crawl)
			}

			var listeners []scanner.Listener
			if c.Bool("verbose") {
				listeners = append(listeners, progressPrinter())
			}
			results := engine.Runner.Run(ctx, targets, listeners...)

			if jsonOut {
				if err := runner.WriteJSON(os.Stdout, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					printResult(os.Stdout, r)
				}
				printSummary(os.Stdout, results)
			}

			if out := c.String("output"); out != "" {
				if err := runner.WriteJSONFile(out, results); err != nil {
					return err
				}
				if !jsonOut {
					printSaved(os.Stdout, out)
				}
			}
			return nil
		},
	}
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:      "discover",
		Usage:     "List subpages of a site, pages linked only for Googlebot first",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "maximum number of candidates to print"},
			&cli.BoolFlag{Name: "json", Usage: "print the discovery result as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("discover takes exactly one URL", 2)
			}
			cfg, cleanup, err := setup(c)
			if err != nil {
				return err
			}
			defer cleanup()

			base, err := runner.NormalizeURL(c.Args().First())
			if err != nil {
				return err
			}
			engine, err := runner.NewEngine(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := engine.Discoverer.Discover(ctx, base)
			if err != nil {
				return err
			}
			if limit := c.Int("limit"); limit > 0 && len(res.Candidates) > limit {
				res.Candidates = res.Candidates[:limit]
			}

			if c.Bool("json") {
				return writeDiscoveryJSON(os.Stdout, res)
			}
			printDiscovery(os.Stdout, res)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run as an MCP server over stdio",
		Action: func(c *cli.Context) error {
			cfg, cleanup, err := setup(c)
			if err != nil {
				return err
			}
			defer cleanup()

			return server.Run(cfg, Name, Version, Revision)
		},
	}
}

// setup loads the configuration, applies global flag overrides and installs
// the global logger.
func setup(c *cli.Context) (*config.Config, func(), error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if p := c.String("patterns"); p != "" {
		cfg.Patterns.File = p
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	cleanup, err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, ierrors.Wrap(err, "failed to initialize logger")
	}
	zap.S().Debugw("configuration loaded",
		"config", c.String("config"),
		"patterns", cfg.Patterns.File)
	return cfg, cleanup, nil
}

// collectSeeds merges URLs given as arguments with those read from file.
func collectSeeds(args []string, file string) ([]string, error) {
	raws := append([]string{}, args...)
	if file != "" {
		lines, err := runner.ReadURLFile(file)
		if err != nil {
			return nil, err
		}
		raws = append(raws, lines...)
	}
	if len(raws) == 0 {
		return nil, cli.Exit("no URL to scan: pass URLs as arguments or use --file", 2)
	}
	return runner.NormalizeURLs(raws)
}

// progressPrinter writes progress events to stderr. Workers call it
// concurrently.
func progressPrinter() scanner.Listener {
	var mu sync.Mutex
	return scanner.ListenerFunc(func(e types.ProgressEvent) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintln(os.Stderr, formatProgress(e))
		return err
	})
}
