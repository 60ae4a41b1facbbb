package main

import (
	"fmt"
	stdlog "log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v2"

	"dynstr-go/pkg/alloc"
	"dynstr-go/pkg/config"
	"dynstr-go/pkg/log"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// appState holds what every command needs, set up in before and torn down in after.
type appState struct {
	cfg       *config.Config
	registry  *prometheus.Registry
	allocator alloc.Allocator
	release   func()
}

var rt appState

func main() {
	if err := newApp().Run(os.Args); err != nil {
		stdlog.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "dynstr",
		Usage:   "build, slice and persist growable byte strings",
		Version: fmt.Sprintf("%s (%s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file `PATH` or name",
			},
			&cli.StringFlag{
				Name:  "allocator",
				Usage: "Allocator `KIND`: heap, pool or arena (overrides config)",
			},
			&cli.IntFlag{
				Name:  "memory-limit",
				Usage: "Fail fast once more than `BYTES` are live (0 = unlimited)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-db",
				Usage: "Write JSON logs to the SQLite database at `PATH` instead of the console",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Snapshot database `PATH` (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print allocator metrics to stderr when the command finishes",
			},
		},
		Before: before,
		After:  after,
		Commands: []*cli.Command{
			concatCommand,
			atCommand,
			substrCommand,
			eqCommand,
			saveCommand,
			loadCommand,
			listCommand,
			rmCommand,
			logsCommand,
		},
	}
}

func before(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading configuration: %v", err), 1)
	}
	if c.IsSet("allocator") {
		cfg.Allocator = c.String("allocator")
	}
	if c.IsSet("memory-limit") {
		cfg.MemoryLimit = c.Int("memory-limit")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("log-db") {
		cfg.LogDB = c.String("log-db")
	}
	if c.IsSet("store") {
		cfg.StorePath = c.String("store")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	log.SetLevel(cfg.Debug)
	// the logs command opens the database itself
	if c.Args().First() != logsCommand.Name {
		if cfg.LogDB != "" {
			if err := log.Init(cfg.LogDB); err != nil {
				return cli.Exit(fmt.Sprintf("Error initializing logger: %v", err), 1)
			}
		} else if cfg.Debug {
			log.SetStd()
		}
	}

	reg := prometheus.NewRegistry()
	a, release, err := cfg.NewAllocator(reg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating allocator: %v", err), 1)
	}

	rt = appState{cfg: cfg, registry: reg, allocator: a, release: release}
	log.Debug().Str("allocator", cfg.Allocator).Int("memory_limit", cfg.MemoryLimit).Msg("dynstr: ready")
	return nil
}

func after(c *cli.Context) error {
	if rt.registry != nil && c.Bool("stats") {
		if err := printStats(rt.registry); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not gather metrics: %v\n", err)
		}
	}
	if rt.release != nil {
		rt.release()
	}
	return log.Close()
}

func printStats(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stderr, mf); err != nil {
			return err
		}
	}
	return nil
}
