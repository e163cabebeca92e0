package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/okian/valodds/internal/testbets"
	"github.com/okian/valodds/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers     = 50
	defaultMatches     = 20
	defaultDropRate    = 0.05
	defaultRequests    = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultMissRate    = 0.1
	defaultRankRate    = 0.5
	defaultTestTimeout = 10 * time.Minute
)

// Shared flag names.
const (
	verboseFlagName = "verbose"
	playersFlagName = "players"
)

var version = "v0.0.1-default"

func playersFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  playersFlagName,
		Usage: "Number of seeded players",
		Value: defaultPlayers,
	}
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logger.Get().Error(ctx, "oddsbench failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "oddsbench",
		Version: version,
		Usage:   "Seed synthetic match history and smoke test a valodds service",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseFlagName,
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool(verboseFlagName) {
				_ = logger.SetLevelString("debug")
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			seedCmd(),
			smokeCmd(),
		},
	}
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Generate match history into a JSON data file or sqlite database",
		Flags: []cli.Flag{
			playersFlag(),
			&cli.IntFlag{
				Name:  "matches",
				Usage: "Matches per player",
				Value: defaultMatches,
			},
			&cli.FloatFlag{
				Name:  "drop-rate",
				Usage: "Chance that a metric is missing from a match",
				Value: defaultDropRate,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: fmt.Sprintf("Output format [%s, %s]", testbets.FormatJSON, testbets.FormatSQLite),
				Value: testbets.FormatJSON,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output file (default: valorant_data.json or valodds.db by format)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := cmd.String("format")
			output := cmd.String("output")
			if output == "" {
				output = defaultOutput(format)
			}
			return testbets.Seed(ctx, testbets.SeedConfig{
				Players:          int(cmd.Int(playersFlagName)),
				MatchesPerPlayer: int(cmd.Int("matches")),
				DropRate:         cmd.Float("drop-rate"),
				Output:           output,
				Format:           format,
			})
		},
	}
}

func smokeCmd() *cli.Command {
	return &cli.Command{
		Name:  "smoke",
		Usage: "Send concurrent bet requests and verify every response",
		Flags: []cli.Flag{
			playersFlag(),
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Base URL of the service",
				Value:   "http://localhost:9080",
				Sources: cli.EnvVars("VALODDS_URL"),
			},
			&cli.IntFlag{
				Name:  "requests",
				Usage: "Number of bet requests to send",
				Value: defaultRequests,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent in-flight requests (default: CPU cores * 2)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "HTTP request timeout",
				Value: defaultTimeout,
			},
			&cli.FloatFlag{
				Name:  "miss-rate",
				Usage: "Share of requests for players that were never seeded",
				Value: defaultMissRate,
			},
			&cli.FloatFlag{
				Name:  "rank-rate",
				Usage: "Share of requests asking for rank adjustment",
				Value: defaultRankRate,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
			defer cancel()

			workers := int(cmd.Int("workers"))
			if workers <= 0 {
				workers = runtime.NumCPU() * defaultWorkers
			}

			_, err := testbets.Smoke(ctx, testbets.SmokeConfig{
				BaseURL:  cmd.String("url"),
				Players:  int(cmd.Int(playersFlagName)),
				Requests: int(cmd.Int("requests")),
				Workers:  workers,
				Timeout:  cmd.Duration("timeout"),
				MissRate: cmd.Float("miss-rate"),
				RankRate: cmd.Float("rank-rate"),
				Verbose:  cmd.Bool(verboseFlagName),
			})
			return err
		},
	}
}

func defaultOutput(format string) string {
	if format == testbets.FormatSQLite {
		return "valodds.db"
	}
	return "valorant_data.json"
}
