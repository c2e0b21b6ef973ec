package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/exp/slog"

	"spinsim/internal/bet"
	"spinsim/internal/config"
	"spinsim/internal/engine"
	"spinsim/internal/lane"
	"spinsim/internal/lib/logger/handler/slogpretty"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
	"spinsim/internal/repository"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var (
		strategyPath = flag.String("strategy", "", "path to a strategy bundle JSON file")
		label        = flag.String("label", "cli run", "label stored with the batch")
		runs         = flag.Int("runs", 0, "override the number of runs")
		seed         = flag.Int64("seed", 0, "fixed random seed (0 uses the clock)")
	)
	flag.Parse()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	bundle, err := loadBundle(*strategyPath, cfg)
	if err != nil {
		log.Error("failed to load strategy", sl.Err(err))

		os.Exit(1)
	}

	if *runs > 0 {
		bundle.Settings.Runs = *runs
	}

	if *seed != 0 {
		bundle.Settings.Seed = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := engine.NewBatchRunner(log, bundle.Lanes, bundle.Settings, *label, nil, nil)

	session, err := runner.Run(ctx)
	if err != nil {
		log.Error("batch faulted", sl.Err(err))

		if session == nil {
			os.Exit(1)
		}
	}

	printStats(session)
}

// loadBundle reads a strategy bundle from disk, or falls back to a single
// flat-bet red lane on the configured table when no file is given.
func loadBundle(path string, cfg *config.Config) (*repository.StrategyBundle, error) {
	const op = "main.loadBundle"

	if path == "" {
		return defaultBundle(cfg), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bundle := &repository.StrategyBundle{}

	if err = json.Unmarshal(data, bundle); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(bundle.Lanes) == 0 {
		return nil, fmt.Errorf("%s: bundle has no lanes", op)
	}

	return bundle, nil
}

func defaultBundle(cfg *config.Config) *repository.StrategyBundle {
	baseAmount := cfg.Simulation.TableMin
	if baseAmount < 1 {
		baseAmount = 1
	}

	return &repository.StrategyBundle{
		Lanes: []*lane.Lane{
			{
				Name:    "flat red",
				Enabled: true,
				Mode:    lane.ModeStatic,
				BaseBets: []bet.Wager{
					{Placement: bet.RedPlacement(), Amount: baseAmount},
				},
				Config: lane.Config{
					OnWinAction:  lane.ActionReset,
					OnLossAction: lane.ActionDoNothing,
				},
			},
		},
		Settings: model.Settings{
			StartingBankroll: cfg.Simulation.StartingBankroll,
			TableMin:         cfg.Simulation.TableMin,
			TableMax:         cfg.Simulation.TableMax,
			SpinsPerRun:      cfg.Simulation.SpinsPerRun,
			Runs:             cfg.Simulation.Runs,
		},
	}
}

func printStats(session *model.BatchSession) {
	stats := session.Stats

	color.Cyan("batch %s (%s)", session.ID, session.Label)
	fmt.Printf("runs:            %d\n", stats.Simulations)
	fmt.Printf("wins/losses/draws: %d/%d/%d\n", stats.Wins, stats.Losses, stats.Draws)
	fmt.Printf("avg final bankroll: %.2f\n", stats.AvgFinalBankroll)
	fmt.Printf("best run:        %d\n", stats.BestRun)
	fmt.Printf("worst run:       %d\n", stats.WorstRun)
	fmt.Printf("avg spins:       %.2f\n", stats.AvgSpins)
	fmt.Printf("max drawdown:    %d\n", stats.MaxDrawdown)
	fmt.Printf("max upside:      %d\n", stats.MaxUpside)
	fmt.Printf("longest win streak:  %d\n", stats.LongestWinStreak)
	fmt.Printf("longest loss streak: %d\n", stats.LongestLossStreak)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}

	handler := opts.NewPrettyHandler(os.Stderr)

	return slog.New(handler)
}
