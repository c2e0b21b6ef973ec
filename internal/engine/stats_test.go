package engine

import (
	"testing"

	"spinsim/internal/model"
)

func stepsFromBankrolls(start int, bankrolls ...int) []model.SimulationStep {
	steps := make([]model.SimulationStep, 0, len(bankrolls))
	prev := start

	for i, b := range bankrolls {
		steps = append(steps, model.SimulationStep{
			Spin:           i + 1,
			TotalProfit:    b - prev,
			BankrollBefore: prev,
			BankrollAfter:  b,
		})
		prev = b
	}

	return steps
}

func TestComputeStatsWinLossDraw(t *testing.T) {
	t.Parallel()

	runs := []model.RunResult{
		{FinalBankroll: 150, Spins: 10},
		{FinalBankroll: 50, Spins: 20},
		{FinalBankroll: 100, Spins: 30},
	}

	stats := ComputeStats(runs, 100)

	if stats.Simulations != 3 {
		t.Errorf("expected 3 simulations, got %d", stats.Simulations)
	}

	if stats.Wins != 1 || stats.Losses != 1 || stats.Draws != 1 {
		t.Errorf("unexpected w/l/d: %d/%d/%d", stats.Wins, stats.Losses, stats.Draws)
	}

	if stats.BestRun != 150 || stats.WorstRun != 50 {
		t.Errorf("unexpected best/worst: %d/%d", stats.BestRun, stats.WorstRun)
	}

	if stats.AvgFinalBankroll != 100 {
		t.Errorf("unexpected average: %f", stats.AvgFinalBankroll)
	}

	if stats.AvgSpins != 20 {
		t.Errorf("unexpected average spins: %f", stats.AvgSpins)
	}
}

func TestComputeStatsDrawdownAndUpside(t *testing.T) {
	t.Parallel()

	// peak 130, trough 70 after the peak: drawdown 60, upside 30
	run := model.RunResult{
		Steps:         stepsFromBankrolls(100, 110, 130, 90, 70, 95),
		FinalBankroll: 95,
		Spins:         5,
	}

	stats := ComputeStats([]model.RunResult{run}, 100)

	if stats.MaxDrawdown != 60 {
		t.Errorf("expected drawdown 60, got %d", stats.MaxDrawdown)
	}

	if stats.MaxUpside != 30 {
		t.Errorf("expected upside 30, got %d", stats.MaxUpside)
	}
}

func TestComputeStatsStreaks(t *testing.T) {
	t.Parallel()

	// profits: +10 +10 +10 -5 -5 +10
	run := model.RunResult{
		Steps:         stepsFromBankrolls(100, 110, 120, 130, 125, 120, 130),
		FinalBankroll: 130,
		Spins:         6,
	}

	stats := ComputeStats([]model.RunResult{run}, 100)

	if stats.LongestWinStreak != 3 {
		t.Errorf("expected win streak 3, got %d", stats.LongestWinStreak)
	}

	if stats.LongestLossStreak != 2 {
		t.Errorf("expected loss streak 2, got %d", stats.LongestLossStreak)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	t.Parallel()

	stats := ComputeStats(nil, 100)

	if stats.Simulations != 0 {
		t.Errorf("expected zero simulations, got %d", stats.Simulations)
	}
}
