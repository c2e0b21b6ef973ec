package engine

import "spinsim/internal/model"

// ComputeStats aggregates a batch's run results. Each run's step sequence is
// scanned exactly once for drawdown, upside and streaks.
func ComputeStats(runs []model.RunResult, startingBankroll int) model.BatchStats {
	stats := model.BatchStats{Simulations: len(runs)}

	if len(runs) == 0 {
		return stats
	}

	var (
		totalFinal int
		totalSpins int
	)

	stats.BestRun = runs[0].FinalBankroll
	stats.WorstRun = runs[0].FinalBankroll

	for _, run := range runs {
		totalFinal += run.FinalBankroll
		totalSpins += run.Spins

		switch {
		case run.FinalBankroll > startingBankroll:
			stats.Wins++
		case run.FinalBankroll < startingBankroll:
			stats.Losses++
		default:
			stats.Draws++
		}

		if run.FinalBankroll > stats.BestRun {
			stats.BestRun = run.FinalBankroll
		}

		if run.FinalBankroll < stats.WorstRun {
			stats.WorstRun = run.FinalBankroll
		}

		scanRun(run, startingBankroll, &stats)
	}

	stats.AvgFinalBankroll = float64(totalFinal) / float64(len(runs))
	stats.AvgSpins = float64(totalSpins) / float64(len(runs))

	return stats
}

func scanRun(run model.RunResult, startingBankroll int, stats *model.BatchStats) {
	peak := startingBankroll

	var winStreak, lossStreak int

	for _, step := range run.Steps {
		if step.BankrollAfter > peak {
			peak = step.BankrollAfter
		}

		if drawdown := peak - step.BankrollAfter; drawdown > stats.MaxDrawdown {
			stats.MaxDrawdown = drawdown
		}

		if upside := step.BankrollAfter - startingBankroll; upside > stats.MaxUpside {
			stats.MaxUpside = upside
		}

		switch {
		case step.TotalProfit > 0:
			winStreak++
			lossStreak = 0
		case step.TotalProfit < 0:
			lossStreak++
			winStreak = 0
		}

		if winStreak > stats.LongestWinStreak {
			stats.LongestWinStreak = winStreak
		}

		if lossStreak > stats.LongestLossStreak {
			stats.LongestLossStreak = lossStreak
		}
	}
}
