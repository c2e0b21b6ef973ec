package model

import (
	"time"

	"github.com/google/uuid"

	"spinsim/internal/wheel"
)

// Settings are the user-facing inputs for one simulation batch.
type Settings struct {
	StartingBankroll  int   `json:"starting_bankroll" validate:"required,min=1"`
	TableMin          int   `json:"table_min" validate:"min=0"`
	TableMax          int   `json:"table_max" validate:"required,min=1"`
	SpinsPerRun       int   `json:"spins_per_run" validate:"required,min=1"`
	Runs              int   `json:"runs" validate:"required,min=1"`
	ProfitGoalEnabled bool  `json:"profit_goal_enabled"`
	ProfitGoal        int   `json:"profit_goal" validate:"min=0"`
	FixedOutcomes     []int `json:"fixed_outcomes,omitempty"`
	Seed              int64 `json:"seed,omitempty"`
}

type StopReason string

const (
	StopNone              StopReason = ""
	StopCompleted         StopReason = "completed"
	StopBankrupt          StopReason = "bankrupt"
	StopProfitGoal        StopReason = "profit_goal"
	StopSequenceExhausted StopReason = "sequence_exhausted"
	StopInsufficientFunds StopReason = "insufficient_funds"
	StopCancelled         StopReason = "cancelled"
)

// LaneLogDetail is one lane's share of a spin record.
type LaneLogDetail struct {
	LaneID       uuid.UUID `json:"lane_id"`
	LaneName     string    `json:"lane_name"`
	Wagered      int       `json:"wagered"`
	Payout       int       `json:"payout"`
	Profit       int       `json:"profit"`
	Won          bool      `json:"won"`
	Descriptions []string  `json:"descriptions,omitempty"`
	TriggerNotes []string  `json:"trigger_notes,omitempty"`
}

// SimulationStep is one spin's full record. Immutable once appended.
type SimulationStep struct {
	Spin           int              `json:"spin"`
	Result         wheel.SpinResult `json:"result"`
	Lanes          []LaneLogDetail  `json:"lanes,omitempty"`
	TotalWagered   int              `json:"total_wagered"`
	TotalProfit    int              `json:"total_profit"`
	BankrollBefore int              `json:"bankroll_before"`
	BankrollAfter  int              `json:"bankroll_after"`
	Terminal       bool             `json:"terminal,omitempty"`
	StopReason     StopReason       `json:"stop_reason,omitempty"`
}

// RunResult is one completed (or protectively stopped) simulation run.
type RunResult struct {
	Steps         []SimulationStep `json:"steps"`
	FinalBankroll int              `json:"final_bankroll"`
	Spins         int              `json:"spins"`
	StopReason    StopReason       `json:"stop_reason"`
}

// BatchStats aggregates the runs of one Monte-Carlo batch.
type BatchStats struct {
	Simulations       int     `json:"simulations"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	Draws             int     `json:"draws"`
	AvgFinalBankroll  float64 `json:"avg_final_bankroll"`
	BestRun           int     `json:"best_run"`
	WorstRun          int     `json:"worst_run"`
	AvgSpins          float64 `json:"avg_spins"`
	MaxDrawdown       int     `json:"max_drawdown"`
	MaxUpside         int     `json:"max_upside"`
	LongestWinStreak  int     `json:"longest_win_streak"`
	LongestLossStreak int     `json:"longest_loss_streak"`
}

// BatchSession is one Monte-Carlo batch with the settings that produced it.
type BatchSession struct {
	ID        uuid.UUID   `json:"id"`
	Label     string      `json:"label"`
	CreatedAt time.Time   `json:"created_at"`
	Runs      []RunResult `json:"runs"`
	Stats     BatchStats  `json:"stats"`
	Settings  Settings    `json:"settings"`
}

// SessionSummary is the listing shape for batch history.
type SessionSummary struct {
	ID        uuid.UUID  `json:"id"`
	Label     string     `json:"label"`
	CreatedAt time.Time  `json:"created_at"`
	Stats     BatchStats `json:"stats"`
}
