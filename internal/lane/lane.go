package lane

import (
	"fmt"

	"github.com/google/uuid"

	"spinsim/internal/bet"
	"spinsim/internal/wheel"
)

type Mode string

const (
	ModeStatic   Mode = "static"
	ModeRotating Mode = "rotating"
	ModeChain    Mode = "chain"
)

type Action string

const (
	ActionReset         Action = "reset"
	ActionMultiply      Action = "multiply"
	ActionAddUnits      Action = "add_units"
	ActionSubtractUnits Action = "subtract_units"
	ActionFibonacci     Action = "fibonacci"
	ActionDoNothing     Action = "do_nothing"
)

type ChainAction string

const (
	ChainRestart   ChainAction = "restart_chain"
	ChainNextStep  ChainAction = "next_chain_step"
	ChainPrevStep  ChainAction = "prev_chain_step"
	ChainDoNothing ChainAction = "do_nothing"
)

// ChainStep is one named, fixed bet layout in an ordered chain.
type ChainStep struct {
	Name   string      `json:"name"`
	Wagers []bet.Wager `json:"wagers"`
}

type Config struct {
	// static
	OnWinAction  Action `json:"on_win_action,omitempty"`
	OnWinValue   int    `json:"on_win_value,omitempty"`
	OnLossAction Action `json:"on_loss_action,omitempty"`
	OnLossValue  int    `json:"on_loss_value,omitempty"`

	// rotating
	SequenceText string          `json:"sequence_text,omitempty"`
	Sequence     []bet.Placement `json:"sequence,omitempty"`
	BaseUnit     int             `json:"base_unit,omitempty"`
	OnWinUnits   int             `json:"on_win_units,omitempty"`
	OnLossUnits  int             `json:"on_loss_units,omitempty"`
	MinUnits     int             `json:"min_units,omitempty"`
	RotateOnWin  bool            `json:"rotate_on_win,omitempty"`
	RotateOnLoss bool            `json:"rotate_on_loss,omitempty"`

	// chain
	Steps       []ChainStep `json:"steps,omitempty"`
	ChainOnWin  ChainAction `json:"chain_on_win,omitempty"`
	ChainOnLoss ChainAction `json:"chain_on_loss,omitempty"`
	ChainLoop   bool        `json:"chain_loop,omitempty"`

	// shared
	UseResetOnSessionProfit bool `json:"use_reset_on_session_profit,omitempty"`
	ResetOnSessionProfit    int  `json:"reset_on_session_profit,omitempty"`
}

// State is the runtime progression state. It persists across spins within
// one run and is reset at the start of each run.
type State struct {
	Multiplier    int `json:"multiplier"`
	FibIndex      int `json:"fib_index"`
	RotatingIndex int `json:"rotating_index"`
	RotatingUnits int `json:"rotating_units"`
	ChainIndex    int `json:"chain_index"`
	SessionProfit int `json:"session_profit"`
}

type Lane struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Color    string        `json:"color"`
	Enabled  bool          `json:"enabled"`
	Mode     Mode          `json:"mode"`
	BaseBets []bet.Wager   `json:"base_bets,omitempty"`
	Config   Config        `json:"config"`
	Triggers []*TriggerBet `json:"triggers,omitempty"`
	State    State         `json:"-"`
}

// Normalize parses the rotating sequence text if the canonical sequence is
// absent and validates mode-specific configuration. Called once before a run
// starts so malformed lanes never reach the spin loop.
func (l *Lane) Normalize() error {
	const op = "lane.Lane.Normalize"

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	if l.Config.BaseUnit < 1 {
		l.Config.BaseUnit = 1
	}

	if l.Config.MinUnits < 1 {
		l.Config.MinUnits = 1
	}

	switch l.Mode {
	case ModeStatic:
	case ModeRotating:
		if len(l.Config.Sequence) == 0 {
			if l.Config.SequenceText == "" {
				return fmt.Errorf("%s: rotating lane %q has no bet sequence", op, l.Name)
			}

			sequence, err := bet.ParseSequence(l.Config.SequenceText)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			l.Config.Sequence = sequence
		}
	case ModeChain:
		if len(l.Config.Steps) == 0 {
			return fmt.Errorf("%s: chain lane %q has no steps", op, l.Name)
		}
	default:
		return fmt.Errorf("%s: unknown mode %q", op, l.Mode)
	}

	l.ResetState()

	return nil
}

// ResetState returns the lane to its pre-run progression state.
func (l *Lane) ResetState() {
	l.State = State{
		Multiplier:    1,
		RotatingUnits: l.Config.BaseUnit,
	}

	for _, trigger := range l.Triggers {
		trigger.streak = 0
	}
}

// resetProgression zeroes the progression back to its base without touching
// trigger streaks; used by the session-profit reset.
func (l *Lane) resetProgression() {
	l.State.Multiplier = 1
	l.State.FibIndex = 0
	l.State.RotatingIndex = 0
	l.State.RotatingUnits = l.Config.BaseUnit
	l.State.ChainIndex = 0
	l.State.SessionProfit = 0
}

type PrepareResult struct {
	Wagers       []bet.Wager
	TriggerNotes []string
}

// Prepare derives the wagers for the next spin from the lane's mode and
// current progression state. tableMax and bankrollShare cap every single
// wager; amounts never fall below one unit.
func (l *Lane) Prepare(tableMax, bankrollShare int) (PrepareResult, error) {
	const op = "lane.Lane.Prepare"

	wagers, err := progressionFor(l.Mode).prepare(l)
	if err != nil {
		return PrepareResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var notes []string

	for _, trigger := range l.Triggers {
		if wager, note, fired := trigger.fire(); fired {
			wagers = append(wagers, wager)
			notes = append(notes, note)
		}
	}

	cap := tableMax
	if bankrollShare > 0 && bankrollShare < cap {
		cap = bankrollShare
	}

	for i := range wagers {
		wagers[i].Amount = clampAmount(wagers[i].Amount, cap)
	}

	return PrepareResult{Wagers: wagers, TriggerNotes: notes}, nil
}

type UpdateResult struct {
	Staked int
	Payout int
	Profit int
	Won    bool
}

// Update applies the realized spin outcome: resolves the wagers, advances the
// progression, updates trigger streaks and handles the session-profit reset.
func (l *Lane) Update(wagers []bet.Wager, result wheel.SpinResult) UpdateResult {
	staked := bet.TotalStaked(wagers)
	payout := bet.Resolve(wagers, result)
	profit := payout - staked

	won := profit > 0

	if staked > 0 && profit != 0 {
		progressionFor(l.Mode).apply(l, won)
	}

	for _, trigger := range l.Triggers {
		trigger.observe(result)
	}

	l.State.SessionProfit += profit
	if l.Config.UseResetOnSessionProfit &&
		l.Config.ResetOnSessionProfit > 0 &&
		l.State.SessionProfit >= l.Config.ResetOnSessionProfit {
		l.resetProgression()
	}

	return UpdateResult{
		Staked: staked,
		Payout: payout,
		Profit: profit,
		Won:    won,
	}
}

func clampAmount(amount, max int) int {
	if amount < 1 {
		return 1
	}

	if max > 0 && amount > max {
		return max
	}

	return amount
}
