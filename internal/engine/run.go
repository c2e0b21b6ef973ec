package engine

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"spinsim/internal/bet"
	"spinsim/internal/lane"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
	"spinsim/internal/wheel"
)

// FlushFunc receives batched step records. Consumers must tolerate several
// steps arriving at once: the runner buffers and flushes at a bounded
// interval and on the final spin.
type FlushFunc func(steps []model.SimulationStep)

const defaultFlushEvery = 25

// Runner drives one full simulation run across all enabled lanes.
type Runner struct {
	log        *slog.Logger
	wheel      *wheel.Wheel
	lanes      []*lane.Lane
	settings   model.Settings
	control    *Controller
	flush      FlushFunc
	flushEvery int
}

func NewRunner(
	log *slog.Logger,
	w *wheel.Wheel,
	lanes []*lane.Lane,
	settings model.Settings,
	control *Controller,
	flush FlushFunc,
) *Runner {
	if control == nil {
		control = NewController()
	}

	return &Runner{
		log:        log,
		wheel:      w,
		lanes:      lanes,
		settings:   settings,
		control:    control,
		flush:      flush,
		flushEvery: defaultFlushEvery,
	}
}

// SetFlushInterval overrides how many steps are buffered before a flush.
func (r *Runner) SetFlushInterval(n int) {
	if n > 0 {
		r.flushEvery = n
	}
}

// Run executes the spin loop until a stop condition, a guardrail, or
// cancellation ends it. Cancellation is a clean unwind, not an error; the
// partial step log stays usable. Only a malformed lane configuration
// surfaces as an error.
func (r *Runner) Run(ctx context.Context) (*model.RunResult, error) {
	const op = "engine.Runner.Run"

	for _, l := range r.lanes {
		l.ResetState()
	}

	enabled := enabledLanes(r.lanes)

	bankroll := r.settings.StartingBankroll
	fixed := r.settings.FixedOutcomes

	maxSpins := r.settings.SpinsPerRun
	if len(fixed) > 0 {
		maxSpins = len(fixed)
	}

	var (
		steps   []model.SimulationStep
		pending []model.SimulationStep
	)

	r.control.markRunning()
	defer r.control.markStopped()

	flushPending := func() {
		if r.flush != nil && len(pending) > 0 {
			r.flush(pending)
		}

		pending = nil
	}

	stop := model.StopCompleted

	for spin := 1; ; spin++ {
		if err := r.control.AwaitContinue(ctx); err != nil {
			flushPending()

			return r.result(steps, bankroll, model.StopCancelled), nil
		}

		if done, reason := r.stopCondition(spin, maxSpins, bankroll); done {
			stop = reason
			break
		}

		// all lanes commit before the wheel spins so one lane's outcome
		// never leaks into another's decision for the same spin. Wagers are
		// capped by the table max only; the insufficient-funds guardrail
		// below owns the bankroll constraint, so an oversized progression
		// stops the run instead of being silently shrunk.
		prepared := make([]lane.PrepareResult, len(enabled))

		var totalWagered int

		for i, l := range enabled {
			p, err := l.Prepare(r.settings.TableMax, 0)
			if err != nil {
				flushPending()

				return nil, fmt.Errorf("%s: %w", op, err)
			}

			prepared[i] = p
			totalWagered += bet.TotalStaked(p.Wagers)
		}

		if totalWagered > bankroll {
			step := model.SimulationStep{
				Spin:           spin,
				TotalWagered:   totalWagered,
				BankrollBefore: bankroll,
				BankrollAfter:  bankroll,
				Terminal:       true,
				StopReason:     model.StopInsufficientFunds,
			}

			steps = append(steps, step)
			pending = append(pending, step)
			flushPending()

			r.log.Warn("run stopped: insufficient funds for next spin",
				sl.Int("spin", spin),
				sl.Int("wagered", totalWagered),
				sl.Int("bankroll", bankroll))

			return r.result(steps, bankroll, model.StopInsufficientFunds), nil
		}

		// cancellation is re-checked right before the draw so an observed
		// cancel never applies a partial spin
		if ctx.Err() != nil {
			flushPending()

			return r.result(steps, bankroll, model.StopCancelled), nil
		}

		var result wheel.SpinResult
		if len(fixed) > 0 {
			result = wheel.ResultFor(fixed[spin-1])
		} else {
			result = r.wheel.Spin()
		}

		details := make([]model.LaneLogDetail, 0, len(enabled))

		var totalProfit int

		for i, l := range enabled {
			upd := l.Update(prepared[i].Wagers, result)
			totalProfit += upd.Profit

			details = append(details, model.LaneLogDetail{
				LaneID:       l.ID,
				LaneName:     l.Name,
				Wagered:      upd.Staked,
				Payout:       upd.Payout,
				Profit:       upd.Profit,
				Won:          upd.Won,
				Descriptions: describeWagers(prepared[i].Wagers),
				TriggerNotes: prepared[i].TriggerNotes,
			})
		}

		newBankroll := bankroll + totalProfit
		if newBankroll < 0 {
			newBankroll = 0
		}

		step := model.SimulationStep{
			Spin:           spin,
			Result:         result,
			Lanes:          details,
			TotalWagered:   totalWagered,
			TotalProfit:    totalProfit,
			BankrollBefore: bankroll,
			BankrollAfter:  newBankroll,
		}

		steps = append(steps, step)
		pending = append(pending, step)

		if len(pending) >= r.flushEvery {
			flushPending()
		}

		bankroll = newBankroll

		if err := r.control.AwaitStep(ctx); err != nil {
			flushPending()

			return r.result(steps, bankroll, model.StopCancelled), nil
		}
	}

	flushPending()

	r.log.Info("run finished",
		sl.String("stop_reason", string(stop)),
		sl.Int("spins", len(steps)),
		sl.Int("final_bankroll", bankroll))

	return r.result(steps, bankroll, stop), nil
}

func (r *Runner) stopCondition(spin, maxSpins, bankroll int) (bool, model.StopReason) {
	if bankroll <= 0 {
		return true, model.StopBankrupt
	}

	if r.settings.ProfitGoalEnabled &&
		bankroll >= r.settings.StartingBankroll+r.settings.ProfitGoal {
		return true, model.StopProfitGoal
	}

	if spin > maxSpins {
		if len(r.settings.FixedOutcomes) > 0 {
			return true, model.StopSequenceExhausted
		}

		return true, model.StopCompleted
	}

	return false, model.StopNone
}

func (r *Runner) result(steps []model.SimulationStep, bankroll int, stop model.StopReason) *model.RunResult {
	return &model.RunResult{
		Steps:         steps,
		FinalBankroll: bankroll,
		Spins:         len(steps),
		StopReason:    stop,
	}
}

func enabledLanes(lanes []*lane.Lane) []*lane.Lane {
	enabled := make([]*lane.Lane, 0, len(lanes))

	for _, l := range lanes {
		if l.Enabled {
			enabled = append(enabled, l)
		}
	}

	return enabled
}

func describeWagers(wagers []bet.Wager) []string {
	if len(wagers) == 0 {
		return nil
	}

	descriptions := make([]string, 0, len(wagers))

	for _, w := range wagers {
		descriptions = append(descriptions, w.Describe())
	}

	return descriptions
}
