package engine

import (
	"context"
	"io"
	"math/rand"
	"reflect"
	"testing"

	"golang.org/x/exp/slog"

	"spinsim/internal/bet"
	"spinsim/internal/lane"
	"spinsim/internal/model"
	"spinsim/internal/wheel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func martingaleLane(baseAmount int) *lane.Lane {
	l := &lane.Lane{
		Name:     "martingale",
		Enabled:  true,
		Mode:     lane.ModeStatic,
		BaseBets: []bet.Wager{{Placement: bet.RedPlacement(), Amount: baseAmount}},
		Config: lane.Config{
			OnWinAction:  lane.ActionReset,
			OnLossAction: lane.ActionMultiply,
			OnLossValue:  2,
		},
	}

	if err := l.Normalize(); err != nil {
		panic(err)
	}

	return l
}

func defaultSettings() model.Settings {
	return model.Settings{
		StartingBankroll: 1000,
		TableMax:         500,
		SpinsPerRun:      100,
		Runs:             1,
	}
}

func TestRunBankrollAccounting(t *testing.T) {
	t.Parallel()

	runner := NewRunner(discardLogger(), wheel.New(rand.NewSource(7)),
		[]*lane.Lane{martingaleLane(1)}, defaultSettings(), nil, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(res.Steps) == 0 {
		t.Fatal("expected steps")
	}

	prev := 1000

	for i, step := range res.Steps {
		if step.BankrollBefore != prev {
			t.Fatalf("step %d: bankroll_before %d does not chain from %d", i, step.BankrollBefore, prev)
		}

		if step.BankrollAfter != step.BankrollBefore+step.TotalProfit {
			t.Fatalf("step %d: bankroll_after %d != before %d + profit %d",
				i, step.BankrollAfter, step.BankrollBefore, step.TotalProfit)
		}

		if step.BankrollAfter < 0 {
			t.Fatalf("step %d: negative bankroll %d", i, step.BankrollAfter)
		}

		var laneProfit int
		for _, detail := range step.Lanes {
			laneProfit += detail.Profit
		}

		if laneProfit != step.TotalProfit {
			t.Fatalf("step %d: lane profits %d do not sum to %d", i, laneProfit, step.TotalProfit)
		}

		prev = step.BankrollAfter
	}

	if res.FinalBankroll != prev {
		t.Errorf("final bankroll %d != last step bankroll %d", res.FinalBankroll, prev)
	}
}

func TestInsufficientFundsGuardrail(t *testing.T) {
	t.Parallel()

	settings := model.Settings{
		StartingBankroll: 10,
		TableMax:         1000,
		SpinsPerRun:      50,
		Runs:             1,
	}

	runner := NewRunner(discardLogger(), wheel.New(rand.NewSource(1)),
		[]*lane.Lane{martingaleLane(15)}, settings, nil, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("guardrail must not be an error: %v", err)
	}

	if res.StopReason != model.StopInsufficientFunds {
		t.Fatalf("expected insufficient funds stop, got %s", res.StopReason)
	}

	if len(res.Steps) != 1 {
		t.Fatalf("expected exactly one terminal step, got %d", len(res.Steps))
	}

	step := res.Steps[0]

	if !step.Terminal {
		t.Error("terminal step not marked terminal")
	}

	if step.TotalProfit != 0 {
		t.Errorf("terminal step must carry zero outcome, got %d", step.TotalProfit)
	}

	if step.BankrollAfter != 10 || step.BankrollBefore != 10 {
		t.Errorf("bankroll must be unchanged, got %d -> %d", step.BankrollBefore, step.BankrollAfter)
	}

	// no wheel draw was attempted
	if step.Result != (wheel.SpinResult{}) {
		t.Errorf("expected empty result on the terminal step, got %+v", step.Result)
	}

	if res.FinalBankroll != 10 {
		t.Errorf("expected final bankroll 10, got %d", res.FinalBankroll)
	}
}

func TestFixedSequenceProducesExactlyKSteps(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.FixedOutcomes = []int{17, 32, 0, wheel.DoubleZero, 5}

	runner := NewRunner(discardLogger(), wheel.New(nil),
		[]*lane.Lane{martingaleLane(1)}, settings, nil, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(res.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(res.Steps))
	}

	if res.StopReason != model.StopSequenceExhausted {
		t.Errorf("expected sequence_exhausted, got %s", res.StopReason)
	}

	wantValues := []int{17, 32, 0, wheel.DoubleZero, 5}
	for i, step := range res.Steps {
		if step.Result.Value != wantValues[i] {
			t.Errorf("step %d: expected outcome %d, got %d", i, wantValues[i], step.Result.Value)
		}
	}
}

func TestProfitGoalStopsRun(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.ProfitGoalEnabled = true
	settings.ProfitGoal = 1
	settings.FixedOutcomes = []int{32, 32, 32} // red wins every spin

	runner := NewRunner(discardLogger(), wheel.New(nil),
		[]*lane.Lane{martingaleLane(1)}, settings, nil, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.StopReason != model.StopProfitGoal {
		t.Fatalf("expected profit_goal stop, got %s", res.StopReason)
	}

	if len(res.Steps) != 1 {
		t.Errorf("expected stop after the first winning spin, got %d steps", len(res.Steps))
	}
}

func TestBankruptcyStopsRun(t *testing.T) {
	t.Parallel()

	settings := model.Settings{
		StartingBankroll: 10,
		TableMax:         1000,
		SpinsPerRun:      50,
		Runs:             1,
		FixedOutcomes:    []int{17, 17}, // black: red lane loses
	}

	runner := NewRunner(discardLogger(), wheel.New(nil),
		[]*lane.Lane{martingaleLane(10)}, settings, nil, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.StopReason != model.StopBankrupt {
		t.Fatalf("expected bankrupt stop, got %s", res.StopReason)
	}

	if res.FinalBankroll != 0 {
		t.Errorf("expected bankroll 0, got %d", res.FinalBankroll)
	}

	if len(res.Steps) != 1 {
		t.Errorf("expected a single losing spin, got %d", len(res.Steps))
	}
}

func TestPauseResumeProducesIdenticalLog(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.SpinsPerRun = 50

	plain := NewRunner(discardLogger(), wheel.New(rand.NewSource(99)),
		[]*lane.Lane{martingaleLane(1)}, settings, nil, nil)

	wantRes, err := plain.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	control := NewController()
	control.Pause()

	paused := NewRunner(discardLogger(), wheel.New(rand.NewSource(99)),
		[]*lane.Lane{martingaleLane(1)}, settings, control, nil)

	type outcome struct {
		res *model.RunResult
		err error
	}

	resCh := make(chan outcome, 1)

	go func() {
		res, err := paused.Run(context.Background())
		resCh <- outcome{res: res, err: err}
	}()

	control.Resume()

	got := <-resCh
	if got.err != nil {
		t.Fatalf("paused run failed: %v", got.err)
	}

	if !reflect.DeepEqual(got.res.Steps, wantRes.Steps) {
		t.Error("pausing and resuming changed the step log")
	}
}

func TestPauseBeforeRunReportsPaused(t *testing.T) {
	t.Parallel()

	control := NewController()
	control.Pause()
	control.markRunning()

	if got := control.Status(); got != StatusPaused {
		t.Fatalf("status = %s, want %s", got, StatusPaused)
	}

	control.Resume()

	if got := control.Status(); got != StatusRunning {
		t.Fatalf("status after resume = %s, want %s", got, StatusRunning)
	}
}

func TestCancellationUnwindsCleanly(t *testing.T) {
	t.Parallel()

	control := NewController()
	control.SetStepMode(true)

	flushed := make(chan model.SimulationStep, 100)
	flush := func(steps []model.SimulationStep) {
		for _, s := range steps {
			flushed <- s
		}
	}

	settings := defaultSettings()

	runner := NewRunner(discardLogger(), wheel.New(rand.NewSource(3)),
		[]*lane.Lane{martingaleLane(1)}, settings, control, flush)
	runner.SetFlushInterval(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		res *model.RunResult
		err error
	}

	resCh := make(chan outcome, 1)

	go func() {
		res, err := runner.Run(ctx)
		resCh <- outcome{res: res, err: err}
	}()

	// first spin flushes, then the loop waits for an advance signal
	<-flushed
	control.Advance()
	<-flushed

	cancel()

	got := <-resCh
	if got.err != nil {
		t.Fatalf("cancellation must not be an error: %v", got.err)
	}

	if got.res.StopReason != model.StopCancelled {
		t.Fatalf("expected cancelled stop, got %s", got.res.StopReason)
	}

	if len(got.res.Steps) != 2 {
		t.Errorf("expected the two fully applied spins, got %d", len(got.res.Steps))
	}
}

func TestMalformedLanePropagatesError(t *testing.T) {
	t.Parallel()

	broken := &lane.Lane{
		Name:    "broken",
		Enabled: true,
		Mode:    lane.ModeRotating, // no sequence: Prepare fails
	}

	runner := NewRunner(discardLogger(), wheel.New(rand.NewSource(1)),
		[]*lane.Lane{broken}, defaultSettings(), nil, nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected error for malformed lane")
	}
}

func TestStepsAreFlushedInBatches(t *testing.T) {
	t.Parallel()

	var batches [][]model.SimulationStep
	flush := func(steps []model.SimulationStep) {
		batch := make([]model.SimulationStep, len(steps))
		copy(batch, steps)
		batches = append(batches, batch)
	}

	settings := defaultSettings()
	settings.SpinsPerRun = 60

	runner := NewRunner(discardLogger(), wheel.New(rand.NewSource(11)),
		[]*lane.Lane{martingaleLane(1)}, settings, nil, flush)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var total int
	for _, b := range batches {
		total += len(b)
	}

	if total != len(res.Steps) {
		t.Errorf("flushed %d steps, run produced %d", total, len(res.Steps))
	}

	if len(batches) < 2 {
		t.Errorf("expected several flushes for 60 spins, got %d", len(batches))
	}
}
