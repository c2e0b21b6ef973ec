package lane

import (
	"testing"

	"spinsim/internal/bet"
)

func triggerLane(rule TriggerRule, threshold int) *Lane {
	l := &Lane{
		Name:    "watcher",
		Enabled: true,
		Mode:    ModeStatic,
		Config: Config{
			OnWinAction:  ActionDoNothing,
			OnLossAction: ActionDoNothing,
		},
		Triggers: []*TriggerBet{
			{
				Active:           true,
				TriggerPlacement: bet.RedPlacement(),
				Rule:             rule,
				Threshold:        threshold,
				BetPlacement:     bet.RedPlacement(),
				BetAmount:        5,
			},
		},
	}

	if err := l.Normalize(); err != nil {
		panic(err)
	}

	return l
}

func TestTriggerMissStreakFires(t *testing.T) {
	t.Parallel()

	l := triggerLane(TriggerMissStreak, 2)

	// two consecutive misses of red
	spinOnce(t, l, blackResult)
	spinOnce(t, l, greenResult)

	prepared, err := l.Prepare(1000, 0)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if len(prepared.Wagers) != 1 || prepared.Wagers[0].Amount != 5 {
		t.Fatalf("expected trigger wager of 5, got %+v", prepared.Wagers)
	}

	if len(prepared.TriggerNotes) != 1 {
		t.Errorf("expected one trigger note, got %d", len(prepared.TriggerNotes))
	}
}

func TestTriggerStreakResetsOnHit(t *testing.T) {
	t.Parallel()

	l := triggerLane(TriggerMissStreak, 2)

	spinOnce(t, l, blackResult)
	spinOnce(t, l, redResult) // hit resets the miss streak
	spinOnce(t, l, blackResult)

	prepared, err := l.Prepare(1000, 0)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if len(prepared.Wagers) != 0 {
		t.Errorf("expected no trigger wager after reset, got %+v", prepared.Wagers)
	}
}

func TestTriggerFiresOnceThenRecounts(t *testing.T) {
	t.Parallel()

	l := triggerLane(TriggerMissStreak, 2)

	spinOnce(t, l, blackResult)
	spinOnce(t, l, blackResult)

	// the firing spin itself misses red again, so it seeds the next streak
	prepared, err := l.Prepare(1000, 0)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if len(prepared.Wagers) != 1 {
		t.Fatalf("expected trigger to fire, got %+v", prepared.Wagers)
	}

	l.Update(prepared.Wagers, blackResult)

	// only one additional miss is needed to fire again
	spinOnce(t, l, blackResult)

	prepared, err = l.Prepare(1000, 0)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if len(prepared.Wagers) != 1 {
		t.Errorf("expected trigger to fire again after recount, got %+v", prepared.Wagers)
	}
}

func TestTriggerHitStreak(t *testing.T) {
	t.Parallel()

	l := triggerLane(TriggerHitStreak, 3)

	spinOnce(t, l, redResult)
	spinOnce(t, l, redResult)

	prepared, err := l.Prepare(1000, 0)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if len(prepared.Wagers) != 0 {
		t.Fatalf("trigger must not fire below threshold, got %+v", prepared.Wagers)
	}

	l.Update(prepared.Wagers, redResult)

	prepared, err = l.Prepare(1000, 0)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if len(prepared.Wagers) != 1 {
		t.Errorf("expected hit-streak trigger to fire, got %+v", prepared.Wagers)
	}
}

func TestInactiveTriggerNeverFires(t *testing.T) {
	t.Parallel()

	l := triggerLane(TriggerMissStreak, 1)
	l.Triggers[0].Active = false

	spinOnce(t, l, blackResult)
	spinOnce(t, l, blackResult)

	prepared, err := l.Prepare(1000, 0)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	if len(prepared.Wagers) != 0 {
		t.Errorf("inactive trigger fired: %+v", prepared.Wagers)
	}
}
