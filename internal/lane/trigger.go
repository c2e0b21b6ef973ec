package lane

import (
	"fmt"

	"github.com/google/uuid"

	"spinsim/internal/bet"
	"spinsim/internal/wheel"
)

type TriggerRule string

const (
	TriggerMissStreak TriggerRule = "miss_streak"
	TriggerHitStreak  TriggerRule = "hit_streak"
)

// TriggerBet fires a side wager once its watched placement has missed or hit
// a configured number of consecutive spins. The streak is tracked with an
// incremental counter updated once per spin rather than a history rescan.
type TriggerBet struct {
	ID               uuid.UUID     `json:"id"`
	Active           bool          `json:"active"`
	TriggerPlacement bet.Placement `json:"trigger_placement"`
	Rule             TriggerRule   `json:"rule"`
	Threshold        int           `json:"threshold"`
	BetPlacement     bet.Placement `json:"bet_placement"`
	BetAmount        int           `json:"bet_amount"`

	streak int
}

// fire reports whether the trigger adds a side wager to the next spin. The
// streak resets when it fires; the firing spin's own outcome still counts
// toward the next streak via observe.
func (t *TriggerBet) fire() (bet.Wager, string, bool) {
	if !t.Active || t.Threshold <= 0 || t.streak < t.Threshold {
		return bet.Wager{}, "", false
	}

	t.streak = 0

	note := fmt.Sprintf("trigger fired: %s after %d %s on %s",
		t.BetPlacement.DisplayName, t.Threshold, t.ruleWord(), t.TriggerPlacement.DisplayName)

	return bet.Wager{Placement: t.BetPlacement, Amount: t.BetAmount}, note, true
}

// observe advances the streak counter for one spin outcome.
func (t *TriggerBet) observe(result wheel.SpinResult) {
	if !t.Active {
		return
	}

	covered := t.TriggerPlacement.Covers(result.Value)

	switch t.Rule {
	case TriggerHitStreak:
		if covered {
			t.streak++
		} else {
			t.streak = 0
		}
	default: // miss streak
		if covered {
			t.streak = 0
		} else {
			t.streak++
		}
	}
}

func (t *TriggerBet) ruleWord() string {
	if t.Rule == TriggerHitStreak {
		return "hits"
	}

	return "misses"
}
