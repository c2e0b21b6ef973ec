package bet

import "spinsim/internal/wheel"

// Resolve returns the gross return for the wagers against one spin result:
// every winning wager pays its stake back plus amount times the payout ratio.
// Wagers that miss contribute nothing. Inputs are never mutated and the
// function is total for any placement with a non-empty number set.
func Resolve(wagers []Wager, result wheel.SpinResult) int {
	var payout int

	for _, w := range wagers {
		if !w.Placement.Covers(result.Value) {
			continue
		}

		payout += w.Amount + w.Amount*w.Placement.PayoutRatio()
	}

	return payout
}

// TotalStaked sums the wager amounts.
func TotalStaked(wagers []Wager) int {
	var total int

	for _, w := range wagers {
		total += w.Amount
	}

	return total
}
