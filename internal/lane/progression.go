package lane

import (
	"fmt"

	"spinsim/internal/bet"
)

// progression is the per-mode variant behind Prepare/Update. Variants are
// stateless; all mutable progression state lives on the lane.
type progression interface {
	prepare(l *Lane) ([]bet.Wager, error)
	apply(l *Lane, won bool)
}

var progressions = map[Mode]progression{
	ModeStatic:   staticProgression{},
	ModeRotating: rotatingProgression{},
	ModeChain:    chainProgression{},
}

func progressionFor(mode Mode) progression {
	if p, ok := progressions[mode]; ok {
		return p
	}

	return staticProgression{}
}

type staticProgression struct{}

func (staticProgression) prepare(l *Lane) ([]bet.Wager, error) {
	scale := l.State.Multiplier

	if l.Config.OnWinAction == ActionFibonacci || l.Config.OnLossAction == ActionFibonacci {
		scale = l.Config.BaseUnit * fib(l.State.FibIndex)
	}

	wagers := make([]bet.Wager, 0, len(l.BaseBets))

	for _, base := range l.BaseBets {
		wagers = append(wagers, bet.Wager{
			Placement: base.Placement,
			Amount:    base.Amount * scale,
		})
	}

	return wagers, nil
}

func (staticProgression) apply(l *Lane, won bool) {
	action, value := l.Config.OnLossAction, l.Config.OnLossValue
	if won {
		action, value = l.Config.OnWinAction, l.Config.OnWinValue
	}

	switch action {
	case ActionReset:
		l.State.Multiplier = 1
		l.State.FibIndex = 0
	case ActionMultiply:
		l.State.Multiplier *= value
	case ActionAddUnits:
		l.State.Multiplier += value
	case ActionSubtractUnits:
		l.State.Multiplier -= value
	case ActionFibonacci:
		// Fibonacci walks forward on a loss and regresses on a win,
		// floored at the start of the sequence.
		if won {
			l.State.FibIndex -= value
		} else {
			l.State.FibIndex += value
		}

		if l.State.FibIndex < 0 {
			l.State.FibIndex = 0
		}
	case ActionDoNothing:
	}

	if l.State.Multiplier < 1 {
		l.State.Multiplier = 1
	}
}

// fib returns the Fibonacci number at the given step, starting 1, 1, 2, 3, 5.
func fib(index int) int {
	a, b := 1, 1
	for i := 0; i < index; i++ {
		a, b = b, a+b
	}

	return a
}

type rotatingProgression struct{}

func (rotatingProgression) prepare(l *Lane) ([]bet.Wager, error) {
	if len(l.Config.Sequence) == 0 {
		return nil, fmt.Errorf("rotating lane %q has an empty sequence", l.Name)
	}

	placement := l.Config.Sequence[l.State.RotatingIndex%len(l.Config.Sequence)]

	return []bet.Wager{{Placement: placement, Amount: l.State.RotatingUnits}}, nil
}

func (rotatingProgression) apply(l *Lane, won bool) {
	if won {
		l.State.RotatingUnits += l.Config.OnWinUnits

		if l.Config.RotateOnWin {
			l.State.RotatingIndex = (l.State.RotatingIndex + 1) % len(l.Config.Sequence)
		}
	} else {
		l.State.RotatingUnits += l.Config.OnLossUnits

		if l.Config.RotateOnLoss {
			l.State.RotatingIndex = (l.State.RotatingIndex + 1) % len(l.Config.Sequence)
		}
	}

	if l.State.RotatingUnits < l.Config.MinUnits {
		l.State.RotatingUnits = l.Config.MinUnits
	}
}

type chainProgression struct{}

func (chainProgression) prepare(l *Lane) ([]bet.Wager, error) {
	if len(l.Config.Steps) == 0 {
		return nil, fmt.Errorf("chain lane %q has no steps", l.Name)
	}

	step := l.Config.Steps[clampIndex(l.State.ChainIndex, len(l.Config.Steps))]

	wagers := make([]bet.Wager, len(step.Wagers))
	copy(wagers, step.Wagers)

	return wagers, nil
}

func (chainProgression) apply(l *Lane, won bool) {
	action := l.Config.ChainOnLoss
	if won {
		action = l.Config.ChainOnWin
	}

	index := l.State.ChainIndex

	switch action {
	case ChainRestart:
		index = 0
	case ChainNextStep:
		index++
	case ChainPrevStep:
		index--
	case ChainDoNothing:
		return
	}

	steps := len(l.Config.Steps)

	if l.Config.ChainLoop {
		index = ((index % steps) + steps) % steps
	} else {
		index = clampIndex(index, steps)
	}

	l.State.ChainIndex = index
}

func clampIndex(index, length int) int {
	if index < 0 {
		return 0
	}

	if index > length-1 {
		return length - 1
	}

	return index
}
