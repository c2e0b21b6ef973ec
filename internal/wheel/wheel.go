package wheel

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

type Color string

const (
	Red   Color = "red"
	Black Color = "black"
	Green Color = "green"
)

// DoubleZero is the pocket value used for "00". The single zero is 0 and the
// remaining pockets are 1-36, giving the American wheel its 38 pockets.
const DoubleZero = -1

const Pockets = 38

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true,
	12: true, 14: true, 16: true, 18: true, 19: true,
	21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

type SpinResult struct {
	Value   int    `json:"value"`
	Display string `json:"display"`
	Color   Color  `json:"color"`
}

type Wheel struct {
	rnd *rand.Rand
}

// New creates a wheel backed by the given source. A nil source falls back to
// a time seed; tests and replayable batches pass a seeded source.
func New(src rand.Source) *Wheel {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}

	return &Wheel{rnd: rand.New(src)}
}

func (w *Wheel) Spin() SpinResult {
	value := w.rnd.Intn(Pockets) - 1

	return ResultFor(value)
}

// ResultFor builds the full spin result for a known pocket value. Used by the
// fixed-outcome replay mode, which bypasses the random draw.
func ResultFor(value int) SpinResult {
	return SpinResult{
		Value:   value,
		Display: Display(value),
		Color:   ColorOf(value),
	}
}

func ColorOf(value int) Color {
	if value == 0 || value == DoubleZero {
		return Green
	}

	if redNumbers[value] {
		return Red
	}

	return Black
}

func Display(value int) string {
	if value == DoubleZero {
		return "00"
	}

	return strconv.Itoa(value)
}

// ParseOutcome converts a user-supplied outcome token ("00" or 0-36) to a
// pocket value.
func ParseOutcome(token string) (int, error) {
	if token == "00" {
		return DoubleZero, nil
	}

	value, err := strconv.Atoi(token)
	if err != nil || value < 0 || value > 36 {
		return 0, fmt.Errorf("invalid outcome token: %q", token)
	}

	return value, nil
}
