package bet

import (
	"sort"
	"strconv"
	"strings"

	"spinsim/internal/wheel"
)

type Type string

const (
	Straight   Type = "straight"
	Split      Type = "split"
	Street     Type = "street"
	Corner     Type = "corner"
	FiveNumber Type = "five_number"
	Line       Type = "line"
	Dozen      Type = "dozen"
	Column     Type = "column"
	EvenMoney  Type = "even_money"
)

// payoutRatios maps a bet type to its payout in units per unit staked.
// Types missing from the table fall back to the coverage formula in
// Placement.PayoutRatio.
var payoutRatios = map[Type]int{
	Straight:   35,
	Split:      17,
	Street:     11,
	Corner:     8,
	FiveNumber: 6,
	Line:       5,
	Dozen:      2,
	Column:     2,
	EvenMoney:  1,
}

type Placement struct {
	Type        Type   `json:"type"`
	Numbers     []int  `json:"numbers"`
	DisplayName string `json:"display_name"`
}

// NewPlacement canonicalizes the covered numbers (sorted, deduplicated) so
// two placements over the same set compare equal regardless of construction
// order.
func NewPlacement(t Type, numbers []int, displayName string) Placement {
	seen := make(map[int]bool, len(numbers))
	canonical := make([]int, 0, len(numbers))

	for _, n := range numbers {
		if seen[n] {
			continue
		}

		seen[n] = true
		canonical = append(canonical, n)
	}

	sort.Ints(canonical)

	return Placement{
		Type:        t,
		Numbers:     canonical,
		DisplayName: displayName,
	}
}

// ID is the placement identity used for deduplication and trigger lookup:
// the bet type plus the sorted covered numbers.
func (p Placement) ID() string {
	var sb strings.Builder

	sb.WriteString(string(p.Type))

	for _, n := range p.Numbers {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(n))
	}

	return sb.String()
}

func (p Placement) Covers(value int) bool {
	for _, n := range p.Numbers {
		if n == value {
			return true
		}
	}

	return false
}

// PayoutRatio returns the fixed table ratio for the bet type, or the
// coverage-derived fallback (36/covered)-1. Integer division reproduces the
// table exactly for every canonical American layout, including the
// five-number bet (36/5-1 = 6).
func (p Placement) PayoutRatio() int {
	if ratio, ok := payoutRatios[p.Type]; ok {
		return ratio
	}

	if len(p.Numbers) == 0 {
		return 0
	}

	return 36/len(p.Numbers) - 1
}

func rangeNumbers(from, to int) []int {
	numbers := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		numbers = append(numbers, n)
	}

	return numbers
}

func colorNumbers(color wheel.Color) []int {
	var numbers []int

	for n := 1; n <= 36; n++ {
		if wheel.ColorOf(n) == color {
			numbers = append(numbers, n)
		}
	}

	return numbers
}

func parityNumbers(even bool) []int {
	var numbers []int

	for n := 1; n <= 36; n++ {
		if (n%2 == 0) == even {
			numbers = append(numbers, n)
		}
	}

	return numbers
}

func RedPlacement() Placement {
	return NewPlacement(EvenMoney, colorNumbers(wheel.Red), "Red")
}

func BlackPlacement() Placement {
	return NewPlacement(EvenMoney, colorNumbers(wheel.Black), "Black")
}

func EvenPlacement() Placement {
	return NewPlacement(EvenMoney, parityNumbers(true), "Even")
}

func OddPlacement() Placement {
	return NewPlacement(EvenMoney, parityNumbers(false), "Odd")
}

func LowPlacement() Placement {
	return NewPlacement(EvenMoney, rangeNumbers(1, 18), "Low (1-18)")
}

func HighPlacement() Placement {
	return NewPlacement(EvenMoney, rangeNumbers(19, 36), "High (19-36)")
}

func StraightPlacement(value int) Placement {
	return NewPlacement(Straight, []int{value}, wheel.Display(value))
}

type Wager struct {
	Placement Placement `json:"placement"`
	Amount    int       `json:"amount"`
}

func (w Wager) Describe() string {
	return strconv.Itoa(w.Amount) + " on " + w.Placement.DisplayName
}
