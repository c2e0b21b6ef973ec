package bet

import (
	"fmt"
	"strings"

	"spinsim/internal/wheel"
)

// InvalidSequenceTokenError identifies the token that could not be mapped to
// a placement. Surfaced before a run starts; the caller decides whether to
// abort configuration or fall back to a default sequence.
type InvalidSequenceTokenError struct {
	Token string
}

func (e *InvalidSequenceTokenError) Error() string {
	return fmt.Sprintf("invalid sequence token: %q", e.Token)
}

// ParseSequence turns a user-typed rotating-bet sequence ("red, black, 17")
// into canonical placements.
func ParseSequence(text string) ([]Placement, error) {
	var placements []Placement

	for _, raw := range strings.Split(text, ",") {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}

		placement, err := parseToken(token)
		if err != nil {
			return nil, err
		}

		placements = append(placements, placement)
	}

	if len(placements) == 0 {
		return nil, &InvalidSequenceTokenError{Token: text}
	}

	return placements, nil
}

func parseToken(token string) (Placement, error) {
	switch token {
	case "red":
		return RedPlacement(), nil
	case "black":
		return BlackPlacement(), nil
	case "even":
		return EvenPlacement(), nil
	case "odd":
		return OddPlacement(), nil
	case "low", "1-18":
		return LowPlacement(), nil
	case "high", "19-36":
		return HighPlacement(), nil
	}

	value, err := wheel.ParseOutcome(token)
	if err != nil {
		return Placement{}, &InvalidSequenceTokenError{Token: token}
	}

	return StraightPlacement(value), nil
}
