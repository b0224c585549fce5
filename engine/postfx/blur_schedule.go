package postfx

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidBlurRadius is returned when a blur schedule token is not a finite number.
var ErrInvalidBlurRadius = errors.New("invalid blur radius")

// BlurSchedule is the ordered list of Kawase blur radii, one blur iteration per entry.
// Radii are not range checked; an empty schedule runs no blur iterations.
type BlurSchedule []float32

// DefaultBlurSchedule returns the 1 2 3 4 schedule.
//
// Returns:
//   - BlurSchedule: a fresh copy of the default schedule
func DefaultBlurSchedule() BlurSchedule {
	return BlurSchedule{1, 2, 3, 4}
}

// ParseBlurSchedule parses whitespace separated radii such as "1 2 3 4".
//
// Parameters:
//   - text: the schedule text
//
// Returns:
//   - BlurSchedule: the parsed radii, empty for blank text
//   - error: ErrInvalidBlurRadius naming the first token that is not a finite number
func ParseBlurSchedule(text string) (BlurSchedule, error) {
	fields := strings.Fields(text)
	out := make(BlurSchedule, 0, len(fields))
	for _, tok := range fields {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrInvalidBlurRadius, tok)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w %q: not finite", ErrInvalidBlurRadius, tok)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BlurSchedule) UnmarshalText(text []byte) error {
	parsed, err := ParseBlurSchedule(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b BlurSchedule) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// String renders the schedule in the same form ParseBlurSchedule reads.
func (b BlurSchedule) String() string {
	parts := make([]string, len(b))
	for i, r := range b {
		parts[i] = strconv.FormatFloat(float64(r), 'g', -1, 32)
	}
	return strings.Join(parts, " ")
}
