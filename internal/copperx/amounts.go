package copperx

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The API expresses amounts in base units with a fixed 8-decimal scale.
const amountDecimals = 8

const baseUnitScale = 1e8

// ToBaseUnit converts a display amount to base units, rounding to the
// nearest unit.
func ToBaseUnit(amount float64) int64 {
	return int64(math.Round(amount * baseUnitScale))
}

// FromBaseUnit converts base units back to a display amount.
func FromBaseUnit(base int64) float64 {
	return float64(base) / baseUnitScale
}

// maxDisplayAmount is the largest display amount whose base-unit form
// still fits in an int64.
const maxDisplayAmount = math.MaxInt64 / baseUnitScale

// ToBaseUnitString converts a user-entered decimal string to a base-unit
// string as expected by the API. Amounts whose base-unit form would not
// fit in an int64 are rejected.
func ToBaseUnitString(amount string) (string, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if v < 0 || v > maxDisplayAmount {
		return "", fmt.Errorf("amount %q out of range", amount)
	}
	return strconv.FormatInt(ToBaseUnit(v), 10), nil
}

// FormatBaseUnit renders a base-unit string for display, trimming trailing
// zeros. Unparsable input is returned unchanged so an odd API value still
// shows up rather than vanishing.
func FormatBaseUnit(base string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(base), 10, 64)
	if err != nil {
		return base
	}
	s := strconv.FormatFloat(FromBaseUnit(n), 'f', amountDecimals, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
