// Package money holds the canonical currency representation used across the
// auction service and the presentation adapters around it.
//
// Every amount is an integer number of lakhs (100 lakhs = 1 crore). The
// engine only ever adds, subtracts and compares Amounts; string rendering and
// parsing of display forms such as "₹1.5 Cr" live here and nowhere else.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a price or budget in lakhs.
type Amount int64

// LakhsPerCrore is the display unit boundary.
const LakhsPerCrore Amount = 100

var (
	ErrInvalidAmount    = errors.New("money: invalid amount")
	ErrFractionalAmount = errors.New("money: amount must be a whole number of lakhs")
)

// amountRegex matches: [₹]{number}[unit]
// Examples: 150, 75L, ₹1.5Cr, 2 crore, 40 lakhs
var amountRegex = regexp.MustCompile(
	`^(?i)(?:₹|rs\.?)?\s*([0-9]+(?:\.[0-9]+)?)\s*(cr|crs|crore|crores|l|lac|lacs|lakh|lakhs)?$`,
)

var crore = decimal.NewFromInt(int64(LakhsPerCrore))

// Parse converts a display string into an Amount. A bare number is read as
// lakhs. Only adapters (seed files, admin forms) should call this.
func Parse(s string) (Amount, error) {
	matches := amountRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	value, err := decimal.NewFromString(matches[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	unit := strings.ToLower(matches[2])
	if strings.HasPrefix(unit, "cr") {
		value = value.Mul(crore)
	}

	if !value.Equal(value.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q", ErrFractionalAmount, s)
	}
	return Amount(value.IntPart()), nil
}

// Format renders an Amount for display: "₹1.5 Cr" at or above one crore,
// "₹75 L" below it.
func Format(a Amount) string {
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	if a >= LakhsPerCrore {
		cr := decimal.NewFromInt(int64(a)).Div(crore)
		return fmt.Sprintf("%s₹%s Cr", sign, cr.String())
	}
	return fmt.Sprintf("%s₹%d L", sign, int64(a))
}

// String implements fmt.Stringer using Format.
func (a Amount) String() string {
	return Format(a)
}
