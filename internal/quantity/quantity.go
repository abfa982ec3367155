// Package quantity parses, normalizes, formats and deducts the free-form
// quantity strings stored on pantry items ("500 g", "1.5kg", "2 pcs").
package quantity

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnparseable is returned when a string has no numeric leading component.
	ErrUnparseable = errors.New("quantity: unparseable")
	// ErrUnitMismatch is returned when two quantities normalize to different base units.
	ErrUnitMismatch = errors.New("quantity: unit mismatch")
)

// Quantity is a parsed value and unit pair. It is never persisted; the
// storage layer keeps the formatted string only.
type Quantity struct {
	Value float64
	Unit  string
}

// String renders the quantity the same way Format does.
func (q Quantity) String() string {
	return Format(q.Value, q.Unit)
}

var compactPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?|\.\d+) ?(\p{L}+)$`)

// Parse reads "<number><optional space><unit>" and falls back to
// "<number> <unit> ..." when the compact form does not match.
func Parse(text string) (Quantity, error) {
	s := strings.ToLower(strings.TrimSpace(text))

	if m := compactPattern.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Quantity{Value: v, Unit: m[2]}, nil
		}
	}

	parts := strings.Fields(s)
	if len(parts) >= 2 {
		if v, ok := parseNumber(parts[0]); ok {
			return Quantity{Value: v, Unit: parts[1]}, nil
		}
	}

	return Quantity{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
}

// ParseWhole is Parse restricted to strings holding nothing but a number and
// its unit. Longer labels such as "6 x 330 ml" are rejected rather than read
// from their first two tokens.
func ParseWhole(text string) (Quantity, error) {
	if len(strings.Fields(text)) > 2 {
		return Quantity{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
	}
	return Parse(text)
}

// parseNumber accepts plain non-negative decimals with '.' as the only
// separator. Exponents, hex floats, inf and nan are rejected.
func parseNumber(tok string) (float64, bool) {
	if tok == "" {
		return 0, false
	}
	dot := false
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		default:
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Format renders a value and unit as "<number> <unit>". Grams and
// milliliters of 1000 or more are compacted to kilograms and liters.
func Format(value float64, unit string) string {
	if unit == UnitGram && value >= 1000 {
		return fmt.Sprintf("%.1f %s", value/1000, UnitKilogram)
	}
	if unit == UnitMilliliter && value >= 1000 {
		return fmt.Sprintf("%.1f %s", value/1000, UnitLiter)
	}
	if value == math.Trunc(value) {
		return fmt.Sprintf("%.0f %s", value, unit)
	}
	return fmt.Sprintf("%.1f %s", value, unit)
}

// Deduct subtracts recipeQty from inventoryQty after normalizing both to a
// shared base unit. A remainder of zero or less yields the depletion
// sentinel "0 <base unit>".
func Deduct(recipeQty, inventoryQty string) (string, error) {
	r, err := Parse(recipeQty)
	if err != nil {
		return "", err
	}
	inv, err := Parse(inventoryQty)
	if err != nil {
		return "", err
	}

	rVal, rUnit := Normalize(r)
	iVal, iUnit := Normalize(inv)
	if rUnit != iUnit {
		return "", fmt.Errorf("%w: %s vs %s", ErrUnitMismatch, rUnit, iUnit)
	}

	remainder := iVal - rVal
	if remainder <= 0 {
		return Sentinel(iUnit), nil
	}
	// float subtraction noise ("0.3 kg" - "0.1 kg")
	remainder = math.Round(remainder*1e6) / 1e6
	return Format(remainder, iUnit), nil
}

// Sentinel returns the depletion marker for a base unit.
func Sentinel(baseUnit string) string {
	return "0 " + baseUnit
}

// IsDepleted reports whether qty parses to a zero value.
func IsDepleted(qty string) bool {
	q, err := Parse(qty)
	return err == nil && q.Value == 0
}

// SplitIngredientLine splits a recipe line such as "200 ml Milk" into its
// leading two-token quantity and the remaining free-text name.
func SplitIngredientLine(line string) (qty, name string, ok bool) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0] + " " + parts[1], strings.Join(parts[2:], " "), true
}
