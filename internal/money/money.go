// Package money implements cents-integer arithmetic for billing amounts.
// Every amount is an integer count of the currency's minor unit.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrAmountOverflow = errors.New("amount_overflow")
	ErrInvalidPeriod  = errors.New("invalid_period")
)

// DefaultMaxSafeAmount is the overflow ceiling in minor units (~10^11).
const DefaultMaxSafeAmount int64 = 100_000_000_000

// zeroDecimalCurrencies are billed in whole units by the major processors.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true,
	"jpy": true, "kmf": true, "krw": true, "mga": true,
	"pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// DecimalPlaces returns the number of minor-unit decimal places for a currency.
func DecimalPlaces(currency string) int {
	if zeroDecimalCurrencies[strings.ToLower(strings.TrimSpace(currency))] {
		return 0
	}
	return 2
}

// ToDecimal converts minor units to a decimal amount for the currency.
func ToDecimal(amount int64, currency string) float64 {
	return float64(amount) / math.Pow10(DecimalPlaces(currency))
}

// FromDecimal converts a decimal amount to minor units, rounding half away
// from zero.
func FromDecimal(value float64, currency string) int64 {
	return int64(math.Round(value * math.Pow10(DecimalPlaces(currency))))
}

// Add sums two amounts without an overflow guard. Use Guard.Add on untrusted
// inputs.
func Add(a, b int64) int64 {
	return a + b
}

// Sub subtracts b from a, clamping at zero. Monetary fields never go negative.
func Sub(a, b int64) int64 {
	if b >= a {
		return 0
	}
	return a - b
}

// MultiplyByFactor scales an amount by a factor, rounding to the nearest
// minor unit.
func MultiplyByFactor(amount int64, factor float64) int64 {
	return int64(math.Round(float64(amount) * factor))
}

// PercentageOf returns percent% of amount, rounded to the nearest minor unit.
func PercentageOf(amount int64, percent float64) int64 {
	return int64(math.Round(float64(amount) * percent / 100))
}

// Prorate returns the share of totalAmount covering usedDays out of
// totalDays. A zero or negative period has no daily rate.
func Prorate(totalAmount int64, totalDays, usedDays int) (int64, error) {
	if totalDays <= 0 || usedDays < 0 {
		return 0, ErrInvalidPeriod
	}
	return int64(math.Round(float64(totalAmount) / float64(totalDays) * float64(usedDays))), nil
}

// OverflowError reports which operation breached the safety ceiling and with
// what operands. It is raised before any state is touched.
type OverflowError struct {
	Op     string // "add" or "multiply"
	A      int64
	B      int64
	Factor float64
}

func (e *OverflowError) Error() string {
	if e.Op == "multiply" {
		return fmt.Sprintf("money: multiply overflow: amount=%d factor=%g", e.A, e.Factor)
	}
	return fmt.Sprintf("money: add overflow: a=%d b=%d", e.A, e.B)
}

func (e *OverflowError) Unwrap() error { return ErrAmountOverflow }

// Guard performs overflow-protected arithmetic against a configured ceiling.
type Guard struct {
	max int64
}

// NewGuard builds a Guard; a non-positive ceiling falls back to the default.
func NewGuard(maxSafeAmount int64) Guard {
	if maxSafeAmount <= 0 {
		maxSafeAmount = DefaultMaxSafeAmount
	}
	return Guard{max: maxSafeAmount}
}

// Max returns the configured ceiling.
func (g Guard) Max() int64 { return g.max }

func (g Guard) inRange(v int64) bool {
	return v >= -g.max && v <= g.max
}

// Add sums two amounts, failing when an operand or the result exceeds the
// ceiling.
func (g Guard) Add(a, b int64) (int64, error) {
	if !g.inRange(a) || !g.inRange(b) || !g.inRange(a+b) {
		return 0, &OverflowError{Op: "add", A: a, B: b}
	}
	return a + b, nil
}

// Multiply scales an amount by a factor with the same ceiling checks.
func (g Guard) Multiply(amount int64, factor float64) (int64, error) {
	if !g.inRange(amount) {
		return 0, &OverflowError{Op: "multiply", A: amount, Factor: factor}
	}
	result := float64(amount) * factor
	if math.IsNaN(result) || math.IsInf(result, 0) || result > float64(g.max) || result < -float64(g.max) {
		return 0, &OverflowError{Op: "multiply", A: amount, Factor: factor}
	}
	return int64(math.Round(result)), nil
}

// InvoiceTotal folds overflow-safe addition across line amounts so a single
// oversized invoice cannot silently wrap.
func (g Guard) InvoiceTotal(lineAmounts []int64) (int64, error) {
	var total int64
	for _, amount := range lineAmounts {
		sum, err := g.Add(total, amount)
		if err != nil {
			return 0, err
		}
		total = sum
	}
	return total, nil
}
