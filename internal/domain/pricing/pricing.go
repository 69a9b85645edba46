// Package pricing computes cart totals. All arithmetic is decimal; conversion
// to integer minor units happens only at the payment-processor boundary.
package pricing

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Item is a priced line for totals calculation.
type Item struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals holds the computed cart summary.
type Totals struct {
	Subtotal  decimal.Decimal
	ItemCount int
}

// Summarize returns the subtotal and item count for the given lines.
// It is a pure function: no rounding beyond two decimal places, no side
// effects.
func Summarize(items []Item) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.Price.Mul(qty))
		count += it.Quantity
	}
	return Totals{
		Subtotal:  subtotal.Round(2),
		ItemCount: count,
	}
}

// zeroDecimalCurrencies are ISO 4217 currencies whose minor unit equals the
// major unit (no cents), per the payment processor's amount rules.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {},
	"krw": {}, "mga": {}, "pyg": {}, "rwf": {}, "ugx": {}, "vnd": {},
	"vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// ErrNegativeAmount is returned when converting a negative amount to minor units.
var ErrNegativeAmount = errors.New("amount must not be negative")

// MinorUnits converts a decimal amount to the processor's integer minor-unit
// representation for the given currency, rounding half-up at the final digit.
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	exp := int32(2)
	if _, ok := zeroDecimalCurrencies[strings.ToLower(currency)]; ok {
		exp = 0
	}
	return amount.Shift(exp).Round(0).IntPart(), nil
}
