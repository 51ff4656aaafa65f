package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MinorUnits is a signed amount in the smallest denomination of the
// account currency (cents for USD). All ledger arithmetic uses it.
type MinorUnits int64

const minorUnitsPerMajor = 100

// DefaultCurrency is used when an account is opened without one.
const DefaultCurrency = "USD"

var currencySymbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥",
	"CNY": "¥", "AUD": "A$", "CAD": "CA$", "CHF": "CHF ",
	"SEK": "kr ", "NZD": "NZ$", "KRW": "₩", "SGD": "S$",
	"NOK": "kr ", "MXN": "MX$", "INR": "₹", "BRL": "R$",
	"ZAR": "R ", "RUB": "₽", "TRY": "₺", "HKD": "HK$",
}

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

var overflowBound = decimal.NewFromInt(int64(MaxAmount))

// ToMinorUnits converts a decimal currency amount to minor units,
// rounding half away from zero. Magnitudes beyond MaxAmount clamp to
// MaxAmount+1 with the input's sign so ValidateAmount rejects them.
func ToMinorUnits(amount decimal.Decimal) MinorUnits {
	units := amount.Shift(2).Round(0)
	if units.Abs().GreaterThan(overflowBound) {
		if units.IsNegative() {
			return -(MaxAmount + 1)
		}
		return MaxAmount + 1
	}
	return MinorUnits(units.IntPart())
}

// MinorUnitsFromFloat converts a float amount. NaN and infinities yield 0.
func MinorUnitsFromFloat(amount float64) MinorUnits {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return ToMinorUnits(decimal.NewFromFloat(amount))
}

// ParseAmount parses decimal text such as "100.00" into minor units.
func ParseAmount(s string) (MinorUnits, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return ToMinorUnits(d), nil
}

// Decimal returns the amount in major units.
func (m MinorUnits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Abs returns the magnitude of m.
func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// String renders m in the default currency.
func (m MinorUnits) String() string {
	return FormatMinorUnits(m, DefaultCurrency)
}

// FormatMinorUnits renders an amount as a display string like "$1,234.56".
func FormatMinorUnits(m MinorUnits, currency string) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = strings.ToUpper(currency) + " "
	}

	sign := ""
	abs := m.Abs()
	if m < 0 {
		sign = "-"
	}

	whole := int64(abs) / minorUnitsPerMajor
	cents := int64(abs) % minorUnitsPerMajor

	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, displayPrinter.Sprintf("%d", whole), cents)
}
