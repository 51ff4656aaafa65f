package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		input string
		want  MinorUnits
	}{
		{"100.00", 10000},
		{"20", 2000},
		{"0.01", 1},
		{"1.005", 101},
		{"1.004", 100},
		{"-1.005", -101},
		{"1234567.89", 123456789},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.input)))
		})
	}
}

func TestToMinorUnitsOutOfRange(t *testing.T) {
	tests := []struct {
		input string
		want  MinorUnits
	}{
		{"1000000000.00", MaxAmount},
		{"1000000000.01", MaxAmount + 1},
		{"184467440737095517.16", MaxAmount + 1},
		{"184467440737095516.17", MaxAmount + 1},
		{"-184467440737095517.16", -(MaxAmount + 1)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToMinorUnits(decimal.RequireFromString(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}

	amount, err := ParseAmount("184467440737095517.16")
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateAmount(amount), ErrAmountTooLarge)
}

func TestMinorUnitsFromFloat(t *testing.T) {
	assert.Equal(t, MinorUnits(1550), MinorUnitsFromFloat(15.5))
	assert.Equal(t, MinorUnits(0), MinorUnitsFromFloat(math.NaN()))
	assert.Equal(t, MinorUnits(0), MinorUnitsFromFloat(math.Inf(1)))
	assert.Equal(t, MinorUnits(0), MinorUnitsFromFloat(math.Inf(-1)))
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 30.00 ")
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(3000), got)

	_, err = ParseAmount("thirty")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   MinorUnits
		currency string
		want     string
	}{
		{"zero", 0, "USD", "$0.00"},
		{"cents only", 5, "USD", "$0.05"},
		{"thousands", 123456, "USD", "$1,234.56"},
		{"millions", 123456789, "usd", "$1,234,567.89"},
		{"negative", -1200, "USD", "-$12.00"},
		{"euro", 9999, "EUR", "€99.99"},
		{"unknown currency", 100, "XTS", "XTS 1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMinorUnits(tt.amount, tt.currency))
		})
	}
}

func TestMinorUnitsDecimal(t *testing.T) {
	assert.True(t, MinorUnits(10050).Decimal().Equal(decimal.RequireFromString("100.5")))
	assert.Equal(t, "$100.50", MinorUnits(10050).String())
}
