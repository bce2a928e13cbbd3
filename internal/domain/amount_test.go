package domain

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "Whole number", raw: "1", expected: "1"},
		{name: "Fractional", raw: "0.5", expected: "0.5"},
		{name: "Surrounding whitespace", raw: "  2.25 ", expected: "2.25"},
		{name: "Eighteen decimal places", raw: "0.000000000000000001", expected: "0.000000000000000001"},
		{name: "Empty", raw: "", wantErr: true},
		{name: "Not a number", raw: "one", wantErr: true},
		{name: "Zero", raw: "0", wantErr: true},
		{name: "Negative", raw: "-1", wantErr: true},
		{name: "Finer than one base unit", raw: "0.0000000000000000001", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := ParseAmount(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAmount), "expected ErrInvalidAmount, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, amount.String())
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	amount, err := ParseAmount("0.5")
	require.NoError(t, err)

	base, err := ToBaseUnits(amount)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", base.String())
}

func TestFromBaseUnits(t *testing.T) {
	v, ok := new(big.Int).SetString("500000000000000000", 10)
	require.True(t, ok)

	assert.True(t, decimal.RequireFromString("0.5").Equal(FromBaseUnits(v)))
	assert.True(t, decimal.Zero.Equal(FromBaseUnits(nil)))
	assert.True(t, decimal.NewFromInt(1).Equal(FromBaseUnits(big.NewInt(1e18))))
}

func TestBaseUnitRoundTrip(t *testing.T) {
	for _, raw := range []string{"1", "0.5", "123.456", "0.000000000000000001"} {
		amount, err := ParseAmount(raw)
		require.NoError(t, err)

		base, err := ToBaseUnits(amount)
		require.NoError(t, err)
		assert.True(t, amount.Equal(FromBaseUnits(base)), "round trip changed %s", raw)
	}
}
