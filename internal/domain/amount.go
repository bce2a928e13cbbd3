package domain

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BaseUnitDecimals is the scale of the ledger's base unit: one human unit is
// 10^18 base units, the wei convention. Human-entered amounts are decimals,
// base-unit integers cross the contract boundary.
const BaseUnitDecimals = 18

// ParseAmount converts free-form user input into a positive decimal amount
// in human units. Fails with ErrInvalidAmount on malformed or non-positive
// input or on precision finer than one base unit.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, errors.Wrap(ErrInvalidAmount, "empty amount")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrInvalidAmount, "not a number: %q", raw)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, errors.Wrapf(ErrInvalidAmount, "amount must be positive, got %s", amount)
	}
	if amount.Exponent() < -BaseUnitDecimals {
		return decimal.Decimal{}, errors.Wrapf(ErrInvalidAmount, "amount %s is finer than one base unit", amount)
	}

	return amount, nil
}

// ToBaseUnits scales a human-unit amount into the base-unit integer passed
// to the contract.
func ToBaseUnits(amount decimal.Decimal) (*big.Int, error) {
	scaled := amount.Shift(BaseUnitDecimals)
	if !scaled.IsInteger() {
		return nil, errors.Wrapf(ErrInvalidAmount, "amount %s is finer than one base unit", amount)
	}
	if !scaled.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidAmount, "amount must be positive, got %s", amount)
	}
	return scaled.BigInt(), nil
}

// FromBaseUnits converts a base-unit integer returned by the contract into
// its human-unit decimal form. 500000000000000000 becomes 0.5.
func FromBaseUnits(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -BaseUnitDecimals)
}
