package ledger

import "github.com/shopspring/decimal"

// minorUnitExponent is the number of decimal places in one currency unit
// (paise per rupee).
const minorUnitExponent = 2

// AmountToMinorUnits converts an API-facing decimal amount to whole minor
// units. Returns ErrInvalidAmount unless the amount is strictly positive
// and representable without rounding.
func AmountToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	shifted := amount.Shift(minorUnitExponent)
	if !shifted.IsInteger() {
		return 0, ErrInvalidAmount
	}
	if !shifted.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return shifted.IntPart(), nil
}

// MinorUnitsToAmount converts stored minor units back to the decimal
// representation used on the wire.
func MinorUnitsToAmount(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-minorUnitExponent)
}
