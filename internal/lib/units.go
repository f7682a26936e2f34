package lib

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = fmt.Errorf("invalid amount")

// ParseUnits converts human readable decimal string to base units, e.g. ("0.1", 18) -> 1e17
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, WrapError(ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return nil, WrapError(ErrInvalidAmount, fmt.Errorf("negative value %s", value))
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, WrapError(ErrInvalidAmount, fmt.Errorf("%s has more than %d decimals", value, decimals))
	}
	return scaled.BigInt(), nil
}

func MustParseUnits(value string, decimals int32) *big.Int {
	v, err := ParseUnits(value, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatUnits converts base units to human readable decimal string, e.g. (1e17, 18) -> "0.1"
func FormatUnits(value *big.Int, decimals int32) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}

// ParseBaseUnits parses integer amount in base units
func ParseBaseUnits(value string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() < 0 {
		return nil, WrapError(ErrInvalidAmount, fmt.Errorf("%q", value))
	}
	return v, nil
}
