package lib

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("0.1", 18)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1e17), v)

	v, err = ParseUnits("4", 6)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(4_000_000), v)
}

func TestParseUnitsRejectsExtraPrecision(t *testing.T) {
	_, err := ParseUnits("0.0000001", 6)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseUnitsRejectsNegative(t *testing.T) {
	_, err := ParseUnits("-1", 6)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatUnits(t *testing.T) {
	require.Equal(t, "2100", FormatUnits(MustParseUnits("2100", 18), 18))
	require.Equal(t, "0.1", FormatUnits(big.NewInt(1e17), 18))
	require.Equal(t, "0", FormatUnits(nil, 18))
}

func TestParseBaseUnits(t *testing.T) {
	v, err := ParseBaseUnits("55000000000000000000")
	require.NoError(t, err)
	require.Equal(t, MustParseUnits("55", 18), v)

	_, err = ParseBaseUnits("1.5")
	require.ErrorIs(t, err, ErrInvalidAmount)
}
