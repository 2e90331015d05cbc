package decimal

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWei(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FromWei(wei).String())
	assert.True(t, FromWei(nil).IsZero())
}

func TestToWei(t *testing.T) {
	assert.Equal(t, "10000000000000000", ToWei(decimal.RequireFromString("0.01")).String())
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "12.345678", FormatBalance(big.NewInt(12345678), 6).String())
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("0.01", 18)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", got.String())

	_, err = ParseAmount("1.0000001", 6)
	assert.Error(t, err)

	_, err = ParseAmount("-1", 18)
	assert.Error(t, err)

	_, err = ParseAmount("abc", 18)
	assert.Error(t, err)
}
