package decimal

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	WeiPerMON = decimal.NewFromBigInt(big.NewInt(1e18), 0)
)

// FromWei converts the smallest native unit to MON.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, 0).Div(WeiPerMON)
}

// ToWei converts MON to the smallest native unit, truncating any remainder.
func ToWei(mon decimal.Decimal) *big.Int {
	return mon.Mul(WeiPerMON).BigInt()
}

// FormatBalance scales a raw token amount by its decimals.
func FormatBalance(balance *big.Int, decimals int) decimal.Decimal {
	if balance == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(balance, int32(-decimals))
}

// ToUnits scales a human amount up by decimals. Fractions below one unit are an error.
func ToUnits(amount decimal.Decimal, decimals int) (*big.Int, error) {
	scaled := amount.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	return scaled.BigInt(), nil
}

func ParseDecimal(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(value)
}

// ParseAmount parses a positive human amount into smallest units.
func ParseAmount(value string, decimals int) (*big.Int, error) {
	d, err := ParseDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", value)
	}
	return ToUnits(d, decimals)
}
