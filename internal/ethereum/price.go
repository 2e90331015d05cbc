package ethereum

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/nadfun/trading-mcp/internal/trading"
	dec "github.com/nadfun/trading-mcp/pkg/decimal"
)

// CurveResponse is a human-readable view of a token's bonding curve.
type CurveResponse struct {
	TokenAddress        string          `json:"token_address"`
	Listed              bool            `json:"listed"`
	Locked              bool            `json:"locked"`
	Router              string          `json:"router"`
	RealMonReserve      decimal.Decimal `json:"real_mon_reserve"`
	RealTokenReserve    decimal.Decimal `json:"real_token_reserve"`
	VirtualMonReserve   decimal.Decimal `json:"virtual_mon_reserve"`
	VirtualTokenReserve decimal.Decimal `json:"virtual_token_reserve"`
	TargetTokenAmount   decimal.Decimal `json:"target_token_amount"`
	PriceMON            decimal.Decimal `json:"price_mon"`
	LastUpdated         time.Time       `json:"last_updated"`
}

// NewCurveResponse converts raw curve reserves. Curve tokens use 18 decimals.
func NewCurveResponse(token common.Address, route trading.Route, locked bool, state *trading.CurveState) *CurveResponse {
	return &CurveResponse{
		TokenAddress:        token.Hex(),
		Listed:              route.IsDex,
		Locked:              locked,
		Router:              route.Router.Hex(),
		RealMonReserve:      dec.FromWei(state.RealMonReserve),
		RealTokenReserve:    dec.FromWei(state.RealTokenReserve),
		VirtualMonReserve:   dec.FromWei(state.VirtualMonReserve),
		VirtualTokenReserve: dec.FromWei(state.VirtualTokenReserve),
		TargetTokenAmount:   dec.FromWei(state.TargetTokenAmount),
		PriceMON:            SpotPrice(state),
		LastUpdated:         time.Now(),
	}
}

// SpotPrice is virtual MON reserve over virtual token reserve, the marginal
// price of one token on the curve.
func SpotPrice(state *trading.CurveState) decimal.Decimal {
	if state.VirtualTokenReserve == nil || state.VirtualTokenReserve.Sign() == 0 || state.VirtualMonReserve == nil {
		return decimal.Zero
	}
	mon := decimal.NewFromBigInt(state.VirtualMonReserve, 0)
	tok := decimal.NewFromBigInt(state.VirtualTokenReserve, 0)
	return mon.Div(tok)
}
