package trading

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterQuoter_QuotesOnResolvedRouter(t *testing.T) {
	chain := newFakeChain()
	chain.setListed(false)

	var gotToken common.Address
	var gotIsBuy bool
	chain.on(testContracts.BondingCurveRouter, routerABI, "getAmountOut", func(in []interface{}) ([]interface{}, error) {
		gotToken = in[0].(common.Address)
		gotIsBuy = in[2].(bool)
		return []interface{}{big.NewInt(1000)}, nil
	})

	q := NewRouterQuoter(chain, newTestSelector(chain))
	quote, err := q.Quote(context.Background(), testToken, big.NewInt(1e16), DirectionBuy)
	require.NoError(t, err)

	assert.Equal(t, testContracts.BondingCurveRouter, quote.Router)
	assert.False(t, quote.IsDex)
	assert.Equal(t, int64(1000), quote.Amount.Int64())
	assert.Equal(t, testToken, gotToken)
	assert.True(t, gotIsBuy)
}

func TestRouterQuoter_QuoteForOutput(t *testing.T) {
	chain := newFakeChain()
	chain.setListed(true)
	chain.on(testContracts.DexRouter, routerABI, "getAmountIn", func(in []interface{}) ([]interface{}, error) {
		assert.False(t, in[2].(bool))
		return []interface{}{new(big.Int).Mul(in[1].(*big.Int), big.NewInt(3))}, nil
	})

	q := NewRouterQuoter(chain, newTestSelector(chain))
	quote, err := q.QuoteForOutput(context.Background(), testToken, big.NewInt(50), DirectionSell)
	require.NoError(t, err)

	assert.True(t, quote.IsDex)
	assert.Equal(t, int64(150), quote.Amount.Int64())
}

func TestRouterQuoter_RouteFailure(t *testing.T) {
	chain := newFakeChain()
	q := NewRouterQuoter(chain, newTestSelector(chain))

	_, err := q.Quote(context.Background(), testToken, big.NewInt(1), DirectionBuy)
	assert.ErrorIs(t, err, ErrRouteResolution)
}

func TestWrapperQuoter(t *testing.T) {
	chain := newFakeChain()
	chain.on(testContracts.Wrapper, wrapperABI, "getAmountOut", chain.returns(testContracts.DexRouter, big.NewInt(77)))
	chain.on(testContracts.Wrapper, wrapperABI, "getAmountIn", chain.returns(testContracts.BondingCurveRouter, big.NewInt(88)))

	q := NewWrapperQuoter(chain, testContracts.Wrapper, newTestSelector(chain))

	out, err := q.Quote(context.Background(), testToken, big.NewInt(1), DirectionSell)
	require.NoError(t, err)
	assert.Equal(t, testContracts.DexRouter, out.Router)
	assert.True(t, out.IsDex)
	assert.Equal(t, int64(77), out.Amount.Int64())

	in, err := q.QuoteForOutput(context.Background(), testToken, big.NewInt(1), DirectionBuy)
	require.NoError(t, err)
	assert.False(t, in.IsDex)
	assert.Equal(t, int64(88), in.Amount.Int64())

	// the wrapper path never consults the listing predicate
	assert.Equal(t, 0, chain.callCount("isListed"))
}

func TestWrapperQuoter_UnknownRouter(t *testing.T) {
	chain := newFakeChain()
	chain.on(testContracts.Wrapper, wrapperABI, "getAmountOut", chain.returns(testToken, big.NewInt(77)))

	q := NewWrapperQuoter(chain, testContracts.Wrapper, newTestSelector(chain))
	_, err := q.Quote(context.Background(), testToken, big.NewInt(1), DirectionBuy)
	assert.ErrorIs(t, err, ErrRouteResolution)
}
