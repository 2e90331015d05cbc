package trading

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Quoter prices trades without touching chain state.
type Quoter interface {
	// Quote returns the output amount for amount of input.
	Quote(ctx context.Context, token common.Address, amount *big.Int, dir Direction) (RouteQuote, error)
	// QuoteForOutput returns the input needed to receive desired.
	QuoteForOutput(ctx context.Context, token common.Address, desired *big.Int, dir Direction) (RouteQuote, error)
}

// RouterQuoter resolves the governing router first and asks it directly.
type RouterQuoter struct {
	routes    *RouteSelector
	transport Transport
}

func NewRouterQuoter(transport Transport, routes *RouteSelector) *RouterQuoter {
	return &RouterQuoter{routes: routes, transport: transport}
}

func (q *RouterQuoter) Quote(ctx context.Context, token common.Address, amount *big.Int, dir Direction) (RouteQuote, error) {
	return q.quote(ctx, "getAmountOut", token, amount, dir)
}

func (q *RouterQuoter) QuoteForOutput(ctx context.Context, token common.Address, desired *big.Int, dir Direction) (RouteQuote, error) {
	return q.quote(ctx, "getAmountIn", token, desired, dir)
}

func (q *RouterQuoter) quote(ctx context.Context, method string, token common.Address, amount *big.Int, dir Direction) (RouteQuote, error) {
	route, err := q.routes.ResolveRouter(ctx, token)
	if err != nil {
		return RouteQuote{}, err
	}

	router := newBoundContract(q.transport, routerABI, route.Router)
	out, err := router.call(ctx, method, token, amount, dir.IsBuy())
	if err != nil {
		return RouteQuote{}, err
	}
	amt, ok := out[0].(*big.Int)
	if !ok {
		return RouteQuote{}, fmt.Errorf("%w: %s returned %T", ErrEncoding, method, out[0])
	}

	return RouteQuote{Router: route.Router, IsDex: route.IsDex, Amount: amt}, nil
}

// WrapperQuoter asks the aggregating wrapper, which answers with the governing
// router and the amount in one call.
type WrapperQuoter struct {
	wrapper *boundContract
	routes  *RouteSelector
}

func NewWrapperQuoter(transport Transport, wrapper common.Address, routes *RouteSelector) *WrapperQuoter {
	return &WrapperQuoter{
		wrapper: newBoundContract(transport, wrapperABI, wrapper),
		routes:  routes,
	}
}

func (q *WrapperQuoter) Quote(ctx context.Context, token common.Address, amount *big.Int, dir Direction) (RouteQuote, error) {
	return q.quote(ctx, "getAmountOut", token, amount, dir)
}

func (q *WrapperQuoter) QuoteForOutput(ctx context.Context, token common.Address, desired *big.Int, dir Direction) (RouteQuote, error) {
	return q.quote(ctx, "getAmountIn", token, desired, dir)
}

func (q *WrapperQuoter) quote(ctx context.Context, method string, token common.Address, amount *big.Int, dir Direction) (RouteQuote, error) {
	out, err := q.wrapper.call(ctx, method, token, amount, dir.IsBuy())
	if err != nil {
		return RouteQuote{}, err
	}
	routerAddr, ok := out[0].(common.Address)
	if !ok {
		return RouteQuote{}, fmt.Errorf("%w: %s router is %T", ErrEncoding, method, out[0])
	}
	amt, ok := out[1].(*big.Int)
	if !ok {
		return RouteQuote{}, fmt.Errorf("%w: %s amount is %T", ErrEncoding, method, out[1])
	}

	route, ok := q.routes.RouteFor(routerAddr)
	if !ok {
		return RouteQuote{}, fmt.Errorf("%w: wrapper returned unknown router %s", ErrRouteResolution, routerAddr.Hex())
	}
	return RouteQuote{Router: route.Router, IsDex: route.IsDex, Amount: amt}, nil
}
