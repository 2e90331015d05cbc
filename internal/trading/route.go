package trading

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// RouteSelector decides which router governs a token. Listing status is
// mutable on-chain, so nothing here is cached.
type RouteSelector struct {
	curve   *boundContract
	bonding Route
	dex     Route
}

// NewRouteSelector wires the curve contract and the two venues it chooses between.
func NewRouteSelector(transport Transport, curve common.Address, bonding, dex Route) *RouteSelector {
	bonding.IsDex = false
	dex.IsDex = true
	return &RouteSelector{
		curve:   newBoundContract(transport, curveABI, curve),
		bonding: bonding,
		dex:     dex,
	}
}

// ResolveRouter returns the bonding-curve router for unlisted tokens and the
// DEX router for listed ones.
func (s *RouteSelector) ResolveRouter(ctx context.Context, token common.Address) (Route, error) {
	out, err := s.curve.call(ctx, "isListed", token)
	if err != nil {
		return Route{}, fmt.Errorf("%w: isListed(%s): %w", ErrRouteResolution, token.Hex(), err)
	}
	listed, ok := out[0].(bool)
	if !ok {
		return Route{}, fmt.Errorf("%w: isListed(%s) returned %T", ErrRouteResolution, token.Hex(), out[0])
	}

	if listed {
		return s.dex, nil
	}
	return s.bonding, nil
}

// RouteFor maps a router address back onto a configured venue.
func (s *RouteSelector) RouteFor(router common.Address) (Route, bool) {
	switch router {
	case s.bonding.Router:
		return s.bonding, true
	case s.dex.Router:
		return s.dex, true
	}
	return Route{}, false
}

// IsLocked reports whether the curve has locked trading for token.
func (s *RouteSelector) IsLocked(ctx context.Context, token common.Address) (bool, error) {
	out, err := s.curve.call(ctx, "isLocked", token)
	if err != nil {
		return false, err
	}
	locked, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: isLocked(%s) returned %T", ErrEncoding, token.Hex(), out[0])
	}
	return locked, nil
}

// CurveState reads the reserves backing token's bonding curve.
func (s *RouteSelector) CurveState(ctx context.Context, token common.Address) (*CurveState, error) {
	raw, err := s.curve.callRaw(ctx, "curves", token)
	if err != nil {
		return nil, err
	}

	var state CurveState
	if err := curveABI.UnpackIntoInterface(&state, "curves", raw); err != nil {
		return nil, fmt.Errorf("%w: unpack curves: %v", ErrEncoding, err)
	}
	return &state, nil
}
