// Package trading buys and sells curve-launched tokens on whichever router
// currently governs them: the bonding-curve router before listing, the DEX
// router after.
package trading

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"
)

// Profile names one of the two router/ABI sets the protocol has shipped.
type Profile string

const (
	// ProfileListing resolves the router through the curve's isListed
	// predicate and quotes on that router.
	ProfileListing Profile = "listing"
	// ProfileWrapper quotes through the wrapper contract, which also names the router.
	ProfileWrapper Profile = "wrapper"
)

const DefaultDeadlineWindow = 300 * time.Second

// Config wires a Trader.
type Config struct {
	Profile   Profile
	Contracts Contracts

	// BondingSell and DexSell choose the sell calldata per router. Nil picks
	// the profile default: permit for listing, plain for wrapper.
	BondingSell *SellMethod
	DexSell     *SellMethod

	SlippagePolicy SlippagePolicy
	// DefaultSlippagePercent applies to orders without their own value. Zero disables it.
	DefaultSlippagePercent int
	DeadlineWindow         time.Duration
	PriorityFee            *big.Int
}

// Trader is the entry point for quoting and trading with one key.
type Trader struct {
	signer    Signer
	routes    *RouteSelector
	quoter    Quoter
	guard     *SlippageGuard
	permits   *PermitSigner
	assembler *TransactionAssembler
	logger    *zap.Logger

	defaultSlippage int
	deadlineWindow  time.Duration
	now             func() time.Time
}

// NewTrader validates cfg and builds the component graph.
func NewTrader(transport Transport, signer Signer, cfg Config, logger *zap.Logger) (*Trader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Profile == "" {
		cfg.Profile = ProfileListing
	}

	c := cfg.Contracts
	if c.BondingCurveRouter == (common.Address{}) || c.DexRouter == (common.Address{}) {
		return nil, fmt.Errorf("%w: router addresses not configured", ErrUnsupportedNetwork)
	}

	// route selection and lock checks read the curve under every profile
	if c.Curve == (common.Address{}) {
		return nil, fmt.Errorf("%w: curve address not configured", ErrUnsupportedNetwork)
	}

	defaultSell := SellWithPermit
	switch cfg.Profile {
	case ProfileListing:
	case ProfileWrapper:
		if c.Wrapper == (common.Address{}) {
			return nil, fmt.Errorf("%w: wrapper address not configured", ErrUnsupportedNetwork)
		}
		defaultSell = SellPlain
	default:
		return nil, fmt.Errorf("%w: unknown profile %q", ErrUnsupportedNetwork, cfg.Profile)
	}

	bonding := Route{Router: c.BondingCurveRouter, Sell: defaultSell}
	if cfg.BondingSell != nil {
		bonding.Sell = *cfg.BondingSell
	}
	dex := Route{Router: c.DexRouter, IsDex: true, Sell: defaultSell}
	if cfg.DexSell != nil {
		dex.Sell = *cfg.DexSell
	}

	routes := NewRouteSelector(transport, c.Curve, bonding, dex)

	var quoter Quoter
	if cfg.Profile == ProfileWrapper {
		quoter = NewWrapperQuoter(transport, c.Wrapper, routes)
	} else {
		quoter = NewRouterQuoter(transport, routes)
	}

	window := cfg.DeadlineWindow
	if window <= 0 {
		window = DefaultDeadlineWindow
	}

	fees := NewFeeStrategy(transport, signer.Address(), signer.ChainID(), cfg.PriorityFee)

	return &Trader{
		signer:          signer,
		routes:          routes,
		quoter:          quoter,
		guard:           NewSlippageGuard(cfg.SlippagePolicy, logger),
		permits:         NewPermitSigner(transport, signer, logger),
		assembler:       NewTransactionAssembler(transport, signer, fees, logger),
		logger:          logger,
		defaultSlippage: cfg.DefaultSlippagePercent,
		deadlineWindow:  window,
		now:             time.Now,
	}, nil
}

// Address is the trading account.
func (t *Trader) Address() common.Address {
	return t.signer.Address()
}

func (t *Trader) Quote(ctx context.Context, token common.Address, amount *big.Int, dir Direction) (RouteQuote, error) {
	return t.quoter.Quote(ctx, token, amount, dir)
}

func (t *Trader) QuoteForOutput(ctx context.Context, token common.Address, desired *big.Int, dir Direction) (RouteQuote, error) {
	return t.quoter.QuoteForOutput(ctx, token, desired, dir)
}

func (t *Trader) ResolveRouter(ctx context.Context, token common.Address) (Route, error) {
	return t.routes.ResolveRouter(ctx, token)
}

func (t *Trader) IsLocked(ctx context.Context, token common.Address) (bool, error) {
	return t.routes.IsLocked(ctx, token)
}

func (t *Trader) CurveState(ctx context.Context, token common.Address) (*CurveState, error) {
	return t.routes.CurveState(ctx, token)
}

// Buy quotes, validates and submits a buy. The returned result is non-nil
// once the order has been quoted and records the last state reached.
func (t *Trader) Buy(ctx context.Context, order BuyOrder) (*TradeResult, error) {
	if err := checkOrder(order.Token, order.AmountIn); err != nil {
		return nil, err
	}

	result, route, err := t.quoteAndValidate(ctx, order.Token, order.AmountIn, DirectionBuy, order.SlippagePercent, order.AmountOutMin)
	if err != nil {
		return result, err
	}

	params := BuyParams{
		AmountOutMin: orZero(order.AmountOutMin),
		Token:        order.Token,
		To:           t.recipient(order.Recipient),
		Deadline:     new(big.Int).SetUint64(t.deadline(order.Deadline)),
	}

	hash, stage, err := t.assembler.BuildAndSend(ctx, route.Router, BuySignature, BuyArgs, order.AmountIn, params)
	return t.finish(result, hash, stage, err)
}

// Sell quotes, validates, signs a permit when the router needs one and none
// was provided, and submits the sell.
func (t *Trader) Sell(ctx context.Context, order SellOrder) (*TradeResult, error) {
	if err := checkOrder(order.Token, order.AmountIn); err != nil {
		return nil, err
	}

	result, route, err := t.quoteAndValidate(ctx, order.Token, order.AmountIn, DirectionSell, order.SlippagePercent, order.AmountOutMin)
	if err != nil {
		return result, err
	}

	to := t.recipient(order.Recipient)
	deadline := t.deadline(order.Deadline)

	if route.Sell == SellPlain {
		params := SellParams{
			AmountIn:     order.AmountIn,
			AmountOutMin: orZero(order.AmountOutMin),
			Token:        order.Token,
			To:           to,
			Deadline:     new(big.Int).SetUint64(deadline),
		}
		hash, stage, err := t.assembler.BuildAndSend(ctx, route.Router, SellSignature, SellArgs, nil, params)
		return t.finish(result, hash, stage, err)
	}

	allowance := order.Allowance
	if allowance == nil {
		allowance = new(big.Int).Set(math.MaxBig256)
	}

	sig, ok := order.Permit.Provided()
	if !ok {
		sig, err = t.permits.Sign(ctx, order.Token, t.signer.Address(), route.Router, allowance, deadline)
		if err != nil {
			return result, err
		}
		t.transition(result, StatePermitSigned)
	}

	params := SellPermitParams{
		AmountIn:        order.AmountIn,
		AmountOutMin:    orZero(order.AmountOutMin),
		AmountAllowance: allowance,
		Token:           order.Token,
		To:              to,
		Deadline:        new(big.Int).SetUint64(deadline),
		V:               sig.V,
		R:               sig.R,
		S:               sig.S,
	}
	hash, stage, err := t.assembler.BuildAndSend(ctx, route.Router, SellPermitSignature, SellPermitArgs, nil, params)
	return t.finish(result, hash, stage, err)
}

func (t *Trader) quoteAndValidate(ctx context.Context, token common.Address, amountIn *big.Int, dir Direction, slippage *int, userMin *big.Int) (*TradeResult, Route, error) {
	quote, err := t.quoter.Quote(ctx, token, amountIn, dir)
	if err != nil {
		return nil, Route{}, err
	}
	route, ok := t.routes.RouteFor(quote.Router)
	if !ok {
		return nil, Route{}, fmt.Errorf("%w: quote came from unknown router %s", ErrRouteResolution, quote.Router.Hex())
	}

	result := &TradeResult{Router: route.Router, IsDex: route.IsDex, Expected: quote.Amount}
	t.transition(result, StateQuoted)

	pct, enabled := t.slippagePercent(slippage)
	if enabled {
		minAcceptable, err := t.guard.Check(quote.Amount, pct, orZero(userMin))
		result.MinAcceptable = minAcceptable
		if err != nil {
			return result, route, err
		}
	}
	t.transition(result, StateValidated)
	return result, route, nil
}

func (t *Trader) finish(result *TradeResult, hash string, stage SendStage, err error) (*TradeResult, error) {
	switch stage {
	case StageSigned:
		t.transition(result, StateSigned)
		t.transition(result, StateTransportFailed)
	case StageSubmitted:
		t.transition(result, StateSigned)
		result.TxHash = hash
		t.transition(result, StateSubmitted)
	}
	if err != nil {
		return result, err
	}

	t.logger.Info("Order submitted",
		zap.String("tx_hash", result.TxHash),
		zap.String("router", result.Router.Hex()),
		zap.Bool("dex", result.IsDex),
	)
	return result, nil
}

func (t *Trader) transition(result *TradeResult, state OrderState) {
	result.State = state
	t.logger.Debug("Order state", zap.Stringer("state", state), zap.String("router", result.Router.Hex()))
}

func (t *Trader) slippagePercent(p *int) (int, bool) {
	if p != nil {
		return *p, true
	}
	if t.defaultSlippage > 0 {
		return t.defaultSlippage, true
	}
	return 0, false
}

func (t *Trader) recipient(to common.Address) common.Address {
	if to == (common.Address{}) {
		return t.signer.Address()
	}
	return to
}

func (t *Trader) deadline(d uint64) uint64 {
	if d != 0 {
		return d
	}
	return uint64(t.now().Add(t.deadlineWindow).Unix())
}

func checkOrder(token common.Address, amountIn *big.Int) error {
	if token == (common.Address{}) {
		return fmt.Errorf("%w: token address is zero", ErrInvalidOrder)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidOrder)
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
