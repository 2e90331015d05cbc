package trading

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Direction int

const (
	DirectionBuy Direction = iota
	DirectionSell
)

func (d Direction) IsBuy() bool { return d == DirectionBuy }

func (d Direction) String() string {
	if d == DirectionBuy {
		return "buy"
	}
	return "sell"
}

// SellMethod selects the calldata shape a router expects for sells.
type SellMethod int

const (
	// SellWithPermit routers verify an EIP-2612 permit themselves (sellPermit).
	SellWithPermit SellMethod = iota
	// SellPlain routers take the plain sell tuple.
	SellPlain
)

func (m SellMethod) String() string {
	if m == SellPlain {
		return "plain"
	}
	return "permit"
}

// ParseSellMethod maps a config string onto a SellMethod.
func ParseSellMethod(s string) (SellMethod, bool) {
	switch s {
	case "", "permit":
		return SellWithPermit, true
	case "plain":
		return SellPlain, true
	}
	return SellWithPermit, false
}

// Route is the venue that governs a token right now.
type Route struct {
	Router common.Address
	IsDex  bool
	Sell   SellMethod
}

// RouteQuote is the counter-amount for a requested direction plus the router that produced it.
type RouteQuote struct {
	Router common.Address
	IsDex  bool
	Amount *big.Int
}

// PermitSignature holds EIP-2612 signature components. V is 27 or 28.
type PermitSignature struct {
	V uint8
	R [32]byte
	S [32]byte
}

// PermitChoice is either a caller-provided signature or a request to compute one.
// The zero value means "compute".
type PermitChoice struct {
	sig *PermitSignature
}

func ProvidedPermit(sig PermitSignature) PermitChoice {
	return PermitChoice{sig: &sig}
}

func ComputePermit() PermitChoice {
	return PermitChoice{}
}

func (p PermitChoice) Provided() (PermitSignature, bool) {
	if p.sig == nil {
		return PermitSignature{}, false
	}
	return *p.sig, true
}

// BuyOrder spends AmountIn of the native currency on Token.
type BuyOrder struct {
	Token        common.Address
	Recipient    common.Address // zero means the wallet address
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Deadline     uint64 // unix seconds, zero means now + configured window
	// SlippagePercent enables the pre-flight slippage check when set.
	SlippagePercent *int
}

// SellOrder sells AmountIn of Token for the native currency.
type SellOrder struct {
	Token        common.Address
	Recipient    common.Address
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Deadline     uint64
	Allowance    *big.Int // nil means max uint256
	Permit       PermitChoice

	SlippagePercent *int
}

// OrderState tracks a single order through the facade.
type OrderState int

const (
	StateQuoted OrderState = iota
	StateValidated
	StatePermitSigned
	StateSigned
	StateSubmitted
	StateConfirmed
	StateReverted
	StateTransportFailed
)

var stateNames = map[OrderState]string{
	StateQuoted:          "quoted",
	StateValidated:       "validated",
	StatePermitSigned:    "permit_signed",
	StateSigned:          "signed",
	StateSubmitted:       "submitted",
	StateConfirmed:       "confirmed",
	StateReverted:        "reverted",
	StateTransportFailed: "transport_failed",
}

func (s OrderState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ReceiptState maps a mined receipt onto the terminal order states.
// A nil receipt means the transaction is still pending.
func ReceiptState(receipt *types.Receipt) OrderState {
	switch {
	case receipt == nil:
		return StateSubmitted
	case receipt.Status == types.ReceiptStatusSuccessful:
		return StateConfirmed
	default:
		return StateReverted
	}
}

// TradeResult is returned by Buy and Sell. On failure after submission was
// attempted, State records how far the order got.
type TradeResult struct {
	TxHash        string
	Router        common.Address
	IsDex         bool
	Expected      *big.Int
	MinAcceptable *big.Int
	State         OrderState
}

// CurveState mirrors the curve contract's per-token reserves.
type CurveState struct {
	RealMonReserve          *big.Int
	RealTokenReserve        *big.Int
	VirtualMonReserve       *big.Int
	VirtualTokenReserve     *big.Int
	K                       *big.Int
	TargetTokenAmount       *big.Int
	InitVirtualMonReserve   *big.Int
	InitVirtualTokenReserve *big.Int
}
