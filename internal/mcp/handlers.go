package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/address"
	"github.com/nadfun/trading-mcp/internal/cache"
	"github.com/nadfun/trading-mcp/internal/ethereum"
	"github.com/nadfun/trading-mcp/internal/trading"
	"github.com/nadfun/trading-mcp/pkg/decimal"
)

const monDecimals = 18

var errInvalidArguments = errors.New("invalid arguments")

// Trader is the subset of *trading.Trader the tools drive.
type Trader interface {
	Address() common.Address
	Quote(ctx context.Context, token common.Address, amount *big.Int, dir trading.Direction) (trading.RouteQuote, error)
	QuoteForOutput(ctx context.Context, token common.Address, desired *big.Int, dir trading.Direction) (trading.RouteQuote, error)
	ResolveRouter(ctx context.Context, token common.Address) (trading.Route, error)
	IsLocked(ctx context.Context, token common.Address) (bool, error)
	CurveState(ctx context.Context, token common.Address) (*trading.CurveState, error)
	Buy(ctx context.Context, order trading.BuyOrder) (*trading.TradeResult, error)
	Sell(ctx context.Context, order trading.SellOrder) (*trading.TradeResult, error)
}

// Chain is the read side of *ethereum.EthereumClient.
type Chain interface {
	GetBalance(ctx context.Context, addressStr string, tokenAddressStr *string) (*ethereum.BalanceResponse, error)
	TokenMetadata(ctx context.Context, token common.Address) (*cache.TokenMetadata, error)
	TradeStatus(ctx context.Context, hash common.Hash) (trading.OrderState, error)
}

type MCPHandler struct {
	trader Trader
	chain  Chain
	logger *zap.Logger
	tools  []ToolDefinition
}

func NewMCPHandler(trader Trader, chain Chain, logger *zap.Logger) *MCPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &MCPHandler{
		trader: trader,
		chain:  chain,
		logger: logger,
	}
	handler.registerTools()
	return handler
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func (h *MCPHandler) registerTools() {
	token := prop("string", "Token contract address")
	slippage := prop("integer", "Slippage tolerance in whole percent (0-100)")
	recipient := prop("string", "Optional recipient, defaults to the trading wallet")
	deadline := prop("integer", "Optional unix deadline in seconds")

	h.tools = []ToolDefinition{
		{
			Name:        "get_balance",
			Description: "Query the native MON or token balance of a wallet",
			InputSchema: objectSchema(map[string]interface{}{
				"address":       prop("string", "Wallet address"),
				"token_address": prop("string", "Optional token contract address"),
			}, "address"),
		},
		{
			Name:        "get_route",
			Description: "Report which router currently trades a token: bonding curve before listing, DEX after",
			InputSchema: objectSchema(map[string]interface{}{"token": token}, "token"),
		},
		{
			Name:        "get_quote",
			Description: "Quote a buy or sell on the token's current router",
			InputSchema: objectSchema(map[string]interface{}{
				"token":        token,
				"side":         prop("string", "buy or sell"),
				"amount":       prop("string", "Amount in human units: MON for buys, tokens for sells"),
				"exact_output": prop("boolean", "Treat amount as the desired output and quote the input required"),
			}, "token", "side", "amount"),
		},
		{
			Name:        "get_curve_state",
			Description: "Read a token's bonding curve reserves, listing and lock status",
			InputSchema: objectSchema(map[string]interface{}{"token": token}, "token"),
		},
		{
			Name:        "buy_token",
			Description: "Buy a token with MON on its current router",
			InputSchema: objectSchema(map[string]interface{}{
				"token":            token,
				"amount_mon":       prop("string", "MON to spend"),
				"min_tokens":       prop("string", "Minimum tokens to receive"),
				"slippage_percent": slippage,
				"recipient":        recipient,
				"deadline":         deadline,
			}, "token", "amount_mon"),
		},
		{
			Name:        "sell_token",
			Description: "Sell a token for MON on its current router, signing a permit when the router needs one",
			InputSchema: objectSchema(map[string]interface{}{
				"token":            token,
				"amount":           prop("string", "Tokens to sell"),
				"min_mon":          prop("string", "Minimum MON to receive"),
				"slippage_percent": slippage,
				"recipient":        recipient,
				"deadline":         deadline,
				"permit":           prop("object", "Optional pre-signed permit {v, r, s}; computed when omitted"),
			}, "token", "amount"),
		},
		{
			Name:        "get_trade_status",
			Description: "Check whether a submitted trade is pending, confirmed or reverted",
			InputSchema: objectSchema(map[string]interface{}{
				"tx_hash": prop("string", "Transaction hash returned by buy_token or sell_token"),
			}, "tx_hash"),
		},
	}
}

func (h *MCPHandler) HandleInitialize(params *InitializeParams) *InitializeResult {
	if params.ClientInfo != nil {
		h.logger.Info("MCP client initialized",
			zap.String("client", params.ClientInfo.Name),
			zap.String("version", params.ClientInfo.Version),
		)
	}

	return &InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{
				"listChanged": false,
			},
		},
		ServerInfo: &ServerInfo{
			Name:    "nad.fun Trading MCP Server",
			Version: "1.0.0",
		},
	}
}

func (h *MCPHandler) HandleListTools() []ToolDefinition {
	return h.tools
}

// HandleCallTool runs a tool. Bad arguments are returned as errors wrapping
// errInvalidArguments; failures of the trade itself come back as an error result.
func (h *MCPHandler) HandleCallTool(ctx context.Context, params *CallToolParams) (*ToolResult, error) {
	h.logger.Debug("Tool called", zap.String("name", params.Name))

	switch params.Name {
	case "get_balance":
		return callTool(ctx, params.Arguments, h.getBalance)
	case "get_route":
		return callTool(ctx, params.Arguments, h.getRoute)
	case "get_quote":
		return callTool(ctx, params.Arguments, h.getQuote)
	case "get_curve_state":
		return callTool(ctx, params.Arguments, h.getCurveState)
	case "buy_token":
		return callTool(ctx, params.Arguments, h.buyToken)
	case "sell_token":
		return callTool(ctx, params.Arguments, h.sellToken)
	case "get_trade_status":
		return callTool(ctx, params.Arguments, h.getTradeStatus)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArguments, params.Name)
	}
}

// callTool decodes raw into A, runs fn and renders its value as JSON text.
func callTool[A any](ctx context.Context, raw json.RawMessage, fn func(context.Context, A) (interface{}, error)) (*ToolResult, error) {
	var args A
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArguments, err)
		}
	}

	value, err := fn(ctx, args)
	if err != nil {
		if errors.Is(err, errInvalidArguments) {
			return nil, err
		}
		return errorResult(err), nil
	}

	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &ToolResult{Content: []ToolContent{{Type: "text", Text: string(body)}}}, nil
}

func errorResult(err error) *ToolResult {
	text := fmt.Sprintf("Error: %v", err)
	var slip *trading.SlippageError
	if errors.As(err, &slip) {
		text = fmt.Sprintf("Slippage check failed: expected at least %s but %s was required", slip.ExpectedMin, slip.UserMin)
	}
	return &ToolResult{Content: []ToolContent{{Type: "text", Text: text}}, IsError: true}
}

func (h *MCPHandler) getBalance(ctx context.Context, args balanceArgs) (interface{}, error) {
	if args.Address == "" {
		return nil, fmt.Errorf("%w: address is required", errInvalidArguments)
	}
	return h.chain.GetBalance(ctx, args.Address, args.TokenAddress)
}

func (h *MCPHandler) getRoute(ctx context.Context, args tokenArgs) (interface{}, error) {
	token, err := parseAddress("token", args.Token)
	if err != nil {
		return nil, err
	}
	route, err := h.trader.ResolveRouter(ctx, token)
	if err != nil {
		return nil, err
	}
	return &RouteResponse{
		Token:      token.Hex(),
		Router:     route.Router.Hex(),
		IsDex:      route.IsDex,
		SellMethod: route.Sell.String(),
	}, nil
}

func (h *MCPHandler) getQuote(ctx context.Context, args quoteArgs) (interface{}, error) {
	token, err := parseAddress("token", args.Token)
	if err != nil {
		return nil, err
	}
	dir, err := parseSide(args.Side)
	if err != nil {
		return nil, err
	}

	tokenDecimals, err := h.tokenDecimals(ctx, token)
	if err != nil {
		return nil, err
	}
	// buys spend MON for tokens, sells the reverse
	inDecimals, outDecimals := monDecimals, tokenDecimals
	if !dir.IsBuy() {
		inDecimals, outDecimals = tokenDecimals, monDecimals
	}

	var quote trading.RouteQuote
	var resultDecimals int
	if args.ExactOutput {
		desired, err := parseAmount("amount", args.Amount, outDecimals)
		if err != nil {
			return nil, err
		}
		quote, err = h.trader.QuoteForOutput(ctx, token, desired, dir)
		if err != nil {
			return nil, err
		}
		resultDecimals = inDecimals
	} else {
		amount, err := parseAmount("amount", args.Amount, inDecimals)
		if err != nil {
			return nil, err
		}
		quote, err = h.trader.Quote(ctx, token, amount, dir)
		if err != nil {
			return nil, err
		}
		resultDecimals = outDecimals
	}

	return &QuoteResponse{
		Token:       token.Hex(),
		Side:        dir.String(),
		ExactOutput: args.ExactOutput,
		Router:      quote.Router.Hex(),
		IsDex:       quote.IsDex,
		Amount:      decimal.FormatBalance(quote.Amount, resultDecimals).String(),
		Raw:         quote.Amount.String(),
	}, nil
}

func (h *MCPHandler) getCurveState(ctx context.Context, args tokenArgs) (interface{}, error) {
	token, err := parseAddress("token", args.Token)
	if err != nil {
		return nil, err
	}
	route, err := h.trader.ResolveRouter(ctx, token)
	if err != nil {
		return nil, err
	}
	locked, err := h.trader.IsLocked(ctx, token)
	if err != nil {
		return nil, err
	}
	state, err := h.trader.CurveState(ctx, token)
	if err != nil {
		return nil, err
	}
	return ethereum.NewCurveResponse(token, route, locked, state), nil
}

func (h *MCPHandler) buyToken(ctx context.Context, args buyArgs) (interface{}, error) {
	token, err := parseAddress("token", args.Token)
	if err != nil {
		return nil, err
	}
	amountIn, err := parseAmount("amount_mon", args.AmountMON, monDecimals)
	if err != nil {
		return nil, err
	}
	recipient, err := parseOptionalAddress("recipient", args.Recipient)
	if err != nil {
		return nil, err
	}

	var minOut *big.Int
	if args.MinTokens != "" {
		decimals, err := h.tokenDecimals(ctx, token)
		if err != nil {
			return nil, err
		}
		if minOut, err = parseAmount("min_tokens", args.MinTokens, decimals); err != nil {
			return nil, err
		}
	} else if args.SlippagePercent != nil {
		if minOut, err = h.minFromQuote(ctx, token, amountIn, trading.DirectionBuy, *args.SlippagePercent); err != nil {
			return nil, err
		}
	}

	result, err := h.trader.Buy(ctx, trading.BuyOrder{
		Token:           token,
		Recipient:       recipient,
		AmountIn:        amountIn,
		AmountOutMin:    minOut,
		Deadline:        args.Deadline,
		SlippagePercent: args.SlippagePercent,
	})
	return h.tradeResponse(result, err)
}

func (h *MCPHandler) sellToken(ctx context.Context, args sellArgs) (interface{}, error) {
	token, err := parseAddress("token", args.Token)
	if err != nil {
		return nil, err
	}
	decimals, err := h.tokenDecimals(ctx, token)
	if err != nil {
		return nil, err
	}
	amountIn, err := parseAmount("amount", args.Amount, decimals)
	if err != nil {
		return nil, err
	}
	recipient, err := parseOptionalAddress("recipient", args.Recipient)
	if err != nil {
		return nil, err
	}

	var minOut *big.Int
	if args.MinMON != "" {
		if minOut, err = parseAmount("min_mon", args.MinMON, monDecimals); err != nil {
			return nil, err
		}
	} else if args.SlippagePercent != nil {
		if minOut, err = h.minFromQuote(ctx, token, amountIn, trading.DirectionSell, *args.SlippagePercent); err != nil {
			return nil, err
		}
	}

	permit := trading.ComputePermit()
	if args.Permit != nil {
		sig, err := parsePermit(args.Permit)
		if err != nil {
			return nil, err
		}
		permit = trading.ProvidedPermit(sig)
	}

	result, err := h.trader.Sell(ctx, trading.SellOrder{
		Token:           token,
		Recipient:       recipient,
		AmountIn:        amountIn,
		AmountOutMin:    minOut,
		Deadline:        args.Deadline,
		Permit:          permit,
		SlippagePercent: args.SlippagePercent,
	})
	return h.tradeResponse(result, err)
}

func (h *MCPHandler) getTradeStatus(ctx context.Context, args tradeStatusArgs) (interface{}, error) {
	raw, err := hexutil.Decode(args.TxHash)
	if err != nil || len(raw) != common.HashLength {
		return nil, fmt.Errorf("%w: tx_hash must be a 32-byte hex string", errInvalidArguments)
	}
	hash := common.BytesToHash(raw)
	state, err := h.chain.TradeStatus(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &TradeStatusResponse{TxHash: hash.Hex(), State: state.String()}, nil
}

// minFromQuote derives a minimum output from a fresh quote when the caller
// gave a slippage tolerance but no explicit minimum.
func (h *MCPHandler) minFromQuote(ctx context.Context, token common.Address, amountIn *big.Int, dir trading.Direction, pct int) (*big.Int, error) {
	quote, err := h.trader.Quote(ctx, token, amountIn, dir)
	if err != nil {
		return nil, err
	}
	return trading.MinAcceptable(quote.Amount, pct), nil
}

func (h *MCPHandler) tokenDecimals(ctx context.Context, token common.Address) (int, error) {
	meta, err := h.chain.TokenMetadata(ctx, token)
	if err != nil {
		return 0, err
	}
	return meta.Decimals, nil
}

// tradeResponse renders whatever state the order reached. An order that
// failed after quoting still reports its state alongside the error.
func (h *MCPHandler) tradeResponse(result *trading.TradeResult, err error) (interface{}, error) {
	if err != nil {
		if result != nil {
			h.logger.Warn("Trade failed", zap.Stringer("state", result.State), zap.Error(err))
			return nil, fmt.Errorf("trade stopped at %s: %w", result.State, err)
		}
		return nil, err
	}
	resp := &TradeResponse{
		TxHash: result.TxHash,
		State:  result.State.String(),
		Router: result.Router.Hex(),
		IsDex:  result.IsDex,
	}
	if result.Expected != nil {
		resp.Expected = result.Expected.String()
	}
	if result.MinAcceptable != nil {
		resp.MinAcceptable = result.MinAcceptable.String()
	}
	return resp, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, fmt.Errorf("%w: %s is required", errInvalidArguments, field)
	}
	addr, err := address.Parse(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s: %v", errInvalidArguments, field, err)
	}
	return addr, nil
}

func parseOptionalAddress(field, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	return parseAddress(field, s)
}

func parseAmount(field, s string, decimals int) (*big.Int, error) {
	amount, err := decimal.ParseAmount(s, decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errInvalidArguments, field, err)
	}
	return amount, nil
}

func parseSide(s string) (trading.Direction, error) {
	switch s {
	case "buy":
		return trading.DirectionBuy, nil
	case "sell":
		return trading.DirectionSell, nil
	}
	return 0, fmt.Errorf("%w: side must be buy or sell, got %q", errInvalidArguments, s)
}

func parsePermit(p *permitArgs) (trading.PermitSignature, error) {
	sig := trading.PermitSignature{V: p.V}
	for _, part := range []struct {
		name string
		hex  string
		dst  *[32]byte
	}{{"permit.r", p.R, &sig.R}, {"permit.s", p.S, &sig.S}} {
		raw, err := hexutil.Decode(part.hex)
		if err != nil || len(raw) != 32 {
			return sig, fmt.Errorf("%w: %s must be a 32-byte hex string", errInvalidArguments, part.name)
		}
		copy(part.dst[:], raw)
	}
	if sig.V != 27 && sig.V != 28 {
		return sig, fmt.Errorf("%w: permit.v must be 27 or 28", errInvalidArguments)
	}
	return sig, nil
}
