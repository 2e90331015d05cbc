// Package api serves read-only trading views over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/nadfun/trading-mcp/internal/address"
	"github.com/nadfun/trading-mcp/internal/ethereum"
	"github.com/nadfun/trading-mcp/internal/trading"
)

// Reader is the read side of *trading.Trader.
type Reader interface {
	Quote(ctx context.Context, token common.Address, amount *big.Int, dir trading.Direction) (trading.RouteQuote, error)
	QuoteForOutput(ctx context.Context, token common.Address, desired *big.Int, dir trading.Direction) (trading.RouteQuote, error)
	ResolveRouter(ctx context.Context, token common.Address) (trading.Route, error)
	IsLocked(ctx context.Context, token common.Address) (bool, error)
	CurveState(ctx context.Context, token common.Address) (*trading.CurveState, error)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// QuoteResponse carries raw integer amounts in the smallest unit.
type QuoteResponse struct {
	Token       string `json:"token"`
	Side        string `json:"side"`
	ExactOutput bool   `json:"exactOutput"`
	Amount      string `json:"amount"`
	Quote       string `json:"quote"`
	Router      string `json:"router"`
	IsDex       bool   `json:"isDex"`
}

type RouteResponse struct {
	Token      string `json:"token"`
	Router     string `json:"router"`
	IsDex      bool   `json:"isDex"`
	SellMethod string `json:"sellMethod"`
}

type Handler struct {
	reader  Reader
	version string
}

func NewHandler(reader Reader, version string) *Handler {
	return &Handler{reader: reader, version: version}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// GetQuote handles GET /api/v1/quote?token=&side=&amount=[&exactOutput=true]
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenStr, side, amountStr := q.Get("token"), q.Get("side"), q.Get("amount")
	if tokenStr == "" || side == "" || amountStr == "" {
		writeError(w, http.StatusBadRequest, "missing_params", "token, side, and amount are required")
		return
	}

	token, err := address.Parse(tokenStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token", err.Error())
		return
	}

	var dir trading.Direction
	switch side {
	case "buy":
		dir = trading.DirectionBuy
	case "sell":
		dir = trading.DirectionSell
	default:
		writeError(w, http.StatusBadRequest, "invalid_side", "side must be buy or sell")
		return
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be a positive integer")
		return
	}

	exactOutput := q.Get("exactOutput") == "true"
	var quote trading.RouteQuote
	if exactOutput {
		quote, err = h.reader.QuoteForOutput(r.Context(), token, amount, dir)
	} else {
		quote, err = h.reader.Quote(r.Context(), token, amount, dir)
	}
	if err != nil {
		writeTradingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QuoteResponse{
		Token:       token.Hex(),
		Side:        dir.String(),
		ExactOutput: exactOutput,
		Amount:      amount.String(),
		Quote:       quote.Amount.String(),
		Router:      quote.Router.Hex(),
		IsDex:       quote.IsDex,
	})
}

// GetRoute handles GET /api/v1/route/{token}
func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}
	route, err := h.reader.ResolveRouter(r.Context(), token)
	if err != nil {
		writeTradingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RouteResponse{
		Token:      token.Hex(),
		Router:     route.Router.Hex(),
		IsDex:      route.IsDex,
		SellMethod: route.Sell.String(),
	})
}

// GetCurve handles GET /api/v1/curve/{token}
func (h *Handler) GetCurve(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	route, err := h.reader.ResolveRouter(ctx, token)
	if err != nil {
		writeTradingError(w, err)
		return
	}
	locked, err := h.reader.IsLocked(ctx, token)
	if err != nil {
		writeTradingError(w, err)
		return
	}
	state, err := h.reader.CurveState(ctx, token)
	if err != nil {
		writeTradingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ethereum.NewCurveResponse(token, route, locked, state))
}

func tokenParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	token, err := address.Parse(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token", err.Error())
		return common.Address{}, false
	}
	return token, true
}

// writeTradingError maps the trading error kinds onto HTTP statuses.
func writeTradingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trading.ErrEncoding), errors.Is(err, trading.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, trading.ErrRouteResolution):
		writeError(w, http.StatusNotFound, "no_route", err.Error())
	case errors.Is(err, trading.ErrTransport):
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
