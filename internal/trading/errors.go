package trading

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nadfun/trading-mcp/internal/address"
)

var (
	// ErrTransport wraps failures from the RPC transport.
	ErrTransport = errors.New("transport failure")
	// ErrUnsupportedNetwork is returned for network names missing from the table.
	ErrUnsupportedNetwork = errors.New("unsupported network")
	// ErrRouteResolution is returned when the venue for a token cannot be determined.
	ErrRouteResolution = errors.New("route resolution failure")
	// ErrSlippageViolation is returned when a quote does not cover the caller's minimum.
	ErrSlippageViolation = errors.New("slippage violation")
	// ErrPermitUnsupported is returned when a token exposes no permit nonce accessor.
	ErrPermitUnsupported = errors.New("permit unsupported")
	// ErrEncoding covers ABI and address encoding problems.
	ErrEncoding = address.ErrEncoding
	// ErrInvalidOrder is returned for orders missing a token or amount.
	ErrInvalidOrder = errors.New("invalid order")
)

// SlippageError carries the numbers behind a slippage violation.
type SlippageError struct {
	ExpectedMin *big.Int
	UserMin     *big.Int
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("slippage violation: expected minimum %s below requested %s", e.ExpectedMin, e.UserMin)
}

func (e *SlippageError) Unwrap() error {
	return ErrSlippageViolation
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
