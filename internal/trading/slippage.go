package trading

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// SlippagePolicy decides what a failed slippage check does.
type SlippagePolicy int

const (
	// SlippageEnforce rejects the order.
	SlippageEnforce SlippagePolicy = iota
	// SlippageWarn logs the violation and lets the chain enforce the caller's minimum.
	SlippageWarn
)

// ParseSlippagePolicy maps "enforce" or "warn" onto a policy.
func ParseSlippagePolicy(s string) (SlippagePolicy, error) {
	switch s {
	case "", "enforce":
		return SlippageEnforce, nil
	case "warn":
		return SlippageWarn, nil
	}
	return SlippageEnforce, fmt.Errorf("unknown slippage policy %q", s)
}

func (p SlippagePolicy) String() string {
	if p == SlippageWarn {
		return "warn"
	}
	return "enforce"
}

var hundred = big.NewInt(100)

// MinAcceptable returns floor(expected * (100 - p) / 100) with p clamped to [0, 100].
func MinAcceptable(expected *big.Int, slippagePercent int) *big.Int {
	p := slippagePercent
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	out := new(big.Int).Mul(expected, big.NewInt(int64(100-p)))
	return out.Quo(out, hundred)
}

// ValidateSlippage fails iff expectedMin < userMin.
func ValidateSlippage(expectedMin, userMin *big.Int) error {
	if expectedMin.Cmp(userMin) < 0 {
		return &SlippageError{
			ExpectedMin: new(big.Int).Set(expectedMin),
			UserMin:     new(big.Int).Set(userMin),
		}
	}
	return nil
}

// SlippageGuard applies ValidateSlippage under a policy.
type SlippageGuard struct {
	policy SlippagePolicy
	logger *zap.Logger
}

func NewSlippageGuard(policy SlippagePolicy, logger *zap.Logger) *SlippageGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlippageGuard{policy: policy, logger: logger}
}

// Check computes the minimum acceptable output for expected and validates userMin against it.
func (g *SlippageGuard) Check(expected *big.Int, slippagePercent int, userMin *big.Int) (*big.Int, error) {
	minAcceptable := MinAcceptable(expected, slippagePercent)
	err := ValidateSlippage(minAcceptable, userMin)
	if err == nil {
		return minAcceptable, nil
	}

	if g.policy == SlippageWarn {
		g.logger.Warn("Slippage check failed, continuing",
			zap.String("expected", expected.String()),
			zap.String("min_acceptable", minAcceptable.String()),
			zap.String("user_min", userMin.String()),
			zap.Int("slippage_percent", slippagePercent),
		)
		return minAcceptable, nil
	}
	return minAcceptable, err
}
