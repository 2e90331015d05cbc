package config

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"github.com/nadfun/trading-mcp/internal/address"
	"github.com/nadfun/trading-mcp/internal/trading"
)

// Network resolves ethereum.network against the built-in table and applies
// contract overrides.
func (c *Config) Network() (trading.Network, error) {
	network, err := trading.LookupNetwork(c.Ethereum.Network)
	if err != nil {
		return trading.Network{}, err
	}

	var override trading.Contracts
	fields := []struct {
		name string
		raw  string
		dst  *common.Address
	}{
		{"curve", c.Contracts.Curve, &override.Curve},
		{"bonding_curve_router", c.Contracts.BondingCurveRouter, &override.BondingCurveRouter},
		{"dex_router", c.Contracts.DexRouter, &override.DexRouter},
		{"wrapper", c.Contracts.Wrapper, &override.Wrapper},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		addr, err := address.Parse(f.raw)
		if err != nil {
			return trading.Network{}, fmt.Errorf("contracts.%s: %w", f.name, err)
		}
		*f.dst = addr
	}

	network.Contracts = network.Contracts.Override(override)
	if c.Ethereum.ChainID != 0 {
		network.ChainID = c.Ethereum.ChainID
	}
	return network, nil
}

// TradingConfig builds the trader configuration for the selected network.
func (c *Config) TradingConfig() (trading.Config, error) {
	network, err := c.Network()
	if err != nil {
		return trading.Config{}, err
	}

	policy, err := trading.ParseSlippagePolicy(c.Trading.SlippagePolicy)
	if err != nil {
		return trading.Config{}, err
	}

	cfg := trading.Config{
		Profile:                trading.Profile(c.Trading.Profile),
		Contracts:              network.Contracts,
		SlippagePolicy:         policy,
		DefaultSlippagePercent: c.Trading.DefaultSlippagePercent,
		DeadlineWindow:         c.Trading.Deadline(),
		PriorityFee:            new(big.Int).Mul(big.NewInt(c.Trading.PriorityFeeGwei), big.NewInt(params.GWei)),
	}

	if c.Trading.BondingSellMethod != "" {
		m, ok := trading.ParseSellMethod(c.Trading.BondingSellMethod)
		if !ok {
			return trading.Config{}, fmt.Errorf("trading.bonding_sell_method: unknown method %q", c.Trading.BondingSellMethod)
		}
		cfg.BondingSell = &m
	}
	if c.Trading.DexSellMethod != "" {
		m, ok := trading.ParseSellMethod(c.Trading.DexSellMethod)
		if !ok {
			return trading.Config{}, fmt.Errorf("trading.dex_sell_method: unknown method %q", c.Trading.DexSellMethod)
		}
		cfg.DexSell = &m
	}
	return cfg, nil
}
