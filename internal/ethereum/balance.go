package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/cache"
	"github.com/nadfun/trading-mcp/internal/trading"
	dec "github.com/nadfun/trading-mcp/pkg/decimal"
)

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(trading.ERC20PermitABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

type BalanceResponse struct {
	Address      string          `json:"address"`
	TokenAddress *string         `json:"token_address,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	Raw          string          `json:"raw"`
	Decimals     int             `json:"decimals"`
	Symbol       *string         `json:"symbol,omitempty"`
	Name         *string         `json:"name,omitempty"`
	IsNative     bool            `json:"is_native"`
}

// GetBalance returns the native balance of addressStr, or its token balance
// when tokenAddressStr is set.
func (ec *EthereumClient) GetBalance(ctx context.Context, addressStr string, tokenAddressStr *string) (*BalanceResponse, error) {
	owner, err := ec.ValidateAddress(addressStr)
	if err != nil {
		return nil, err
	}

	if tokenAddressStr == nil {
		balance, err := ec.reader.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get native balance: %w", err)
		}
		return &BalanceResponse{
			Address:  owner.Hex(),
			Balance:  dec.FromWei(balance),
			Raw:      balance.String(),
			Decimals: 18,
			Symbol:   stringPtr("MON"),
			Name:     stringPtr("Monad"),
			IsNative: true,
		}, nil
	}

	token, err := ec.ValidateAddress(*tokenAddressStr)
	if err != nil {
		return nil, err
	}

	balance, err := ec.TokenBalance(ctx, token, owner)
	if err != nil {
		return nil, err
	}
	meta, err := ec.TokenMetadata(ctx, token)
	if err != nil {
		return nil, err
	}

	resp := &BalanceResponse{
		Address:      owner.Hex(),
		TokenAddress: stringPtr(token.Hex()),
		Balance:      dec.FormatBalance(balance, meta.Decimals),
		Raw:          balance.String(),
		Decimals:     meta.Decimals,
	}
	if meta.Symbol != "" {
		resp.Symbol = stringPtr(meta.Symbol)
	}
	if meta.Name != "" {
		resp.Name = stringPtr(meta.Name)
	}
	return resp, nil
}

// TokenBalance reads balanceOf(owner) on token.
func (ec *EthereumClient) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := ec.erc20(token).Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// TokenMetadata returns name, symbol and decimals, from cache when possible.
// Missing symbol or name are left empty; missing decimals default to 18.
func (ec *EthereumClient) TokenMetadata(ctx context.Context, token common.Address) (*cache.TokenMetadata, error) {
	key := cache.TokenCacheKey(ec.chainID, token.Hex())
	if meta, err := ec.cache.GetToken(ctx, key); err != nil {
		ec.logger.Warn("Token cache read failed", zap.String("key", key), zap.Error(err))
	} else if meta != nil {
		return meta, nil
	}

	contract := ec.erc20(token)
	opts := &bind.CallOpts{Context: ctx}
	meta := &cache.TokenMetadata{Address: token.Hex(), Decimals: 18}

	var out []interface{}
	if err := contract.Call(opts, &out, "decimals"); err == nil {
		meta.Decimals = int(*abi.ConvertType(out[0], new(uint8)).(*uint8))
	}
	out = nil
	if err := contract.Call(opts, &out, "symbol"); err == nil {
		meta.Symbol = *abi.ConvertType(out[0], new(string)).(*string)
	}
	out = nil
	if err := contract.Call(opts, &out, "name"); err == nil {
		meta.Name = *abi.ConvertType(out[0], new(string)).(*string)
	}

	if err := ec.cache.SetToken(ctx, key, meta, ec.cacheTTL); err != nil {
		ec.logger.Warn("Token cache write failed", zap.String("key", key), zap.Error(err))
	}
	return meta, nil
}

func (ec *EthereumClient) erc20(token common.Address) *bind.BoundContract {
	return bind.NewBoundContract(token, erc20ABI, ec.reader, nil, nil)
}

func stringPtr(s string) *string {
	return &s
}
