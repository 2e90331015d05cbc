package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/address"
	"github.com/nadfun/trading-mcp/internal/cache"
	"github.com/nadfun/trading-mcp/internal/trading"
)

// EthereumClient is the RPC transport. It satisfies trading.Transport through
// the embedded ethclient and adds read helpers for balances and token metadata.
type EthereumClient struct {
	*ethclient.Client

	reader   chainReader
	logger   *zap.Logger
	cache    cache.Cache
	cacheTTL time.Duration
	chainID  int64
}

type EthereumConfig struct {
	RPCEndpoint string
	ChainID     int64
	// MetadataTTL bounds how long token metadata stays cached.
	MetadataTTL time.Duration
}

// chainReader is the read side used by the balance and metadata helpers.
type chainReader interface {
	bind.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

var _ trading.Transport = (*EthereumClient)(nil)

func NewEthereumClient(ctx context.Context, cfg *EthereumConfig, metadata cache.Cache, logger *zap.Logger) (*EthereumClient, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return newEthereumClient(client, cfg, metadata, logger), nil
}

func newEthereumClient(client *ethclient.Client, cfg *EthereumConfig, metadata cache.Cache, logger *zap.Logger) *EthereumClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metadata == nil {
		metadata = cache.NewInMemoryCache()
	}
	ttl := cfg.MetadataTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EthereumClient{
		Client:   client,
		reader:   client,
		logger:   logger,
		cache:    metadata,
		cacheTTL: ttl,
		chainID:  cfg.ChainID,
	}
}

// ValidateAddress parses a user-supplied address.
func (ec *EthereumClient) ValidateAddress(s string) (common.Address, error) {
	return address.Parse(s)
}

// TradeStatus reports where a submitted order stands on-chain.
func (ec *EthereumClient) TradeStatus(ctx context.Context, hash common.Hash) (trading.OrderState, error) {
	receipt, err := ec.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, geth.NotFound) {
			return trading.ReceiptState(nil), nil
		}
		return trading.StateSubmitted, fmt.Errorf("failed to get receipt: %w", err)
	}
	return trading.ReceiptState(receipt), nil
}

func (ec *EthereumClient) Close() {
	if ec.Client != nil {
		ec.Client.Close()
	}
	if err := ec.cache.Close(); err != nil {
		ec.logger.Warn("Failed to close cache", zap.Error(err))
	}
}
