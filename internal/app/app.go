// Package app wires configuration into a ready trader shared by the binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/cache"
	"github.com/nadfun/trading-mcp/internal/config"
	"github.com/nadfun/trading-mcp/internal/ethereum"
	"github.com/nadfun/trading-mcp/internal/trading"
	"github.com/nadfun/trading-mcp/internal/wallet"
)

type App struct {
	Config  *config.Config
	Network trading.Network
	Client  *ethereum.EthereumClient
	Wallet  *wallet.WalletManager
	Trader  *trading.Trader
	logger  *zap.Logger
}

// New connects to the RPC endpoint, loads the key and builds the trader.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	network, err := cfg.Network()
	if err != nil {
		return nil, err
	}
	tradingCfg, err := cfg.TradingConfig()
	if err != nil {
		return nil, err
	}

	metadata := NewCache(cfg.Redis, logger)

	ethClient, err := ethereum.NewEthereumClient(ctx, &ethereum.EthereumConfig{
		RPCEndpoint: cfg.Ethereum.RPCEndpoint,
		ChainID:     network.ChainID,
		MetadataTTL: cfg.Redis.TTL,
	}, metadata, logger)
	if err != nil {
		metadata.Close()
		return nil, fmt.Errorf("failed to initialize Ethereum client: %w", err)
	}

	walletMgr, err := wallet.NewWalletManager(ctx, &wallet.WalletConfig{
		PrivateKey: cfg.Wallet.PrivateKey,
		ChainID:    network.ChainID,
	}, ethClient, logger)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("failed to initialize wallet manager: %w", err)
	}

	trader, err := trading.NewTrader(ethClient, walletMgr, tradingCfg, logger)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("failed to initialize trader: %w", err)
	}

	logger.Info("Trader ready",
		zap.String("network", network.Name),
		zap.Int64("chain_id", network.ChainID),
		zap.String("profile", string(tradingCfg.Profile)),
		zap.String("wallet", walletMgr.Address().Hex()),
	)

	return &App{
		Config:  cfg,
		Network: network,
		Client:  ethClient,
		Wallet:  walletMgr,
		Trader:  trader,
		logger:  logger,
	}, nil
}

// NewCache returns a Redis cache when an address is configured and reachable,
// and an in-memory cache otherwise.
func NewCache(cfg config.RedisConfig, logger *zap.Logger) cache.Cache {
	if cfg.Addr == "" {
		logger.Debug("Using in-memory cache")
		return cache.NewInMemoryCache()
	}
	redisCache, err := cache.NewRedisCache(cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		logger.Warn("Failed to connect to Redis, using in-memory cache", zap.String("addr", cfg.Addr), zap.Error(err))
		return cache.NewInMemoryCache()
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr))
	return redisCache
}

func (a *App) Close() {
	a.Client.Close()
}
