package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// ChainIDReader is used to discover the chain id when it is not configured.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// WalletManager owns the trading key. The key and chain id are fixed at
// construction and never change afterwards.
type WalletManager struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	signer     types.Signer
	logger     *zap.Logger
}

type WalletConfig struct {
	PrivateKey string
	ChainID    int64
}

// NewWalletManager parses the key and pins the chain id, asking reader when
// cfg.ChainID is zero.
func NewWalletManager(ctx context.Context, cfg *WalletConfig, reader ChainIDReader, logger *zap.Logger) (*WalletManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		if reader == nil {
			return nil, fmt.Errorf("chain id not configured and no client to query")
		}
		chainID, err = reader.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain ID: %w", err)
		}
	}

	wm := &WalletManager{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    chainID,
		signer:     types.LatestSignerForChainID(chainID),
		logger:     logger,
	}
	logger.Debug("Wallet loaded",
		zap.String("address", wm.address.Hex()),
		zap.String("chain_id", chainID.String()),
	)
	return wm, nil
}

func (wm *WalletManager) Address() common.Address {
	return wm.address
}

// ChainID returns a copy of the pinned chain id.
func (wm *WalletManager) ChainID() *big.Int {
	return new(big.Int).Set(wm.chainID)
}

// SignHash signs a 32-byte digest. The recovery id in the last byte is 0 or 1.
func (wm *WalletManager) SignHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, wm.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}
	return sig, nil
}

func (wm *WalletManager) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, wm.signer, wm.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
