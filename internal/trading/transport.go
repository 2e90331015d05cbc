package trading

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Transport is the subset of an RPC client the trading core needs.
// *ethclient.Client satisfies it.
type Transport interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Signer owns the trading key. One Signer per client instance.
type Signer interface {
	Address() common.Address
	ChainID() *big.Int
	SignHash(hash []byte) ([]byte, error)
	SignTx(tx *types.Transaction) (*types.Transaction, error)
}
