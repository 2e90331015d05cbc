package wallet_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/wallet"
)

// Hardhat account #0.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type MockChainIDReader struct {
	mock.Mock
}

func (m *MockChainIDReader) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*big.Int), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestNewWalletManager_ConfiguredChainID(t *testing.T) {
	wm, err := wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{
		PrivateKey: "0x" + testKey,
		ChainID:    10143,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), wm.Address())
	assert.Equal(t, int64(10143), wm.ChainID().Int64())
}

func TestNewWalletManager_QueriesChainID(t *testing.T) {
	reader := new(MockChainIDReader)
	reader.On("ChainID", mock.Anything).Return(big.NewInt(10143), nil).Once()

	wm, err := wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{PrivateKey: testKey}, reader, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10143), wm.ChainID().Int64())

	// pinned after construction
	wm.ChainID()
	reader.AssertExpectations(t)
}

func TestNewWalletManager_Errors(t *testing.T) {
	_, err := wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{PrivateKey: "test-key", ChainID: 1}, nil, nil)
	assert.Error(t, err)

	reader := new(MockChainIDReader)
	reader.On("ChainID", mock.Anything).Return(nil, errors.New("dial tcp: refused"))
	_, err = wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{PrivateKey: testKey}, reader, nil)
	assert.ErrorContains(t, err, "failed to get chain ID")
}

func TestChainID_ReturnsCopy(t *testing.T) {
	wm, err := wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{PrivateKey: testKey, ChainID: 1}, nil, nil)
	require.NoError(t, err)

	wm.ChainID().SetInt64(99)
	assert.Equal(t, int64(1), wm.ChainID().Int64())
}

func TestSignHash_Recovers(t *testing.T) {
	wm, err := wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{PrivateKey: testKey, ChainID: 1}, nil, nil)
	require.NoError(t, err)

	digest := crypto.Keccak256([]byte("permit"))
	sig, err := wm.SignHash(digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, wm.Address(), crypto.PubkeyToAddress(*pub))
}

func TestSignTx_SenderMatches(t *testing.T) {
	wm, err := wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{PrivateKey: testKey, ChainID: 10143}, nil, nil)
	require.NoError(t, err)

	to := common.HexToAddress("0x865054F0F6A288adaAc30261731361EA7E908003")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(10143),
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(201),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	})

	signed, err := wm.SignTx(tx)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(10143)), signed)
	require.NoError(t, err)
	assert.Equal(t, wm.Address(), sender)
}
