package ethereum

import (
	"context"
	"math/big"
	"testing"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/cache"
	"github.com/nadfun/trading-mcp/internal/trading"
)

type MockEthClient struct {
	mock.Mock
}

func (m *MockEthClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	args := m.Called(ctx, account, blockNumber)
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockEthClient) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

// CallContract dispatches on the method name decoded from the selector.
func (m *MockEthClient) CallContract(ctx context.Context, call geth.CallMsg, blockNumber *big.Int) ([]byte, error) {
	method, err := erc20ABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args := m.MethodCalled(method.Name)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return method.Outputs.Pack(args.Get(0))
}

const (
	holder = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	token  = "0x62f0956153dD2261E97f32d505eE6aAca671D61e"
)

func newTestClient(reader chainReader, c cache.Cache) *EthereumClient {
	ec := newEthereumClient(nil, &EthereumConfig{ChainID: 10143, MetadataTTL: time.Hour}, c, zap.NewNop())
	ec.reader = reader
	return ec
}

func TestGetBalance_Native(t *testing.T) {
	m := new(MockEthClient)
	wei, _ := new(big.Int).SetString("2500000000000000000", 10)
	m.On("BalanceAt", mock.Anything, common.HexToAddress(holder), (*big.Int)(nil)).Return(wei, nil)

	balance, err := newTestClient(m, nil).GetBalance(context.Background(), holder, nil)
	require.NoError(t, err)

	assert.True(t, balance.IsNative)
	assert.Equal(t, "2.5", balance.Balance.String())
	assert.Equal(t, "2500000000000000000", balance.Raw)
	assert.Equal(t, "MON", *balance.Symbol)
}

func TestGetBalance_Token(t *testing.T) {
	m := new(MockEthClient)
	m.On("balanceOf").Return(big.NewInt(1234500), nil)
	m.On("decimals").Return(uint8(6), nil).Once()
	m.On("symbol").Return("NAD", nil).Once()
	m.On("name").Return("Nad Token", nil).Once()

	ec := newTestClient(m, cache.NewInMemoryCache())
	tokenAddr := token

	balance, err := ec.GetBalance(context.Background(), holder, &tokenAddr)
	require.NoError(t, err)
	assert.False(t, balance.IsNative)
	assert.Equal(t, "1.2345", balance.Balance.String())
	assert.Equal(t, 6, balance.Decimals)
	assert.Equal(t, "NAD", *balance.Symbol)
	assert.Equal(t, "Nad Token", *balance.Name)

	// metadata comes from cache the second time
	_, err = ec.GetBalance(context.Background(), holder, &tokenAddr)
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "decimals", 1)
	m.AssertNumberOfCalls(t, "balanceOf", 2)
}

func TestTokenMetadata_Defaults(t *testing.T) {
	m := new(MockEthClient)
	m.On("decimals").Return(nil, assert.AnError)
	m.On("symbol").Return(nil, assert.AnError)
	m.On("name").Return(nil, assert.AnError)

	meta, err := newTestClient(m, nil).TokenMetadata(context.Background(), common.HexToAddress(token))
	require.NoError(t, err)
	assert.Equal(t, 18, meta.Decimals)
	assert.Empty(t, meta.Symbol)
}

func TestValidateAddress(t *testing.T) {
	ec := newTestClient(new(MockEthClient), nil)

	result, err := ec.ValidateAddress(holder)
	assert.NoError(t, err)
	assert.Equal(t, holder, result.Hex())

	_, err = ec.ValidateAddress("not-an-address")
	assert.ErrorIs(t, err, trading.ErrEncoding)
}

func TestSpotPrice(t *testing.T) {
	state := &trading.CurveState{
		VirtualMonReserve:   big.NewInt(300),
		VirtualTokenReserve: big.NewInt(1000),
	}
	assert.Equal(t, "0.3", SpotPrice(state).String())
	assert.True(t, SpotPrice(&trading.CurveState{}).IsZero())
}
