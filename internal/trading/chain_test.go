package trading

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/nadfun/trading-mcp/internal/wallet"
)

// Hardhat account #0.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testToken     = common.HexToAddress("0x62f0956153dD2261E97f32d505eE6aAca671D61e")
	testContracts = Networks[MonadTestnet].Contracts
	errReverted   = errors.New("execution reverted")
)

type callKey struct {
	to  common.Address
	sel [4]byte
}

type handler struct {
	name   string
	method *abi.Method
	fn     func(in []interface{}) ([]interface{}, error)
	raw    func() ([]byte, error)
}

// fakeChain is an in-memory Transport. Contract calls are dispatched on
// (address, selector); anything unregistered reverts.
type fakeChain struct {
	mu       sync.Mutex
	handlers map[callKey]handler
	calls    map[string]int

	chainID  *big.Int
	nonce    uint64
	gas      uint64
	baseFee  *big.Int
	gasPrice *big.Int
	sendErr  error
	sent     []*types.Transaction
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		handlers: make(map[callKey]handler),
		calls:    make(map[string]int),
		chainID:  big.NewInt(10143),
		gas:      100000,
		baseFee:  big.NewInt(100),
		gasPrice: big.NewInt(50),
	}
}

func (f *fakeChain) on(to common.Address, parsed abi.ABI, method string, fn func(in []interface{}) ([]interface{}, error)) {
	m := parsed.Methods[method]
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[callKey{to, [4]byte(m.ID)}] = handler{name: method, method: &m, fn: fn}
}

func (f *fakeChain) onRaw(to common.Address, parsed abi.ABI, method string, fn func() ([]byte, error)) {
	m := parsed.Methods[method]
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[callKey{to, [4]byte(m.ID)}] = handler{name: method, raw: fn}
}

func (f *fakeChain) returns(values ...interface{}) func([]interface{}) ([]interface{}, error) {
	return func([]interface{}) ([]interface{}, error) { return values, nil }
}

func (f *fakeChain) reverts() func([]interface{}) ([]interface{}, error) {
	return func([]interface{}) ([]interface{}, error) { return nil, errReverted }
}

func (f *fakeChain) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeChain) sentTxs() []*types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Transaction(nil), f.sent...)
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errReverted
	}
	f.mu.Lock()
	h, ok := f.handlers[callKey{*msg.To, [4]byte(msg.Data[:4])}]
	if ok {
		f.calls[h.name]++
	}
	f.mu.Unlock()
	if !ok {
		return nil, errReverted
	}

	if h.raw != nil {
		return h.raw()
	}
	in, err := h.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	out, err := h.fn(in)
	if err != nil {
		return nil, err
	}
	return h.method.Outputs.Pack(out...)
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return f.gas, nil
}

func (f *fakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: f.baseFee}, nil
}

func (f *fakeChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.nonce++
	return nil
}

func newTestWallet(t *testing.T) *wallet.WalletManager {
	t.Helper()
	wm, err := wallet.NewWalletManager(context.Background(), &wallet.WalletConfig{PrivateKey: testKey, ChainID: 10143}, nil, nil)
	require.NoError(t, err)
	return wm
}

// setListed makes the curve report every token as listed (or not).
func (f *fakeChain) setListed(listed bool) {
	f.on(testContracts.Curve, curveABI, "isListed", f.returns(listed))
}

// decodeCall splits router calldata back into its tuple.
func decodeCall(t *testing.T, args abi.Arguments, signature string, data []byte, dst interface{}) {
	t.Helper()
	sel := Selector(signature)
	require.Equal(t, sel[:], data[:4], "selector")
	out, err := args.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, out, 1)
	abi.ConvertType(out[0], dst)
}
