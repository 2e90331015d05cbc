package trading

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const curveABIJSON = `[
  {"type":"function","name":"isListed","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"isLocked","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"curves","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[
    {"name":"realMonReserve","type":"uint256"},
    {"name":"realTokenReserve","type":"uint256"},
    {"name":"virtualMonReserve","type":"uint256"},
    {"name":"virtualTokenReserve","type":"uint256"},
    {"name":"k","type":"uint256"},
    {"name":"targetTokenAmount","type":"uint256"},
    {"name":"initVirtualMonReserve","type":"uint256"},
    {"name":"initVirtualTokenReserve","type":"uint256"}
  ]}
]`

const routerABIJSON = `[
  {"type":"function","name":"getAmountOut","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"isBuy","type":"bool"}],"outputs":[{"name":"amountOut","type":"uint256"}]},
  {"type":"function","name":"getAmountIn","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"amountOut","type":"uint256"},{"name":"isBuy","type":"bool"}],"outputs":[{"name":"amountIn","type":"uint256"}]}
]`

const wrapperABIJSON = `[
  {"type":"function","name":"getAmountOut","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"isBuy","type":"bool"}],"outputs":[{"name":"router","type":"address"},{"name":"amountOut","type":"uint256"}]},
  {"type":"function","name":"getAmountIn","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"amountOut","type":"uint256"},{"name":"isBuy","type":"bool"}],"outputs":[{"name":"router","type":"address"},{"name":"amountIn","type":"uint256"}]}
]`

// ERC20PermitABIJSON covers metadata, balances and both permit nonce accessors.
const ERC20PermitABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"nonces","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"_nonces","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	curveABI    = mustParseABI(curveABIJSON)
	routerABI   = mustParseABI(routerABIJSON)
	wrapperABI  = mustParseABI(wrapperABIJSON)
	erc20ABI    = mustParseABI(ERC20PermitABIJSON)
	bytes32Args = abi.Arguments{{Type: mustType("bytes32", nil)}}
)

// Canonical signatures of the state-changing router calls.
const (
	BuySignature        = "buy((uint256,address,address,uint256))"
	SellSignature       = "sell((uint256,uint256,address,address,uint256))"
	SellPermitSignature = "sellPermit((uint256,uint256,uint256,address,address,uint256,uint8,bytes32,bytes32))"
)

// BuyParams is the buy tuple.
type BuyParams struct {
	AmountOutMin *big.Int
	Token        common.Address
	To           common.Address
	Deadline     *big.Int
}

// SellParams is the plain sell tuple.
type SellParams struct {
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Token        common.Address
	To           common.Address
	Deadline     *big.Int
}

// SellPermitParams is the sellPermit tuple.
type SellPermitParams struct {
	AmountIn        *big.Int
	AmountOutMin    *big.Int
	AmountAllowance *big.Int
	Token           common.Address
	To              common.Address
	Deadline        *big.Int
	V               uint8
	R               [32]byte
	S               [32]byte
}

var (
	BuyArgs = tupleArgs([]abi.ArgumentMarshaling{
		{Name: "amountOutMin", Type: "uint256"},
		{Name: "token", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "deadline", Type: "uint256"},
	})
	SellArgs = tupleArgs([]abi.ArgumentMarshaling{
		{Name: "amountIn", Type: "uint256"},
		{Name: "amountOutMin", Type: "uint256"},
		{Name: "token", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "deadline", Type: "uint256"},
	})
	SellPermitArgs = tupleArgs([]abi.ArgumentMarshaling{
		{Name: "amountIn", Type: "uint256"},
		{Name: "amountOutMin", Type: "uint256"},
		{Name: "amountAllowance", Type: "uint256"},
		{Name: "token", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "deadline", Type: "uint256"},
		{Name: "v", Type: "uint8"},
		{Name: "r", Type: "bytes32"},
		{Name: "s", Type: "bytes32"},
	})
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("trading: bad ABI: " + err.Error())
	}
	return parsed
}

func mustType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic("trading: bad ABI type " + t + ": " + err.Error())
	}
	return typ
}

func tupleArgs(components []abi.ArgumentMarshaling) abi.Arguments {
	return abi.Arguments{{Name: "params", Type: mustType("tuple", components)}}
}
