package trading

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// boundContract is a read-only view of a contract at a fixed address.
type boundContract struct {
	transport Transport
	abi       abi.ABI
	address   common.Address
}

func newBoundContract(transport Transport, parsed abi.ABI, addr common.Address) *boundContract {
	return &boundContract{transport: transport, abi: parsed, address: addr}
}

// callRaw runs an eth_call and returns the undecoded result.
func (c *boundContract) callRaw(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", ErrEncoding, method, err)
	}

	to := c.address
	out, err := c.transport.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, transportErr("call "+method, err)
	}
	return out, nil
}

func (c *boundContract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	out, err := c.callRaw(ctx, method, args...)
	if err != nil {
		return nil, err
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %v", ErrEncoding, method, err)
	}
	return values, nil
}
