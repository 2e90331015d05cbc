package trading

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Contracts holds the protocol addresses for one network.
type Contracts struct {
	Curve              common.Address
	BondingCurveRouter common.Address
	DexRouter          common.Address
	Wrapper            common.Address
}

// Network describes a supported chain.
type Network struct {
	Name      string
	ChainID   int64
	Contracts Contracts
}

const MonadTestnet = "monad_testnet"

// Networks lists the built-in network profiles.
var Networks = map[string]Network{
	MonadTestnet: {
		Name:    MonadTestnet,
		ChainID: 10143,
		Contracts: Contracts{
			Curve:              common.HexToAddress("0x1228b0dc9481C11D3071E7A924B794CfB038994e"),
			BondingCurveRouter: common.HexToAddress("0x865054F0F6A288adaAc30261731361EA7E908003"),
			DexRouter:          common.HexToAddress("0x5D4a4f430cA3B1b2dB86B9cFE48a5316800F5fb2"),
			Wrapper:            common.HexToAddress("0xD47Dd1a82dd239688ECE1BA94D86f3D32960C339"),
		},
	},
}

// LookupNetwork returns the profile registered under name.
func LookupNetwork(name string) (Network, error) {
	n, ok := Networks[name]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, name)
	}
	return n, nil
}

// Override returns c with every non-zero field of o applied on top.
func (c Contracts) Override(o Contracts) Contracts {
	if o.Curve != (common.Address{}) {
		c.Curve = o.Curve
	}
	if o.BondingCurveRouter != (common.Address{}) {
		c.BondingCurveRouter = o.BondingCurveRouter
	}
	if o.DexRouter != (common.Address{}) {
		c.DexRouter = o.DexRouter
	}
	if o.Wrapper != (common.Address{}) {
		c.Wrapper = o.Wrapper
	}
	return c
}
