package trading

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// DefaultPriorityFee is the tip used when the chain reports a base fee.
var DefaultPriorityFee = big.NewInt(params.GWei)

const (
	gasLimitNumerator   = 12
	gasLimitDenominator = 10
)

// TxRequest is a transaction under construction. Nil fields are filled by
// FeeStrategy; set fields are left as the caller wrote them.
type TxRequest struct {
	From    *common.Address
	To      common.Address
	Value   *big.Int
	Data    []byte
	Nonce   *uint64
	ChainID *big.Int
	Gas     *uint64

	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// FeeProfile is the gas and pricing part of a filled request. Exactly one of
// GasPrice or the dynamic pair is set.
type FeeProfile struct {
	GasLimit             uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

func (p FeeProfile) IsDynamic() bool {
	return p.GasPrice == nil
}

func (r TxRequest) Profile() FeeProfile {
	var gas uint64
	if r.Gas != nil {
		gas = *r.Gas
	}
	if r.GasPrice != nil {
		return FeeProfile{GasLimit: gas, GasPrice: r.GasPrice}
	}
	return FeeProfile{GasLimit: gas, MaxFeePerGas: r.MaxFeePerGas, MaxPriorityFeePerGas: r.MaxPriorityFeePerGas}
}

// Transaction converts a filled request into an unsigned transaction. A set
// GasPrice yields a legacy transaction, otherwise a dynamic-fee one.
func (r TxRequest) Transaction() (*types.Transaction, error) {
	if r.Nonce == nil || r.Gas == nil || r.ChainID == nil {
		return nil, fmt.Errorf("%w: transaction request not filled", ErrEncoding)
	}
	to := r.To
	value := r.Value
	if value == nil {
		value = new(big.Int)
	}

	if r.GasPrice != nil {
		return types.NewTx(&types.LegacyTx{
			Nonce:    *r.Nonce,
			GasPrice: r.GasPrice,
			Gas:      *r.Gas,
			To:       &to,
			Value:    value,
			Data:     r.Data,
		}), nil
	}
	if r.MaxFeePerGas == nil || r.MaxPriorityFeePerGas == nil {
		return nil, fmt.Errorf("%w: transaction request has no fee", ErrEncoding)
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   r.ChainID,
		Nonce:     *r.Nonce,
		GasTipCap: r.MaxPriorityFeePerGas,
		GasFeeCap: r.MaxFeePerGas,
		Gas:       *r.Gas,
		To:        &to,
		Value:     value,
		Data:      r.Data,
	}), nil
}

// FeeStrategy completes transaction requests for one sending account.
type FeeStrategy struct {
	transport Transport
	from      common.Address
	chainID   *big.Int
	tip       *big.Int
}

// NewFeeStrategy returns a strategy for from. A nil chainID is read from the
// transport on every fill; a nil tip means DefaultPriorityFee.
func NewFeeStrategy(transport Transport, from common.Address, chainID, tip *big.Int) *FeeStrategy {
	if tip == nil {
		tip = DefaultPriorityFee
	}
	return &FeeStrategy{transport: transport, from: from, chainID: chainID, tip: tip}
}

// Fill returns a copy of req with every missing field populated.
func (f *FeeStrategy) Fill(ctx context.Context, req TxRequest) (TxRequest, error) {
	if req.From == nil {
		from := f.from
		req.From = &from
	}

	if req.Nonce == nil {
		nonce, err := f.transport.PendingNonceAt(ctx, *req.From)
		if err != nil {
			return req, transportErr("get nonce", err)
		}
		req.Nonce = &nonce
	}

	if req.ChainID == nil {
		if f.chainID != nil {
			req.ChainID = new(big.Int).Set(f.chainID)
		} else {
			chainID, err := f.transport.ChainID(ctx)
			if err != nil {
				return req, transportErr("get chain id", err)
			}
			req.ChainID = chainID
		}
	}

	if req.Gas == nil {
		to := req.To
		estimate, err := f.transport.EstimateGas(ctx, ethereum.CallMsg{
			From:  *req.From,
			To:    &to,
			Value: req.Value,
			Data:  req.Data,
		})
		if err != nil {
			return req, transportErr("estimate gas", err)
		}
		gas := estimate * gasLimitNumerator / gasLimitDenominator
		req.Gas = &gas
	}

	if req.GasPrice != nil {
		return req, nil
	}
	if req.MaxFeePerGas != nil && req.MaxPriorityFeePerGas != nil {
		return req, nil
	}

	header, err := f.transport.HeaderByNumber(ctx, nil)
	if err != nil {
		return req, transportErr("get latest block", err)
	}

	// a zero base fee is treated as a pre-London chain and priced legacy
	if header.BaseFee != nil && header.BaseFee.Sign() > 0 {
		if req.MaxPriorityFeePerGas == nil {
			req.MaxPriorityFeePerGas = new(big.Int).Set(f.tip)
		}
		if req.MaxFeePerGas == nil {
			maxFee := new(big.Int).Mul(header.BaseFee, big.NewInt(2))
			req.MaxFeePerGas = maxFee.Add(maxFee, req.MaxPriorityFeePerGas)
		}
		return req, nil
	}

	gasPrice, err := f.transport.SuggestGasPrice(ctx)
	if err != nil {
		return req, transportErr("get gas price", err)
	}
	req.GasPrice = gasPrice
	return req, nil
}
