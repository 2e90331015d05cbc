package trading

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Selector returns the first four bytes of keccak256(signature).
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

// EncodeCall prefixes the packed args with the selector of signature.
func EncodeCall(signature string, args abi.Arguments, values ...interface{}) ([]byte, error) {
	packed, err := args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", ErrEncoding, signature, err)
	}
	sel := Selector(signature)
	return append(sel[:], packed...), nil
}

// TransactionAssembler builds, signs and submits router calls for one key.
type TransactionAssembler struct {
	transport Transport
	signer    Signer
	fees      *FeeStrategy
	logger    *zap.Logger

	// mu makes nonce read, signing and broadcast one step for this key.
	mu sync.Mutex
}

func NewTransactionAssembler(transport Transport, signer Signer, fees *FeeStrategy, logger *zap.Logger) *TransactionAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionAssembler{transport: transport, signer: signer, fees: fees, logger: logger}
}

// SendStage reports how far BuildAndSend got before failing.
type SendStage int

const (
	StageBuild SendStage = iota
	StageSigned
	StageSubmitted
)

// BuildAndSend encodes a call to router, fills fees, signs and broadcasts it.
// It returns the transaction hash in hex.
func (a *TransactionAssembler) BuildAndSend(ctx context.Context, router common.Address, signature string, args abi.Arguments, value *big.Int, values ...interface{}) (string, SendStage, error) {
	data, err := EncodeCall(signature, args, values...)
	if err != nil {
		return "", StageBuild, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	req, err := a.fees.Fill(ctx, TxRequest{To: router, Value: value, Data: data})
	if err != nil {
		return "", StageBuild, err
	}

	tx, err := req.Transaction()
	if err != nil {
		return "", StageBuild, err
	}

	signed, err := a.signer.SignTx(tx)
	if err != nil {
		return "", StageBuild, fmt.Errorf("failed to sign transaction: %w", err)
	}

	profile := req.Profile()
	a.logger.Debug("Sending transaction",
		zap.String("to", router.Hex()),
		zap.String("method", signature),
		zap.Uint64("nonce", signed.Nonce()),
		zap.Uint64("gas", profile.GasLimit),
		zap.Bool("dynamic_fee", profile.IsDynamic()),
	)

	if err := a.transport.SendTransaction(ctx, signed); err != nil {
		return "", StageSigned, transportErr("send transaction", err)
	}
	return signed.Hash().Hex(), StageSubmitted, nil
}
