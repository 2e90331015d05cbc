package trading

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

// FallbackTokenName is used as the EIP-712 domain name when name() is unreadable.
const FallbackTokenName = "Token"

const permitVersion = "1"

var permitTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Permit": {
		{Name: "owner", Type: "address"},
		{Name: "spender", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	},
}

// Permit is the EIP-2612 message.
type Permit struct {
	Owner    common.Address
	Spender  common.Address
	Value    *big.Int
	Nonce    *big.Int
	Deadline *big.Int
}

// PermitSigner produces EIP-2612 permit signatures with the client key.
type PermitSigner struct {
	transport Transport
	signer    Signer
	logger    *zap.Logger
}

func NewPermitSigner(transport Transport, signer Signer, logger *zap.Logger) *PermitSigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermitSigner{transport: transport, signer: signer, logger: logger}
}

// Sign reads the token's name and the owner's permit nonce, then signs the permit.
func (p *PermitSigner) Sign(ctx context.Context, token, owner, spender common.Address, value *big.Int, deadline uint64) (PermitSignature, error) {
	erc20 := newBoundContract(p.transport, erc20ABI, token)

	name := p.tokenName(ctx, erc20)

	chainID := p.signer.ChainID()
	if chainID == nil {
		var err error
		chainID, err = p.transport.ChainID(ctx)
		if err != nil {
			return PermitSignature{}, transportErr("get chain id", err)
		}
	}

	nonce, err := p.permitNonce(ctx, erc20, owner)
	if err != nil {
		return PermitSignature{}, err
	}

	permit := Permit{
		Owner:    owner,
		Spender:  spender,
		Value:    value,
		Nonce:    nonce,
		Deadline: new(big.Int).SetUint64(deadline),
	}
	digest, err := PermitDigest(name, chainID, token, permit)
	if err != nil {
		return PermitSignature{}, err
	}

	p.logger.Debug("Signing permit",
		zap.String("token", token.Hex()),
		zap.String("name", name),
		zap.String("spender", spender.Hex()),
		zap.String("nonce", nonce.String()),
	)
	return p.signDigest(digest)
}

func (p *PermitSigner) signDigest(digest []byte) (PermitSignature, error) {
	sig, err := p.signer.SignHash(digest)
	if err != nil {
		return PermitSignature{}, fmt.Errorf("failed to sign permit: %w", err)
	}
	if len(sig) != 65 {
		return PermitSignature{}, fmt.Errorf("%w: signature length %d", ErrEncoding, len(sig))
	}

	var out PermitSignature
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	out.V = sig[64]
	if out.V < 27 {
		out.V += 27
	}
	return out, nil
}

// PermitDigest returns the EIP-712 digest of permit under the token's domain.
func PermitDigest(name string, chainID *big.Int, token common.Address, permit Permit) ([]byte, error) {
	typed := apitypes.TypedData{
		Types:       permitTypes,
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              name,
			Version:           permitVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
			VerifyingContract: token.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    permit.Owner.Hex(),
			"spender":  permit.Spender.Hex(),
			"value":    permit.Value.String(),
			"nonce":    permit.Nonce.String(),
			"deadline": permit.Deadline.String(),
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return nil, fmt.Errorf("%w: permit typed data: %v", ErrEncoding, err)
	}
	return digest, nil
}

// tokenName tries name() as a string, then as bytes32, then gives up.
func (p *PermitSigner) tokenName(ctx context.Context, erc20 *boundContract) string {
	raw, err := erc20.callRaw(ctx, "name")
	if err != nil {
		p.logger.Debug("name() failed, using fallback", zap.Error(err))
		return FallbackTokenName
	}

	if out, err := erc20ABI.Unpack("name", raw); err == nil {
		if name, ok := out[0].(string); ok && utf8.ValidString(name) {
			return name
		}
		// a decodable string that is not UTF-8 must not be reread as bytes32
		return FallbackTokenName
	}

	if out, err := bytes32Args.Unpack(raw); err == nil {
		if b, ok := out[0].([32]byte); ok {
			name := string(bytes.TrimRight(b[:], "\x00"))
			if name != "" && utf8.ValidString(name) {
				return name
			}
		}
	}
	return FallbackTokenName
}

// permitNonce reads nonces(owner), falling back to _nonces(owner).
func (p *PermitSigner) permitNonce(ctx context.Context, erc20 *boundContract, owner common.Address) (*big.Int, error) {
	var lastErr error
	for _, method := range []string{"nonces", "_nonces"} {
		out, err := erc20.call(ctx, method, owner)
		if err != nil {
			lastErr = err
			continue
		}
		if nonce, ok := out[0].(*big.Int); ok {
			return nonce, nil
		}
	}
	return nil, fmt.Errorf("%w: token %s: %v", ErrPermitUnsupported, erc20.address.Hex(), lastErr)
}
