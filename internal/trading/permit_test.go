package trading

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var permitSpender = testContracts.BondingCurveRouter

// manualPermitDigest hashes the permit field by field.
func manualPermitDigest(t *testing.T, name string, chainID *big.Int, token common.Address, p Permit) []byte {
	t.Helper()
	b32 := mustType("bytes32", nil)
	u256 := mustType("uint256", nil)
	addr := mustType("address", nil)

	domainType := crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	domain, err := abi.Arguments{{Type: b32}, {Type: b32}, {Type: b32}, {Type: u256}, {Type: addr}}.Pack(
		domainType,
		crypto.Keccak256Hash([]byte(name)),
		crypto.Keccak256Hash([]byte("1")),
		chainID,
		token,
	)
	require.NoError(t, err)

	permitType := crypto.Keccak256Hash([]byte("Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)"))
	message, err := abi.Arguments{{Type: b32}, {Type: addr}, {Type: addr}, {Type: u256}, {Type: u256}, {Type: u256}}.Pack(
		permitType, p.Owner, p.Spender, p.Value, p.Nonce, p.Deadline,
	)
	require.NoError(t, err)

	raw := append([]byte{0x19, 0x01}, crypto.Keccak256(domain)...)
	raw = append(raw, crypto.Keccak256(message)...)
	return crypto.Keccak256(raw)
}

func permitFixture(chain *fakeChain, name string, nonce int64) {
	chain.on(testToken, erc20ABI, "name", chain.returns(name))
	chain.on(testToken, erc20ABI, "nonces", chain.returns(big.NewInt(nonce)))
}

func TestPermitDigest_MatchesManualEncoding(t *testing.T) {
	p := Permit{
		Owner:    common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		Spender:  permitSpender,
		Value:    new(big.Int).Lsh(big.NewInt(1), 255),
		Nonce:    big.NewInt(4),
		Deadline: big.NewInt(1700000300),
	}

	got, err := PermitDigest("Nad Token", big.NewInt(10143), testToken, p)
	require.NoError(t, err)
	assert.Equal(t, manualPermitDigest(t, "Nad Token", big.NewInt(10143), testToken, p), got)
}

func TestPermitSigner_DeterministicAndRecoverable(t *testing.T) {
	chain := newFakeChain()
	permitFixture(chain, "Nad Token", 4)
	w := newTestWallet(t)
	signer := NewPermitSigner(chain, w, zap.NewNop())

	value := big.NewInt(1_000_000)
	first, err := signer.Sign(context.Background(), testToken, w.Address(), permitSpender, value, 1700000300)
	require.NoError(t, err)
	second, err := signer.Sign(context.Background(), testToken, w.Address(), permitSpender, value, 1700000300)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, []uint8{27, 28}, first.V)

	digest := manualPermitDigest(t, "Nad Token", big.NewInt(10143), testToken, Permit{
		Owner: w.Address(), Spender: permitSpender, Value: value, Nonce: big.NewInt(4), Deadline: big.NewInt(1700000300),
	})
	sig := append(append(first.R[:], first.S[:]...), first.V-27)
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), crypto.PubkeyToAddress(*pub))
}

func TestPermitSigner_NonceChangesSignature(t *testing.T) {
	chain := newFakeChain()
	permitFixture(chain, "Nad Token", 4)
	w := newTestWallet(t)
	signer := NewPermitSigner(chain, w, nil)

	before, err := signer.Sign(context.Background(), testToken, w.Address(), permitSpender, big.NewInt(1), 1)
	require.NoError(t, err)

	chain.on(testToken, erc20ABI, "nonces", chain.returns(big.NewInt(5)))
	after, err := signer.Sign(context.Background(), testToken, w.Address(), permitSpender, big.NewInt(1), 1)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestPermitSigner_NameFallbacks(t *testing.T) {
	w := newTestWallet(t)

	recoverName := func(t *testing.T, chain *fakeChain, candidate string) bool {
		sig, err := NewPermitSigner(chain, w, nil).Sign(context.Background(), testToken, w.Address(), permitSpender, big.NewInt(1), 1)
		require.NoError(t, err)
		digest, err := PermitDigest(candidate, big.NewInt(10143), testToken, Permit{
			Owner: w.Address(), Spender: permitSpender, Value: big.NewInt(1), Nonce: big.NewInt(0), Deadline: big.NewInt(1),
		})
		require.NoError(t, err)
		pub, err := crypto.SigToPub(digest, append(append(sig.R[:], sig.S[:]...), sig.V-27))
		require.NoError(t, err)
		return crypto.PubkeyToAddress(*pub) == w.Address()
	}

	t.Run("reverting name uses placeholder", func(t *testing.T) {
		chain := newFakeChain()
		chain.on(testToken, erc20ABI, "nonces", chain.returns(big.NewInt(0)))
		assert.True(t, recoverName(t, chain, FallbackTokenName))
	})

	t.Run("bytes32 name", func(t *testing.T) {
		chain := newFakeChain()
		chain.on(testToken, erc20ABI, "nonces", chain.returns(big.NewInt(0)))
		chain.onRaw(testToken, erc20ABI, "name", func() ([]byte, error) {
			var b [32]byte
			copy(b[:], "MKR")
			return b[:], nil
		})
		assert.True(t, recoverName(t, chain, "MKR"))
	})

	t.Run("non utf8 bytes32 uses placeholder", func(t *testing.T) {
		chain := newFakeChain()
		chain.on(testToken, erc20ABI, "nonces", chain.returns(big.NewInt(0)))
		chain.onRaw(testToken, erc20ABI, "name", func() ([]byte, error) {
			b := make([]byte, 32)
			b[0], b[1] = 0xff, 0xfe
			return b, nil
		})
		assert.True(t, recoverName(t, chain, FallbackTokenName))
	})

	t.Run("non utf8 string uses placeholder", func(t *testing.T) {
		chain := newFakeChain()
		chain.on(testToken, erc20ABI, "nonces", chain.returns(big.NewInt(0)))
		chain.on(testToken, erc20ABI, "name", chain.returns(string([]byte{0xff, 0xfe, 'A'})))
		assert.True(t, recoverName(t, chain, FallbackTokenName))
	})
}

func TestPermitSigner_NonceFallback(t *testing.T) {
	chain := newFakeChain()
	chain.on(testToken, erc20ABI, "name", chain.returns("Nad Token"))
	chain.on(testToken, erc20ABI, "nonces", chain.reverts())
	chain.on(testToken, erc20ABI, "_nonces", chain.returns(big.NewInt(2)))
	w := newTestWallet(t)

	_, err := NewPermitSigner(chain, w, nil).Sign(context.Background(), testToken, w.Address(), permitSpender, big.NewInt(1), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, chain.callCount("nonces"))
	assert.Equal(t, 1, chain.callCount("_nonces"))
}

func TestPermitSigner_Unsupported(t *testing.T) {
	chain := newFakeChain()
	chain.on(testToken, erc20ABI, "name", chain.returns("Nad Token"))
	chain.on(testToken, erc20ABI, "nonces", chain.reverts())
	chain.on(testToken, erc20ABI, "_nonces", chain.reverts())
	w := newTestWallet(t)

	_, err := NewPermitSigner(chain, w, nil).Sign(context.Background(), testToken, w.Address(), permitSpender, big.NewInt(1), 1)
	assert.ErrorIs(t, err, ErrPermitUnsupported)
}
