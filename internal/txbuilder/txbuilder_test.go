package txbuilder_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/keyfob/internal/signer"
	"github.com/yourorg/keyfob/internal/txbuilder"
)

func TestAuthorizationDigest(t *testing.T) {
	digest := txbuilder.AuthorizationDigest(
		big.NewInt(8453),
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		8,
	)
	assert.Equal(t,
		"0x5fc67463c21bd4601deca94c2dcd23a72d7535ab6021d44bb6ab6e14cdc0d2f1",
		hexutil.Encode(digest))
}

func TestSignAuthorization(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	ds := signer.NewECDSASigner(key)

	chainID := big.NewInt(8453)
	delegate := common.HexToAddress("0x4444444444444444444444444444444444444444")

	auth, err := txbuilder.SignAuthorization(ds, chainID, delegate, 8)
	require.NoError(t, err)

	assert.Equal(t, uint256.NewInt(8453), auth.ChainID)
	assert.Equal(t, delegate, auth.Address)
	assert.Equal(t, uint64(8), auth.Nonce)
	assert.Contains(t, []byte{0, 1}, auth.YParity)

	// The tuple must recover to the authority.
	digest := txbuilder.AuthorizationDigest(chainID, delegate, 8)
	raw := append(append(append([]byte{}, auth.R[:]...), auth.S[:]...), auth.YParity)
	pubKey, err := crypto.SigToPub(digest, raw)
	require.NoError(t, err)
	assert.Equal(t, ds.Address(), crypto.PubkeyToAddress(*pubKey))
}

func TestSignAuthorizationRejectsBadChainID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	ds := signer.NewECDSASigner(key)
	delegate := common.HexToAddress("0x4444444444444444444444444444444444444444")

	_, err = txbuilder.SignAuthorization(ds, nil, delegate, 0)
	assert.ErrorIs(t, err, txbuilder.ErrInvalidInput)

	_, err = txbuilder.SignAuthorization(ds, big.NewInt(-1), delegate, 0)
	assert.ErrorIs(t, err, txbuilder.ErrInvalidInput)
}

// testTx builds the envelope used by the wire-format vectors below: one
// authorization with hand-set signature values whose leading zeros must be
// stripped by the integer encoding.
func testTx() *txbuilder.SetCodeTx {
	to := common.HexToAddress("0x5555555555555555555555555555555555555555")
	auth := txbuilder.Authorization{
		ChainID: uint256.NewInt(8453),
		Address: common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Nonce:   8,
		YParity: 1,
	}
	auth.R[31] = 0xaa
	auth.S[31] = 0xbb

	return &txbuilder.SetCodeTx{
		ChainID:              big.NewInt(8453),
		Nonce:                7,
		MaxPriorityFeePerGas: big.NewInt(2_000_000_000),
		MaxFeePerGas:         big.NewInt(30_000_000_000),
		GasLimit:             46_000,
		To:                   &to,
		AuthList:             []txbuilder.Authorization{auth},
	}
}

func TestSetCodeTxWireFormat(t *testing.T) {
	tx := testTx()

	t.Run("Unsigned payload", func(t *testing.T) {
		assert.Equal(t,
			"0xf84a8221050784773594008506fc23ac0082b3b094"+
				"5555555555555555555555555555555555555555"+
				"8080c0dfde82210594"+
				"4444444444444444444444444444444444444444"+
				"080181aa81bb",
			hexutil.Encode(tx.UnsignedPayload()))
	})

	t.Run("Signing hash", func(t *testing.T) {
		assert.Equal(t,
			"0x1eaee6702bafb85f229d6d38d2053cd5c42dd0a0a2ddcac709e2cdc4fbf54b91",
			hexutil.Encode(tx.SigningHash()))
	})

	t.Run("Finalize", func(t *testing.T) {
		raw := tx.Finalize(0, []byte{0x12, 0x34}, []byte{0x56, 0x78})
		assert.Equal(t,
			"0x04f8518221050784773594008506fc23ac0082b3b094"+
				"5555555555555555555555555555555555555555"+
				"8080c0dfde82210594"+
				"4444444444444444444444444444444444444444"+
				"080181aa81bb80821234825678",
			hexutil.Encode(raw))
	})
}

func TestSetCodeTxSign(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	ds := signer.NewECDSASigner(key)

	tx := testTx()
	raw, err := tx.Sign(ds)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.Equal(t, txbuilder.SetCodeTxType, raw[0])
	assert.Equal(t, "0x04", txbuilder.EncodeHex(raw)[:4])

	// Signing does not disturb the payload the signature commits to.
	assert.Equal(t,
		"0x1eaee6702bafb85f229d6d38d2053cd5c42dd0a0a2ddcac709e2cdc4fbf54b91",
		hexutil.Encode(tx.SigningHash()))
}

func TestSetCodeTxNilTo(t *testing.T) {
	tx := testTx()
	tx.To = nil

	// A nil destination encodes as the empty string: the 21-byte address
	// element becomes a single 0x80 marker, and the shorter payload fits a
	// one-byte list header.
	withTo := testTx().UnsignedPayload()
	without := tx.UnsignedPayload()
	assert.Equal(t, len(withTo)-21, len(without))
	assert.Equal(t, byte(0xf6), without[0])
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid lowercase", "0x4444444444444444444444444444444444444444", false},
		{"Valid checksummed", "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC", false},
		{"Missing prefix", "4444444444444444444444444444444444444444", true},
		{"Too short", "0x44444444444444444444444444444444444444", true},
		{"Too long", "0x444444444444444444444444444444444444444444", true},
		{"Non-hex characters", "0x44444444444444444444444444444444444444zz", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := txbuilder.ParseAddress(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, txbuilder.ErrInvalidInput)
			} else {
				require.NoError(t, err)
				assert.Equal(t, common.HexToAddress(tt.input), addr)
			}
		})
	}
}
