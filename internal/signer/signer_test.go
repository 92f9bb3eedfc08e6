package signer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/keyfob/internal/config"
	"github.com/yourorg/keyfob/internal/signer"
)

// Test private key from Anvil
const (
	testKeyHex  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestECDSASigner(t *testing.T) {
	t.Run("Create from hex", func(t *testing.T) {
		sig, err := signer.NewECDSASignerFromHex(testKeyHex)
		require.NoError(t, err)
		assert.Equal(t, testAddress, sig.Address().Hex())
	})

	t.Run("Create from hex without 0x prefix", func(t *testing.T) {
		sig, err := signer.NewECDSASignerFromHex(testKeyHex[2:])
		require.NoError(t, err)
		assert.Equal(t, testAddress, sig.Address().Hex())
	})

	t.Run("Invalid hex", func(t *testing.T) {
		_, err := signer.NewECDSASignerFromHex("invalid")
		assert.Error(t, err)
	})

	t.Run("Sign digest", func(t *testing.T) {
		sig, err := signer.NewECDSASignerFromHex(testKeyHex)
		require.NoError(t, err)

		digest := crypto.Keccak256([]byte("keyfob digest"))
		v, r, s, err := sig.SignDigest(digest)
		require.NoError(t, err)
		assert.Len(t, r, 32)
		assert.Len(t, s, 32)
		assert.Contains(t, []byte{0, 1}, v)

		// The signature must recover to the signer's address.
		raw := append(append(append([]byte{}, r...), s...), v)
		pubKey, err := crypto.SigToPub(digest, raw)
		require.NoError(t, err)
		assert.Equal(t, sig.Address(), crypto.PubkeyToAddress(*pubKey))
	})

	t.Run("Sign digest rejects wrong length", func(t *testing.T) {
		sig, err := signer.NewECDSASignerFromHex(testKeyHex)
		require.NoError(t, err)

		_, _, _, err = sig.SignDigest([]byte("too short"))
		assert.ErrorIs(t, err, signer.ErrSigningFailed)
	})

	t.Run("Sign message", func(t *testing.T) {
		sig, err := signer.NewECDSASignerFromHex(testKeyHex)
		require.NoError(t, err)

		message := []byte("Hello, keyfob!")
		signature, err := sig.SignMessage(message)
		require.NoError(t, err)
		require.Len(t, signature, signer.SignatureLength)
		assert.Contains(t, []byte{27, 28}, signature[64])

		// Recover through the same EIP-191 prefix.
		recoverSig := append([]byte{}, signature...)
		recoverSig[64] -= 27
		pubKey, err := crypto.SigToPub(accounts.TextHash(message), recoverSig)
		require.NoError(t, err)
		assert.Equal(t, sig.Address(), crypto.PubkeyToAddress(*pubKey))
	})
}

func TestKeystoreSigner(t *testing.T) {
	key, err := crypto.HexToECDSA(testKeyHex[2:])
	require.NoError(t, err)

	keyjson, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, "password", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, keyjson, 0600))

	t.Run("Decrypts and signs", func(t *testing.T) {
		sig, err := signer.NewKeystoreSigner(path, "password")
		require.NoError(t, err)
		assert.Equal(t, testAddress, sig.Address().Hex())

		digest := crypto.Keccak256([]byte("keystore digest"))
		_, r, s, err := sig.SignDigest(digest)
		require.NoError(t, err)
		assert.Len(t, r, 32)
		assert.Len(t, s, 32)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, err := signer.NewKeystoreSigner(path, "wrong")
		assert.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := signer.NewKeystoreSigner(filepath.Join(t.TempDir(), "absent.json"), "password")
		assert.Error(t, err)
	})
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name         string
		context      *config.Context
		expectError  bool
		expectedAddr string
	}{
		{
			name: "With ECDSA private key",
			context: &config.Context{
				ECDSAPrivateKey: testKeyHex,
			},
			expectedAddr: testAddress,
		},
		{
			name:        "No signer configured",
			context:     &config.Context{},
			expectError: true,
		},
		{
			name: "Invalid private key",
			context: &config.Context{
				ECDSAPrivateKey: "invalid",
			},
			expectError: true,
		},
		{
			name: "Keystore without password",
			context: &config.Context{
				KeystorePath: "/path/to/keystore",
			},
			expectError: true,
		},
		{
			name: "Missing keystore file",
			context: &config.Context{
				KeystorePath:     "/path/to/keystore",
				KeystorePassword: "password",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := signer.FromContext(tt.context)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, sig)
				assert.Equal(t, tt.expectedAddr, sig.Address().Hex())
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	r := common.FromHex("0x0102030405060708091011121314151617181920212223242526272829303132")
	s := common.FromHex("0x3231302928272625242322212019181716151413121110090807060504030201")

	t.Run("Full width components", func(t *testing.T) {
		sig := signer.Canonical(0, r, s)
		require.Len(t, sig, signer.SignatureLength)
		assert.Equal(t, r, sig[0:32])
		assert.Equal(t, s, sig[32:64])
		assert.Equal(t, byte(27), sig[64])
	})

	t.Run("Short components are left padded", func(t *testing.T) {
		sig := signer.Canonical(1, []byte{0xaa}, []byte{0xbb, 0xcc})
		assert.Equal(t, common.LeftPadBytes([]byte{0xaa}, 32), sig[0:32])
		assert.Equal(t, common.LeftPadBytes([]byte{0xbb, 0xcc}, 32), sig[32:64])
		assert.Equal(t, byte(28), sig[64])
	})

	t.Run("Hex form", func(t *testing.T) {
		hex := signer.CanonicalHex(27, r, s)
		assert.Len(t, hex, 2+2*signer.SignatureLength)
		assert.Equal(t, "0x", hex[0:2])
	})
}

func TestNormalizeV(t *testing.T) {
	tests := []struct {
		in   byte
		want byte
	}{
		{0, 27},
		{1, 28},
		{27, 27},
		{28, 28},
		{2, 2},   // out of range, passes through
		{35, 35}, // legacy EIP-155 values are not remapped
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, signer.NormalizeV(tt.in), "NormalizeV(%d)", tt.in)
	}

	// Normalization is idempotent over its output range.
	for v := byte(0); v < 64; v++ {
		once := signer.NormalizeV(v)
		assert.Equal(t, once, signer.NormalizeV(once), "NormalizeV not idempotent at %d", v)
	}
}

func TestYParity(t *testing.T) {
	tests := []struct {
		in   byte
		want byte
	}{
		{27, 0},
		{28, 1},
		{0, 0},
		{1, 1},
		{30, 0}, // low bit
		{31, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, signer.YParity(tt.in), "YParity(%d)", tt.in)
	}
}
