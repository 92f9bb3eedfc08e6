package signer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ECDSASigner implements DigestSigner using an in-memory ECDSA private key
type ECDSASigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewECDSASigner creates a new ECDSA signer from a private key
func NewECDSASigner(privateKey *ecdsa.PrivateKey) *ECDSASigner {
	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	return &ECDSASigner{
		privateKey: privateKey,
		address:    address,
	}
}

// NewECDSASignerFromHex creates a new ECDSA signer from a hex-encoded private key
func NewECDSASignerFromHex(hexKey string) (*ECDSASigner, error) {
	// Remove 0x prefix if present
	if len(hexKey) >= 2 && hexKey[0:2] == "0x" {
		hexKey = hexKey[2:]
	}

	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return NewECDSASigner(privateKey), nil
}

// Address returns the Ethereum address of the signer
func (s *ECDSASigner) Address() common.Address {
	return s.address
}

// SignDigest signs a 32-byte digest. The returned v is the raw recovery id
// (0 or 1) from the underlying library.
func (s *ECDSASigner) SignDigest(digest []byte) (byte, []byte, []byte, error) {
	if len(digest) != 32 {
		return 0, nil, nil, fmt.Errorf("%w: digest must be 32 bytes, got %d", ErrSigningFailed, len(digest))
	}

	sig, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return sig[64], sig[0:32], sig[32:64], nil
}

// SignMessage signs a message using EIP-191
func (s *ECDSASigner) SignMessage(msg []byte) ([]byte, error) {
	// Add Ethereum message prefix
	prefixedMsg := accounts.TextHash(msg)

	// Sign the hash
	sig, err := crypto.Sign(prefixedMsg, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	// Transform V from 0/1 to 27/28 according to Ethereum yellow paper
	if sig[64] < 27 {
		sig[64] += 27
	}

	return sig, nil
}
