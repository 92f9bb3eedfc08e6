package signer

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

// KeystoreSigner implements DigestSigner using an encrypted keystore file
type KeystoreSigner struct {
	inner *ECDSASigner
}

// NewKeystoreSigner creates a new signer from a keystore file
func NewKeystoreSigner(keystorePath, password string) (*KeystoreSigner, error) {
	// Read the keystore file
	keyjson, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore file: %w", err)
	}

	// Decrypt the key
	key, err := keystore.DecryptKey(keyjson, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}

	return &KeystoreSigner{inner: NewECDSASigner(key.PrivateKey)}, nil
}

// Address returns the Ethereum address of the signer
func (s *KeystoreSigner) Address() common.Address {
	return s.inner.Address()
}

// SignDigest signs a 32-byte digest
func (s *KeystoreSigner) SignDigest(digest []byte) (byte, []byte, []byte, error) {
	return s.inner.SignDigest(digest)
}

// SignMessage signs a message using EIP-191
func (s *KeystoreSigner) SignMessage(msg []byte) ([]byte, error) {
	return s.inner.SignMessage(msg)
}
