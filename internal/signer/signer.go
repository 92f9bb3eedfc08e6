package signer

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrSigningFailed marks a signer that declined or could not produce a
// signature. The surrounding pipeline aborts without retrying.
var ErrSigningFailed = errors.New("signing failed")

// DigestSigner signs 32-byte digests. Implementations hold the key material;
// callers never see it.
type DigestSigner interface {
	// Address returns the Ethereum address of the signing key
	Address() common.Address

	// SignDigest signs a 32-byte digest and returns the raw recovery id and
	// signature halves. v follows the implementation's native convention
	// (0/1 or 27/28); callers normalize.
	SignDigest(digest []byte) (v byte, r []byte, s []byte, err error)

	// SignMessage signs a message using EIP-191 and returns the canonical
	// 65-byte signature
	SignMessage(msg []byte) ([]byte, error)
}
