// Package txbuilder assembles EIP-7702 set-code transactions: authorization
// tuples, the type-0x04 envelope, its signing hash, and the final signed wire
// bytes.
package txbuilder

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/yourorg/keyfob/internal/rlp"
	"github.com/yourorg/keyfob/internal/signer"
)

// ErrInvalidInput marks inputs rejected before any signing or network call.
var ErrInvalidInput = errors.New("invalid input")

// authorizationMagic prefixes the RLP-encoded authorization tuple before
// hashing, per EIP-7702.
const authorizationMagic = byte(0x05)

// SetCodeTxType is the EIP-7702 transaction type byte.
const SetCodeTxType = byte(0x04)

// Authorization is a signed EIP-7702 authorization tuple. R and S are always
// exactly 32 bytes; YParity is 0 or 1 regardless of the signer's native
// v-convention.
type Authorization struct {
	ChainID *uint256.Int
	Address common.Address
	Nonce   uint64
	YParity byte
	R       [32]byte
	S       [32]byte
}

// AuthorizationDigest computes the 32-byte digest an authority signs to
// delegate its account: keccak256(0x05 || rlp([chainId, address, nonce])).
func AuthorizationDigest(chainID *big.Int, delegate common.Address, nonce uint64) []byte {
	encoded := rlp.Encode(rlp.List(
		rlp.BigInt(chainID),
		rlp.Bytes(delegate.Bytes()),
		rlp.Uint64(nonce),
	))
	return crypto.Keccak256(append([]byte{authorizationMagic}, encoded...))
}

// SignAuthorization signs an authorization tuple with ds and normalizes the
// returned recovery id to a y-parity bit.
func SignAuthorization(ds signer.DigestSigner, chainID *big.Int, delegate common.Address, nonce uint64) (Authorization, error) {
	if chainID == nil || chainID.Sign() < 0 {
		return Authorization{}, fmt.Errorf("%w: chain id must be a non-negative integer", ErrInvalidInput)
	}

	digest := AuthorizationDigest(chainID, delegate, nonce)
	v, r, s, err := ds.SignDigest(digest)
	if err != nil {
		return Authorization{}, fmt.Errorf("authorization signing: %w", err)
	}
	if len(r) > 32 || len(s) > 32 {
		return Authorization{}, fmt.Errorf("%w: signer returned oversized r/s (%d/%d bytes)", signer.ErrSigningFailed, len(r), len(s))
	}

	auth := Authorization{
		ChainID: uint256.MustFromBig(chainID),
		Address: delegate,
		Nonce:   nonce,
		YParity: signer.YParity(v),
	}
	copy(auth.R[32-len(r):], r)
	copy(auth.S[32-len(s):], s)
	return auth, nil
}

// item encodes the tuple for embedding in a transaction's authorization list.
// R and S encode as RLP integers, so leading zero bytes are dropped.
func (a Authorization) item() rlp.Item {
	return rlp.List(
		rlp.Bytes(a.ChainID.Bytes()),
		rlp.Bytes(a.Address.Bytes()),
		rlp.Uint64(a.Nonce),
		rlp.Uint64(uint64(a.YParity)),
		rlp.BigInt(new(big.Int).SetBytes(a.R[:])),
		rlp.BigInt(new(big.Int).SetBytes(a.S[:])),
	)
}

var strictAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ParseAddress validates a 0x-prefixed 40-hex-digit address string. Anything
// else is rejected before the pipeline does network or signer work.
func ParseAddress(s string) (common.Address, error) {
	if !strictAddressRe.MatchString(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not a 0x-prefixed 20-byte hex address", ErrInvalidInput, s)
	}
	return common.HexToAddress(s), nil
}
