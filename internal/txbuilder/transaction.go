package txbuilder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/yourorg/keyfob/internal/rlp"
	"github.com/yourorg/keyfob/internal/signer"
)

// AccessTuple is one entry of an EIP-2930 access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// SetCodeTx is an unsigned EIP-7702 (type 0x04) transaction. A nil To encodes
// as the empty byte string.
type SetCodeTx struct {
	ChainID              *big.Int
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             uint64
	To                   *common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           []AccessTuple
	AuthList             []Authorization
}

// payloadItems returns the ten-element unsigned payload list in wire order.
func (tx *SetCodeTx) payloadItems() []rlp.Item {
	to := rlp.Bytes(nil)
	if tx.To != nil {
		to = rlp.Bytes(tx.To.Bytes())
	}

	accessList := make([]rlp.Item, 0, len(tx.AccessList))
	for _, tuple := range tx.AccessList {
		keys := make([]rlp.Item, 0, len(tuple.StorageKeys))
		for _, key := range tuple.StorageKeys {
			keys = append(keys, rlp.Bytes(key.Bytes()))
		}
		accessList = append(accessList, rlp.List(rlp.Bytes(tuple.Address.Bytes()), rlp.List(keys...)))
	}

	authList := make([]rlp.Item, 0, len(tx.AuthList))
	for _, auth := range tx.AuthList {
		authList = append(authList, auth.item())
	}

	return []rlp.Item{
		rlp.BigInt(tx.ChainID),
		rlp.Uint64(tx.Nonce),
		rlp.BigInt(tx.MaxPriorityFeePerGas),
		rlp.BigInt(tx.MaxFeePerGas),
		rlp.Uint64(tx.GasLimit),
		to,
		rlp.BigInt(tx.Value),
		rlp.Bytes(tx.Data),
		rlp.List(accessList...),
		rlp.List(authList...),
	}
}

// UnsignedPayload returns the RLP encoding of the ten-element payload list,
// without the type byte.
func (tx *SetCodeTx) UnsignedPayload() []byte {
	return rlp.Encode(rlp.List(tx.payloadItems()...))
}

// SigningHash is the digest the sender signs:
// keccak256(0x04 || rlp(unsigned payload)).
func (tx *SetCodeTx) SigningHash() []byte {
	return crypto.Keccak256(append([]byte{SetCodeTxType}, tx.UnsignedPayload()...))
}

// Finalize re-encodes the payload with [yParity, r, s] appended and prefixes
// the type byte. The result is the wire-format transaction, ready for
// eth_sendRawTransaction. r and s encode as RLP integers.
func (tx *SetCodeTx) Finalize(yParity byte, r, s []byte) []byte {
	items := append(tx.payloadItems(),
		rlp.Uint64(uint64(yParity)),
		rlp.BigInt(new(big.Int).SetBytes(r)),
		rlp.BigInt(new(big.Int).SetBytes(s)),
	)
	return append([]byte{SetCodeTxType}, rlp.Encode(rlp.List(items...))...)
}

// Sign signs the envelope with ds and returns the final wire bytes.
func (tx *SetCodeTx) Sign(ds signer.DigestSigner) ([]byte, error) {
	v, r, s, err := ds.SignDigest(tx.SigningHash())
	if err != nil {
		return nil, fmt.Errorf("transaction signing: %w", err)
	}
	return tx.Finalize(signer.YParity(v), r, s), nil
}

// EncodeHex renders signed transaction bytes for transmission.
func EncodeHex(raw []byte) string {
	return hexutil.Encode(raw)
}
