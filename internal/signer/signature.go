package signer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/logger"
)

// SignatureLength is the canonical wire size: r(32) || s(32) || v(1).
const SignatureLength = 65

// Canonical assembles a 65-byte signature from raw (v, r, s) signer output.
// r and s may be shorter than 32 bytes if leading zero bytes were stripped
// upstream; they are left-padded. v is normalized to the 27/28 convention.
func Canonical(v byte, r, s []byte) []byte {
	sig := make([]byte, SignatureLength)
	copy(sig[0:32], common.LeftPadBytes(r, 32))
	copy(sig[32:64], common.LeftPadBytes(s, 32))
	sig[64] = NormalizeV(v)
	return sig
}

// CanonicalHex returns the 0x-prefixed hex form of Canonical.
func CanonicalHex(v byte, r, s []byte) string {
	return hexutil.Encode(Canonical(v, r, s))
}

// NormalizeV maps a recovery id to the 27/28 convention: {0,27} -> 27,
// {1,28} -> 28. Any other value passes through unchanged, with a debug log,
// rather than failing a signature that may still be valid.
func NormalizeV(v byte) byte {
	switch v {
	case 0, 27:
		return 27
	case 1, 28:
		return 28
	}
	logger.GetLogger().Debug("unexpected signature recovery id", zap.Uint8("v", v))
	return v
}

// YParity maps a recovery id to {0,1}: the 27/28 convention subtracts 27, the
// 0/1 convention is the identity, anything else keeps its low bit.
func YParity(v byte) byte {
	switch v {
	case 27, 28:
		return v - 27
	case 0, 1:
		return v
	}
	return v & 1
}
