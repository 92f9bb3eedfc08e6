package typeddata

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

// encodeField produces the 32-byte encoding of a single value according to
// its declared ABI type. Struct types and arrays recurse.
func (h *Hasher) encodeField(types TypeMap, typ string, value any) ([]byte, error) {
	if isArray(typ) {
		return h.encodeArray(types, typ, value)
	}
	if _, ok := types[baseType(typ)]; ok {
		nested, _ := value.(map[string]any)
		return h.hashStruct(types, baseType(typ), nested)
	}

	switch {
	case typ == "address":
		return h.encodeAddress(value), nil
	case typ == "bool":
		return encodeBool(value), nil
	case typ == "string":
		return crypto.Keccak256(toUTF8(value)), nil
	case typ == "bytes":
		raw, err := toBytes(value)
		if err != nil {
			return nil, err
		}
		return crypto.Keccak256(raw), nil
	case strings.HasPrefix(typ, "bytes"):
		return encodeFixedBytes(typ, value)
	case strings.HasPrefix(typ, "uint"), strings.HasPrefix(typ, "int"):
		return encodeInteger(typ, value)
	}

	// Unknown ABI type: degrade to a zero word rather than rejecting the
	// document, since real-world payloads are not always well-formed.
	h.log.Warn("unsupported ABI type encoded as zero word", zap.String("type", typ))
	return make([]byte, 32), nil
}

// encodeArray hashes the concatenation of the element encodings.
func (h *Hasher) encodeArray(types TypeMap, typ string, value any) ([]byte, error) {
	elems, _ := value.([]any)
	var concat []byte
	for _, elem := range elems {
		enc, err := h.encodeField(types, elemType(typ), elem)
		if err != nil {
			return nil, err
		}
		concat = append(concat, enc...)
	}
	return crypto.Keccak256(concat), nil
}

// encodeAddress left-pads the 20-byte address to 32 bytes. An absent or
// invalid address encodes as a zero word, with a warning.
func (h *Hasher) encodeAddress(value any) []byte {
	str, ok := value.(string)
	if !ok || !common.IsHexAddress(str) {
		h.log.Warn("invalid address value encoded as zero word", zap.Any("value", value))
		return make([]byte, 32)
	}
	return common.LeftPadBytes(common.HexToAddress(str).Bytes(), 32)
}

func encodeBool(value any) []byte {
	out := make([]byte, 32)
	if b, ok := value.(bool); ok && b {
		out[31] = 1
	}
	return out
}

// encodeFixedBytes right-pads bytesN values to 32 bytes.
func encodeFixedBytes(typ string, value any) ([]byte, error) {
	raw, err := toBytes(value)
	if err != nil {
		return nil, err
	}
	if len(raw) > 32 {
		return nil, fmt.Errorf("%w: %s value is %d bytes", ErrMalformedInput, typ, len(raw))
	}
	return common.RightPadBytes(raw, 32), nil
}

// encodeInteger left-pads the big-endian value to 32 bytes. Signed values are
// converted to their two's-complement representation modulo 2^256 first.
func encodeInteger(typ string, value any) ([]byte, error) {
	n, err := toBigInt(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, typ, err)
	}
	n = new(big.Int).Mod(n, twoTo256)
	out := make([]byte, 32)
	n.FillBytes(out)
	return out, nil
}

// toBigInt parses a native number, decimal string, or 0x-prefixed hex string
// into an arbitrary-precision integer. Nil is zero.
func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case nil:
		return new(big.Int), nil
	case json.Number:
		if n, ok := new(big.Int).SetString(v.String(), 10); ok {
			return n, nil
		}
		return nil, fmt.Errorf("non-integral number %q", v.String())
	case string:
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			if n, ok := new(big.Int).SetString(v[2:], 16); ok {
				return n, nil
			}
			return nil, fmt.Errorf("invalid hex integer %q", v)
		}
		if n, ok := new(big.Int).SetString(v, 10); ok {
			return n, nil
		}
		return nil, fmt.Errorf("invalid decimal integer %q", v)
	case float64:
		return new(big.Int).SetInt64(int64(v)), nil
	}
	return nil, fmt.Errorf("value %v (%T) is not an integer", value, value)
}

// toBytes decodes a 0x-prefixed hex string; any other string is taken as its
// raw UTF-8 bytes. Nil is empty.
func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			raw, err := decodeHex(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
			}
			return raw, nil
		}
		return []byte(v), nil
	}
	return nil, fmt.Errorf("%w: value %v (%T) is not a byte string", ErrMalformedInput, value, value)
}

func toUTF8(value any) []byte {
	if s, ok := value.(string); ok {
		return []byte(s)
	}
	return nil
}

// decodeHex tolerates odd-length hex by left-padding a zero nibble.
func decodeHex(s string) ([]byte, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(h)%2 != 0 {
		h = "0" + h
	}
	return hex.DecodeString(h)
}
