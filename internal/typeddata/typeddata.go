// Package typeddata computes EIP-712 structured-data digests from
// eth_signTypedData_v4-shaped JSON documents.
package typeddata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/yourorg/keyfob/internal/logger"
)

// ErrMalformedInput marks documents missing required fields or carrying
// values that cannot be converted to their declared types.
var ErrMalformedInput = errors.New("malformed typed data")

// Document is a parsed eth_signTypedData_v4 payload.
type Document struct {
	Types       TypeMap
	PrimaryType string
	Domain      map[string]any
	Message     map[string]any
}

// domainFieldOrder is the canonical EIP712Domain field list. When a document
// omits the EIP712Domain type, the type is synthesized from the subset of
// these fields actually present in the domain value.
var domainFieldOrder = []TypeDefinition{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
	{Name: "salt", Type: "bytes32"},
}

// Hasher computes typed-data digests. It holds no state between calls and is
// safe for concurrent use.
type Hasher struct {
	log logger.Logger
}

// NewHasher returns a Hasher that reports lenient-fallback encodings through log.
func NewHasher(log logger.Logger) *Hasher {
	if log == nil {
		log = logger.Nop()
	}
	return &Hasher{log: log}
}

// ParseDocument decodes and validates a typed-data JSON document. Numbers are
// kept as json.Number so uint256 values survive undamaged.
func ParseDocument(data []byte) (*Document, error) {
	var raw struct {
		Types       TypeMap        `json:"types"`
		PrimaryType string         `json:"primaryType"`
		Domain      map[string]any `json:"domain"`
		Message     map[string]any `json:"message"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if raw.Types == nil {
		return nil, fmt.Errorf("%w: missing types", ErrMalformedInput)
	}
	if raw.PrimaryType == "" {
		return nil, fmt.Errorf("%w: missing primaryType", ErrMalformedInput)
	}
	if raw.Domain == nil {
		return nil, fmt.Errorf("%w: missing domain", ErrMalformedInput)
	}
	if raw.Message == nil {
		return nil, fmt.Errorf("%w: missing message", ErrMalformedInput)
	}
	if _, ok := raw.Types[raw.PrimaryType]; !ok {
		return nil, fmt.Errorf("%w: primaryType %q not declared in types", ErrMalformedInput, raw.PrimaryType)
	}
	return &Document{
		Types:       raw.Types,
		PrimaryType: raw.PrimaryType,
		Domain:      raw.Domain,
		Message:     raw.Message,
	}, nil
}

// ComputeDigest parses the document and returns the 32-byte signing digest:
// keccak256(0x19 || 0x01 || domainSeparator || structHash(primaryType, message)).
func (h *Hasher) ComputeDigest(data []byte) ([]byte, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return h.Digest(doc)
}

// Digest computes the signing digest for an already-parsed document.
func (h *Hasher) Digest(doc *Document) ([]byte, error) {
	types := doc.Types
	if _, ok := types[domainTypeName]; !ok {
		types = withInferredDomain(types, doc.Domain)
	}

	separator, err := h.hashStruct(types, domainTypeName, doc.Domain)
	if err != nil {
		return nil, err
	}
	structHash, err := h.hashStruct(types, doc.PrimaryType, doc.Message)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 0, 2+32+32)
	payload = append(payload, 0x19, 0x01)
	payload = append(payload, separator...)
	payload = append(payload, structHash...)
	return crypto.Keccak256(payload), nil
}

// DomainSeparator computes the struct hash of the EIP712Domain value.
func (h *Hasher) DomainSeparator(doc *Document) ([]byte, error) {
	types := doc.Types
	if _, ok := types[domainTypeName]; !ok {
		types = withInferredDomain(types, doc.Domain)
	}
	return h.hashStruct(types, domainTypeName, doc.Domain)
}

const domainTypeName = "EIP712Domain"

// withInferredDomain returns a copy of types with an EIP712Domain entry built
// from the domain keys that are actually supplied.
func withInferredDomain(types TypeMap, domain map[string]any) TypeMap {
	inferred := make([]TypeDefinition, 0, len(domainFieldOrder))
	for _, field := range domainFieldOrder {
		if _, ok := domain[field.Name]; ok {
			inferred = append(inferred, field)
		}
	}
	out := make(TypeMap, len(types)+1)
	for name, fields := range types {
		out[name] = fields
	}
	out[domainTypeName] = inferred
	return out
}

// hashStruct computes keccak256(typeHash || enc(field1) || ...) over the
// declared field order. A type with no declared fields hashes to its typehash.
func (h *Hasher) hashStruct(types TypeMap, typeName string, value map[string]any) ([]byte, error) {
	typeHash := types.TypeHash(typeName)
	fields := types[typeName]
	if len(fields) == 0 {
		return typeHash, nil
	}

	enc := make([]byte, 0, 32*(1+len(fields)))
	enc = append(enc, typeHash...)
	for _, field := range fields {
		word, err := h.encodeField(types, field.Type, value[field.Name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		enc = append(enc, word...)
	}
	return crypto.Keccak256(enc), nil
}
