package domain

import (
	"encoding/hex"
	"strings"

	dErrors "namegate/pkg/domain-errors"
)

// Address is a 20-byte account identity, rendered as 0x-prefixed lower-case hex.
// The zero value doubles as the open-invite wildcard and the post-renounce owner.
type Address [20]byte

// ZeroAddress is the open wildcard / renounced-owner sentinel.
var ZeroAddress = Address{}

// ParseAddress enforces the identity invariant: 20 bytes of hex, with or
// without a 0x prefix. Rejects empty input.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(strings.ToLower(s), "0x")
	if raw == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is not valid hex")
	}
	if len(b) != 20 {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes")
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Hash is a 32-byte keccak-256 digest.
type Hash [32]byte

// ParseHash decodes a 0x-prefixed or bare 64-char hex string.
func ParseHash(s string) (Hash, error) {
	raw := strings.TrimPrefix(strings.ToLower(s), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Hash{}, dErrors.New(dErrors.CodeInvalidInput, "hash is not valid hex")
	}
	if len(b) != 32 {
		return Hash{}, dErrors.New(dErrors.CodeInvalidInput, "hash must be 32 bytes")
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

// Node identifies one claimable name, derived from a parent node and a label.
type Node = Hash
