package signature

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	id "namegate/pkg/domain"
)

// sigLen is the length of a plain [R || S || V] signature.
const sigLen = 65

// RecoverAddress recovers the signing address from a 65-byte [R || S || V]
// signature over digest. V may be 0/1 or 27/28.
func RecoverAddress(digest id.Hash, sig []byte) (id.Address, error) {
	if len(sig) != sigLen {
		return id.Address{}, fmt.Errorf("signature must be %d bytes, got %d", sigLen, len(sig))
	}

	v := sig[64]
	if v < 27 {
		v += 27
	}
	// RecoverCompact wants the recovery header first.
	compact := make([]byte, sigLen)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, digest.Bytes())
	if err != nil {
		return id.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return AddressOf(pub), nil
}

// SignDigest produces a 65-byte [R || S || V] signature over digest.
// Used by issuer tooling and tests; the engine itself only verifies.
func SignDigest(priv *secp256k1.PrivateKey, digest id.Hash) []byte {
	compact := ecdsa.SignCompact(priv, digest.Bytes(), false)
	sig := make([]byte, sigLen)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return sig
}

// AddressOf derives the 20-byte address of a public key: the low 20 bytes of
// the keccak-256 of the uncompressed point without its 0x04 prefix.
func AddressOf(pub *secp256k1.PublicKey) id.Address {
	h := id.Keccak256(pub.SerializeUncompressed()[1:])
	var addr id.Address
	copy(addr[:], h[12:])
	return addr
}
