package signature

import id "namegate/pkg/domain"

// Counterfactual signatures wrap a plain owner signature with the deployment
// parameters of a not-yet-deployed account:
//
//	innerSig(65) || factory(20) || salt(32) || magic(32)
//
// The trailing magic marks the wrapper so plain signatures can never be
// misparsed; the account's init code is fully determined by its owner key, so
// the deployment address commits to the owner.
var counterfactualMagic = [32]byte{
	0x64, 0x92, 0x64, 0x92, 0x64, 0x92, 0x64, 0x92,
	0x64, 0x92, 0x64, 0x92, 0x64, 0x92, 0x64, 0x92,
	0x64, 0x92, 0x64, 0x92, 0x64, 0x92, 0x64, 0x92,
	0x64, 0x92, 0x64, 0x92, 0x64, 0x92, 0x64, 0x92,
}

const counterfactualLen = sigLen + 20 + 32 + 32

type counterfactualWrapper struct {
	innerSig []byte
	factory  id.Address
	salt     id.Hash
}

// EncodeCounterfactual builds the wrapper for a counterfactual account
// signature. Issuer tooling pairs it with DeriveAccount.
func EncodeCounterfactual(innerSig []byte, factory id.Address, salt id.Hash) []byte {
	out := make([]byte, 0, counterfactualLen)
	out = append(out, innerSig...)
	out = append(out, factory[:]...)
	out = append(out, salt[:]...)
	return append(out, counterfactualMagic[:]...)
}

func decodeCounterfactual(sig []byte) (counterfactualWrapper, bool) {
	if len(sig) != counterfactualLen {
		return counterfactualWrapper{}, false
	}
	if [32]byte(sig[len(sig)-32:]) != counterfactualMagic {
		return counterfactualWrapper{}, false
	}
	var w counterfactualWrapper
	w.innerSig = sig[:sigLen]
	copy(w.factory[:], sig[sigLen:sigLen+20])
	copy(w.salt[:], sig[sigLen+20:sigLen+52])
	return w, true
}

// DeriveAccount computes the deterministic deployment address of the smart
// account owned by owner: keccak(0xff || factory || salt || keccak(owner))[12:].
func DeriveAccount(factory id.Address, salt id.Hash, owner id.Address) id.Address {
	initCodeHash := id.Keccak256(owner.Bytes())
	h := id.Keccak256([]byte{0xff}, factory.Bytes(), salt.Bytes(), initCodeHash.Bytes())
	var account id.Address
	copy(account[:], h[12:])
	return account
}
