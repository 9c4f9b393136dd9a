// Package signature implements the signature validation capability consumed by
// the authorization engine. A single Validator entry point transparently
// supports three signer kinds: plain secp256k1 keys, deployed smart accounts
// (validated against their registered signer keys), and counterfactual smart
// accounts that do not exist yet (validated against their deterministic
// deployment address).
package signature

import (
	"context"
	"fmt"
	"log/slog"

	id "namegate/pkg/domain"
)

// Validator reports whether sig authentically binds signer to digest.
type Validator interface {
	IsValid(ctx context.Context, signer id.Address, digest id.Hash, sig []byte) (bool, error)
}

// AccountStore resolves deployed smart accounts to their authorized signer
// keys. An account with no registered signers is not a smart account.
type AccountStore interface {
	Signers(ctx context.Context, account id.Address) ([]id.Address, error)
}

// MultiValidator selects the validation variant from the signature shape and
// the account store:
//
//  1. a counterfactual wrapper (magic suffix) validates against the derived
//     deployment address;
//  2. a signer registered in the account store validates like a deployed
//     smart account;
//  3. anything else is plain key recovery.
type MultiValidator struct {
	accounts AccountStore
	logger   *slog.Logger
}

type Option func(*MultiValidator)

func WithLogger(logger *slog.Logger) Option {
	return func(v *MultiValidator) {
		v.logger = logger
	}
}

func New(accounts AccountStore, opts ...Option) (*MultiValidator, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	v := &MultiValidator{accounts: accounts}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v, nil
}

func (v *MultiValidator) IsValid(ctx context.Context, signer id.Address, digest id.Hash, sig []byte) (bool, error) {
	if wrapper, ok := decodeCounterfactual(sig); ok {
		return v.validateCounterfactual(signer, digest, wrapper), nil
	}

	signers, err := v.accounts.Signers(ctx, signer)
	if err != nil {
		return false, fmt.Errorf("resolve account signers: %w", err)
	}
	if len(signers) > 0 {
		return v.validateAccount(signer, digest, sig, signers), nil
	}

	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		return false, nil
	}
	return recovered == signer, nil
}

// validateAccount checks a deployed smart account: the inner signature must
// recover to one of the account's registered signer keys.
func (v *MultiValidator) validateAccount(account id.Address, digest id.Hash, sig []byte, signers []id.Address) bool {
	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		return false
	}
	for _, s := range signers {
		if s == recovered {
			return true
		}
	}
	v.logger.Debug("smart account signature rejected",
		"account", account.String(),
		"recovered", recovered.String(),
	)
	return false
}

// validateCounterfactual checks a not-yet-deployed account: the inner
// signature yields the owner key, and the account address derived from
// (factory, salt, owner) must equal the claimed signer.
func (v *MultiValidator) validateCounterfactual(signer id.Address, digest id.Hash, w counterfactualWrapper) bool {
	owner, err := RecoverAddress(digest, w.innerSig)
	if err != nil {
		return false
	}
	return DeriveAccount(w.factory, w.salt, owner) == signer
}
