package flow_helpers

import (
	"fmt"

	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/crypto"
)

// Weight a single key needs to act for its account on its own.
const FullKeyWeight = 1000

// VerifyAccountKeySignature checks that 'signature' over 'message' was made
// with the account's key at 'keyIndex'. The key must be active and carry
// full weight.
func VerifyAccountKeySignature(account *flow.Account, keyIndex int, message, signature []byte) error {
	if keyIndex < 0 || keyIndex >= len(account.Keys) {
		return fmt.Errorf("account %s has no key %d", account.Address, keyIndex)
	}

	key := account.Keys[keyIndex]

	if key.Revoked {
		return fmt.Errorf("key %d of account %s is revoked", keyIndex, account.Address)
	}

	if key.Weight < FullKeyWeight {
		return fmt.Errorf("key %d of account %s has weight %d, %d required", keyIndex, account.Address, key.Weight, FullKeyWeight)
	}

	hasher, err := crypto.NewHasher(key.HashAlgo)
	if err != nil {
		return fmt.Errorf("error in flow_helpers.VerifyAccountKeySignature: %w", err)
	}

	valid, err := key.PublicKey.Verify(signature, message, hasher)
	if err != nil {
		return fmt.Errorf("error in flow_helpers.VerifyAccountKeySignature: %w", err)
	}

	if !valid {
		return fmt.Errorf("signature does not match key %d of account %s", keyIndex, account.Address)
	}

	return nil
}
