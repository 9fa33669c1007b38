package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	bip39 "github.com/tyler-smith/go-bip39"
)

// UnknownIdentity is substituted when a private key cannot be decoded, so the
// workflow can keep logging against the account without aborting.
const UnknownIdentity = "UNKNOWN"

var ErrDecodeKey = errors.New("malformed private key")

// Keypair resolves an accounts-file secret into an ed25519 keypair. Accepted
// inputs: a base-58 64-byte private key, a base-58 32-byte seed, or a BIP-39
// mnemonic phrase (seed-derived, no derivation path).
func Keypair(secret string) (types.Account, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return types.Account{}, fmt.Errorf("%w: empty input", ErrDecodeKey)
	}

	if bip39.IsMnemonicValid(secret) {
		seed := bip39.NewSeed(secret, "")
		account, err := types.AccountFromSeed(seed[:ed25519.SeedSize])
		if err != nil {
			return types.Account{}, fmt.Errorf("%w: %v", ErrDecodeKey, err)
		}
		return account, nil
	}

	raw, err := base58.Decode(secret)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrDecodeKey, err)
	}

	var account types.Account
	switch len(raw) {
	case ed25519.PrivateKeySize:
		account, err = types.AccountFromBytes(raw)
	case ed25519.SeedSize:
		account, err = types.AccountFromSeed(raw)
	default:
		return types.Account{}, fmt.Errorf("%w: unexpected key length %d", ErrDecodeKey, len(raw))
	}
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrDecodeKey, err)
	}
	return account, nil
}

// ResolveIdentity derives the base-58 public key for logging and correlation.
// Malformed input yields UnknownIdentity instead of an error; identity here is
// best-effort, not correctness-critical.
func ResolveIdentity(secret string) string {
	account, err := Keypair(secret)
	if err != nil {
		return UnknownIdentity
	}
	return account.PublicKey.ToBase58()
}

// SignMessage produces a detached ed25519 signature over the UTF-8 bytes of
// message. Both the signature and the signer public key are returned base-58
// encoded, ready for the login payload.
func SignMessage(account types.Account, message string) (signature, publicKey string) {
	sig := ed25519.Sign(account.PrivateKey, []byte(message))
	return base58.Encode(sig), account.PublicKey.ToBase58()
}
