package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// SignMessage signs the EIP-191 hash of message. The returned signature is
// r || s || v with v in {27, 28}.
func (es *ghostClient) SignMessage(message []byte) ([]byte, error) {
	if !es.account.CanSign() {
		return nil, fmt.Errorf("account %s is read-only", es.account.Address)
	}
	sig, err := crypto.Sign(accounts.TextHash(message), es.account.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverMessageSigner returns the address that produced sig over the
// EIP-191 hash of message. Both v encodings (0/1 and 27/28) are accepted.
func RecoverMessageSigner(message, sig []byte) (primitives.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return primitives.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	normalized := append([]byte{}, sig...)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(message), normalized)
	if err != nil {
		return primitives.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return primitives.AddressFromCommon(crypto.PubkeyToAddress(*pub)), nil
}
