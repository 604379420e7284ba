package transaction

import "errors"

var (
	// ErrIncompleteTransaction is returned when a field required by the
	// transaction type is missing.
	ErrIncompleteTransaction = errors.New("incomplete transaction")

	// ErrInvalidTransaction is returned for field combinations the network
	// would reject, such as a priority fee above the fee cap.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInvalidPrivateKey is returned when a signing key is not a valid
	// secp256k1 scalar.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidSignature is returned when a signature is malformed, not in
	// low-s form, or does not recover to the expected signer.
	ErrInvalidSignature = errors.New("invalid signature")
)
