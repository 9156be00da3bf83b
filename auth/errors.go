package auth

import "errors"

var (
	// ErrInvalidPublicKey indicates a public key that is not a valid compressed secp256k1 point.
	ErrInvalidPublicKey = errors.New("auth: invalid public key")

	// ErrInvalidSignature indicates a malformed signature or one that does not verify.
	ErrInvalidSignature = errors.New("auth: invalid signature")

	// ErrNilPrivateKey indicates a nil private key was passed to Sign.
	ErrNilPrivateKey = errors.New("auth: private key is nil")

	// ErrInvalidDigest indicates a digest that is not 32 bytes.
	ErrInvalidDigest = errors.New("auth: digest must be 32 bytes")
)
