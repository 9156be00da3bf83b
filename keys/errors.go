package keys

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("keys: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("keys: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty.
	ErrInvalidSeed = errors.New("keys: invalid seed")

	// ErrDecryptionFailed indicates a wrong password or corrupted seed file.
	ErrDecryptionFailed = errors.New("keys: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates the seed checksum did not verify after decryption.
	ErrChecksumMismatch = errors.New("keys: seed checksum mismatch")

	// ErrUnsupportedFormat indicates a seed file with an unknown format version.
	ErrUnsupportedFormat = errors.New("keys: unsupported seed file format")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("keys: invalid network name")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("keys: key derivation failed")

	// ErrIndexOutOfRange indicates a derivation index at or past the hardened boundary.
	ErrIndexOutOfRange = errors.New("keys: index exceeds maximum (2^31-1)")

	// ErrLabelExists indicates the identity label is already taken.
	ErrLabelExists = errors.New("keys: label already exists")

	// ErrLabelNotFound indicates no identity has the label.
	ErrLabelNotFound = errors.New("keys: label not found")

	// ErrInvalidLabel indicates an empty identity label.
	ErrInvalidLabel = errors.New("keys: label must not be empty")

	// ErrInvalidRole indicates an unknown identity role.
	ErrInvalidRole = errors.New("keys: invalid role")
)
