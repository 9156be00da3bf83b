// Package keys manages the identities that sign squad operations.
//
// A single BIP39 seed, stored encrypted on disk, derives every identity:
//
//	m/44'/5353'/{account}'/0/{index}
//
// where account 0 holds member identities and account 1 oracle identities.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	"golang.org/x/crypto/argon2"
)

const (
	// Mnemonic entropy sizes.
	Mnemonic12Words = 128
	Mnemonic24Words = 256

	// Argon2id parameters for seed encryption.
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32

	// Seed file layout: version(1) || salt(16) || nonce(12) || AES-GCM(seed || checksum(4)).
	SeedFormatV1 = 0x01
	SaltLen      = 16
	NonceLen     = 12
	ChecksumLen  = 4

	headerLen = 1 + SaltLen + NonceLen
)

// GenerateMnemonic creates a new BIP39 mnemonic of 12 (128 bits) or 24
// (256 bits) words.
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != Mnemonic12Words && entropyBits != Mnemonic24Words {
		return "", ErrInvalidEntropy
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("keys: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("keys: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// SeedFromMnemonic derives the 64-byte BIP39 seed. passphrase may be empty.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("keys: derive seed: %w", err)
	}
	return seed, nil
}

func seedCipher(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seedChecksum(seed []byte) []byte {
	sum := sha256.Sum256(seed)
	return sum[:ChecksumLen]
}

// SealSeed encrypts seed under password with Argon2id and AES-256-GCM.
func SealSeed(seed []byte, password string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}

	header := make([]byte, headerLen)
	header[0] = SeedFormatV1
	if _, err := rand.Read(header[1:]); err != nil {
		return nil, fmt.Errorf("keys: generate salt and nonce: %w", err)
	}
	salt, nonce := header[1:1+SaltLen], header[1+SaltLen:]

	aead, err := seedCipher(password, salt)
	if err != nil {
		return nil, fmt.Errorf("keys: init cipher: %w", err)
	}

	plaintext := append(append(make([]byte, 0, len(seed)+ChecksumLen), seed...), seedChecksum(seed)...)
	// The header is bound as associated data.
	return aead.Seal(header, nonce, plaintext, header), nil
}

// OpenSeed decrypts a seed sealed by SealSeed.
func OpenSeed(sealed []byte, password string) ([]byte, error) {
	if len(sealed) < headerLen+ChecksumLen {
		return nil, ErrDecryptionFailed
	}
	if sealed[0] != SeedFormatV1 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, sealed[0])
	}
	header := sealed[:headerLen]
	salt, nonce := header[1:1+SaltLen], header[1+SaltLen:]

	aead, err := seedCipher(password, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := aead.Open(nil, nonce, sealed[headerLen:], header)
	if err != nil || len(plaintext) <= ChecksumLen {
		return nil, ErrDecryptionFailed
	}

	seed := plaintext[:len(plaintext)-ChecksumLen]
	if subtle.ConstantTimeCompare(plaintext[len(seed):], seedChecksum(seed)) != 1 {
		return nil, ErrChecksumMismatch
	}
	return seed, nil
}
