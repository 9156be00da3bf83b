// Package auth turns secp256k1 signatures into squad signer sets.
//
// Every squad operation is signed over a digest of its name and arguments.
// A verified signature proves that the identity derived from the signing
// public key authorised the operation:
//
//	identity = SHA256(compressed_pubkey)
package auth

import (
	"encoding/binary"
	"fmt"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libsquads-go/squad"
)

const (
	// DigestSize is the size of an operation digest.
	DigestSize = 32

	// CompressedPubKeyLen is the length of a compressed secp256k1 public key.
	CompressedPubKeyLen = 33

	digestDomain = "splitsquads/op/v1"
)

// Signature is a DER-encoded ECDSA signature together with the compressed
// public key that produced it.
type Signature struct {
	PubKey []byte `json:"pubkey"`
	Sig    []byte `json:"sig"`
}

// Digest hashes an operation name and its arguments. Each part is length
// prefixed so that field boundaries cannot be shifted.
func Digest(op string, fields ...[]byte) []byte {
	buf := make([]byte, 0, len(digestDomain)+4+len(op)+len(fields)*(4+squad.AddressSize))
	buf = append(buf, digestDomain...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(op)))
	buf = append(buf, op...)
	for _, f := range fields {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(f)))
		buf = append(buf, f...)
	}
	return bsvhash.Sha256(buf)
}

// Uint64Field encodes v for use as a Digest field.
func Uint64Field(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

// IdentityOf returns the squad identity of a public key.
func IdentityOf(pub *ec.PublicKey) squad.Address {
	var id squad.Address
	copy(id[:], bsvhash.Sha256(pub.Compressed()))
	return id
}

// Sign signs digest with priv.
func Sign(priv *ec.PrivateKey, digest []byte) (Signature, error) {
	if priv == nil {
		return Signature{}, ErrNilPrivateKey
	}
	if len(digest) != DigestSize {
		return Signature{}, fmt.Errorf("%w: got %d", ErrInvalidDigest, len(digest))
	}
	sig, err := priv.Sign(digest)
	if err != nil {
		return Signature{}, fmt.Errorf("auth: sign: %w", err)
	}
	return Signature{
		PubKey: priv.PubKey().Compressed(),
		Sig:    sig.Serialize(),
	}, nil
}

// SignAll signs digest with every key.
func SignAll(digest []byte, keys ...*ec.PrivateKey) ([]Signature, error) {
	sigs := make([]Signature, 0, len(keys))
	for _, k := range keys {
		s, err := Sign(k, digest)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, s)
	}
	return sigs, nil
}

// Verify checks every signature against digest and returns the set of
// identities that signed. A single bad signature fails the whole set.
func Verify(digest []byte, sigs ...Signature) (squad.SignerSet, error) {
	if len(digest) != DigestSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDigest, len(digest))
	}
	set := squad.NewSignerSet()
	for i, s := range sigs {
		if len(s.PubKey) != CompressedPubKeyLen {
			return nil, fmt.Errorf("%w: signature %d: %d-byte key", ErrInvalidPublicKey, i, len(s.PubKey))
		}
		pub, err := ec.PublicKeyFromBytes(s.PubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: signature %d: %w", ErrInvalidPublicKey, i, err)
		}
		sig, err := ec.ParseDERSignature(s.Sig)
		if err != nil {
			return nil, fmt.Errorf("%w: signature %d: %w", ErrInvalidSignature, i, err)
		}
		if !sig.Verify(digest, pub) {
			return nil, fmt.Errorf("%w: signature %d does not verify", ErrInvalidSignature, i)
		}
		set[IdentityOf(pub)] = struct{}{}
	}
	return set, nil
}
