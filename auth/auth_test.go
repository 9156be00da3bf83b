package auth

import (
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ec.PrivateKey {
	t.Helper()
	k, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return k
}

func TestDigest(t *testing.T) {
	d := Digest("stake", []byte{1, 2}, Uint64Field(10))
	assert.Len(t, d, DigestSize)
	assert.Equal(t, d, Digest("stake", []byte{1, 2}, Uint64Field(10)))

	assert.NotEqual(t, d, Digest("unstake", []byte{1, 2}, Uint64Field(10)))
	assert.NotEqual(t, Digest("op", []byte("ab"), []byte("c")), Digest("op", []byte("a"), []byte("bc")))
}

func TestSignVerify(t *testing.T) {
	alice, bob := newKey(t), newKey(t)
	digest := Digest("join", []byte("squad"))

	sigs, err := SignAll(digest, alice, bob)
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	set, err := Verify(digest, sigs...)
	require.NoError(t, err)
	assert.True(t, set.HasSigned(IdentityOf(alice.PubKey())))
	assert.True(t, set.HasSigned(IdentityOf(bob.PubKey())))
	assert.Len(t, set, 2)
}

func TestVerify_Rejects(t *testing.T) {
	key := newKey(t)
	digest := Digest("join", []byte("squad"))
	good, err := Sign(key, digest)
	require.NoError(t, err)

	t.Run("other digest", func(t *testing.T) {
		_, err := Verify(Digest("join", []byte("other")), good)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("swapped key", func(t *testing.T) {
		forged := Signature{PubKey: newKey(t).PubKey().Compressed(), Sig: good.Sig}
		_, err := Verify(digest, forged)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("malformed signature", func(t *testing.T) {
		_, err := Verify(digest, Signature{PubKey: good.PubKey, Sig: []byte{0x30, 0x01}})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("bad key length", func(t *testing.T) {
		_, err := Verify(digest, Signature{PubKey: good.PubKey[:32], Sig: good.Sig})
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
	})

	t.Run("bad digest length", func(t *testing.T) {
		_, err := Verify(digest[:31], good)
		assert.ErrorIs(t, err, ErrInvalidDigest)
	})
}

func TestSign_Errors(t *testing.T) {
	_, err := Sign(nil, Digest("op"))
	assert.ErrorIs(t, err, ErrNilPrivateKey)

	_, err = Sign(newKey(t), []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidDigest)
}

func TestIdentityOf_Stable(t *testing.T) {
	key := newKey(t)
	restored, _ := ec.PrivateKeyFromBytes(key.Serialize())
	assert.Equal(t, IdentityOf(key.PubKey()), IdentityOf(restored.PubKey()))
	assert.NotEqual(t, IdentityOf(key.PubKey()), IdentityOf(newKey(t).PubKey()))
}
