package keys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libsquads-go/auth"
)

func testKeyring(t *testing.T, network string) *Keyring {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	k, err := NewKeyring(seed, network)
	require.NoError(t, err)
	return k
}

func TestKeyring_Derive(t *testing.T) {
	k := testKeyring(t, "mainnet")

	m0, err := k.DeriveMemberKey(0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/5353'/0'/0/0", m0.Path)
	assert.Equal(t, auth.IdentityOf(m0.PublicKey), m0.Identity)

	again, err := k.DeriveMemberKey(0)
	require.NoError(t, err)
	assert.Equal(t, m0.Identity, again.Identity)

	m1, err := k.DeriveMemberKey(1)
	require.NoError(t, err)
	o0, err := k.DeriveOracleKey(0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/5353'/1'/0/0", o0.Path)

	assert.NotEqual(t, m0.Identity, m1.Identity)
	assert.NotEqual(t, m0.Identity, o0.Identity)

	_, err = k.DeriveMemberKey(MaxIndex + 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = k.Derive(Role("admin"), 0)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestKeyring_NetworkDoesNotChangeKeys(t *testing.T) {
	main, err := testKeyring(t, "mainnet").DeriveMemberKey(3)
	require.NoError(t, err)
	test, err := testKeyring(t, "testnet").DeriveMemberKey(3)
	require.NoError(t, err)
	assert.Equal(t, main.Identity, test.Identity)
}

func TestNewKeyring_Errors(t *testing.T) {
	_, err := NewKeyring(nil, "mainnet")
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = NewKeyring([]byte("0123456789abcdef"), "nonet")
	assert.ErrorIs(t, err, ErrInvalidNetwork)
}

func TestKeyringState(t *testing.T) {
	k := testKeyring(t, "testnet")
	st := NewKeyringState()

	alice, alicePair, err := st.NewIdentity(k, "alice", RoleMember)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), alice.Index)
	assert.Equal(t, alicePair.Identity.String(), alice.Identity)

	bob, _, err := st.NewIdentity(k, "bob", RoleMember)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), bob.Index)

	oracle, _, err := st.NewIdentity(k, "scorer", RoleOracle)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), oracle.Index)
	assert.Equal(t, RoleOracle, oracle.Role)

	_, _, err = st.NewIdentity(k, "alice", RoleOracle)
	assert.ErrorIs(t, err, ErrLabelExists)
	_, _, err = st.NewIdentity(k, "", RoleMember)
	assert.ErrorIs(t, err, ErrInvalidLabel)
	_, _, err = st.NewIdentity(k, "eve", Role("admin"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	path := filepath.Join(t.TempDir(), "keys", "identities.json")
	require.NoError(t, st.Save(path))

	loaded, err := LoadKeyringState(path)
	require.NoError(t, err)
	assert.Equal(t, st, loaded)

	kp, err := loaded.Key(k, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.Identity, kp.Identity.String())

	_, err = loaded.Key(k, "mallory")
	assert.ErrorIs(t, err, ErrLabelNotFound)
}

func TestLoadKeyringState(t *testing.T) {
	st, err := LoadKeyringState(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, st.Identities)

	bad := &KeyringState{
		Identities:      []Identity{{Label: "a", Role: RoleMember, Index: 4}},
		NextMemberIndex: 2,
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, bad.Save(path))
	_, err = LoadKeyringState(path)
	assert.Error(t, err)
}
