package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libsquads-go/config"
	"github.com/bitfsorg/libsquads-go/keys"
	"github.com/bitfsorg/libsquads-go/squad"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Network = "testnet"
	return cfg
}

func initWorkspace(t *testing.T) config.Config {
	t.Helper()
	cfg := testConfig(t)
	require.NoError(t, Init(cfg, testMnemonic, "", "pw"))
	return cfg
}

func TestInit(t *testing.T) {
	cfg := initWorkspace(t)

	for _, name := range []string{seedFile, identityFile, "config"} {
		_, err := os.Stat(filepath.Join(cfg.DataDir, name))
		assert.NoError(t, err, name)
	}

	err := Init(cfg, testMnemonic, "", "pw")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	err = Init(testConfig(t), testMnemonic, "", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	err = Init(testConfig(t), "not a mnemonic", "", "pw")
	assert.ErrorIs(t, err, keys.ErrInvalidMnemonic)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(testConfig(t), "pw")
	assert.ErrorIs(t, err, ErrNotInitialized)

	cfg := initWorkspace(t)
	_, err = Open(cfg, "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = Open(cfg, "wrong")
	assert.ErrorIs(t, err, keys.ErrDecryptionFailed)

	// A failed open must not leave the directory locked.
	ws, err := Open(cfg, "pw")
	require.NoError(t, err)
	require.NoError(t, ws.Close())
}

func TestOpen_ExclusiveLock(t *testing.T) {
	cfg := initWorkspace(t)
	ws, err := Open(cfg, "pw")
	require.NoError(t, err)

	_, err = Open(cfg, "pw")
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, ws.Close())
	ws, err = Open(cfg, "pw")
	require.NoError(t, err)
	require.NoError(t, ws.Close())
}

func TestWorkspace_IdentitiesPersist(t *testing.T) {
	cfg := initWorkspace(t)

	ws, err := Open(cfg, "pw")
	require.NoError(t, err)
	alice, err := ws.NewIdentity("alice", keys.RoleMember)
	require.NoError(t, err)
	_, err = ws.NewIdentity("scorer", keys.RoleOracle)
	require.NoError(t, err)
	require.NoError(t, ws.Close())

	ws, err = Open(cfg, "pw")
	require.NoError(t, err)
	defer ws.Close()

	id, err := ws.Identity("alice")
	require.NoError(t, err)
	assert.Equal(t, alice.Identity, id.String())
	assert.Len(t, ws.Keys.Identities, 2)
}

func TestWorkspace_SignedOperations(t *testing.T) {
	cfg := initWorkspace(t)
	ws, err := Open(cfg, "pw")
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.NewIdentity("alice", keys.RoleMember)
	require.NoError(t, err)
	_, err = ws.NewIdentity("bob", keys.RoleMember)
	require.NoError(t, err)
	alice, err := ws.Identity("alice")
	require.NoError(t, err)
	bob, err := ws.Identity("bob")
	require.NoError(t, err)

	signers, err := ws.Sign("create_squad", [][]byte{alice[:], []byte("crew")}, "alice")
	require.NoError(t, err)
	assert.True(t, signers.HasSigned(alice))
	assert.False(t, signers.HasSigned(bob))

	ctx := t.Context()
	squadAddr, err := ws.Engine.CreateSquad(ctx, squad.CreateSquadParams{
		Authority: alice, Name: "crew", MaxMembers: 4,
	}, signers)
	require.NoError(t, err)

	// Bob's signature does not authorise Alice's join.
	signers, err = ws.Sign("join", [][]byte{squadAddr[:], alice[:]}, "bob")
	require.NoError(t, err)
	_, err = ws.Engine.Join(ctx, squadAddr, alice, signers)
	assert.ErrorIs(t, err, squad.ErrMissingSignature)

	_, err = ws.Sign("join", nil, "mallory")
	assert.ErrorIs(t, err, keys.ErrLabelNotFound)
}
