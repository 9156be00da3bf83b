// Package workspace ties a data directory to a running squad engine: the
// encrypted seed, the identity list, and the bbolt ledger. CLI commands
// open a Workspace, act through its Engine and sign with its keys.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libsquads-go/auth"
	"github.com/bitfsorg/libsquads-go/config"
	"github.com/bitfsorg/libsquads-go/keys"
	"github.com/bitfsorg/libsquads-go/squad"
)

const (
	seedFile     = "seed.enc"
	identityFile = "identities.json"
	lockFile     = "squads.lock"
)

// Workspace is an open data directory.
type Workspace struct {
	Config  config.Config
	Keyring *keys.Keyring
	Keys    *keys.KeyringState
	Store   squad.Store
	Engine  *squad.Engine

	lock *os.File
}

// Init writes a new encrypted seed and the config file for cfg. It
// refuses to overwrite an existing seed.
func Init(cfg config.Config, mnemonic, passphrase, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	seedPath := filepath.Join(cfg.DataDir, seedFile)
	if _, err := os.Stat(seedPath); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, seedPath)
	}

	seed, err := keys.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}
	sealed, err := keys.SealSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("workspace: create data directory: %w", err)
	}
	if err := os.WriteFile(seedPath, sealed, 0600); err != nil {
		return fmt.Errorf("workspace: write seed: %w", err)
	}
	if err := keys.NewKeyringState().Save(filepath.Join(cfg.DataDir, identityFile)); err != nil {
		return err
	}
	return config.SaveConfig(config.ConfigPath(cfg.DataDir), cfg)
}

// Open unlocks the workspace in cfg.DataDir. It holds an exclusive lock on
// the directory until Close.
func Open(cfg config.Config, password string, opts ...squad.Option) (*Workspace, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	sealed, err := os.ReadFile(filepath.Join(cfg.DataDir, seedFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("workspace: read seed: %w", err)
	}

	lock, err := tryLock(filepath.Join(cfg.DataDir, lockFile))
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	ws, err := open(cfg, sealed, password, opts)
	if err != nil {
		releaseLock(lock)
		return nil, err
	}
	ws.lock = lock
	return ws, nil
}

func open(cfg config.Config, sealed []byte, password string, opts []squad.Option) (*Workspace, error) {
	seed, err := keys.OpenSeed(sealed, password)
	if err != nil {
		return nil, fmt.Errorf("workspace: unlock seed: %w", err)
	}
	keyring, err := keys.NewKeyring(seed, cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("workspace: keyring: %w", err)
	}
	state, err := keys.LoadKeyringState(filepath.Join(cfg.DataDir, identityFile))
	if err != nil {
		return nil, err
	}
	store, err := squad.OpenBoltStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	ws := &Workspace{
		Config:  cfg,
		Keyring: keyring,
		Keys:    state,
		Store:   store,
		Engine:  squad.NewEngine(store, opts...),
	}
	return ws, nil
}

// Close saves the identity list, closes the ledger and releases the lock.
func (w *Workspace) Close() error {
	defer releaseLock(w.lock)
	saveErr := w.SaveKeys()
	closeErr := w.Store.Close()
	return errors.Join(saveErr, closeErr)
}

// SaveKeys persists the identity list.
func (w *Workspace) SaveKeys() error {
	return w.Keys.Save(filepath.Join(w.Config.DataDir, identityFile))
}

// NewIdentity derives and records the next identity for role.
func (w *Workspace) NewIdentity(label string, role keys.Role) (*keys.Identity, error) {
	id, _, err := w.Keys.NewIdentity(w.Keyring, label, role)
	if err != nil {
		return nil, err
	}
	if err := w.SaveKeys(); err != nil {
		return nil, err
	}
	return id, nil
}

// Identity returns the squad identity recorded under label.
func (w *Workspace) Identity(label string) (squad.Address, error) {
	kp, err := w.Keys.Key(w.Keyring, label)
	if err != nil {
		return squad.ZeroAddress, err
	}
	return kp.Identity, nil
}

// Sign signs an operation digest with the keys of labels and returns the
// verified signer set the engine checks authorisation against.
func (w *Workspace) Sign(op string, fields [][]byte, labels ...string) (squad.SignerSet, error) {
	privs := make([]*ec.PrivateKey, 0, len(labels))
	for _, label := range labels {
		kp, err := w.Keys.Key(w.Keyring, label)
		if err != nil {
			return nil, err
		}
		privs = append(privs, kp.PrivateKey)
	}
	digest := auth.Digest(op, fields...)
	sigs, err := auth.SignAll(digest, privs...)
	if err != nil {
		return nil, err
	}
	return auth.Verify(digest, sigs...)
}
