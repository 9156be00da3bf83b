package keys

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/libsquads-go/auth"
	"github.com/bitfsorg/libsquads-go/squad"
)

const (
	PurposeBIP44   = 44
	CoinTypeSquads = 5353

	// Accounts.
	MemberAccount = 0
	OracleAccount = 1

	ExternalChain = 0

	MaxIndex = 1<<31 - 1
	Hardened = 0x80000000
)

// Role says which account an identity is derived from.
type Role string

const (
	RoleMember Role = "member"
	RoleOracle Role = "oracle"
)

func (r Role) account() (uint32, error) {
	switch r {
	case RoleMember:
		return MemberAccount, nil
	case RoleOracle:
		return OracleAccount, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, string(r))
}

// networks maps network names to BIP32 version bytes. Only mainnet uses
// the mainnet prefixes.
var networks = map[string]*chaincfg.Params{
	"mainnet": &chaincfg.MainNet,
	"testnet": &chaincfg.TestNet,
	"regtest": &chaincfg.TestNet,
}

// NetworkParams returns the chain parameters for a network name.
func NetworkParams(name string) (*chaincfg.Params, error) {
	if p, ok := networks[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}

// Keyring derives identity keys from a master seed.
type Keyring struct {
	master  *bip32.ExtendedKey
	network string
}

// KeyPair is a derived identity key.
type KeyPair struct {
	PrivateKey *ec.PrivateKey
	PublicKey  *ec.PublicKey
	Identity   squad.Address
	Path       string
}

// NewKeyring creates a Keyring for the named network.
func NewKeyring(seed []byte, network string) (*Keyring, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	params, err := NetworkParams(network)
	if err != nil {
		return nil, err
	}
	master, err := bip32.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Keyring{master: master, network: network}, nil
}

// Network returns the keyring's network name.
func (k *Keyring) Network() string { return k.network }

// Derive returns the key for role at index: m/44'/5353'/account'/0/index.
func (k *Keyring) Derive(role Role, index uint32) (*KeyPair, error) {
	account, err := role.account()
	if err != nil {
		return nil, err
	}
	if index > MaxIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	key := k.master
	for depth, child := range []uint32{
		PurposeBIP44 + Hardened,
		CoinTypeSquads + Hardened,
		account + Hardened,
		ExternalChain,
		index,
	} {
		if key, err = key.Child(child); err != nil {
			return nil, fmt.Errorf("%w: depth %d: %w", ErrDerivationFailed, depth, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract private key: %w", ErrDerivationFailed, err)
	}
	pub := priv.PubKey()
	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  pub,
		Identity:   auth.IdentityOf(pub),
		Path:       fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", PurposeBIP44, CoinTypeSquads, account, ExternalChain, index),
	}, nil
}

// DeriveMemberKey returns the member identity at index.
func (k *Keyring) DeriveMemberKey(index uint32) (*KeyPair, error) {
	return k.Derive(RoleMember, index)
}

// DeriveOracleKey returns the oracle identity at index.
func (k *Keyring) DeriveOracleKey(index uint32) (*KeyPair, error) {
	return k.Derive(RoleOracle, index)
}
