package keys

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Identity is a labelled, derived key recorded in the keyring state.
type Identity struct {
	Label    string `json:"label"`
	Role     Role   `json:"role"`
	Index    uint32 `json:"index"`
	PubKey   string `json:"pubkey"`   // compressed, hex
	Identity string `json:"identity"` // squad identity, hex
}

// KeyringState is the persisted list of identities.
type KeyringState struct {
	Identities      []Identity `json:"identities"`
	NextMemberIndex uint32     `json:"next_member_index"`
	NextOracleIndex uint32     `json:"next_oracle_index"`
}

// NewKeyringState creates an empty state.
func NewKeyringState() *KeyringState {
	return &KeyringState{Identities: []Identity{}}
}

// LoadKeyringState reads state from path. A missing file yields an empty state.
func LoadKeyringState(path string) (*KeyringState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewKeyringState(), nil
		}
		return nil, fmt.Errorf("keys: read state: %w", err)
	}
	var st KeyringState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("keys: parse state: %w", err)
	}
	if st.Identities == nil {
		st.Identities = []Identity{}
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("keys: state: %w", err)
	}
	return &st, nil
}

// Save writes state to path as indented JSON.
func (s *KeyringState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("keys: marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("keys: create state directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks labels are unique and derivation counters are ahead of
// every recorded index.
func (s *KeyringState) Validate() error {
	labels := make(map[string]struct{}, len(s.Identities))
	for _, id := range s.Identities {
		if id.Label == "" {
			return ErrInvalidLabel
		}
		if _, dup := labels[id.Label]; dup {
			return fmt.Errorf("%w: %q", ErrLabelExists, id.Label)
		}
		labels[id.Label] = struct{}{}

		var next uint32
		switch id.Role {
		case RoleMember:
			next = s.NextMemberIndex
		case RoleOracle:
			next = s.NextOracleIndex
		default:
			return fmt.Errorf("%w: %q", ErrInvalidRole, string(id.Role))
		}
		if id.Index >= next {
			return fmt.Errorf("%s index %d not below next index %d", id.Role, id.Index, next)
		}
	}
	return nil
}

// NewIdentity derives the next key for role, records it under label and
// returns it.
func (s *KeyringState) NewIdentity(k *Keyring, label string, role Role) (*Identity, *KeyPair, error) {
	if label == "" {
		return nil, nil, ErrInvalidLabel
	}
	if _, err := s.Lookup(label); err == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrLabelExists, label)
	}

	if _, err := role.account(); err != nil {
		return nil, nil, err
	}
	next := &s.NextMemberIndex
	if role == RoleOracle {
		next = &s.NextOracleIndex
	}
	kp, err := k.Derive(role, *next)
	if err != nil {
		return nil, nil, err
	}

	id := Identity{
		Label:    label,
		Role:     role,
		Index:    *next,
		PubKey:   hex.EncodeToString(kp.PublicKey.Compressed()),
		Identity: kp.Identity.String(),
	}
	s.Identities = append(s.Identities, id)
	*next++
	return &id, kp, nil
}

// Lookup returns the identity recorded under label.
func (s *KeyringState) Lookup(label string) (*Identity, error) {
	i := slices.IndexFunc(s.Identities, func(id Identity) bool { return id.Label == label })
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, label)
	}
	return &s.Identities[i], nil
}

// Key re-derives the key pair of the identity under label.
func (s *KeyringState) Key(k *Keyring, label string) (*KeyPair, error) {
	id, err := s.Lookup(label)
	if err != nil {
		return nil, err
	}
	return k.Derive(id.Role, id.Index)
}
