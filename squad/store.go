package squad

import (
	"bytes"
	"fmt"
	"slices"
	"sync"
)

// Txn is the view of durable state inside one atomic unit. Record writes
// and token transfers made through a Txn are committed together by the
// enclosing Store.Update, or discarded if it returns an error.
type Txn interface {
	// Squad returns the squad at addr or ErrSquadNotFound.
	Squad(addr Address) (*Squad, error)

	// CreateSquad stores a new squad; ErrAccountExists if addr is taken.
	CreateSquad(addr Address, s *Squad) error

	// PutSquad overwrites an existing squad.
	PutSquad(addr Address, s *Squad) error

	// Member returns the member at addr or ErrMemberNotFound.
	Member(addr Address) (*Member, error)

	// CreateMember stores a new member and indexes it under m.Squad.
	// ErrAccountExists if addr is taken.
	CreateMember(addr Address, m *Member) error

	// PutMember overwrites an existing member.
	PutMember(addr Address, m *Member) error

	// SquadMembers lists the member addresses of a squad in address order.
	SquadMembers(squad Address) ([]Address, error)

	// Squads lists every squad address in address order.
	Squads() ([]Address, error)

	// Account returns the token account at addr or ErrAccountNotFound.
	Account(addr Address) (*TokenAccount, error)

	// OpenAccount creates an empty token account owned by owner.
	OpenAccount(addr, owner Address) error

	// Mint credits amount to an existing token account.
	Mint(addr Address, amount uint64) error

	// Transfer moves amount from one token account to another. authority
	// must own the source account.
	Transfer(from, to Address, amount uint64, authority Address) error
}

// Store runs functions against durable state with all-or-nothing semantics.
type Store interface {
	// Update runs fn in a read-write transaction, committed only if fn returns nil.
	Update(fn func(Txn) error) error

	// View runs fn in a read-only transaction.
	View(fn func(Txn) error) error

	// Close releases the store.
	Close() error
}

// accountRW is the account access shared by token ledger helpers.
type accountRW interface {
	Account(addr Address) (*TokenAccount, error)
	putAccount(addr Address, a *TokenAccount) error
}

// transferTokens implements Txn.Transfer on top of raw account access.
func transferTokens(s accountRW, from, to Address, amount uint64, authority Address) error {
	src, err := s.Account(from)
	if err != nil {
		return fmt.Errorf("transfer source %s: %w", from, err)
	}
	dst, err := s.Account(to)
	if err != nil {
		return fmt.Errorf("transfer destination %s: %w", to, err)
	}
	if src.Owner != authority {
		return fmt.Errorf("%w: account %s", ErrTransferUnauthorized, from)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, src.Amount, amount)
	}
	if from == to {
		return nil
	}
	credited, err := checkedAddU64(dst.Amount, amount)
	if err != nil {
		return fmt.Errorf("transfer destination %s: %w", to, err)
	}
	src.Amount -= amount
	dst.Amount = credited
	if err := s.putAccount(from, src); err != nil {
		return err
	}
	return s.putAccount(to, dst)
}

// mintTokens implements Txn.Mint on top of raw account access.
func mintTokens(s accountRW, addr Address, amount uint64) error {
	a, err := s.Account(addr)
	if err != nil {
		return err
	}
	if a.Amount, err = checkedAddU64(a.Amount, amount); err != nil {
		return fmt.Errorf("mint %s: %w", addr, err)
	}
	return s.putAccount(addr, a)
}

func sortAddresses(addrs []Address) {
	slices.SortFunc(addrs, func(a, b Address) int { return bytes.Compare(a[:], b[:]) })
}

// MemStore is an in-memory Store. Update buffers writes in an overlay that
// is merged into the committed maps only when fn succeeds.
type MemStore struct {
	mu       sync.RWMutex
	squads   map[Address][]byte
	members  map[Address][]byte
	accounts map[Address][]byte
	index    map[Address][]Address // squad -> member addresses
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		squads:   make(map[Address][]byte),
		members:  make(map[Address][]byte),
		accounts: make(map[Address][]byte),
		index:    make(map[Address][]Address),
	}
}

// Update runs fn against a write buffer and commits it if fn returns nil.
func (s *MemStore) Update(fn func(Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn := newMemTxn(s, true)
	if err := fn(txn); err != nil {
		return err
	}
	txn.commit()
	return nil
}

// View runs fn against the committed state.
func (s *MemStore) View(fn func(Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newMemTxn(s, false))
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }

type memTxn struct {
	base     *MemStore
	writable bool
	squads   map[Address][]byte
	members  map[Address][]byte
	accounts map[Address][]byte
	index    map[Address][]Address // pending index additions
}

func newMemTxn(base *MemStore, writable bool) *memTxn {
	return &memTxn{
		base:     base,
		writable: writable,
		squads:   make(map[Address][]byte),
		members:  make(map[Address][]byte),
		accounts: make(map[Address][]byte),
		index:    make(map[Address][]Address),
	}
}

func (t *memTxn) commit() {
	for k, v := range t.squads {
		t.base.squads[k] = v
	}
	for k, v := range t.members {
		t.base.members[k] = v
	}
	for k, v := range t.accounts {
		t.base.accounts[k] = v
	}
	for k, v := range t.index {
		t.base.index[k] = append(t.base.index[k], v...)
	}
}

func lookup(pending, committed map[Address][]byte, addr Address) ([]byte, bool) {
	if v, ok := pending[addr]; ok {
		return v, true
	}
	v, ok := committed[addr]
	return v, ok
}

func (t *memTxn) Squad(addr Address) (*Squad, error) {
	data, ok := lookup(t.squads, t.base.squads, addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSquadNotFound, addr)
	}
	return DeserializeSquad(data)
}

func (t *memTxn) CreateSquad(addr Address, sq *Squad) error {
	if _, ok := lookup(t.squads, t.base.squads, addr); ok {
		return fmt.Errorf("%w: squad %s", ErrAccountExists, addr)
	}
	return t.writeSquad(addr, sq)
}

func (t *memTxn) PutSquad(addr Address, sq *Squad) error {
	if _, ok := lookup(t.squads, t.base.squads, addr); !ok {
		return fmt.Errorf("%w: %s", ErrSquadNotFound, addr)
	}
	return t.writeSquad(addr, sq)
}

func (t *memTxn) writeSquad(addr Address, sq *Squad) error {
	if !t.writable {
		return ErrReadOnlyTxn
	}
	if sq == nil {
		return fmt.Errorf("%w: squad", ErrNilParam)
	}
	data, err := SerializeSquad(sq)
	if err != nil {
		return err
	}
	t.squads[addr] = data
	return nil
}

func (t *memTxn) Member(addr Address) (*Member, error) {
	data, ok := lookup(t.members, t.base.members, addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, addr)
	}
	return DeserializeMember(data)
}

func (t *memTxn) CreateMember(addr Address, m *Member) error {
	if _, ok := lookup(t.members, t.base.members, addr); ok {
		return fmt.Errorf("%w: member %s", ErrAccountExists, addr)
	}
	if err := t.writeMember(addr, m); err != nil {
		return err
	}
	t.index[m.Squad] = append(t.index[m.Squad], addr)
	return nil
}

func (t *memTxn) PutMember(addr Address, m *Member) error {
	if _, ok := lookup(t.members, t.base.members, addr); !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, addr)
	}
	return t.writeMember(addr, m)
}

func (t *memTxn) writeMember(addr Address, m *Member) error {
	if !t.writable {
		return ErrReadOnlyTxn
	}
	if m == nil {
		return fmt.Errorf("%w: member", ErrNilParam)
	}
	t.members[addr] = SerializeMember(m)
	return nil
}

func (t *memTxn) SquadMembers(squad Address) ([]Address, error) {
	committed := t.base.index[squad]
	pending := t.index[squad]
	out := make([]Address, 0, len(committed)+len(pending))
	out = append(out, committed...)
	out = append(out, pending...)
	sortAddresses(out)
	return out, nil
}

func (t *memTxn) Squads() ([]Address, error) {
	out := make([]Address, 0, len(t.base.squads)+len(t.squads))
	for addr := range t.base.squads {
		out = append(out, addr)
	}
	for addr := range t.squads {
		if _, committed := t.base.squads[addr]; !committed {
			out = append(out, addr)
		}
	}
	sortAddresses(out)
	return out, nil
}

func (t *memTxn) Account(addr Address) (*TokenAccount, error) {
	data, ok := lookup(t.accounts, t.base.accounts, addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return DeserializeAccount(data)
}

func (t *memTxn) OpenAccount(addr, owner Address) error {
	if _, ok := lookup(t.accounts, t.base.accounts, addr); ok {
		return fmt.Errorf("%w: token account %s", ErrAccountExists, addr)
	}
	return t.putAccount(addr, &TokenAccount{Owner: owner})
}

func (t *memTxn) putAccount(addr Address, a *TokenAccount) error {
	if !t.writable {
		return ErrReadOnlyTxn
	}
	t.accounts[addr] = SerializeAccount(a)
	return nil
}

func (t *memTxn) Mint(addr Address, amount uint64) error {
	return mintTokens(t, addr, amount)
}

func (t *memTxn) Transfer(from, to Address, amount uint64, authority Address) error {
	return transferTokens(t, from, to, amount, authority)
}
