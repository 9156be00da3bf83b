package squad

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketSquads       = []byte("squads")
	bucketMembers      = []byte("members")
	bucketSquadMembers = []byte("squad_members")
	bucketAccounts     = []byte("accounts")
)

// BoltStore is a Store backed by a bbolt database. Each Update is one bbolt
// read-write transaction, so a failed operation leaves no partial writes.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("squad: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("squad: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSquads, bucketMembers, bucketSquadMembers, bucketAccounts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("squad: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Update runs fn in a bbolt read-write transaction.
func (s *BoltStore) Update(fn func(Txn) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTxn{tx: tx})
	})
}

// View runs fn in a bbolt read-only transaction.
func (s *BoltStore) View(fn func(Txn) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTxn{tx: tx})
	})
}

type boltTxn struct {
	tx *bbolt.Tx
}

// get returns a copy of the value; bbolt memory is only valid inside the tx.
func (t *boltTxn) get(bucket []byte, addr Address) []byte {
	v := t.tx.Bucket(bucket).Get(addr[:])
	if v == nil {
		return nil
	}
	return bytes.Clone(v)
}

func (t *boltTxn) put(bucket []byte, addr Address, data []byte) error {
	if !t.tx.Writable() {
		return ErrReadOnlyTxn
	}
	if err := t.tx.Bucket(bucket).Put(addr[:], data); err != nil {
		return fmt.Errorf("boltstore: put %s: %w", bucket, err)
	}
	return nil
}

func (t *boltTxn) Squad(addr Address) (*Squad, error) {
	data := t.get(bucketSquads, addr)
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrSquadNotFound, addr)
	}
	return DeserializeSquad(data)
}

func (t *boltTxn) CreateSquad(addr Address, sq *Squad) error {
	if t.get(bucketSquads, addr) != nil {
		return fmt.Errorf("%w: squad %s", ErrAccountExists, addr)
	}
	return t.writeSquad(addr, sq)
}

func (t *boltTxn) PutSquad(addr Address, sq *Squad) error {
	if t.get(bucketSquads, addr) == nil {
		return fmt.Errorf("%w: %s", ErrSquadNotFound, addr)
	}
	return t.writeSquad(addr, sq)
}

func (t *boltTxn) writeSquad(addr Address, sq *Squad) error {
	if sq == nil {
		return fmt.Errorf("%w: squad", ErrNilParam)
	}
	data, err := SerializeSquad(sq)
	if err != nil {
		return err
	}
	return t.put(bucketSquads, addr, data)
}

func (t *boltTxn) Member(addr Address) (*Member, error) {
	data := t.get(bucketMembers, addr)
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, addr)
	}
	return DeserializeMember(data)
}

func (t *boltTxn) CreateMember(addr Address, m *Member) error {
	if t.get(bucketMembers, addr) != nil {
		return fmt.Errorf("%w: member %s", ErrAccountExists, addr)
	}
	if m == nil {
		return fmt.Errorf("%w: member", ErrNilParam)
	}
	if err := t.put(bucketMembers, addr, SerializeMember(m)); err != nil {
		return err
	}

	// Composite key: squad + member for prefix scanning.
	key := make([]byte, 0, 2*AddressSize)
	key = append(key, m.Squad[:]...)
	key = append(key, addr[:]...)
	if err := t.tx.Bucket(bucketSquadMembers).Put(key, []byte{}); err != nil {
		return fmt.Errorf("boltstore: put squad member index: %w", err)
	}
	return nil
}

func (t *boltTxn) PutMember(addr Address, m *Member) error {
	if t.get(bucketMembers, addr) == nil {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, addr)
	}
	if m == nil {
		return fmt.Errorf("%w: member", ErrNilParam)
	}
	return t.put(bucketMembers, addr, SerializeMember(m))
}

func (t *boltTxn) SquadMembers(squad Address) ([]Address, error) {
	var out []Address
	c := t.tx.Bucket(bucketSquadMembers).Cursor()
	for k, _ := c.Seek(squad[:]); k != nil && bytes.HasPrefix(k, squad[:]); k, _ = c.Next() {
		if len(k) != 2*AddressSize {
			return nil, fmt.Errorf("%w: squad member index key of %d bytes", ErrInvalidRecord, len(k))
		}
		var addr Address
		copy(addr[:], k[AddressSize:])
		out = append(out, addr)
	}
	return out, nil
}

// Squads walks the squads bucket; bbolt keeps keys in byte order.
func (t *boltTxn) Squads() ([]Address, error) {
	var out []Address
	err := t.tx.Bucket(bucketSquads).ForEach(func(k, _ []byte) error {
		if len(k) != AddressSize {
			return fmt.Errorf("%w: squad key of %d bytes", ErrInvalidRecord, len(k))
		}
		var addr Address
		copy(addr[:], k)
		out = append(out, addr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *boltTxn) Account(addr Address) (*TokenAccount, error) {
	data := t.get(bucketAccounts, addr)
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return DeserializeAccount(data)
}

func (t *boltTxn) OpenAccount(addr, owner Address) error {
	if t.get(bucketAccounts, addr) != nil {
		return fmt.Errorf("%w: token account %s", ErrAccountExists, addr)
	}
	return t.putAccount(addr, &TokenAccount{Owner: owner})
}

func (t *boltTxn) putAccount(addr Address, a *TokenAccount) error {
	return t.put(bucketAccounts, addr, SerializeAccount(a))
}

func (t *boltTxn) Mint(addr Address, amount uint64) error {
	return mintTokens(t, addr, amount)
}

func (t *boltTxn) Transfer(from, to Address, amount uint64, authority Address) error {
	return transferTokens(t, from, to, amount, authority)
}
