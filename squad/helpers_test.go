package squad

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Unix(1_700_000_000, 0)

func makeIdentity(seed byte) Address {
	var a Address
	for i := range a {
		a[i] = seed
	}
	return a
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	now    time.Time
	store  Store
	engine *Engine
}

// storeFactories runs a test against every Store implementation.
var storeFactories = map[string]func(t *testing.T) Store{
	"mem": func(t *testing.T) Store { return NewMemStore() },
	"bolt": func(t *testing.T) Store {
		t.Helper()
		s, err := OpenBoltStore(filepath.Join(t.TempDir(), "squads.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	},
}

func forEachStore(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			fn(t, newFixture(t, factory(t)))
		})
	}
}

func newFixture(t *testing.T, store Store) *fixture {
	f := &fixture{t: t, ctx: context.Background(), now: testEpoch, store: store}
	f.engine = NewEngine(store, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// createSquad creates a squad owned by authority with the authority as oracle.
func (f *fixture) createSquad(authority Address, name string, maxMembers uint8) Address {
	f.t.Helper()
	addr, err := f.engine.CreateSquad(f.ctx, CreateSquadParams{
		Authority:  authority,
		Name:       name,
		MaxMembers: maxMembers,
	}, NewSignerSet(authority))
	require.NoError(f.t, err)
	return addr
}

// fundedMember joins identity to squad and gives it a funded token account.
func (f *fixture) fundedMember(squad, identity Address, balance uint64) Address {
	f.t.Helper()
	_, err := f.engine.Join(f.ctx, squad, identity, NewSignerSet(identity))
	require.NoError(f.t, err)
	return f.account(identity, balance)
}

// account opens identity's associated account and mints balance into it.
func (f *fixture) account(identity Address, balance uint64) Address {
	f.t.Helper()
	acct, err := f.engine.OpenAccount(f.ctx, identity)
	require.NoError(f.t, err)
	if balance > 0 {
		require.NoError(f.t, f.engine.Mint(f.ctx, acct, balance))
	}
	return acct
}

func (f *fixture) stake(squad, identity, source Address, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.engine.Stake(f.ctx, StakeParams{
		Squad: squad, Member: identity, Source: source, Amount: amount,
	}, NewSignerSet(identity)))
}

func (f *fixture) squad(addr Address) *Squad {
	f.t.Helper()
	sq, err := f.engine.Squad(f.ctx, addr)
	require.NoError(f.t, err)
	return sq
}

func (f *fixture) member(squad, identity Address) *Member {
	f.t.Helper()
	m, err := f.engine.Member(f.ctx, squad, identity)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) balance(acct Address) uint64 {
	f.t.Helper()
	b, err := f.engine.Balance(f.ctx, acct)
	require.NoError(f.t, err)
	return b
}

// requireStakeInvariant checks total_staked == sum(stake_amount).
func (f *fixture) requireStakeInvariant(squad Address) {
	f.t.Helper()
	sq := f.squad(squad)
	records, err := f.engine.Members(f.ctx, squad)
	require.NoError(f.t, err)

	var sum uint64
	for _, r := range records {
		sum += r.Member.StakeAmount
	}
	require.Equal(f.t, sq.TotalStaked, sum, "total_staked must equal the sum of member stakes")
	require.LessOrEqual(f.t, sq.MemberCount, sq.MaxMembers)
	require.Len(f.t, records, int(sq.MemberCount))
	require.Equal(f.t, sq.TotalStaked, f.balance(StakeVault(squad)), "stake vault must hold total_staked")
}
