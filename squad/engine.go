package squad

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine executes squad operations against a Store. Each operation is one
// Store.Update; errors abort it with no partial effect.
type Engine struct {
	store   Store
	now     Clock
	logger  *slog.Logger
	metrics *engineMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.now = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPromRegistry registers engine metrics with registry.
func WithPromRegistry(registry prometheus.Registerer) Option {
	return func(e *Engine) {
		if registry != nil {
			e.metrics = newEngineMetrics(registry)
		}
	}
}

// NewEngine creates an Engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "squad")
	return e
}

// update runs fn as one atomic unit and records failures under op.
func (e *Engine) update(ctx context.Context, op string, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.store.Update(fn)
	if err != nil {
		e.logger.Debug("operation failed", "op", op, "error", err)
		if e.metrics != nil {
			e.metrics.opErrors.WithLabelValues(op).Inc()
		}
	}
	return err
}

func requireSigner(signers Signers, id Address) error {
	if signers == nil || !signers.HasSigned(id) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, id)
	}
	return nil
}

// Squad returns the squad record at addr.
func (e *Engine) Squad(ctx context.Context, addr Address) (*Squad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sq *Squad
	err := e.store.View(func(txn Txn) error {
		var err error
		sq, err = txn.Squad(addr)
		return err
	})
	return sq, err
}

// Member returns identity's member record in squad.
func (e *Engine) Member(ctx context.Context, squad, identity Address) (*Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m *Member
	err := e.store.View(func(txn Txn) error {
		var err error
		m, err = txn.Member(MemberAddress(squad, identity))
		return err
	})
	return m, err
}

// Members returns every member record of squad in address order.
func (e *Engine) Members(ctx context.Context, squad Address) ([]MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []MemberRecord
	err := e.store.View(func(txn Txn) error {
		if _, err := txn.Squad(squad); err != nil {
			return err
		}
		var err error
		out, err = loadMembers(txn, squad)
		return err
	})
	return out, err
}

func loadMembers(txn Txn, squad Address) ([]MemberRecord, error) {
	addrs, err := txn.SquadMembers(squad)
	if err != nil {
		return nil, err
	}
	out := make([]MemberRecord, 0, len(addrs))
	for _, addr := range addrs {
		m, err := txn.Member(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, MemberRecord{Address: addr, Member: m})
	}
	return out, nil
}

// Squads returns every squad in address order.
func (e *Engine) Squads(ctx context.Context) ([]SquadRecord, error) {
	return e.listSquads(ctx, func(*Squad) bool { return true })
}

// SquadsByAuthority returns the squads created by authority.
func (e *Engine) SquadsByAuthority(ctx context.Context, authority Address) ([]SquadRecord, error) {
	return e.listSquads(ctx, func(sq *Squad) bool { return sq.Authority == authority })
}

func (e *Engine) listSquads(ctx context.Context, keep func(*Squad) bool) ([]SquadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []SquadRecord
	err := e.store.View(func(txn Txn) error {
		addrs, err := txn.Squads()
		if err != nil {
			return err
		}
		for _, addr := range addrs {
			sq, err := txn.Squad(addr)
			if err != nil {
				return err
			}
			if keep(sq) {
				out = append(out, SquadRecord{Address: addr, Squad: sq})
			}
		}
		return nil
	})
	return out, err
}

// Balance returns the token balance of account.
func (e *Engine) Balance(ctx context.Context, account Address) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var amount uint64
	err := e.store.View(func(txn Txn) error {
		a, err := txn.Account(account)
		if err != nil {
			return err
		}
		amount = a.Amount
		return nil
	})
	return amount, err
}

// OpenAccount creates owner's associated token account and returns its address.
func (e *Engine) OpenAccount(ctx context.Context, owner Address) (Address, error) {
	addr := AssociatedAccount(owner)
	err := e.update(ctx, "open_account", func(txn Txn) error {
		return txn.OpenAccount(addr, owner)
	})
	if err != nil {
		return ZeroAddress, err
	}
	e.logger.Info("token account opened", "account", addr.String(), "owner", owner.String())
	return addr, nil
}

// Mint credits amount to account in the local token ledger.
func (e *Engine) Mint(ctx context.Context, account Address, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	err := e.update(ctx, "mint", func(txn Txn) error {
		return txn.Mint(account, amount)
	})
	if err != nil {
		return err
	}
	e.logger.Info("tokens minted", "account", account.String(), "amount", amount)
	return nil
}

// FundRewards moves amount from a funder-owned account into the squad's
// rewards vault.
func (e *Engine) FundRewards(ctx context.Context, squad, funder, source Address, amount uint64, signers Signers) error {
	if err := requireSigner(signers, funder); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	err := e.update(ctx, "fund_rewards", func(txn Txn) error {
		sq, err := txn.Squad(squad)
		if err != nil {
			return err
		}
		return txn.Transfer(source, sq.RewardsVault, amount, funder)
	})
	if err != nil {
		return err
	}
	e.logger.Info("rewards funded", "squad", squad.String(), "amount", amount)
	return nil
}
