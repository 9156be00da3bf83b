package squad

import (
	"context"
	"fmt"
)

// ActivityParams are the inputs of UpdateActivity.
type ActivityParams struct {
	Squad  Address
	Member Address // member identity
	Oracle Address // identity claiming to be the squad's oracle
	Score  uint32
}

// UpdateActivity overwrites a member's activity score. The caller must be
// the squad's designated oracle and must have signed. The score is stored
// as given; Weight clamps it.
func (e *Engine) UpdateActivity(ctx context.Context, p ActivityParams, signers Signers) error {
	err := e.update(ctx, "update_activity", func(txn Txn) error {
		sq, err := txn.Squad(p.Squad)
		if err != nil {
			return err
		}
		if p.Oracle != sq.Oracle || signers == nil || !signers.HasSigned(p.Oracle) {
			return fmt.Errorf("%w: %s", ErrUnauthorizedOracle, p.Oracle)
		}
		_, m, memberAddr, err := loadSquadMember(txn, p.Squad, p.Member)
		if err != nil {
			return err
		}

		m.ActivityScore = p.Score
		m.LastActivityTimestamp = e.now().Unix()
		return txn.PutMember(memberAddr, m)
	})
	if err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.activityUpdates.Inc()
	}
	e.logger.Info("activity updated",
		"squad", p.Squad.String(),
		"member", p.Member.String(),
		"score", p.Score,
	)
	return nil
}

// SetOracle replaces the squad's designated oracle. Only the squad
// authority may do this.
func (e *Engine) SetOracle(ctx context.Context, squad, oracle Address, signers Signers) error {
	if oracle.IsZero() {
		return fmt.Errorf("%w: oracle", ErrNilParam)
	}
	err := e.update(ctx, "set_oracle", func(txn Txn) error {
		sq, err := txn.Squad(squad)
		if err != nil {
			return err
		}
		if err := requireSigner(signers, sq.Authority); err != nil {
			return err
		}
		sq.Oracle = oracle
		return txn.PutSquad(squad, sq)
	})
	if err != nil {
		return err
	}
	e.logger.Info("oracle changed", "squad", squad.String(), "oracle", oracle.String())
	return nil
}
