package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsquads-go/squad"
	"github.com/bitfsorg/libsquads-go/workspace"
)

type memberView struct {
	Address       string `json:"address" yaml:"address"`
	Identity      string `json:"identity" yaml:"identity"`
	Stake         uint64 `json:"stake" yaml:"stake"`
	Joined        string `json:"joined" yaml:"joined"`
	LastActivity  string `json:"last_activity" yaml:"last_activity"`
	ActivityScore uint32 `json:"activity_score" yaml:"activity_score"`
	Weight        uint64 `json:"weight" yaml:"weight"`
}

type squadView struct {
	Address      string       `json:"address" yaml:"address"`
	Name         string       `json:"name" yaml:"name"`
	Authority    string       `json:"authority" yaml:"authority"`
	Oracle       string       `json:"oracle" yaml:"oracle"`
	MaxMembers   uint8        `json:"max_members" yaml:"max_members"`
	MemberCount  uint8        `json:"member_count" yaml:"member_count"`
	TotalStaked  uint64       `json:"total_staked" yaml:"total_staked"`
	RewardsVault string       `json:"rewards_vault" yaml:"rewards_vault"`
	Rewards      uint64       `json:"rewards_available" yaml:"rewards_available"`
	Members      []memberView `json:"members" yaml:"members"`
}

type squadSummary struct {
	Address     string `json:"address" yaml:"address"`
	Name        string `json:"name" yaml:"name"`
	Authority   string `json:"authority" yaml:"authority"`
	MaxMembers  uint8  `json:"max_members" yaml:"max_members"`
	MemberCount uint8  `json:"member_count" yaml:"member_count"`
	TotalStaked uint64 `json:"total_staked" yaml:"total_staked"`
}

type payoutView struct {
	Member      string `json:"member" yaml:"member"`
	Destination string `json:"destination" yaml:"destination"`
	Weight      uint64 `json:"weight" yaml:"weight"`
	Amount      uint64 `json:"amount" yaml:"amount"`
}

type reportView struct {
	Squad       string       `json:"squad" yaml:"squad"`
	Available   uint64       `json:"available" yaml:"available"`
	TotalWeight string       `json:"total_weight" yaml:"total_weight"`
	Distributed uint64       `json:"distributed" yaml:"distributed"`
	Dust        uint64       `json:"dust" yaml:"dust"`
	Payouts     []payoutView `json:"payouts" yaml:"payouts"`
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func loadSquadView(cmd *cobra.Command, ws *workspace.Workspace, addr squad.Address) (*squadView, error) {
	ctx := cmd.Context()
	sq, err := ws.Engine.Squad(ctx, addr)
	if err != nil {
		return nil, err
	}
	records, err := ws.Engine.Members(ctx, addr)
	if err != nil {
		return nil, err
	}
	rewards, err := ws.Engine.Balance(ctx, sq.RewardsVault)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	view := &squadView{
		Address:      addr.String(),
		Name:         sq.Name,
		Authority:    sq.Authority.String(),
		Oracle:       sq.Oracle.String(),
		MaxMembers:   sq.MaxMembers,
		MemberCount:  sq.MemberCount,
		TotalStaked:  sq.TotalStaked,
		RewardsVault: sq.RewardsVault.String(),
		Rewards:      rewards,
		Members:      make([]memberView, 0, len(records)),
	}
	for _, r := range records {
		m := r.Member
		w, err := squad.Weight(m.StakeAmount, now-m.JoinTimestamp, sq.MemberCount, m.ActivityScore)
		if err != nil {
			return nil, err
		}
		view.Members = append(view.Members, memberView{
			Address:       r.Address.String(),
			Identity:      m.Authority.String(),
			Stake:         m.StakeAmount,
			Joined:        formatUnix(m.JoinTimestamp),
			LastActivity:  formatUnix(m.LastActivityTimestamp),
			ActivityScore: m.ActivityScore,
			Weight:        w,
		})
	}
	return view, nil
}

func newReportView(r *squad.DistributionReport) *reportView {
	v := &reportView{
		Squad:       r.Squad.String(),
		Available:   r.Available,
		TotalWeight: r.TotalWeight.String(),
		Distributed: r.Distributed,
		Dust:        r.Dust,
		Payouts:     make([]payoutView, 0, len(r.Payouts)),
	}
	for _, p := range r.Payouts {
		v.Payouts = append(v.Payouts, payoutView{
			Member:      p.Member.String(),
			Destination: p.Destination.String(),
			Weight:      p.Weight,
			Amount:      p.Amount,
		})
	}
	return v
}

func newSquadSummaries(records []squad.SquadRecord) []squadSummary {
	out := make([]squadSummary, 0, len(records))
	for _, r := range records {
		out = append(out, squadSummary{
			Address:     r.Address.String(),
			Name:        r.Squad.Name,
			Authority:   r.Squad.Authority.String(),
			MaxMembers:  r.Squad.MaxMembers,
			MemberCount: r.Squad.MemberCount,
			TotalStaked: r.Squad.TotalStaked,
		})
	}
	return out
}
