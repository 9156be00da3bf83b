package squad

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	squadsCreated   prometheus.Counter
	membersJoined   prometheus.Counter
	stakeDeposited  prometheus.Counter
	stakeWithdrawn  prometheus.Counter
	activityUpdates prometheus.Counter
	distributions   prometheus.Counter
	rewardsPaid     prometheus.Counter
	rewardsDust     *prometheus.GaugeVec
	opErrors        *prometheus.CounterVec
}

func newEngineMetrics(registry prometheus.Registerer) *engineMetrics {
	factory := promauto.With(registry)
	return &engineMetrics{
		squadsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "squads_created_total",
			Help: "Total number of squads created",
		}),
		membersJoined: factory.NewCounter(prometheus.CounterOpts{
			Name: "squads_members_joined_total",
			Help: "Total number of members joined across all squads",
		}),
		stakeDeposited: factory.NewCounter(prometheus.CounterOpts{
			Name: "squads_stake_deposited_total",
			Help: "Total token amount staked",
		}),
		stakeWithdrawn: factory.NewCounter(prometheus.CounterOpts{
			Name: "squads_stake_withdrawn_total",
			Help: "Total token amount unstaked",
		}),
		activityUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "squads_activity_updates_total",
			Help: "Total number of oracle activity score updates",
		}),
		distributions: factory.NewCounter(prometheus.CounterOpts{
			Name: "squads_distributions_total",
			Help: "Total number of completed reward distributions",
		}),
		rewardsPaid: factory.NewCounter(prometheus.CounterOpts{
			Name: "squads_rewards_paid_total",
			Help: "Total token amount paid out as rewards",
		}),
		// Dust stays in the vault and is split again next time, so it is
		// a per-squad level rather than a running total.
		rewardsDust: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "squads_rewards_dust",
			Help: "Token amount left in the rewards vault by the squad's most recent distribution",
		}, []string{"squad"}),
		opErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "squads_operation_errors_total",
			Help: "Total number of failed operations by operation name",
		}, []string{"op"}),
	}
}
