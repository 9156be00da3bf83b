package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsquads-go/squad"
	"github.com/bitfsorg/libsquads-go/workspace"
)

// ledgerCollector reports the current state of squads on every scrape.
// With no squads selected it reports every squad in the ledger.
type ledgerCollector struct {
	ws     *workspace.Workspace
	squads []squad.Address

	members *prometheus.Desc
	staked  *prometheus.Desc
	rewards *prometheus.Desc
	up      *prometheus.Desc
}

func newLedgerCollector(ws *workspace.Workspace, squads []squad.Address) *ledgerCollector {
	labels := []string{"squad", "name"}
	return &ledgerCollector{
		ws:      ws,
		squads:  squads,
		members: prometheus.NewDesc("squads_member_count", "Current number of squad members", labels, nil),
		staked:  prometheus.NewDesc("squads_total_staked", "Tokens currently staked in the squad", labels, nil),
		rewards: prometheus.NewDesc("squads_rewards_available", "Tokens waiting in the squad rewards vault", labels, nil),
		up:      prometheus.NewDesc("squads_ledger_up", "Whether the last ledger read succeeded", nil, nil),
	}
}

func (c *ledgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.members
	ch <- c.staked
	ch <- c.rewards
	ch <- c.up
}

func (c *ledgerCollector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()
	engine := c.ws.Engine
	up := 1.0
	records, err := c.selected(ctx)
	if err != nil {
		up = 0
	}
	for _, r := range records {
		sq := r.Squad
		rewards, err := engine.Balance(ctx, sq.RewardsVault)
		if err != nil {
			up = 0
			continue
		}
		id := r.Address.String()
		ch <- prometheus.MustNewConstMetric(c.members, prometheus.GaugeValue, float64(sq.MemberCount), id, sq.Name)
		ch <- prometheus.MustNewConstMetric(c.staked, prometheus.GaugeValue, float64(sq.TotalStaked), id, sq.Name)
		ch <- prometheus.MustNewConstMetric(c.rewards, prometheus.GaugeValue, float64(rewards), id, sq.Name)
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up)
}

// selected resolves the squads to report. A squad that cannot be read
// is skipped and reported as an error.
func (c *ledgerCollector) selected(ctx context.Context) ([]squad.SquadRecord, error) {
	engine := c.ws.Engine
	if len(c.squads) == 0 {
		return engine.Squads(ctx)
	}
	var errs []error
	out := make([]squad.SquadRecord, 0, len(c.squads))
	for _, addr := range c.squads {
		sq, err := engine.Squad(ctx, addr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, squad.SquadRecord{Address: addr, Squad: sq})
	}
	return out, errors.Join(errs...)
}

func serveMetricsCommand() *cobra.Command {
	var squadArgs []string
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Expose ledger and engine metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := fromContext(cmd.Context())
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			squads := make([]squad.Address, 0, len(squadArgs))
			for _, s := range squadArgs {
				addr, err := squad.ParseAddress(s)
				if err != nil {
					return err
				}
				squads = append(squads, addr)
			}
			rt.registry.MustRegister(newLedgerCollector(ws, squads))

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
			srv := &http.Server{
				Addr:              rt.cfg.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				<-cmd.Context().Done()
				_ = srv.Close()
			}()
			rt.logger.Info("serving metrics", "addr", rt.cfg.MetricsAddr, "selected_squads", len(squads))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&squadArgs, "squad", nil, "squad address to report (repeatable; default all squads)")
	return cmd
}
