// Command squadctl manages staking squads in a local ledger.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsquads-go/config"
	"github.com/bitfsorg/libsquads-go/squad"
	"github.com/bitfsorg/libsquads-go/workspace"
)

const programName = "squadctl"

var globalFlags = struct {
	dataDir  string
	password string
	debug    bool
}{}

type ctxKey struct{}

type session struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	logFile  io.Closer
}

func fromContext(ctx context.Context) *session {
	rt, _ := ctx.Value(ctxKey{}).(*session)
	return rt
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// newLogger builds the JSON logger. Records go to LogFile when set, else stderr.
func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	level := parseLevel(cfg.LogLevel)
	if globalFlags.debug {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	var closer io.Closer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: globalFlags.debug,
		Level:     level,
	}))
	return logger, closer, nil
}

func seedPassword() string {
	if globalFlags.password != "" {
		return globalFlags.password
	}
	return os.Getenv(config.EnvPrefix + "PASSWORD")
}

// openWorkspace unlocks the data directory with the engine wired to the
// command's logger and metrics registry.
func openWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	rt := fromContext(cmd.Context())
	return workspace.Open(rt.cfg, seedPassword(),
		squad.WithLogger(rt.logger),
		squad.WithPromRegistry(rt.registry),
	)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Manage staking squads and reward distribution",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&globalFlags.dataDir, "datadir", "d", "", "data directory (default ~/.squads)")
	root.PersistentFlags().StringVarP(&globalFlags.password, "password", "p", "", "seed password (or SQUADS_PASSWORD)")
	root.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(globalFlags.dataDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, closer, err := newLogger(cfg)
		if err != nil {
			return err
		}
		logger = logger.With("component", programName)
		rt := &session{
			cfg:      cfg,
			logger:   logger,
			registry: prometheus.NewRegistry(),
			logFile:  closer,
		}
		cmd.SetContext(context.WithValue(cmd.Context(), ctxKey{}, rt))
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if rt := fromContext(cmd.Context()); rt != nil && rt.logFile != nil {
			return rt.logFile.Close()
		}
		return nil
	}

	root.AddCommand(keysCommand())
	root.AddCommand(accountCommand())
	root.AddCommand(squadCommand())
	root.AddCommand(serveMetricsCommand())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
