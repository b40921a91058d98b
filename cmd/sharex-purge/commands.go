package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sharexpurge/internal/adapters/deleter"
	"sharexpurge/internal/adapters/historyfile"
	"sharexpurge/internal/config"
	"sharexpurge/internal/logger"
	"sharexpurge/internal/metrics"
	"sharexpurge/internal/service"
)

// GlobalFlags holds persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
}

func newRootCommand() *cobra.Command {
	v := config.New()
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "sharex-purge",
		Short: "Delete ShareX uploads from the remote host",
		Long: `sharex-purge reads the ShareX upload history and deletes the remote
copies of recent uploads through their deletion URLs.

Examples:
  sharex-purge purge                          # Imgur uploads from the last 24h
  sharex-purge purge --window 168h            # last week
  sharex-purge purge --all --dry-run          # list everything, delete nothing
  sharex-purge purge --path ./History.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to config file (optional)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "console log format: text, json")
	root.PersistentFlags().String("log-file", "", "also write logs to this rotating file")
	bindFlag(v, root.PersistentFlags().Lookup("log-level"), "log.level")
	bindFlag(v, root.PersistentFlags().Lookup("log-format"), "log.format")
	bindFlag(v, root.PersistentFlags().Lookup("log-file"), "log.file")

	root.AddCommand(
		newPurgeCommand(v, flags),
		newVersionCommand(),
	)
	return root
}

func newPurgeCommand(v *viper.Viper, global *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "purge",
		Aliases: []string{"purge-online", "mass-delete"},
		Short:   "Delete uploads recorded in the ShareX history",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, global.ConfigPath)
			if err != nil {
				return err
			}
			return runPurge(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringP("path", "p", "", "path to History.json (default <documents>/ShareX/History.json)")
	f.String("host", config.DefaultHost, "only delete uploads sent to this host")
	f.Duration("window", 24*time.Hour, "only delete uploads newer than this")
	f.String("since", "", "only delete uploads after this RFC3339 time (overrides --window)")
	f.Bool("all", false, "ignore upload time and select the whole history")
	f.Int("max-batch", config.DefaultMaxBatch, "refuse to send more deletions than this")
	f.Duration("timeout", 0, "per-request timeout (0 uses the transport default)")
	f.Bool("dry-run", false, "list the selected deletion URLs without deleting")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile when done")

	bindFlag(v, f.Lookup("path"), "history.path")
	bindFlag(v, f.Lookup("host"), "history.host")
	bindFlag(v, f.Lookup("window"), "history.window")
	bindFlag(v, f.Lookup("since"), "history.since")
	bindFlag(v, f.Lookup("all"), "history.all")
	bindFlag(v, f.Lookup("max-batch"), "delete.max_batch")
	bindFlag(v, f.Lookup("timeout"), "delete.request_timeout")
	bindFlag(v, f.Lookup("dry-run"), "delete.dry_run")
	bindFlag(v, f.Lookup("metrics-file"), "metrics.file")
	return cmd
}

func runPurge(cmd *cobra.Command, cfg *config.Config) error {
	log, closer, err := logger.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	registry := prometheus.NewRegistry()
	if cfg.Metrics.File != "" {
		if err := metrics.Register(registry); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	path := cfg.History.Path
	if path == "" {
		path = historyfile.DefaultPath()
	}

	bulk := service.NewBulkDeleter(deleter.NewHTTPDeleter(cfg.Delete.RequestTimeout), cfg.Delete.MaxBatch, log)
	orchestrator := service.NewOrchestrator(historyfile.NewReader(), bulk, log)

	result, err := orchestrator.RunPurge(cmd.Context(), service.PurgeRequest{
		Path:     path,
		Criteria: cfg.Criteria(time.Now()),
		DryRun:   cfg.Delete.DryRun,
		Progress: func(completed, total int) {
			log.Debug("deletion progress", slog.Int("completed", completed), slog.Int("total", total))
		},
	})
	if err != nil {
		return err
	}

	service.PrintSummary(cmd.OutOrStdout(), result)

	if cfg.Metrics.File != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.File, registry); err != nil {
			log.Warn("failed to write metrics", slog.String("file", cfg.Metrics.File), slog.Any("error", err))
		}
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

// bindFlag ties a flag to a viper key so flags override env and file values.
func bindFlag(v *viper.Viper, f *pflag.Flag, key string) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}
