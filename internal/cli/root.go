// Package cli implements the origamictl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"origamicore/internal/blob"
	"origamicore/internal/config"
	"origamicore/internal/core"
	"origamicore/internal/export"
)

// app carries the state shared by a single command invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	stdout  io.Writer
	stderr  io.Writer

	cfg      config.Config
	logger   *slog.Logger
	store    core.DocumentStore
	svc      *core.Service
	registry *prometheus.Registry
	trace    *os.File
	spans    *core.SpanLog
	closed   bool
}

// NewRootCommand builds the command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root, a := newRoot(stdout, stderr)
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		return a.teardown()
	}
	return root
}

func newRoot(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{v: config.New(), stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "origamictl",
		Short:         "Edit and archive DNA origami designs",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "path to a YAML config file (default ./origamicore.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("storage", "", "document store: memory, sqlite or postgres")
	flags.String("sqlite-path", "", "sqlite database file")
	flags.String("blob", "", "archive blob store: fs, memory or s3")
	flags.String("blob-root", "", "archive directory for the fs blob store")
	for key, flag := range map[string]string{
		"log.level":           "log-level",
		"storage.driver":      "storage",
		"storage.sqlite_path": "sqlite-path",
		"blob.driver":         "blob",
		"blob.fs_root":        "blob-root",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.newCommand(),
		a.listCommand(),
		a.showCommand(),
		a.applyCommand(),
		a.importCommand(),
		a.renameCommand(),
		a.deleteCommand(),
		a.exportCommand(),
		a.revisionsCommand(),
		a.restoreCommand(),
	)
	return root, a
}

// Run executes the command line and returns the process exit code. The
// store is closed whether or not the command succeeds.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, a := newRoot(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	err = errors.Join(err, a.teardown())
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level, _ := cfg.Log.SlogLevel()
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		a.logger = slog.New(slog.NewJSONHandler(a.stderr, handlerOpts))
	} else {
		a.logger = slog.New(slog.NewTextHandler(a.stderr, handlerOpts))
	}

	opts := []core.ServiceOption{core.WithLogger(a.logger)}
	switch cfg.Observability.Metrics {
	case "expvar":
		opts = append(opts, core.WithMetricsRecorder(core.NewExpvarMetrics("")))
	case "prometheus":
		a.registry = prometheus.NewRegistry()
		rec, err := core.NewPrometheusMetricsRecorder(a.registry)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		opts = append(opts, core.WithMetricsRecorder(rec))
	}
	if cfg.Observability.TraceFile != "" {
		f, err := os.OpenFile(cfg.Observability.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		a.trace = f
		a.spans = core.NewSpanLog(f, nil)
		opts = append(opts, core.WithTracer(a.spans))
	}

	store, err := core.OpenDocumentStoreWith(cfg.StorageConfig(), core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	a.store = store
	a.svc = core.NewService(store, opts...)
	a.logger.Debug("document store ready", "driver", cfg.Storage.Driver)
	return ctx.Err()
}

// teardown is idempotent and tolerates a failed setup.
func (a *app) teardown() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var errs []error
	if a.registry != nil && a.cfg.Observability.MetricsFile != "" {
		errs = append(errs, a.writeMetrics(a.cfg.Observability.MetricsFile))
	}
	if a.trace != nil {
		errs = append(errs, a.spans.Err(), a.trace.Close())
	}
	if closer, ok := a.store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func (a *app) writeMetrics(path string) (err error) {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close metrics: %w", cerr)
		}
	}()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func (a *app) archiver(ctx context.Context) (*export.Archiver, error) {
	store, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return nil, err
	}
	return export.NewArchiver(store, export.WithLogger(a.logger)), nil
}
