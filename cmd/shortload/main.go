package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/shortload/internal/catalog"
	"github.com/torosent/shortload/internal/config"
	"github.com/torosent/shortload/internal/executor"
	"github.com/torosent/shortload/internal/logging"
	"github.com/torosent/shortload/internal/metrics"
	"github.com/torosent/shortload/internal/output"
	"github.com/torosent/shortload/internal/recorder"
	"github.com/torosent/shortload/internal/runner"
	"github.com/torosent/shortload/internal/threshold"
	"github.com/torosent/shortload/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

var errThresholdsFailed = errors.New("one or more thresholds failed")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortload",
		Short: "Closed-loop load generator for URL shortener services",
		Long: `shortload keeps a fixed number of virtual users busy against a URL shortener.
Each user repeatedly picks a weighted request type, sends it, and checks the
status code against the type's acceptable set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}
	config.RegisterFlags(cmd)
	return cmd
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	table, err := loadTable(cfg.CatalogFile)
	if err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	tp, err := tracing.Init(ctx, cfg.Tracing, tracing.Run{ID: runID, Host: cfg.Host, Users: cfg.Users})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	transport, err := executor.NewHTTPTransport(cfg.Host, cfg.Timeout)
	if err != nil {
		return err
	}
	defer transport.CloseIdleConnections()

	headers := executor.DefaultHeaders()
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	exec := executor.New(transport, cfg.ValueSpace(),
		executor.WithHeaders(headers),
		executor.WithTracing(tp))

	names := make([]string, 0, table.Len())
	for _, rt := range table.Types() {
		names = append(names, rt.Name)
	}
	collector := metrics.NewCollector(names...)
	sinks := recorder.Fanout{collector}
	var prom *metrics.PromSink
	if cfg.MetricsAddr != "" {
		prom = metrics.NewPromSink()
		sinks = append(sinks, prom)
	}
	rec := recorder.New(sinks, recorder.Options{
		BufferSize: cfg.RecorderBuffer,
		Logger:     logger,
		LogErrors:  cfg.LogErrors,
	})

	pool, err := runner.New(runner.Options{
		Users:     cfg.Users,
		SpawnRate: cfg.SpawnRate,
		Duration:  cfg.Duration,
		Seed:      cfg.Seed,
		Table:     table,
		Executor:  exec,
		Recorder:  rec,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	logger.Info("load test starting",
		zap.String("host", cfg.Host),
		zap.Int("request_types", table.Len()),
		zap.Int("id_min", cfg.IDMin),
		zap.Int("id_max", cfg.IDMax))

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Quiet {
		progress = output.NewProgressReporter(collector, pool, progressInterval, stdout)
		progress.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stopRun := context.WithCancel(gctx)
	defer stopRun()
	if prom != nil {
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := prom.Serve(runCtx, cfg.MetricsAddr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	scaleCh := make(chan os.Signal, 1)
	if up, down, ok := notifyScaleSignals(scaleCh); ok {
		defer signal.Stop(scaleCh)
		g.Go(func() error {
			scaleUsers(runCtx, scaleCh, up, down, cfg.Users, pool, logger)
			return nil
		})
	}

	var result runner.Result
	g.Go(func() error {
		defer stopRun()
		collector.Start()
		result = pool.Run(runCtx)
		return nil
	})
	serveErr := g.Wait()

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(stdout)
	}
	rec.Close()
	if dropped := rec.Dropped(); dropped > 0 {
		logger.Warn("results dropped by recorder; increase --recorder-buffer",
			zap.Int64("dropped", dropped),
			zap.Int64("recorded", rec.Recorded()))
	}
	logger.Info("load test finished",
		zap.Int64("users", result.Users),
		zap.Int64("requests", result.Requests),
		zap.Duration("duration", result.Duration))

	stats := collector.Stats(result.Duration)
	results := threshold.NewEvaluator(thresholds).Evaluate(stats)

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, stats, results); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, stats)
		output.PrintThresholdResults(stdout, results)
	}

	if serveErr != nil {
		return serveErr
	}
	if threshold.Failed(results) {
		return errThresholdsFailed
	}
	return nil
}

func loadTable(path string) (*catalog.WeightTable, error) {
	types := catalog.Default()
	if path != "" {
		loaded, err := catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}
		types = loaded
	}
	return catalog.NewWeightTable(types)
}
