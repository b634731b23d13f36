// Package orchestrator wires the supervisor, exporter, proxy generator,
// codec inspector and observability together for one run of the CLI.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jeselxe/video-cropper/internal/config"
	"github.com/jeselxe/video-cropper/internal/export"
	"github.com/jeselxe/video-cropper/internal/logging"
	"github.com/jeselxe/video-cropper/internal/metrics"
	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/preflight"
	"github.com/jeselxe/video-cropper/internal/probe"
	"github.com/jeselxe/video-cropper/internal/process"
	"github.com/jeselxe/video-cropper/internal/proxy"
	"github.com/jeselxe/video-cropper/internal/stats"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

// ShutdownTimeout bounds Shutdown when the caller passes no deadline.
const ShutdownTimeout = 10 * time.Second

// ErrPreflightFailed is returned by Start when a required check fails.
var ErrPreflightFailed = errors.New("preflight checks failed (use --skip-preflight to override)")

// Options holds run-specific settings that are not part of the config file.
type Options struct {
	Version string

	// Sinks receive every export event in addition to the built-in ones.
	Sinks []notify.Sink

	// Out receives preflight results. Defaults to stderr.
	Out io.Writer
}

// Orchestrator coordinates all components for one CLI invocation.
type Orchestrator struct {
	config *config.Config
	logger *slog.Logger
	out    io.Writer

	registry      *prometheus.Registry
	metrics       *metrics.Collector
	metricsServer *metrics.Server

	supervisor *supervisor.Supervisor
	runner     *process.FFmpegRunner
	tracker    *stats.Tracker
	exporter   *export.Exporter
	proxies    *proxy.Generator
	inspector  *probe.Inspector

	startTime time.Time
}

// New creates an Orchestrator with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry, opts.Version)

	sup := supervisor.New(supervisor.Config{
		Logger:      logger,
		Callbacks:   collector.SupervisorCallbacks(),
		TailLines:   cfg.TailLines,
		StopTimeout: cfg.StopTimeout.Duration,
	})
	runner := process.NewFFmpegRunner(cfg.FFmpegConfig())
	tracker := stats.NewTracker()

	sinks := append([]notify.Sink{tracker, collector, notify.NewLogSink(logger)}, opts.Sinks...)

	o := &Orchestrator{
		config:     cfg,
		logger:     logging.WithComponent(logger, "orchestrator"),
		out:        out,
		registry:   registry,
		metrics:    collector,
		supervisor: sup,
		runner:     runner,
		tracker:    tracker,
		exporter: export.New(export.Config{
			Supervisor:  sup,
			Runner:      runner,
			Sink:        notify.Fanout(sinks...),
			Logger:      logger,
			RunTimeout:  cfg.RunTimeout.Duration,
			StopTimeout: cfg.StopTimeout.Duration,
			OnStart:     tracker.Start,
		}),
		proxies: proxy.New(proxy.Config{
			Supervisor: sup,
			Runner:     runner,
			Resolver:   cfg.Resolver(),
			Logger:     logger,
			Callbacks:  collector.ProxyCallbacks(),
		}),
		inspector: probe.NewInspector(sup, cfg.FFprobeRunner(), logger),
		startTime: time.Now(),
	}
	if cfg.MetricsAddr != "" {
		o.metricsServer = metrics.NewServer(cfg.MetricsAddr, registry, logger)
	}
	return o
}

// Preflight runs the startup checks against the configured tools.
func (o *Orchestrator) Preflight(ctx context.Context) *preflight.Result {
	var dataDir string
	if dir, err := o.config.Resolver().DataDir(); err == nil {
		dataDir = dir
	} else {
		o.logger.Warn("data_dir_unresolved", "error", err)
	}

	return preflight.RunAll(ctx, preflight.Options{
		FFmpegPath:  o.config.FFmpegPath,
		FFprobePath: o.config.FFprobeRunner().BinaryPath(),
		DataDir:     dataDir,
		HWAccel:     o.config.Proxy.HWAccel,
		Supervisor:  o.supervisor,
	})
}

// Start runs preflight checks unless skipped, then starts the metrics
// server if one is configured.
func (o *Orchestrator) Start(ctx context.Context) error {
	if !o.config.SkipPreflight {
		result := o.Preflight(ctx)
		preflight.PrintResults(o.out, result)
		if !result.Passed {
			return ErrPreflightFailed
		}
	}

	if o.metricsServer != nil {
		if err := o.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}
	return nil
}

// ExportCommand returns the ffmpeg invocation an export of req would run.
func (o *Orchestrator) ExportCommand(req export.Request) (process.Command, error) {
	return o.exporter.Command(req)
}

// Export starts req and returns once ffmpeg is running.
func (o *Orchestrator) Export(ctx context.Context, req export.Request) (export.Job, error) {
	return o.exporter.Export(ctx, req)
}

// RunExport starts req and blocks until it delivers its terminal event.
// Cancelling ctx, SIGINT or SIGTERM stop the export; it still finishes with
// a terminal event. The returned error covers only validation and spawn
// failures; how the export ended is in the returned JobStats.
func (o *Orchestrator) RunExport(ctx context.Context, req export.Request) (stats.JobStats, error) {
	job, err := o.exporter.Export(ctx, req)
	if err != nil {
		return stats.JobStats{}, err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.exporter.Wait()
	}()

	select {
	case <-done:
	case sig := <-sigCh:
		o.logger.Info("received_signal", "signal", sig.String(), "job_id", job.ID)
		o.cancel(job.ID)
		<-done
	case <-ctx.Done():
		o.logger.Info("context_cancelled", "job_id", job.ID)
		o.cancel(job.ID)
		<-done
	}

	js, _ := o.tracker.Job(job.ID)
	return js, nil
}

func (o *Orchestrator) cancel(id string) {
	if err := o.exporter.Cancel(id); err != nil && !errors.Is(err, export.ErrJobNotFound) {
		o.logger.Warn("export_cancel_failed", "job_id", id, "error", err)
	}
}

// Proxy returns the path of a proxy rendition of input, generating it if
// the cache has none.
func (o *Orchestrator) Proxy(ctx context.Context, input string) (string, error) {
	return o.proxies.Generate(ctx, input)
}

// ProxyPlan reports where the proxy of input lives and whether it exists.
func (o *Orchestrator) ProxyPlan(input string) (proxy.Plan, error) {
	return o.proxies.Plan(input)
}

// ProxyCommand returns the ffmpeg invocation that builds the proxy of input.
func (o *Orchestrator) ProxyCommand(input string) (process.Command, error) {
	plan, err := o.proxies.Plan(input)
	if err != nil {
		return process.Command{}, err
	}
	return o.proxies.Command(plan), nil
}

// CodecCommand returns the ffprobe invocation Codec runs for path.
func (o *Orchestrator) CodecCommand(path string) process.Command {
	return o.config.FFprobeRunner().CodecCommand(path)
}

// Codec returns the codec of the first video stream of path.
func (o *Orchestrator) Codec(ctx context.Context, path string) (string, error) {
	return o.inspector.Codec(ctx, path)
}

// Shutdown stops running exports, waits for their terminal events and
// stops the metrics server.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ShutdownTimeout)
		defer cancel()
	}

	o.exporter.CancelAll()

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.exporter.Wait()
	}()

	var errs []error
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("exports still running: %w", ctx.Err()))
	}

	if o.metricsServer != nil {
		if err := o.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Summary formats the exit summary of everything this run did.
func (o *Orchestrator) Summary() string {
	hits, misses := o.metrics.CacheLookups()
	cfg := stats.SummaryConfig{
		Duration:    time.Since(o.startTime),
		ExitCodes:   o.metrics.ExitCodes(),
		CacheHits:   hits,
		CacheMisses: misses,
	}
	if o.metricsServer != nil {
		cfg.MetricsAddr = o.metricsServer.Addr()
	}

	if len(o.tracker.IDs()) == 0 {
		return stats.FormatSummary(nil, cfg)
	}
	snap := o.tracker.Snapshot()
	return stats.FormatSummary(&snap, cfg)
}

// MetricsAddr returns the metrics endpoint address, or "" when disabled.
func (o *Orchestrator) MetricsAddr() string {
	if o.metricsServer == nil {
		return ""
	}
	return o.metricsServer.Addr()
}

// Tracker returns the job tracker for external access.
func (o *Orchestrator) Tracker() *stats.Tracker {
	return o.tracker
}

// Metrics returns the metrics collector for external access.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.metrics
}

// Registry returns the Prometheus registry for external access.
func (o *Orchestrator) Registry() *prometheus.Registry {
	return o.registry
}
