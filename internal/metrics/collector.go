// Package metrics provides Prometheus metrics for video-cropper.
//
// Every Collector owns its metric vectors and registers them on the registry
// it is given, so tests and embedders can run several side by side.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/proxy"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

const namespace = "video_cropper"

// Collector manages all Prometheus metrics for the process supervisor, the
// proxy cache and the export event stream.
type Collector struct {
	// --- Processes ---
	processStarts   *prometheus.CounterVec
	processExits    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	activeProcesses *prometheus.GaugeVec
	progressLines   *prometheus.CounterVec

	// --- Proxy cache ---
	cacheLookups *prometheus.CounterVec

	// --- Export events ---
	events *prometheus.CounterVec

	info *prometheus.GaugeVec

	mu          sync.Mutex
	active      int
	peakActive  int
	totalStarts int64
	exitCodes   map[int]int
	cacheHits   int
	cacheMisses int
}

// NewCollector creates a collector and registers its metrics on registry.
func NewCollector(registry prometheus.Registerer, version string) *Collector {
	c := &Collector{
		exitCodes: make(map[int]int),
		processStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "process_starts_total",
				Help:      "Processes spawned, by tool",
			},
			[]string{"tool"},
		),
		processExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "process_exits_total",
				Help:      "Process runs by tool and outcome (success, nonzero_exit, error, unknown)",
			},
			[]string{"tool", "outcome"},
		),
		processDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "process_duration_seconds",
				Help:      "Wall time of each process run",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"tool"},
		),
		activeProcesses: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_processes",
				Help:      "Currently running processes",
			},
			[]string{"tool"},
		),
		progressLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "progress_lines_total",
				Help:      "Diagnostic lines surfaced as progress after dedup",
			},
			[]string{"tool"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_cache_lookups_total",
				Help:      "Proxy cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "export_events_total",
				Help:      "Export events delivered, by event name",
			},
			[]string{"event"},
		),
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "info",
				Help:      "Build information (value always 1)",
			},
			[]string{"version"},
		),
	}

	registry.MustRegister(
		c.processStarts,
		c.processExits,
		c.processDuration,
		c.activeProcesses,
		c.progressLines,
		c.cacheLookups,
		c.events,
		c.info,
	)

	c.info.WithLabelValues(version).Set(1)
	c.cacheLookups.WithLabelValues("hit")
	c.cacheLookups.WithLabelValues("miss")

	return c
}

// =============================================================================
// Event Recording Methods
// =============================================================================

// ProcessStarted records a process start.
func (c *Collector) ProcessStarted(tool string, pid int) {
	c.processStarts.WithLabelValues(tool).Inc()
	c.activeProcesses.WithLabelValues(tool).Inc()

	c.mu.Lock()
	c.totalStarts++
	c.active++
	if c.active > c.peakActive {
		c.peakActive = c.active
	}
	c.mu.Unlock()
}

// ProcessExited records the outcome of a run. Spawn failures arrive here
// without a matching ProcessStarted and with zero duration.
func (c *Collector) ProcessExited(tool string, outcome supervisor.Outcome, duration time.Duration) {
	c.processExits.WithLabelValues(tool, outcome.Kind.String()).Inc()
	switch outcome.Kind {
	case supervisor.OutcomeSuccess:
		c.countExitCode(0)
	case supervisor.OutcomeNonZeroExit:
		c.countExitCode(outcome.Code)
	}
	if duration <= 0 {
		return
	}

	c.processDuration.WithLabelValues(tool).Observe(duration.Seconds())
	c.activeProcesses.WithLabelValues(tool).Dec()

	c.mu.Lock()
	c.active--
	c.mu.Unlock()
}

func (c *Collector) countExitCode(code int) {
	c.mu.Lock()
	c.exitCodes[code]++
	c.mu.Unlock()
}

// ProgressLine records one surfaced progress line.
func (c *Collector) ProgressLine(tool, _ string) {
	c.progressLines.WithLabelValues(tool).Inc()
}

// CacheHit records a proxy cache hit.
func (c *Collector) CacheHit(proxy.CacheKey) {
	c.cacheLookups.WithLabelValues("hit").Inc()

	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

// CacheMiss records a proxy cache miss.
func (c *Collector) CacheMiss(proxy.CacheKey) {
	c.cacheLookups.WithLabelValues("miss").Inc()

	c.mu.Lock()
	c.cacheMisses++
	c.mu.Unlock()
}

// Emit counts an export event. It implements notify.Sink.
func (c *Collector) Emit(_ context.Context, e notify.Event) error {
	c.events.WithLabelValues(e.Name).Inc()
	return nil
}

// =============================================================================
// Wiring
// =============================================================================

// SupervisorCallbacks returns callbacks that feed process metrics.
func (c *Collector) SupervisorCallbacks() supervisor.Callbacks {
	return supervisor.Callbacks{
		OnStart:    c.ProcessStarted,
		OnProgress: c.ProgressLine,
		OnExit:     c.ProcessExited,
	}
}

// ProxyCallbacks returns callbacks that feed cache metrics.
func (c *Collector) ProxyCallbacks() proxy.Callbacks {
	return proxy.Callbacks{
		OnCacheHit:  c.CacheHit,
		OnCacheMiss: c.CacheMiss,
	}
}

// PeakActive returns the peak number of concurrently running processes.
func (c *Collector) PeakActive() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peakActive
}

// TotalStarts returns the total number of processes started.
func (c *Collector) TotalStarts() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalStarts
}

// ExitCodes returns how many runs ended with each exit code.
func (c *Collector) ExitCodes() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]int, len(c.exitCodes))
	for code, n := range c.exitCodes {
		out[code] = n
	}
	return out
}

// CacheLookups returns the proxy cache hit and miss counts.
func (c *Collector) CacheLookups() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cacheHits, c.cacheMisses
}
