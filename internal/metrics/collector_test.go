package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jeselxe/video-cropper/internal/notify"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newTestCollector creates a collector with a fresh registry.
func newTestCollector() (*Collector, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	return NewCollector(registry, "test"), registry
}

// =============================================================================
// Tests
// =============================================================================

func TestNewCollector_TwoRegistries(t *testing.T) {
	// must not panic with duplicate registration
	newTestCollector()
	newTestCollector()
}

func TestCollector_ProcessLifecycle(t *testing.T) {
	c, _ := newTestCollector()

	c.ProcessStarted("ffmpeg", 100)
	c.ProcessStarted("ffmpeg", 101)
	c.ProcessStarted("ffprobe", 102)

	if got := testutil.ToFloat64(c.activeProcesses.WithLabelValues("ffmpeg")); got != 2 {
		t.Errorf("active ffmpeg = %v, want 2", got)
	}

	c.ProcessExited("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeSuccess}, 2*time.Second)
	c.ProcessExited("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeNonZeroExit, Code: 1}, time.Second)
	c.ProcessExited("ffprobe", supervisor.Outcome{Kind: supervisor.OutcomeSuccess}, 50*time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"starts ffmpeg", testutil.ToFloat64(c.processStarts.WithLabelValues("ffmpeg")), 2},
		{"exits success", testutil.ToFloat64(c.processExits.WithLabelValues("ffmpeg", "success")), 1},
		{"exits nonzero", testutil.ToFloat64(c.processExits.WithLabelValues("ffmpeg", "nonzero_exit")), 1},
		{"active ffmpeg", testutil.ToFloat64(c.activeProcesses.WithLabelValues("ffmpeg")), 0},
		{"active ffprobe", testutil.ToFloat64(c.activeProcesses.WithLabelValues("ffprobe")), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if c.PeakActive() != 3 {
		t.Errorf("PeakActive() = %d, want 3", c.PeakActive())
	}
	if c.TotalStarts() != 3 {
		t.Errorf("TotalStarts() = %d, want 3", c.TotalStarts())
	}
	if n := testutil.CollectAndCount(c.processDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestCollector_SpawnFailure(t *testing.T) {
	c, _ := newTestCollector()
	c.ProcessExited("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeSpawnOrRuntimeError}, 0)

	if got := testutil.ToFloat64(c.processExits.WithLabelValues("ffmpeg", "error")); got != 1 {
		t.Errorf("error exits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.activeProcesses.WithLabelValues("ffmpeg")); got != 0 {
		t.Errorf("active = %v, want 0 after a spawn failure", got)
	}
}

func TestCollector_Callbacks(t *testing.T) {
	c, _ := newTestCollector()

	sc := c.SupervisorCallbacks()
	sc.OnStart("ffmpeg", 1)
	sc.OnProgress("ffmpeg", "frame=1")
	sc.OnProgress("ffmpeg", "frame=2")
	sc.OnExit("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeUnknownTermination}, time.Second)

	pc := c.ProxyCallbacks()
	pc.OnCacheHit("k")
	pc.OnCacheMiss("k")
	pc.OnCacheHit("k")

	if got := testutil.ToFloat64(c.progressLines.WithLabelValues("ffmpeg")); got != 2 {
		t.Errorf("progress lines = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.processExits.WithLabelValues("ffmpeg", "unknown")); got != 1 {
		t.Errorf("unknown exits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
}

func TestCollector_Emit(t *testing.T) {
	c, _ := newTestCollector()
	ctx := context.Background()

	var sink notify.Sink = c
	_ = sink.Emit(ctx, notify.Event{Name: notify.EventProgress})
	_ = sink.Emit(ctx, notify.Event{Name: notify.EventProgress})
	_ = sink.Emit(ctx, notify.Event{Name: notify.EventFinished})

	if got := testutil.ToFloat64(c.events.WithLabelValues(notify.EventProgress)); got != 2 {
		t.Errorf("progress events = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.events.WithLabelValues(notify.EventFinished)); got != 1 {
		t.Errorf("finished events = %v, want 1", got)
	}
}

func TestCollector_ExitCodesAndCacheLookups(t *testing.T) {
	c, _ := newTestCollector()

	c.ProcessExited("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeSuccess}, time.Second)
	c.ProcessExited("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeNonZeroExit, Code: 1}, time.Second)
	c.ProcessExited("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeNonZeroExit, Code: 1}, time.Second)
	c.ProcessExited("ffmpeg", supervisor.Outcome{Kind: supervisor.OutcomeUnknownTermination}, time.Second)
	c.CacheHit("a")
	c.CacheMiss("a")
	c.CacheMiss("a")

	codes := c.ExitCodes()
	if codes[0] != 1 || codes[1] != 2 || len(codes) != 2 {
		t.Errorf("ExitCodes() = %v, want map[0:1 1:2]", codes)
	}
	codes[0] = 99
	if c.ExitCodes()[0] != 1 {
		t.Error("ExitCodes() must return a copy")
	}

	hits, misses := c.CacheLookups()
	if hits != 1 || misses != 2 {
		t.Errorf("CacheLookups() = %d, %d; want 1, 2", hits, misses)
	}
}
