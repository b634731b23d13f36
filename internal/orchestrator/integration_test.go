//go:build integration

// End-to-end tests against real FFmpeg and ffprobe binaries.
// Run with: go test -tags=integration ./internal/orchestrator/...

package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeselxe/video-cropper/internal/config"
	"github.com/jeselxe/video-cropper/internal/export"
	"github.com/jeselxe/video-cropper/internal/notify"
)

// requireTools skips the test if FFmpeg or ffprobe is not available.
func requireTools(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH - skipping integration test", tool)
		}
	}
}

// makeSource renders a short test pattern with a sine tone.
func makeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.mp4")
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=320x240:rate=25:duration=3",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=3",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac", "-shortest", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("render source: %v\n%s", err, out)
	}
	return path
}

func integrationConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.SkipPreflight = true
	cfg.Proxy = config.ProxyConfig{VideoCodec: "libx264", Bitrate: "500k", Height: 120, AudioCodec: "aac"}
	return cfg
}

func TestIntegration_ExportProxyCodec(t *testing.T) {
	requireTools(t)
	source := makeSource(t)

	rec := notify.NewRecorder()
	o := New(integrationConfig(t), nil, Options{Sinks: []notify.Sink{rec}})
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	output := filepath.Join(t.TempDir(), "clip.mp4")
	js, err := o.RunExport(ctx, export.Request{
		InputPath:  source,
		OutputPath: output,
		Selection:  export.ClipSelection{Start: 0.5, End: 2},
		Crop:       export.CropArea{X: 10, Y: 10, Width: 160, Height: 120},
	})
	if err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}
	if !js.Succeeded {
		t.Fatalf("export failed: %s", js.Message)
	}
	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		t.Fatalf("no output clip: %v", err)
	}

	codec, err := o.Codec(ctx, output)
	if err != nil {
		t.Fatalf("Codec() error = %v", err)
	}
	if codec != "h264" {
		t.Errorf("Codec() = %q, want h264", codec)
	}

	proxyPath, err := o.Proxy(ctx, source)
	if err != nil {
		t.Fatalf("Proxy() error = %v", err)
	}
	again, err := o.Proxy(ctx, source)
	if err != nil || again != proxyPath {
		t.Errorf("second Proxy() = %q, %v; want cache hit %q", again, err, proxyPath)
	}
	if hits, misses := o.Metrics().CacheLookups(); hits != 1 || misses != 1 {
		t.Errorf("CacheLookups() = %d, %d; want 1, 1", hits, misses)
	}
}
