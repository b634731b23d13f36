package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jeselxe/video-cropper/internal/process"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

func writeFFprobe(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func newInspector(binary string) *Inspector {
	return NewInspector(nil, process.NewFFprobeRunner(binary, ""), nil)
}

func TestCodec(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr string
	}{
		{"trims output", `printf 'h264\n'`, "h264", ""},
		{"surrounding whitespace", `printf '  hevc \r\n'`, "hevc", ""},
		{"no video stream", `exit 0`, "", ""},
		{"non-zero exit", `echo "in.mp4: Invalid data found when processing input" >&2; exit 1`, "", "Invalid data found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newInspector(writeFFprobe(t, tt.body))
			got, err := i.Codec(context.Background(), "in.mp4")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Codec() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Codec() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Codec() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodec_PassesPath(t *testing.T) {
	i := newInspector(writeFFprobe(t, `for last; do :; done; echo "$last"`))
	got, err := i.Codec(context.Background(), "/videos/my clip.mov")
	if err != nil {
		t.Fatalf("Codec() error = %v", err)
	}
	if got != "/videos/my clip.mov" {
		t.Errorf("path seen by ffprobe = %q", got)
	}
}

func TestCodec_SpawnFailure(t *testing.T) {
	i := newInspector(filepath.Join(t.TempDir(), "missing-ffprobe"))
	_, err := i.Codec(context.Background(), "in.mp4")

	var spawnErr *supervisor.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Errorf("Codec() error = %v, want *SpawnError", err)
	}
}

func TestCodec_NonZeroExitNamesFFprobe(t *testing.T) {
	i := newInspector(writeFFprobe(t, `echo "in.mp4: No such file or directory" >&2; exit 1`))
	_, err := i.Codec(context.Background(), "in.mp4")
	if err == nil {
		t.Fatal("Codec() error = nil")
	}
	want := "ffprobe exited with error code: 1: in.mp4: No such file or directory"
	if err.Error() != want {
		t.Errorf("Codec() error = %q, want %q", err, want)
	}
	if strings.Contains(err.Error(), "FFmpeg") {
		t.Errorf("Codec() error = %q mentions FFmpeg", err)
	}
}

func TestCodec_DashPrefixedPath(t *testing.T) {
	// The stub answers like a tool that treats a leading dash as an option.
	i := newInspector(writeFFprobe(t, `for last; do :; done
case "$last" in
-*) echo "ffprobe version 7.0" ;;
*) echo "$last" ;;
esac`))
	got, err := i.Codec(context.Background(), "-version")
	if err != nil {
		t.Fatalf("Codec() error = %v", err)
	}
	if got != "./-version" {
		t.Errorf("path seen by ffprobe = %q, want %q", got, "./-version")
	}
}
