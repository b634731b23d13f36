package process

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// FFprobeRunner builds ffprobe command lines.
type FFprobeRunner struct {
	binaryPath string
}

// NewFFprobeRunner creates a runner for ffprobe. When binaryPath is empty the
// binary is located next to ffmpegPath, falling back to PATH.
func NewFFprobeRunner(binaryPath, ffmpegPath string) *FFprobeRunner {
	if binaryPath == "" {
		binaryPath = FindFFprobe(ffmpegPath)
	}
	return &FFprobeRunner{binaryPath: binaryPath}
}

// Name returns "ffprobe".
func (r *FFprobeRunner) Name() string {
	return "ffprobe"
}

// BinaryPath returns the ffprobe executable in use.
func (r *FFprobeRunner) BinaryPath() string {
	return r.binaryPath
}

// CodecCommand returns the command that prints the codec name of the first
// video stream of path, and nothing else.
func (r *FFprobeRunner) CodecCommand(path string) Command {
	return Command{
		Path: r.binaryPath,
		Args: []string{
			"-v", "error",
			"-select_streams", "v:0",
			"-show_entries", "stream=codec_name",
			"-of", "default=noprint_wrappers=1:nokey=1",
			PathArg(path),
		},
	}
}

// FindFFprobe returns the path to ffprobe.
// It looks in the same directory as ffmpeg, or falls back to PATH.
func FindFFprobe(ffmpegPath string) string {
	dir, base := filepath.Split(ffmpegPath)
	ext := filepath.Ext(base)
	if dir != "" && strings.TrimSuffix(base, ext) == "ffmpeg" {
		// e.g., /usr/local/bin/ffmpeg -> /usr/local/bin/ffprobe
		candidate := filepath.Join(dir, "ffprobe"+ext)
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}

	// Fall back to ffprobe in PATH
	return "ffprobe"
}
