// Package probe inspects media files with ffprobe.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jeselxe/video-cropper/internal/logging"
	"github.com/jeselxe/video-cropper/internal/process"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

// Inspector answers questions about a media file.
type Inspector struct {
	sup    *supervisor.Supervisor
	runner *process.FFprobeRunner
	logger *slog.Logger
}

// NewInspector creates an Inspector.
func NewInspector(sup *supervisor.Supervisor, runner *process.FFprobeRunner, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = logging.Discard()
	}
	if sup == nil {
		sup = supervisor.New(supervisor.Config{Logger: logger})
	}
	if runner == nil {
		runner = process.NewFFprobeRunner("", "")
	}
	return &Inspector{
		sup:    sup,
		runner: runner,
		logger: logging.WithComponent(logger, "probe"),
	}
}

// Codec returns the codec name of the first video stream of path, e.g.
// "h264" or "hevc". A file without a video stream yields "" and no error.
// Spawn failures and non-zero exits return an error carrying ffprobe's
// diagnostic output.
func (i *Inspector) Codec(ctx context.Context, path string) (string, error) {
	cmd := i.runner.CodecCommand(path)

	res, err := i.sup.Run(ctx, cmd.Path, cmd.Args)
	if err != nil {
		return "", fmt.Errorf("failed to execute ffprobe: %w", err)
	}
	if !res.Outcome.IsSuccess() {
		msg := res.Outcome.Describe("ffprobe")
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			msg += ": " + stderr
		}
		return "", errors.New(msg)
	}

	codec := strings.TrimSpace(res.Stdout)
	i.logger.Debug("codec_probed", "path", path, "codec", codec)
	return codec, nil
}
