// Package proxy produces low-resolution proxy renditions of source videos
// for fast preview, cached on disk by source path and modification time.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jeselxe/video-cropper/internal/logging"
	"github.com/jeselxe/video-cropper/internal/process"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

// Callbacks contains optional callback functions for cache events.
type Callbacks struct {
	// OnCacheHit is called when an existing proxy is returned.
	OnCacheHit func(key CacheKey)

	// OnCacheMiss is called before a transcode starts.
	OnCacheMiss func(key CacheKey)
}

// Config holds configuration for creating a new Generator.
type Config struct {
	Supervisor *supervisor.Supervisor
	Runner     *process.FFmpegRunner
	Resolver   StorageResolver
	Logger     *slog.Logger
	Callbacks  Callbacks
}

// Generator builds and caches proxy renditions.
//
// The cache is not locked: two concurrent calls for the same uncached source
// both transcode, each into its own partial file, and the last rename wins.
// Nothing is ever evicted.
type Generator struct {
	sup       *supervisor.Supervisor
	runner    *process.FFmpegRunner
	resolver  StorageResolver
	logger    *slog.Logger
	callbacks Callbacks
}

// New creates a Generator.
func New(cfg Config) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	sup := cfg.Supervisor
	if sup == nil {
		sup = supervisor.New(supervisor.Config{Logger: logger})
	}
	runner := cfg.Runner
	if runner == nil {
		runner = process.NewFFmpegRunner(nil)
	}
	return &Generator{
		sup:       sup,
		runner:    runner,
		resolver:  cfg.Resolver,
		logger:    logging.WithComponent(logger, "proxy"),
		callbacks: cfg.Callbacks,
	}
}

// Plan is where the proxy for a source lives and whether it already exists.
type Plan struct {
	Input  string
	Key    CacheKey
	Dir    string
	Output string
	Hit    bool
}

// Plan validates input, ensures the cache directory exists and computes the
// cache entry for input. It does not transcode.
func (g *Generator) Plan(input string) (Plan, error) {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Plan{}, fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return Plan{}, fmt.Errorf("%w: %w", ErrMetadataRead, err)
	}
	if info.IsDir() {
		return Plan{}, fmt.Errorf("%w: %s is a directory", ErrInputNotFound, input)
	}

	dir, err := g.cacheDir()
	if err != nil {
		return Plan{}, err
	}

	key, err := DeriveKey(input)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{
		Input:  input,
		Key:    key,
		Dir:    dir,
		Output: filepath.Join(dir, key.FileName()),
	}
	if out, err := os.Stat(p.Output); err == nil && out.Mode().IsRegular() {
		p.Hit = true
	}
	return p, nil
}

func (g *Generator) cacheDir() (string, error) {
	if g.resolver == nil {
		return "", fmt.Errorf("%w: no storage resolver", ErrCacheDirUnavailable)
	}
	base, err := g.resolver.DataDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCacheDirUnavailable, err)
	}
	dir := filepath.Join(base, CacheDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCacheDirUnavailable, err)
	}
	return dir, nil
}

// Command returns the ffmpeg invocation that would build the proxy for p.
func (g *Generator) Command(p Plan) process.Command {
	return g.runner.ProxyCommand(p.Input, p.Output)
}

// Generate returns the path of the proxy rendition of input, transcoding it
// first when no cached copy exists. It blocks until the transcode finishes;
// cancelling ctx stops ffmpeg.
func (g *Generator) Generate(ctx context.Context, input string) (string, error) {
	p, err := g.Plan(input)
	if err != nil {
		return "", err
	}

	logger := g.logger.With("key", p.Key.String())
	if p.Hit {
		logger.Debug("proxy_cache_hit", "path", p.Output)
		if g.callbacks.OnCacheHit != nil {
			g.callbacks.OnCacheHit(p.Key)
		}
		return p.Output, nil
	}

	logger.Info("proxy_cache_miss", "input", input)
	if g.callbacks.OnCacheMiss != nil {
		g.callbacks.OnCacheMiss(p.Key)
	}

	// ffmpeg writes a private partial file so that an interrupted run never
	// leaves something that looks like a cache hit.
	partial := filepath.Join(p.Dir, fmt.Sprintf("%s.%s.partial.mp4", p.Key, uuid.NewString()[:8]))
	cmd := g.runner.ProxyCommand(input, partial)

	res, err := g.sup.Run(ctx, cmd.Path, cmd.Args)
	if err != nil {
		return "", fmt.Errorf("failed to execute FFmpeg. Is it installed and in PATH? %w", err)
	}
	if !res.Outcome.IsSuccess() {
		removePartial(logger, partial)
		return "", &TranscodeError{
			Outcome: res.Outcome,
			Stderr:  res.Stderr,
			Stdout:  res.Stdout,
		}
	}

	if _, err := os.Stat(partial); err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutputMissingAfterSuccess, p.Output)
	}
	if err := os.Rename(partial, p.Output); err != nil {
		removePartial(logger, partial)
		return "", fmt.Errorf("failed to move proxy into cache: %w", err)
	}

	logger.Info("proxy_created",
		"path", p.Output,
		"duration", res.Duration.String(),
	)
	return p.Output, nil
}

func removePartial(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("partial_cleanup_failed", "path", path, "error", err)
	}
}
