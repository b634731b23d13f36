// Package config provides configuration management for video-cropper.
package config

import (
	"time"

	"github.com/jeselxe/video-cropper/internal/process"
	"github.com/jeselxe/video-cropper/internal/proxy"
	"github.com/jeselxe/video-cropper/internal/supervisor"
)

// AppName names the per-user config and cache directories.
const AppName = "video-cropper"

// Config holds all configuration options.
type Config struct {
	// Tools
	FFmpegPath     string `toml:"ffmpeg_path"`
	FFprobePath    string `toml:"ffprobe_path"`     // "" = next to ffmpeg, else PATH
	FFmpegLogLevel string `toml:"ffmpeg_log_level"` // "" = ffmpeg default

	// Storage
	DataDir string `toml:"data_dir"` // "" = user cache dir

	// Proxy rendition
	Proxy ProxyConfig `toml:"proxy"`

	// Process control
	RunTimeout  Duration `toml:"run_timeout"` // 0 = no limit
	StopTimeout Duration `toml:"stop_timeout"`
	TailLines   int      `toml:"tail_lines"`

	// Observability
	MetricsAddr string `toml:"metrics_addr"` // "" = disabled
	LogFormat   string `toml:"log_format"`   // json, text
	LogLevel    string `toml:"log_level"`
	Verbose     bool   `toml:"verbose"`
	TUI         bool   `toml:"tui"`

	SkipPreflight bool `toml:"skip_preflight"`
}

// ProxyConfig selects the proxy encode.
type ProxyConfig struct {
	HWAccel    string `toml:"hwaccel"` // "" = software decode
	VideoCodec string `toml:"video_codec"`
	Bitrate    string `toml:"bitrate"`
	Height     int    `toml:"height"` // 0 = keep source size
	AudioCodec string `toml:"audio_codec"`
}

// Duration is a time.Duration read from TOML as a string such as "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	profile := process.DefaultProxyProfile()
	return &Config{
		FFmpegPath: "ffmpeg",

		Proxy: ProxyConfig{
			HWAccel:    profile.HWAccel,
			VideoCodec: profile.VideoCodec,
			Bitrate:    profile.Bitrate,
			Height:     profile.Height,
			AudioCodec: profile.AudioCodec,
		},

		StopTimeout: Duration{supervisor.DefaultStopTimeout},
		TailLines:   supervisor.DefaultTailLines,

		LogFormat: "json",
		LogLevel:  "info",
		TUI:       true,
	}
}

// FFmpegConfig returns the ffmpeg command settings.
func (c *Config) FFmpegConfig() *process.FFmpegConfig {
	return &process.FFmpegConfig{
		BinaryPath: c.FFmpegPath,
		LogLevel:   c.FFmpegLogLevel,
		Proxy: process.ProxyProfile{
			HWAccel:    c.Proxy.HWAccel,
			VideoCodec: c.Proxy.VideoCodec,
			Bitrate:    c.Proxy.Bitrate,
			Height:     c.Proxy.Height,
			AudioCodec: c.Proxy.AudioCodec,
		},
	}
}

// FFprobeRunner returns the ffprobe command builder.
func (c *Config) FFprobeRunner() *process.FFprobeRunner {
	return process.NewFFprobeRunner(c.FFprobePath, c.FFmpegPath)
}

// Resolver returns where the proxy cache lives.
func (c *Config) Resolver() proxy.StorageResolver {
	if c.DataDir != "" {
		return proxy.DirResolver(c.DataDir)
	}
	return proxy.UserCacheResolver{App: AppName}
}
