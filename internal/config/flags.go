package config

import (
	"github.com/spf13/pflag"
)

// ConfigFlag is the name of the flag selecting the config file.
const ConfigFlag = "config"

// BindFlags registers a flag for every Config field on fs, defaulting to the
// current values in cfg. Flags set on the command line win over the config
// file; see Load.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String(ConfigFlag, "", "Path to a TOML config file (default: user config dir, then ./video-cropper.toml)")

	// Tools
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Path to FFmpeg binary")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Path to ffprobe binary (default: next to ffmpeg, else PATH)")
	fs.StringVar(&cfg.FFmpegLogLevel, "ffmpeg-loglevel", cfg.FFmpegLogLevel, "FFmpeg -loglevel (default: FFmpeg's own)")

	// Storage
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory holding the proxy cache (default: user cache dir)")

	// Proxy rendition
	fs.StringVar(&cfg.Proxy.HWAccel, "proxy-hwaccel", cfg.Proxy.HWAccel, `Proxy hardware decoder ("" for software)`)
	fs.StringVar(&cfg.Proxy.VideoCodec, "proxy-codec", cfg.Proxy.VideoCodec, "Proxy video encoder")
	fs.StringVar(&cfg.Proxy.Bitrate, "proxy-bitrate", cfg.Proxy.Bitrate, "Proxy video bitrate")
	fs.IntVar(&cfg.Proxy.Height, "proxy-height", cfg.Proxy.Height, "Proxy height in pixels (0 keeps source size)")
	fs.StringVar(&cfg.Proxy.AudioCodec, "proxy-audio-codec", cfg.Proxy.AudioCodec, "Proxy audio encoder")

	// Process control
	fs.DurationVar(&cfg.RunTimeout.Duration, "run-timeout", cfg.RunTimeout.Duration, "Stop an export after this long (0 = no limit)")
	fs.DurationVar(&cfg.StopTimeout.Duration, "stop-timeout", cfg.StopTimeout.Duration, "Grace period between SIGTERM and SIGKILL")
	fs.IntVar(&cfg.TailLines, "tail-lines", cfg.TailLines, "Output lines kept per process for error reports")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty disables)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose logging (same as --log-level debug)")
	fs.BoolVar(&cfg.TUI, "tui", cfg.TUI, "Show live progress when attached to a terminal (use --tui=false to disable)")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")
}
