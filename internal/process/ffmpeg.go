package process

import (
	"fmt"
	"strconv"
)

// ProxyProfile describes the proxy rendition encode.
type ProxyProfile struct {
	// HWAccel is passed as -hwaccel before the input. Empty disables it.
	HWAccel string

	// VideoCodec is the encoder (e.g. "h264_videotoolbox", "libx264").
	VideoCodec string

	// Bitrate is the target video bitrate (e.g. "2M").
	Bitrate string

	// Height is the output height; width keeps the aspect ratio.
	Height int

	// AudioCodec is the audio encoder.
	AudioCodec string
}

// DefaultProxyProfile returns the VideoToolbox 720p profile.
func DefaultProxyProfile() ProxyProfile {
	return ProxyProfile{
		HWAccel:    "videotoolbox",
		VideoCodec: "h264_videotoolbox",
		Bitrate:    "2M",
		Height:     720,
		AudioCodec: "aac",
	}
}

// FFmpegConfig holds configuration for FFmpeg process execution.
type FFmpegConfig struct {
	// BinaryPath is the path to the FFmpeg binary.
	BinaryPath string

	// LogLevel, when set, is passed as -loglevel ahead of all other
	// arguments.
	LogLevel string

	// Proxy is the profile used for proxy renditions.
	Proxy ProxyProfile
}

// DefaultFFmpegConfig returns an FFmpegConfig with sensible defaults.
func DefaultFFmpegConfig() *FFmpegConfig {
	return &FFmpegConfig{
		BinaryPath: "ffmpeg",
		Proxy:      DefaultProxyProfile(),
	}
}

// Clip describes one trimmed, cropped export.
type Clip struct {
	Input  string
	Output string

	// Start and End are offsets in seconds.
	Start float64
	End   float64

	CropX      int
	CropY      int
	CropWidth  int
	CropHeight int
}

// FFmpegRunner builds ffmpeg command lines.
type FFmpegRunner struct {
	config *FFmpegConfig
}

// NewFFmpegRunner creates a new FFmpeg runner with the given configuration.
func NewFFmpegRunner(cfg *FFmpegConfig) *FFmpegRunner {
	if cfg == nil {
		cfg = DefaultFFmpegConfig()
	}
	return &FFmpegRunner{
		config: cfg,
	}
}

// Name returns "ffmpeg".
func (r *FFmpegRunner) Name() string {
	return "ffmpeg"
}

// Config returns the FFmpeg configuration.
func (r *FFmpegRunner) Config() *FFmpegConfig {
	return r.config
}

// ExportCommand returns the command that trims and crops a clip. Audio is
// copied; video is re-encoded with the crop filter. The output is
// overwritten.
func (r *FFmpegRunner) ExportCommand(c Clip) Command {
	args := r.globalArgs()
	args = append(args,
		"-i", PathArg(c.Input),
		"-ss", FormatSeconds(c.Start),
		"-to", FormatSeconds(c.End),
		"-filter:v", CropFilter(c.CropWidth, c.CropHeight, c.CropX, c.CropY),
		"-c:a", "copy",
		"-y", PathArg(c.Output),
	)
	return Command{Path: r.config.BinaryPath, Args: args}
}

// ProxyCommand returns the command that transcodes input into the proxy
// rendition at output.
func (r *FFmpegRunner) ProxyCommand(input, output string) Command {
	p := r.config.Proxy
	args := r.globalArgs()
	if p.HWAccel != "" {
		args = append(args, "-hwaccel", p.HWAccel)
	}
	args = append(args, "-i", PathArg(input))
	if p.VideoCodec != "" {
		args = append(args, "-c:v", p.VideoCodec)
	}
	if p.Bitrate != "" {
		args = append(args, "-b:v", p.Bitrate)
	}
	if p.Height > 0 {
		args = append(args, "-vf", "scale=-2:"+strconv.Itoa(p.Height))
	}
	if p.AudioCodec != "" {
		args = append(args, "-c:a", p.AudioCodec)
	}
	args = append(args, "-y", PathArg(output))
	return Command{Path: r.config.BinaryPath, Args: args}
}

func (r *FFmpegRunner) globalArgs() []string {
	if r.config.LogLevel == "" {
		return nil
	}
	return []string{"-loglevel", r.config.LogLevel}
}

// CropFilter returns the crop filter expression "crop=W:H:X:Y".
func CropFilter(width, height, x, y int) string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", width, height, x, y)
}
