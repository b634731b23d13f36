// Package main provides the video-cropper CLI entry point.
//
// video-cropper exports trimmed and cropped clips from source videos with
// ffmpeg, builds cached low-resolution proxies for preview and reports the
// codec of a file with ffprobe.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/video-cropper
var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
