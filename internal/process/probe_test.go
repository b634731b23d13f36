package process

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func TestFindFFprobe_ShortBinaryPath(t *testing.T) {
	testCases := []string{"", "f", "ffmpe", "ffmpeg"}

	for _, path := range testCases {
		t.Run(path, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("FindFFprobe panicked with %q: %v", path, r)
				}
			}()
			if got := FindFFprobe(path); got != "ffprobe" {
				t.Errorf("FindFFprobe(%q) = %q, want ffprobe", path, got)
			}
		})
	}
}

func TestFindFFprobe_NonFFmpegPath(t *testing.T) {
	testCases := []string{
		"/usr/bin/avconv",
		"/path/to/custom-ffmpeg",
		"/path/to/ffmpeg-custom",
		"/path/ending/with/ffprobe",
	}

	for _, path := range testCases {
		t.Run(path, func(t *testing.T) {
			if got := FindFFprobe(path); got != "ffprobe" {
				t.Errorf("FindFFprobe(%q) = %q, want ffprobe", path, got)
			}
		})
	}
}

func TestFindFFprobe_Sibling(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit check")
	}
	dir := t.TempDir()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	want := filepath.Join(dir, "ffprobe")
	if got := FindFFprobe(filepath.Join(dir, "ffmpeg")); got != want {
		t.Errorf("FindFFprobe() = %q, want %q", got, want)
	}
}

func TestNewFFprobeRunner(t *testing.T) {
	r := NewFFprobeRunner("/custom/ffprobe", "/usr/bin/ffmpeg")
	if r.BinaryPath() != "/custom/ffprobe" {
		t.Errorf("BinaryPath() = %q", r.BinaryPath())
	}
	if r.Name() != "ffprobe" {
		t.Errorf("Name() = %q", r.Name())
	}

	if got := NewFFprobeRunner("", "ffmpeg").BinaryPath(); got != "ffprobe" {
		t.Errorf("fallback BinaryPath() = %q", got)
	}
}

func TestFFprobeRunner_CodecCommand(t *testing.T) {
	cmd := NewFFprobeRunner("ffprobe", "").CodecCommand("/v/my clip.mov")
	want := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"/v/my clip.mov",
	}
	if cmd.Path != "ffprobe" {
		t.Errorf("Path = %q", cmd.Path)
	}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("Args = %q, want %q", cmd.Args, want)
	}
}

func TestPathArg(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"in.mp4", "in.mp4"},
		{"/v/-clip.mov", "/v/-clip.mov"},
		{"./-clip.mov", "./-clip.mov"},
		{"-version", "./-version"},
		{"-", "./-"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PathArg(tt.in); got != tt.want {
			t.Errorf("PathArg(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFFprobeRunner_CodecCommand_DashPrefixedPath(t *testing.T) {
	cmd := NewFFprobeRunner("ffprobe", "").CodecCommand("-show_format")
	if got := cmd.Args[len(cmd.Args)-1]; got != "./-show_format" {
		t.Errorf("path arg = %q, want %q", got, "./-show_format")
	}
}
