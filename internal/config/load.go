package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// ProjectFile is the config file looked up in the working directory.
const ProjectFile = "video-cropper.toml"

// Load decodes the TOML file at path into cfg. Flags in flags that were set
// on the command line keep their values. An empty path tries the user config
// directory, then ProjectFile; neither existing is not an error. An explicit
// path must exist.
//
// It returns the file that was read and whether one was.
func Load(path string, cfg *Config, flags *pflag.FlagSet) (string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return "", false, err
	}
	if !exists {
		cfg.DataDir, err = expandPath(cfg.DataDir)
		return resolved, false, err
	}

	changed := map[string]string{}
	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})
	}

	file, err := os.Open(resolved)
	if err != nil {
		return "", false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return "", false, fmt.Errorf("parse config %s: %w", resolved, err)
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return "", false, fmt.Errorf("reapply --%s: %w", name, err)
		}
	}

	if cfg.DataDir, err = expandPath(cfg.DataDir); err != nil {
		return "", false, err
	}
	return resolved, true, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	var candidates []string
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, AppName, "config.toml"))
	}
	projectPath, err := filepath.Abs(ProjectFile)
	if err != nil {
		return "", false, err
	}
	candidates = append(candidates, projectPath)

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err == nil && !info.IsDir() {
			return c, true, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return candidates[0], false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
