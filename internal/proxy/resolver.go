package proxy

import (
	"errors"
	"os"
	"path/filepath"
)

// CacheDirName is the subdirectory of the data directory holding proxies.
const CacheDirName = "video_previews"

// StorageResolver locates the application's data directory.
type StorageResolver interface {
	DataDir() (string, error)
}

// DirResolver is a fixed data directory.
type DirResolver string

// DataDir returns d.
func (d DirResolver) DataDir() (string, error) {
	if d == "" {
		return "", errors.New("data directory not configured")
	}
	return string(d), nil
}

// UserCacheResolver places data under the user's cache directory, in a
// subdirectory named App.
type UserCacheResolver struct {
	App string
}

// DataDir returns <user cache dir>/<App>.
func (r UserCacheResolver) DataDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, r.App), nil
}
