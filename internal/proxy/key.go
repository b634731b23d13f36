package proxy

import (
	"crypto/md5"
	"fmt"
	"os"
	"time"
)

// CacheKey names a proxy rendition: the hex MD5 of the source path as given,
// an underscore, and the source modification time in Unix seconds.
//
// The key is only as strong as its inputs. Replacing a file within the same
// second, or touching it back to an old mtime, is not detected, and the same
// file reached through two different paths is cached twice.
type CacheKey string

// NewCacheKey builds the key for path with modification time mtime.
func NewCacheKey(path string, mtime time.Time) CacheKey {
	return CacheKey(fmt.Sprintf("%x_%d", md5.Sum([]byte(path)), mtime.Unix()))
}

// DeriveKey stats path and builds its key.
func DeriveKey(path string) (CacheKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMetadataRead, err)
	}
	return NewCacheKey(path, info.ModTime()), nil
}

// FileName returns the cache file name for k.
func (k CacheKey) FileName() string {
	return string(k) + ".mp4"
}

// String implements fmt.Stringer.
func (k CacheKey) String() string {
	return string(k)
}
