package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pdf-epub-converter/internal/domain"
)

// ConversionCache is a content-addressed store for pipeline step artifacts.
// Entries are keyed by the SHA-256 of the full input bytes combined with the
// step name and expire after a fixed window. Writers publish atomically
// (write to a temp file, then rename) so concurrent readers never observe a
// partially written artifact.
type ConversionCache struct {
	dir    string
	expiry time.Duration
	logger domain.Logger

	mu          sync.Mutex
	lastCleanup time.Time
}

// New creates a cache rooted at dir with the given expiry window.
func New(dir string, expiry time.Duration, logger domain.Logger) (*ConversionCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &ConversionCache{dir: dir, expiry: expiry, logger: logger}, nil
}

// Get returns the freshest cached artifact for the input and step, if any.
// Entries older than the expiry window are removed and treated as misses.
func (c *ConversionCache) Get(inputPath, step string) (string, bool) {
	c.cleanup()

	hash, err := hashFile(inputPath)
	if err != nil {
		c.logger.Warn("Cache read skipped, cannot hash input", "error", err)
		return "", false
	}
	prefix := hash + "-" + step

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.logger.Warn("Cache read skipped, cannot list cache dir", "error", err)
		return "", false
	}

	var freshest string
	var freshestMod time.Time
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= c.expiry {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				c.logger.Warn("Failed to remove expired cache entry", "path", path, "error", err)
			}
			continue
		}
		if info.ModTime().After(freshestMod) {
			freshest = path
			freshestMod = info.ModTime()
		}
	}
	if freshest == "" {
		return "", false
	}
	return freshest, true
}

// Set copies the produced artifact into the cache under a name derived from
// the key and returns the stored path.
func (c *ConversionCache) Set(inputPath, step, artifactPath string) (string, error) {
	hash, err := hashFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to hash input: %w", err)
	}
	dest := filepath.Join(c.dir, hash+"-"+step+filepath.Ext(artifactPath))

	// Write-then-publish: stage next to the destination, then rename.
	tmp, err := os.CreateTemp(c.dir, ".staging-*")
	if err != nil {
		return "", fmt.Errorf("failed to stage cache entry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	src, err := os.Open(artifactPath)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	_, copyErr := io.Copy(tmp, src)
	src.Close()
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return "", fmt.Errorf("failed to copy artifact into cache: %w", copyErr)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return dest, nil
}

// cleanup removes all expired entries. It is lazy: at most one sweep per
// expiry window per cache instance.
func (c *ConversionCache) cleanup() {
	c.mu.Lock()
	if time.Since(c.lastCleanup) < c.expiry {
		c.mu.Unlock()
		return
	}
	c.lastCleanup = time.Now()
	c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= c.expiry {
			path := filepath.Join(c.dir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				c.logger.Warn("Failed to remove expired cache entry", "path", path, "error", err)
			}
		}
	}
}

// ForceCleanup runs an immediate sweep regardless of the lazy schedule.
func (c *ConversionCache) ForceCleanup() {
	c.mu.Lock()
	c.lastCleanup = time.Time{}
	c.mu.Unlock()
	c.cleanup()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
