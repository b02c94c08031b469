// Package proxycache stores proxied page bodies on disk, keyed by the
// sha256 of a normalized URL. Entries live until the cache is cleared
// wholesale; the watcher clears it when the proxied-domains file changes.
package proxycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is the metadata stored beside each cached body.
type Entry struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Cache stores entries as <key>.meta.json and <key>.body under Dir.
type Cache struct {
	Dir string
}

// ErrMiss is returned by Load when no entry exists for the URL.
var ErrMiss = errors.New("cache miss")

func (c *Cache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return os.MkdirAll(c.Dir, 0o755)
}

// Key returns the cache key for a URL: hex sha256 of its normalized form.
// Two spellings of the same page share an entry.
func Key(rawURL string) string {
	h := sha256.Sum256([]byte(Normalize(rawURL)))
	return hex.EncodeToString(h[:])
}

func (c *Cache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *Cache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// Load returns the cached body and metadata for a URL, or ErrMiss.
func (c *Cache) Load(_ context.Context, rawURL string) ([]byte, *Entry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, nil, err
	}
	key := Key(rawURL)
	mf, err := os.Open(c.metaPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrMiss
		}
		return nil, nil, err
	}
	defer mf.Close()
	var e Entry
	if err := json.NewDecoder(mf).Decode(&e); err != nil {
		return nil, nil, fmt.Errorf("decode meta: %w", err)
	}
	body, err := os.ReadFile(c.bodyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrMiss
		}
		return nil, nil, err
	}
	return body, &e, nil
}

// Save stores a new entry. The body is written first, then the metadata via
// temp file and rename, so a reader never sees meta without a body.
func (c *Cache) Save(_ context.Context, rawURL, contentType string, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := Key(rawURL)
	if err := os.WriteFile(c.bodyPath(key), body, 0o644); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta := Entry{
		URL:         Normalize(rawURL),
		ContentType: contentType,
		FetchedAt:   time.Now().UTC(),
	}
	tmp := c.metaPath(key) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create meta: %w", err)
	}
	if err := json.NewEncoder(f).Encode(&meta); err != nil {
		f.Close()
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.metaPath(key))
}

// Clear removes every entry and leaves a valid empty cache directory.
func (c *Cache) Clear() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.RemoveAll(c.Dir); err != nil {
		return err
	}
	return os.MkdirAll(c.Dir, 0o755)
}
