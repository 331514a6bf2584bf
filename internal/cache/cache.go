package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/natefinch/atomic"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTTL is the freshness window of a cached document.
const DefaultTTL = 600 * time.Second

// ErrCorruptEntry is returned alongside a miss when a stored record cannot be read or decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Cache defines the interface for provider document caching.
// Get returns the stored payload if present and fresh, Set overwrites it.
type Cache interface {
	Get(ctx context.Context, location, endpoint string) (json.RawMessage, bool, error)
	Set(ctx context.Context, location, endpoint string, payload json.RawMessage) error
}

// FileCache implements Cache with one JSON file per (location, endpoint).
// Each file carries its own fetch timestamp; file modification times are ignored.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// Option configures a FileCache.
type Option func(*FileCache)

// WithClock replaces time.Now as the source of fetch and freshness times.
func WithClock(now func() time.Time) Option {
	return func(c *FileCache) { c.now = now }
}

// header holds the metadata fields of a record.
type header struct {
	Location  string    `json:"location"`
	Endpoint  string    `json:"endpoint"`
	FetchedAt time.Time `json:"fetched_at"`
}

// record is the on-disk layout of a cached document.
type record struct {
	header
	Payload json.RawMessage `json:"payload"`
}

// NewFileCache creates a FileCache rooted at dir. A non-positive ttl uses DefaultTTL.
func NewFileCache(dir string, ttl time.Duration, opts ...Option) *FileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &FileCache{dir: dir, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns (payload, true, nil) on a fresh hit and (nil, false, nil) on a miss
// or an expired record. An unreadable record is also a miss; the returned error
// wraps ErrCorruptEntry so callers can log it and carry on.
func (c *FileCache) Get(ctx context.Context, location, endpoint string) (json.RawMessage, bool, error) {
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	path := c.Path(location, endpoint)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: read %s: %v", ErrCorruptEntry, path, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("%w: decode %s: %v", ErrCorruptEntry, path, err)
	}
	if len(rec.Payload) == 0 || rec.FetchedAt.IsZero() {
		return nil, false, fmt.Errorf("%w: %s has no payload or timestamp", ErrCorruptEntry, path)
	}

	// A timestamp from the future is treated as stale.
	age := c.now().Sub(rec.FetchedAt)
	if age < 0 || age > c.ttl {
		return nil, false, nil
	}
	return rec.Payload, true, nil
}

// Set stores payload for the key, replacing any previous record. The file is
// written to a temporary name and renamed into place so concurrent readers
// never observe a partial record.
func (c *FileCache) Set(ctx context.Context, location, endpoint string, payload json.RawMessage) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}
	raw, err := encodeRecord(header{
		Location:  location,
		Endpoint:  endpoint,
		FetchedAt: c.now().UTC(),
	}, payload)
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}
	if err := atomic.WriteFile(c.Path(location, endpoint), bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("write cache record: %w", err)
	}
	return nil
}

// encodeRecord writes h without HTML escaping and appends payload byte for
// byte, so Get returns exactly what Set was given.
func encodeRecord(h header, payload json.RawMessage) ([]byte, error) {
	if !json.Valid(payload) {
		return nil, errors.New("payload is not valid JSON")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(h); err != nil {
		return nil, err
	}
	// Encode ends the object with "}\n"; reopen it for the payload field.
	out := bytes.TrimSuffix(buf.Bytes(), []byte("}\n"))
	out = append(out, `,"payload":`...)
	out = append(out, payload...)
	return append(out, '}', '\n'), nil
}

// Path returns the file that holds the record for the key.
func (c *FileCache) Path(location, endpoint string) string {
	return filepath.Join(c.dir, fileName(location, endpoint))
}

// fileName title-cases the location so that keys differing only in case share a
// file, and replaces runes that are unsafe in file names.
func fileName(location, endpoint string) string {
	loc := cases.Title(language.Und).String(strings.TrimSpace(location))
	loc = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		switch r {
		case ' ', ',', '-', '.':
			return r
		}
		return '_'
	}, loc)
	return loc + "-" + endpoint + ".json"
}
