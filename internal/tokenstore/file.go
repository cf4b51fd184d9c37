package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tempPrefix marks in-flight issue files so sweeps skip them.
const tempPrefix = ".issue-"

// FileStore keeps one file per token under a cache directory. The file body
// is the issuance timestamp. Multiple processes may share the directory.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) {
		s.now = now
	}
}

// NewFileStore creates a store rooted at dir with the given token TTL.
// The directory is created on first Issue, not here.
func NewFileStore(dir string, ttl time.Duration, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Issue writes a token for key carrying the current time. The token is
// written to a temp file in the same directory and renamed into place, so
// concurrent readers never observe a torn entry and a crash leaves at most
// a stray temp file for a later sweep to ignore.
func (s *FileStore) Issue(key string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp token: %w", err)
	}
	tmpPath := tmp.Name()

	_, werr := tmp.WriteString(s.now().UTC().Format(time.RFC3339Nano))
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpPath)
		if werr != nil {
			return fmt.Errorf("write temp token: %w", werr)
		}
		return fmt.Errorf("close temp token: %w", cerr)
	}

	if err := os.Rename(tmpPath, s.keyPath(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("install token: %w", err)
	}
	return nil
}

// TryConsume removes and reports the token for key iff it is still live.
// A found-but-expired token is removed and reported as absent.
func (s *FileStore) TryConsume(key string) (bool, error) {
	path := s.keyPath(key)
	issued, err := s.readIssuedAt(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	// Check-then-delete is not atomic against a racing sweep or a second
	// consumer; both seeing a live token and both winning is accepted.
	os.Remove(path)
	return s.now().Sub(issued) < s.ttl, nil
}

// SweepExpired removes expired tokens, inspecting at most maxChecked
// entries, and returns the number removed.
func (s *FileStore) SweepExpired(maxChecked int) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read token directory: %w", err)
	}

	removed := 0
	checked := 0
	for _, e := range entries {
		if checked >= maxChecked {
			break
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		checked++

		path := filepath.Join(s.dir, e.Name())
		issued, err := s.readIssuedAt(path)
		if err != nil {
			continue
		}
		if s.now().Sub(issued) >= s.ttl {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// readIssuedAt parses the issuance time stored at path. A token that cannot
// be parsed is treated as expired immediately and removed.
func (s *FileStore) readIssuedAt(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	issued, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		os.Remove(path)
		return time.Time{}, fmt.Errorf("parse token %s: %w", filepath.Base(path), err)
	}
	return issued, nil
}

func (s *FileStore) keyPath(key string) string {
	return filepath.Join(s.dir, key)
}
