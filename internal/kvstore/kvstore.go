package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrKeyRequired        = errors.New("key is required")
)

// entry is one stored key. A nil ExpiresAt means the entry never expires.
type entry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

// Store is a small key -> JSON store standing in for the webview's local storage:
// cached auth token, onboarding flag and per-feature draft settings all live here.
// Entries optionally carry a TTL and are dropped lazily on read.
type Store struct {
	mu      sync.RWMutex
	fs      afero.Fs
	path    string
	entries map[string]entry
	now     func() time.Time
}

// New creates a store persisting to store.json inside storageDir on the given
// filesystem. Existing contents are loaded eagerly; expired entries are pruned.
func New(fs afero.Fs, storageDir string) (*Store, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := fs.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &Store{
		fs:      fs,
		path:    filepath.Join(storageDir, "store.json"),
		entries: make(map[string]entry),
		now:     time.Now,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get unmarshals the value stored under key into out. It reports whether a live
// entry existed; expired entries count as absent and are removed.
func (s *Store) Get(key string, out any) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, ErrKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if e.ExpiresAt != nil && !s.now().Before(*e.ExpiresAt) {
		delete(s.entries, key)
		if err := s.saveLocked(); err != nil {
			return false, err
		}
		return false, nil
	}

	if out != nil {
		if err := json.Unmarshal(e.Value, out); err != nil {
			return false, fmt.Errorf("decode entry %q: %w", key, err)
		}
	}
	return true, nil
}

// Set stores value under key. A ttl of zero or less means the entry never expires.
func (s *Store) Set(key string, value any, ttl time.Duration) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode entry %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{Value: raw}
	if ttl > 0 {
		expires := s.now().Add(ttl)
		e.ExpiresAt = &expires
	}
	s.entries[key] = e

	return s.saveLocked()
}

// Delete removes the entry under key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.saveLocked()
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.fs.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open store file: %w", err)
	}
	defer file.Close()

	var stored map[string]entry
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode store: %w", err)
	}

	now := s.now()
	s.entries = make(map[string]entry, len(stored))
	for key, e := range stored {
		if e.ExpiresAt != nil && !now.Before(*e.ExpiresAt) {
			continue
		}
		s.entries[key] = e
	}

	return nil
}

func (s *Store) saveLocked() error {
	tmp := s.path + ".tmp"
	file, err := s.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create store temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.entries); err != nil {
		file.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("encode store: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("close store temp file: %w", err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}
