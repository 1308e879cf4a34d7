// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides the cache-coherent user repository. The durable
// layer is a single JSON document holding every user record; an in-memory
// copy is cached for the process lifetime and discarded whenever its
// consistency with the document is in doubt.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"otpgate/internal/fsutil"
	"otpgate/internal/models"
)

const usersFilePermissions = 0o600 // Owner read/write only

var (
	// ErrStorageCorrupt marks an unparseable user document. It is never
	// masked as an empty store — recovery requires an explicit InitEmpty.
	ErrStorageCorrupt = errors.New("user store corrupt")

	// ErrStorageWrite marks a failed durable write. The cache is left
	// untouched when it is returned.
	ErrStorageWrite = errors.New("user store write failed")
)

// UserStore is the cache-coherent repository over the users.json document.
//
// The cached set is immutable once installed: Read hands every caller an
// independent deep copy, so concurrent requests never share a map, and a
// caller's mutations become durable only through Write. Writes replace
// the whole document atomically and refresh the cache to the written
// value. Read-modify-write sequences go through Update, which serializes
// them so concurrent updates cannot lose each other's changes.
type UserStore struct {
	path string

	mu    sync.RWMutex // guards the cache pointer
	cache *models.UserSet

	writeMu  sync.Mutex // serializes durable writes
	updateMu sync.Mutex // serializes read-modify-write sequences

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewUserStore creates a repository persisting to users.json under dataDir.
// The document is loaded lazily on first Read.
func NewUserStore(dataDir string) *UserStore {
	return &UserStore{path: filepath.Join(dataDir, "users.json")}
}

// Path returns the location of the durable document.
func (s *UserStore) Path() string {
	return s.path
}

// Read returns a private snapshot of the user set, loading and parsing
// the durable document on a cache miss. Mutating the snapshot never
// affects the cache or other readers. A missing file is a valid
// first-run state and yields an empty set; an unparseable file returns
// ErrStorageCorrupt.
func (s *UserStore) Read() (*models.UserSet, error) {
	s.mu.RLock()
	cached := s.cache
	s.mu.RUnlock()

	// The installed set is never mutated, so cloning outside the lock
	// is safe.
	if cached != nil {
		s.hits.Add(1)
		return cached.Clone(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another reader may have filled the cache while we waited.
	if s.cache != nil {
		s.hits.Add(1)
		return s.cache.Clone(), nil
	}

	s.misses.Add(1)

	set, err := s.load()
	if err != nil {
		return nil, err
	}

	s.cache = set
	return set.Clone(), nil
}

// Write serializes the entire set, replaces the durable document
// atomically, and refreshes the cache to the written value. On failure the
// cache is not mutated.
func (s *UserStore) Write(set *models.UserSet) error {
	if set == nil {
		return fmt.Errorf("%w: nil user set", ErrStorageWrite)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrStorageWrite, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := fsutil.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := fsutil.AtomicWriteFile(s.path, data, usersFilePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	// Install a copy so a caller retaining set cannot mutate the cache
	// afterwards.
	snapshot := set.Clone()
	s.mu.Lock()
	s.cache = snapshot
	s.mu.Unlock()

	return nil
}

// Update runs fn against a snapshot of the current set and, when fn
// reports a change, persists the result. Updates are serialized across
// the whole read-modify-write, so two concurrent updates can never lose
// each other's records. An error from fn abandons the update with
// nothing written; a failed durable write invalidates the cache.
func (s *UserStore) Update(fn func(*models.UserSet) (bool, error)) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	set, err := s.Read()
	if err != nil {
		return err
	}

	changed, err := fn(set)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.Write(set); err != nil {
		s.Invalidate()
		return err
	}
	return nil
}

// Invalidate discards the cache. The next Read reloads from durable
// storage, so later readers observe only committed state.
func (s *UserStore) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// Exists is a cache-preferring membership check for email.
func (s *UserStore) Exists(email string) (bool, error) {
	set, err := s.Read()
	if err != nil {
		return false, err
	}
	return set.Get(email) != nil, nil
}

// InitEmpty replaces the durable document with an empty set. It is the
// explicit recovery path from ErrStorageCorrupt and is never invoked
// automatically.
func (s *UserStore) InitEmpty() error {
	return s.Write(models.NewUserSet())
}

// load reads and parses the document from disk. Callers hold s.mu.
func (s *UserStore) load() (*models.UserSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewUserSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var set models.UserSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStorageCorrupt, s.path, err)
	}
	if set.Users == nil {
		set.Users = make(map[string]*models.User)
	}

	return &set, nil
}
