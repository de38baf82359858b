package core

// session.go holds uploaded bytes in memory so a file can be re-processed
// with a different selection without uploading it again. Entries expire
// after a TTL of inactivity and are never written to disk.

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionStore is a TTL-bounded in-memory map of uploads keyed by FileID.
type SessionStore struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[FileID]*sessionEntry
}

type sessionEntry struct {
	file     UploadedFile
	expires  time.Time
	accessed time.Time
}

// NewSessionStore creates a store whose entries live for ttl after their last
// access. When maxEntries is reached the least recently used entry is evicted.
func NewSessionStore(ttl time.Duration, maxEntries int) *SessionStore {
	return &SessionStore{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[FileID]*sessionEntry),
	}
}

// Put stores file under file.ID.
func (s *SessionStore) Put(file UploadedFile) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[file.ID]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.entries[file.ID] = &sessionEntry{file: file, expires: now.Add(s.ttl), accessed: now}
}

// Get returns the upload held under id and extends its lifetime. Unknown
// and expired IDs fail with ErrSessionNotFound.
func (s *SessionStore) Get(id FileID) (UploadedFile, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return UploadedFile{}, ErrSessionNotFound
	}
	if now.After(e.expires) {
		delete(s.entries, id)
		return UploadedFile{}, ErrSessionNotFound
	}
	e.expires = now.Add(s.ttl)
	e.accessed = now
	return e.file, nil
}

// Delete drops the upload held under id. It reports whether it was present.
func (s *SessionStore) Delete(id FileID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Len returns the number of held uploads, including expired ones not yet swept.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started", "ttl", s.ttl, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired uploads swept", "removed", n, "held", s.Len())
			}
		}
	}
}

func (s *SessionStore) evictOldestLocked() {
	var oldest FileID
	var oldestAt time.Time
	for id, e := range s.entries {
		if oldest == "" || e.accessed.Before(oldestAt) {
			oldest, oldestAt = id, e.accessed
		}
	}
	if oldest != "" {
		delete(s.entries, oldest)
		slog.Debug("upload evicted", "file_id", oldest)
	}
}
