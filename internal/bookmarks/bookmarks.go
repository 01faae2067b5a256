// Package bookmarks persists the reader's client-side state: the bookmarked
// post identifiers and the preferred location filter. The state lives in a
// small JSON file guarded by a flock so the CLI and daemon can share it.
package bookmarks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
)

type state struct {
	PostIDs  []int64 `json:"post_ids"`
	Location string  `json:"location"`
}

// Store holds the durable bookmark set and preferred location filter.
type Store struct {
	mu       sync.Mutex
	path     string
	lock     *flock.Flock
	ids      map[int64]struct{}
	location string
}

// Open reads the bookmark file at path, creating parent directories as
// needed. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("bookmarks path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bookmarks directory: %w", err)
	}

	s := &Store{
		path: path,
		lock: flock.New(path + ".lock"),
		ids:  make(map[int64]struct{}),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}

	var persisted state
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return nil, fmt.Errorf("parse bookmarks: %w", err)
	}
	for _, id := range persisted.PostIDs {
		s.ids[id] = struct{}{}
	}
	s.location = persisted.Location
	return s, nil
}

// Toggle flips membership of postID in the bookmark set and persists the
// change. It reports whether the post is bookmarked afterwards.
func (s *Store) Toggle(postID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[postID]; ok {
		delete(s.ids, postID)
	} else {
		s.ids[postID] = struct{}{}
	}
	if err := s.persist(); err != nil {
		return false, err
	}
	_, bookmarked := s.ids[postID]
	return bookmarked, nil
}

// Contains reports whether postID is bookmarked.
func (s *Store) Contains(postID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[postID]
	return ok
}

// IDs returns the bookmarked post identifiers in ascending order.
func (s *Store) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIDs()
}

// Location returns the persisted preferred location filter.
func (s *Store) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// SetLocation persists the preferred location filter.
func (s *Store) SetLocation(location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = location
	return s.persist()
}

func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) persist() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock bookmarks: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	payload, err := json.MarshalIndent(state{PostIDs: s.sortedIDs(), Location: s.location}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bookmarks: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write bookmarks: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace bookmarks: %w", err)
	}
	return nil
}
