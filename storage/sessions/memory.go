package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core/session"
)

// expired entries are swept by Save at most once per sweepInterval
const sweepInterval = time.Minute

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

type memoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

var _ session.Store = (*memoryStore)(nil)

// NewMemoryStore keeps sessions in process. Sessions are lost on restart.
func NewMemoryStore() session.Store {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	if entry.expired(s.now()) {
		delete(s.entries, id)
		return nil, session.ErrNotFound
	}

	sess := new(session.Session)
	if err := json.Unmarshal(entry.data, sess); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *memoryStore) Save(_ context.Context, sess *session.Session, ttl time.Duration) error {
	// stored encoded so callers never share the stored value
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	now := s.now()
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expires = now.Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
	}
	s.entries[sess.ID] = entry
	return nil
}

// sweep drops every expired entry. s.mu must be held.
func (s *memoryStore) sweep(now time.Time) {
	for id, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, id)
		}
	}
	s.lastSweep = now
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}
