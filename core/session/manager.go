package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
)

// Store persists sessions by ID.
type Store interface {
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, conf *core.Config) *Manager {
	return &Manager{store: store, ttl: conf.Server.SessionTTL}
}

// New returns a fresh anonymous Session.
func (m *Manager) New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Load returns the Session stored under id, or a fresh one if there is none.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.New(), nil
	}
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return m.New(), nil
		}
		return nil, errors.Wrap(err, "loading session")
	}
	sess.ID = id
	sess.stored = true
	return sess, nil
}

// Save persists sess if it was modified. Empty sessions are removed from the Store.
// A renewed session gets a new ID and its previous record is deleted.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if !sess.modified {
		return nil
	}

	if sess.renew {
		if sess.stored {
			if err := m.store.Delete(ctx, sess.ID); err != nil {
				return errors.Wrap(err, "deleting renewed session")
			}
			sess.stored = false
		}
		sess.ID = uuid.NewString()
		sess.renew = false
	}

	if sess.IsEmpty() {
		if sess.stored {
			if err := m.store.Delete(ctx, sess.ID); err != nil {
				return errors.Wrap(err, "deleting session")
			}
			sess.stored = false
		}
		sess.modified = false
		return nil
	}

	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return errors.Wrap(err, "saving session")
	}
	sess.stored = true
	sess.modified = false
	return nil
}

// Persisted reports whether the browser must keep a cookie for sess.
func (m *Manager) Persisted(sess *Session) bool { return sess.stored }

func (m *Manager) TTL() time.Duration { return m.ttl }
