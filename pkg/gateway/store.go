package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SessionKey is the persister key the session record is written under.
const SessionKey = "cm360_session"

// ErrNoRecord is returned by a Persister when the key does not exist.
var ErrNoRecord = errors.New("gateway: no persisted record")

// Persister is a durable key-value surface used to save and restore the
// session across process restarts. Implementations must return ErrNoRecord
// (possibly wrapped) from Get when the key is absent.
type Persister interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SessionStore owns the current Session and the pending refresh marker.
// It is created by the composition root and shared by reference; there is no
// package level session.
type SessionStore struct {
	persister Persister
	logger    *slog.Logger

	// persistMu serialises writes to the persister so that the last write
	// always reflects the latest in-memory state.
	persistMu sync.Mutex

	mu         sync.Mutex
	session    *Session
	generation uint64 // bumped on every login/logout
	flight     *refreshFlight
}

// refreshFlight is the shared future for an in-progress refresh. Callers that
// receive a 401 while it is set wait on done instead of starting their own.
type refreshFlight struct {
	done         chan struct{}
	generation   uint64
	refreshToken string
	proactive    bool

	// Set before done is closed.
	accessToken string
	err         error
}

// NewSessionStore returns an empty store backed by p.
func NewSessionStore(p Persister, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{persister: p, logger: logger}
}

// OpenSessionStore creates a store and rehydrates any persisted session.
func OpenSessionStore(ctx context.Context, p Persister, logger *slog.Logger) (*SessionStore, error) {
	s := NewSessionStore(p, logger)
	if err := s.Rehydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Rehydrate loads the persisted session into memory. A record that is
// corrupt or breaks the token/identity pairing is discarded.
func (s *SessionStore) Rehydrate(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	raw, err := s.persister.Get(ctx, SessionKey)
	if errors.Is(err, ErrNoRecord) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil || !sess.valid() {
		s.logger.Warn("discarding unusable persisted session", "error", err)
		if err := s.persister.Delete(ctx, SessionKey); err != nil && !errors.Is(err, ErrNoRecord) {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.session = &sess
	s.generation++
	s.mu.Unlock()

	s.logger.Debug("session rehydrated", "user_id", sess.Identity.ID, "role", sess.Identity.Role)
	return nil
}

// Snapshot returns a copy of the current session or nil when anonymous.
func (s *SessionStore) Snapshot() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *SessionStore) copyLocked() *Session {
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// State reports the coarse session state.
func (s *SessionStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.session == nil:
		return StateAnonymous
	case s.flight != nil:
		return StateRefreshingPending
	default:
		return StateAuthenticated
	}
}

// replace persists sess and then installs it. If persisting fails the
// in-memory session is left untouched.
func (s *SessionStore) replace(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err := s.persister.Set(ctx, SessionKey, raw); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	cp := *sess
	s.session = &cp
	s.generation++
	s.flight = nil
	s.mu.Unlock()
	return nil
}

// clear drops the in-memory session and deletes the persisted record.
// It reports whether a session was present.
func (s *SessionStore) clear(ctx context.Context) bool {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.generation++
	// Waiters on a detached flight still get woken; its result is discarded
	// because the generation no longer matches.
	s.flight = nil
	s.mu.Unlock()

	s.sync(ctx)
	return had
}

// update applies fn to the current session if its generation still matches
// and persists the result. It reports whether the update was applied.
func (s *SessionStore) update(ctx context.Context, generation uint64, fn func(*Session)) bool {
	s.mu.Lock()
	if s.session == nil || s.generation != generation {
		s.mu.Unlock()
		return false
	}
	cp := *s.session
	fn(&cp)
	s.session = &cp
	s.mu.Unlock()

	s.sync(ctx)
	return true
}

// sync writes the latest in-memory state to the persister. Failures are
// logged: the in-memory session stays authoritative until the next write.
func (s *SessionStore) sync(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	snap := s.copyLocked()
	s.mu.Unlock()

	if snap == nil {
		if err := s.persister.Delete(ctx, SessionKey); err != nil && !errors.Is(err, ErrNoRecord) {
			s.logger.Warn("failed to delete persisted session", "error", err)
		}
		return
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("failed to encode session", "error", err)
		return
	}
	if err := s.persister.Set(ctx, SessionKey, raw); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
}

// generationOf returns the current generation together with a snapshot.
func (s *SessionStore) generationOf() (uint64, *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.copyLocked()
}
