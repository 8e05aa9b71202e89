// Package session tracks each signed-in user's live feed subscriptions so
// that logout tears all of them down at once.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/credix-app/credix/backend/internal/ledger"
	"github.com/credix-app/credix/backend/internal/store"
)

// ErrClosed is returned by Subscribe after the session has been closed.
var ErrClosed = errors.New("session closed")

// Manager owns one Session per user.
type Manager struct {
	store store.Store
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(s store.Store, log zerolog.Logger) *Manager {
	return &Manager{
		store:    s,
		log:      log.With().Str("component", "session").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Open returns the user's live session, creating it if needed.
func (m *Manager) Open(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		userID: userID,
		store:  m.store,
		log:    m.log.With().Str("user_id", userID).Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
	m.sessions[userID] = s
	s.log.Debug().Msg("session opened")
	return s
}

// Get returns the user's session if one is open.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Close ends the user's session and every subscription under it. Closing a
// user without a session is a no-op.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// CloseAll ends every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len reports the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Session is one user's set of live subscriptions.
type Session struct {
	userID string
	store  store.Store
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	active int
}

func (s *Session) UserID() string { return s.userID }

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Subscribe streams whole snapshots of one feed. The channel is closed when
// ctx is done or the session is closed, whichever comes first.
func (s *Session) Subscribe(ctx context.Context, feed ledger.Feed) (<-chan store.Snapshot, error) {
	if s.ctx.Err() != nil {
		return nil, ErrClosed
	}

	subCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	ch, err := s.store.Watch(subCtx, s.userID, feed)
	if err != nil {
		stop()
		cancel()
		return nil, err
	}

	s.mu.Lock()
	s.active++
	s.mu.Unlock()
	s.log.Debug().Str("feed", string(feed)).Msg("subscribed")

	context.AfterFunc(subCtx, func() {
		stop()
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
		s.log.Debug().Str("feed", string(feed)).Msg("unsubscribed")
	})
	return ch, nil
}

// Active reports the number of live subscriptions.
func (s *Session) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Close cancels every subscription. It is safe to call more than once.
func (s *Session) Close() {
	if s.ctx.Err() == nil {
		s.log.Debug().Msg("session closed")
	}
	s.cancel()
}
