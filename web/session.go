package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomocy/reddish/domain"
)

const (
	sessionCookieName         = "reddish_session"
	defaultSessionIdleTimeout = 24 * time.Hour
)

// Session is the state of one browser, from the oauth state in flight to the feed on its dashboard.
// Handlers hold mu while they read or mutate it.
type Session struct {
	ID string
	// guarded by the store
	lastSeen time.Time

	mu    sync.Mutex
	state string
	repo  domain.PostRepo
	feed  domain.Feed
}

func (s *Session) authorized() bool {
	return s.repo != nil
}

func (s *Session) authorize(repo domain.PostRepo) {
	s.state = ""
	s.repo = repo
	s.feed = domain.Feed{}
}

// sessionStore drops sessions idle for longer than ttl.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	secure   bool
	ttl      time.Duration
	now      func() time.Time
}

func newSessionStore(secure bool, ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionIdleTimeout
	}

	return &sessionStore{
		sessions: make(map[string]*Session),
		secure:   secure,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *sessionStore) get(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[c.Value]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, sess.ID)
		return nil, false
	}
	sess.lastSeen = now

	return sess, true
}

func (s *sessionStore) getOrStart(w http.ResponseWriter, r *http.Request) *Session {
	if sess, ok := s.get(r); ok {
		return sess
	}

	s.mu.Lock()
	now := s.now()
	s.evictExpired(now)
	sess := &Session{ID: uuid.NewString(), lastSeen: now}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return sess
}

func (s *sessionStore) evictExpired(now time.Time) {
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *sessionStore) expired(sess *Session, now time.Time) bool {
	return s.ttl < now.Sub(sess.lastSeen)
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *sessionStore) drop(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.get(r); ok {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionContextKey struct{}

func withSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

func sessionFrom(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	return sess, ok
}
