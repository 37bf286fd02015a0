// Package session keeps logged-in state server side. The browser only holds
// an opaque id in an HttpOnly cookie; the bearer token and the usuario
// profile stay in the store.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"recorridos/internal/cache"
	"recorridos/internal/core"
	"recorridos/internal/ports"
)

const CookieName = "recorridos_session"

// Session is the state of one logged-in browser.
type Session struct {
	ID        string
	Token     string
	Usuario   core.Usuario
	ExpiresAt time.Time
}

func (s *Session) Authenticated() bool { return s != nil && s.Token != "" }

func (s *Session) IsAdmin() bool { return s.Authenticated() && s.Usuario.IsAdmin() }

// Store holds sessions for at most ttl.
type Store struct {
	sessions *cache.LRUCache[*Session]
	ttl      time.Duration
	secure   bool
}

func NewStore(maxSessions int, ttl time.Duration, secureCookie bool) *Store {
	return &Store{
		sessions: cache.NewLRUCache[*Session](maxSessions, ttl),
		ttl:      ttl,
		secure:   secureCookie,
	}
}

// Cache exposes the backing cache for periodic cleanup.
func (s *Store) Cache() cache.Cleaner { return s.sessions }

// Login stores creds under a new session id and sets the cookie.
func (s *Store) Login(w http.ResponseWriter, creds ports.Credentials) *Session {
	exp := time.Now().Add(s.ttl)
	if !creds.ExpiresAt.IsZero() && creds.ExpiresAt.Before(exp) {
		exp = creds.ExpiresAt
	}
	sess := &Session{
		ID:        uuid.NewString(),
		Token:     creds.Token,
		Usuario:   creds.Usuario,
		ExpiresAt: exp,
	}
	s.sessions.Set(sess.ID, sess)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Get returns the session referenced by the request cookie.
func (s *Store) Get(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	sess, ok := s.sessions.Get(c.Value)
	if !ok {
		return nil, false
	}
	if time.Now().After(sess.ExpiresAt) {
		s.sessions.Delete(sess.ID)
		return nil, false
	}
	return sess, true
}

// Logout deletes the session, if any, and expires the cookie.
func (s *Store) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		s.sessions.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Store) Len() int { return s.sessions.Size() }

type ctxKey struct{}

func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session placed by the auth middleware, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}
