package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/claude/planform/internal/controller"
	"github.com/google/uuid"
)

// SessionCookie names the cookie that binds a browser to its form controller.
const SessionCookie = "planform_session"

// session is one browser's form state.
type session struct {
	id       uuid.UUID
	ctl      *controller.Controller
	lastSeen time.Time
}

// Sessions maps session cookies to controllers and evicts idle ones.
type Sessions struct {
	ttl     time.Duration
	factory func() *controller.Controller
	log     *slog.Logger
	now     func() time.Time

	mu sync.Mutex
	m  map[uuid.UUID]*session

	stop chan struct{}
	done chan struct{}
}

// NewSessions starts a session table whose janitor drops sessions idle longer than ttl.
func NewSessions(ttl time.Duration, factory func() *controller.Controller, log *slog.Logger) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Sessions{
		ttl:     ttl,
		factory: factory,
		log:     log,
		now:     time.Now,
		m:       make(map[uuid.UUID]*session),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *Sessions) janitor() {
	defer close(s.done)
	interval := max(s.ttl/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("evicted idle sessions", "count", n)
			}
		case <-s.stop:
			return
		}
	}
}

// Sweep removes sessions idle longer than the TTL and returns how many went.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.m {
		if sess.lastSeen.Before(cutoff) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Close stops the janitor.
func (s *Sessions) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

// lookup returns the session for the request cookie, creating one (and setting
// the cookie) when the cookie is missing, malformed or expired.
func (s *Sessions) lookup(w http.ResponseWriter, r *http.Request) *session {
	now := s.now()
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			s.mu.Lock()
			sess, ok := s.m[id]
			if ok {
				sess.lastSeen = now
			}
			s.mu.Unlock()
			if ok {
				return sess
			}
		}
	}

	sess := &session{id: uuid.New(), ctl: s.factory(), lastSeen: now}
	s.mu.Lock()
	s.m[sess.id] = sess
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Middleware attaches the caller's session to the request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.lookup(w, r)
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(r *http.Request) *session {
	sess, _ := r.Context().Value(sessionKey).(*session)
	return sess
}
