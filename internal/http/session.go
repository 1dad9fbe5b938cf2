package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const sessionCookie = "nz_session"

// Session is an authenticated admin login. The dashboard has a single
// shared password, so the session carries no user identity beyond its
// expiry.
type Session struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// sessionStore keeps admin sessions in memory. Restarting the server
// logs everyone out, which is acceptable for a single-admin dashboard.
type sessionStore struct {
	mu           sync.Mutex
	sessions     map[string]Session
	ttl          time.Duration
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func newSessionStore(ttl time.Duration) *sessionStore {
	st := &sessionStore{
		sessions:    make(map[string]Session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
	go st.startCleanup()
	return st
}

// Create issues a new session token.
func (st *sessionStore) Create() Session {
	now := time.Now()
	s := Session{
		Token:     newSessionToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(st.ttl),
	}

	st.mu.Lock()
	st.sessions[s.Token] = s
	st.mu.Unlock()
	return s
}

// Get returns the live session for a token, if any.
func (st *sessionStore) Get(token string) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[token]
	if !ok {
		return Session{}, false
	}
	if s.Expired(time.Now()) {
		delete(st.sessions, token)
		return Session{}, false
	}
	return s, true
}

// Destroy invalidates a token. Unknown tokens are ignored.
func (st *sessionStore) Destroy(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}

func (st *sessionStore) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.cleanupExpired()
		case <-st.stopCleanup:
			return
		}
	}
}

func (st *sessionStore) cleanupExpired() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	for token, s := range st.sessions {
		if s.Expired(now) {
			delete(st.sessions, token)
		}
	}
}

func (st *sessionStore) stop() {
	st.shutdownOnce.Do(func() {
		close(st.stopCleanup)
	})
}

// sessionFromRequest resolves the request's cookie to a live session.
func (st *sessionStore) sessionFromRequest(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return Session{}, false
	}
	return st.Get(cookie.Value)
}

func newSessionToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func setSessionCookie(w http.ResponseWriter, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
