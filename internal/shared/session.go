package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionRecord is the persisted part of a session.
type SessionRecord struct {
	Values map[string]string `json:"values"`
	UserID int64             `json:"user_id,omitempty"`
}

// SessionStore persists session records keyed by id.
type SessionStore interface {
	Find(ctx context.Context, id string) (SessionRecord, error)
	Save(ctx context.Context, id string, rec SessionRecord, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// SessionManager orchestrates cookie based sessions backed by a SessionStore.
type SessionManager struct {
	store      SessionStore
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	userID    int64
	staleID   string
	isNew     bool
	dirty     bool
	destroyed bool
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(store SessionStore, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load loads the session named by the request cookie. Unknown or expired ids
// yield a fresh session with a new id so a client cannot choose its own.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}
	if cookie.Value == "" {
		return sm.newSession(), nil
	}

	stored, err := sm.store.Find(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	sess := sm.newSession()
	sess.ID = cookie.Value
	if stored.Values != nil {
		sess.values = stored.Values
	}
	sess.userID = stored.UserID
	sess.isNew = false
	sess.dirty = false
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed. Fresh
// sessions that carry nothing are not stored and get no cookie.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.staleID != "" {
		if err := sm.store.Delete(ctx, sess.staleID); err != nil {
			return err
		}
		sess.staleID = ""
	}

	if sess.destroyed {
		if sess.ID != "" {
			if err := sm.store.Delete(ctx, sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.empty() {
		return nil
	}

	if sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	// A clean session keeps the expiry it was last saved with. Re-sending
	// the cookie would outlive the stored record.
	if !sess.dirty && !sess.isNew {
		return nil
	}
	rec := SessionRecord{Values: sess.values, UserID: sess.userID}
	if err := sm.store.Save(ctx, sess.ID, rec, sm.ttl); err != nil {
		return err
	}
	sess.dirty = false
	sess.isNew = false

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
		MaxAge:   int(sm.ttl.Seconds()),
	})
	return nil
}

// Destroy marks the session for deletion.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
	sess.userID = 0
	sess.values = make(map[string]string)
}

// Renew gives the session a new id and forgets its CSRF token. The old
// record is dropped on commit.
func (sm *SessionManager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew && sess.ID != "" {
		sess.staleID = sess.ID
	}
	sess.ID = sm.generateSessionID()
	delete(sess.values, CSRFSessionKey)
	sess.isNew = true
	sess.dirty = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Session helpers

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SetUser associates the session with a user ID.
func (s *Session) SetUser(id int64) {
	s.userID = id
	s.dirty = true
}

// User returns the current user ID, zero when anonymous.
func (s *Session) User() int64 {
	return s.userID
}

// Destroyed reports whether Destroy was called during this request.
func (s *Session) Destroyed() bool {
	return s.destroyed
}

func (s *Session) empty() bool {
	return s.userID == 0 && len(s.values) == 0
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:     sm.generateSessionID(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
