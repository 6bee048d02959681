package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"billed/internal/cache"
)

const DefaultCookieName = "billed_session"

// maxRevoked bounds the ids remembered after logout; each is kept for the
// session TTL, after which its token has expired anyway.
const maxRevoked = 100_000

var errRevoked = errors.New("session revoked")

// CookieStorage is the Storage of one request, persisted by Manager.Save.
type CookieStorage struct {
	id    string
	items map[string]string
	dirty bool
}

var _ Storage = (*CookieStorage)(nil)

func newCookieStorage() *CookieStorage {
	return &CookieStorage{id: uuid.NewString(), items: make(map[string]string)}
}

// ID identifies the session across requests.
func (s *CookieStorage) ID() string { return s.id }

func (s *CookieStorage) GetItem(key string) (string, bool) {
	v, ok := s.items[key]
	return v, ok
}

func (s *CookieStorage) SetItem(key, value string) {
	if cur, ok := s.items[key]; ok && cur == value {
		return
	}
	s.items[key] = value
	s.dirty = true
}

func (s *CookieStorage) RemoveItem(key string) {
	if _, ok := s.items[key]; !ok {
		return
	}
	delete(s.items, key)
	s.dirty = true
}

type claims struct {
	Items map[string]string `json:"items"`
	jwt.RegisteredClaims
}

// Manager signs sessions into an HS256 JWT cookie.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
	revoked    *cache.LRUCache[struct{}]
}

func NewManager(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: DefaultCookieName,
		secure:     secure,
		now:        time.Now,
		revoked:    cache.NewLRUCache[struct{}](maxRevoked, ttl),
	}, nil
}

// Revoked exposes the logout list for periodic expiry sweeps.
func (m *Manager) Revoked() cache.Cleaner { return m.revoked }

// Load returns the request's session, or a fresh one when the cookie is
// missing, expired or tampered with.
func (m *Manager) Load(r *http.Request) *CookieStorage {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return newCookieStorage()
	}
	s, err := m.parse(c.Value)
	if err != nil {
		slog.DebugContext(r.Context(), "Discarding invalid session cookie", "error", err)
		return newCookieStorage()
	}
	return s
}

func (m *Manager) parse(token string) (*CookieStorage, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(token, &cl, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if cl.ID == "" {
		return nil, errors.New("session token without id")
	}
	if _, ok := m.revoked.Get(cl.ID); ok {
		return nil, errRevoked
	}
	items := cl.Items
	if items == nil {
		items = make(map[string]string)
	}
	return &CookieStorage{id: cl.ID, items: items}, nil
}

// Save writes the cookie when the session changed. It must run before the
// response body is written.
func (m *Manager) Save(w http.ResponseWriter, s *CookieStorage) error {
	if !s.dirty {
		return nil
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Items: maps.Clone(s.items),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.dirty = false
	return nil
}

// Destroy clears the cookie and revokes the session id, so a copy of the
// token is refused until it expires.
func (m *Manager) Destroy(w http.ResponseWriter, s *CookieStorage) {
	if s != nil {
		m.revoked.Set(s.id, struct{}{})
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type ctxKey struct{}

// Middleware loads the session into the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

// FromContext returns the session loaded by Middleware, or nil.
func FromContext(ctx context.Context) *CookieStorage {
	s, _ := ctx.Value(ctxKey{}).(*CookieStorage)
	return s
}
