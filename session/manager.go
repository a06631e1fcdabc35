package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xraph/vitrine/id"
)

// Sentinels owned here so the manager is usable standalone. The root
// package re-exports matching values.
var (
	ErrUnauthenticated = errors.New("vitrine: unauthenticated")
	ErrSessionExpired  = errors.New("vitrine: session expired")
)

// DefaultTTL is the token lifetime when no option overrides it.
const DefaultTTL = 24 * time.Hour

type claims struct {
	jwt.RegisteredClaims
}

// Manager issues signed session tokens and resolves them back to live
// sessions. Tokens are HS256 JWTs carrying only the session id; the grant
// cache lives server-side in the Session, never in the token.
//
// Rotating the signing key invalidates every outstanding token: old tokens
// fail signature verification and the live sessions are dropped.
type Manager struct {
	mu   sync.RWMutex
	key  []byte
	ttl  time.Duration
	live map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// NewManager creates a manager with the given signing key. The key is
// injected, never generated: ownership of rotation stays with the caller.
func NewManager(key []byte, opts ...Option) (*Manager, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("session: signing key must not be empty")
	}
	m := &Manager{
		key:  key,
		ttl:  DefaultTTL,
		live: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue registers a new live session for the user and returns it along
// with its signed token.
func (m *Manager) Issue(userID id.UserID, username string) (*Session, string, error) {
	s := newSession(userID, username)

	m.mu.Lock()
	key := m.key
	ttl := m.ttl
	m.live[s.ID.String()] = s
	m.mu.Unlock()

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID.String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := tok.SignedString(key)
	if err != nil {
		m.mu.Lock()
		delete(m.live, s.ID.String())
		m.mu.Unlock()
		return nil, "", fmt.Errorf("session: sign token: %w", err)
	}
	return s, signed, nil
}

// Resolve verifies a token and returns its live session. Tokens signed
// with a rotated-out key, expired tokens, and tokens for revoked sessions
// all fail here.
func (m *Manager) Resolve(token string) (*Session, error) {
	m.mu.RLock()
	key := m.key
	m.mu.RUnlock()

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("session: unexpected signing method %q", t.Method.Alg())
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrUnauthenticated
	}
	if !parsed.Valid {
		return nil, ErrUnauthenticated
	}

	m.mu.RLock()
	s, ok := m.live[c.ID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s, nil
}

// Revoke drops a live session and clears its grant cache. Resolving its
// token afterwards fails even though the signature still verifies.
func (m *Manager) Revoke(sessionID id.SessionID) {
	m.mu.Lock()
	s, ok := m.live[sessionID.String()]
	delete(m.live, sessionID.String())
	m.mu.Unlock()
	if ok {
		s.Clear()
	}
}

// RotateKey swaps the signing key and drops every live session. All
// outstanding tokens become invalid.
func (m *Manager) RotateKey(newKey []byte) error {
	if len(newKey) == 0 {
		return fmt.Errorf("session: signing key must not be empty")
	}
	m.mu.Lock()
	m.key = newKey
	m.live = make(map[string]*Session)
	m.mu.Unlock()
	return nil
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}
