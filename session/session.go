// Package session issues and tracks dashboard login sessions. A session is an
// HS256 JWT whose jti is also held server-side, so logging out or shutting
// the manager down revokes it before it expires.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "relatos-dashboard"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrRevoked            = errors.New("session revoked or expired")
	ErrClosed             = errors.New("session manager closed")
)

// Session is an authenticated dashboard user.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config configures a Manager.
type Config struct {
	// Secret signs tokens. When empty a random key is generated, which
	// invalidates every token on restart.
	Secret        []byte
	TTL           time.Duration
	Email         string
	Password      string
	SweepInterval time.Duration
}

// Manager logs users in and validates their tokens.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	email    string
	password string
	sweep    time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
	closed   bool
	stop     chan struct{}
	done     chan struct{}
}

// NewManager creates a manager. Call Start to begin sweeping expired sessions.
func NewManager(cfg Config) (*Manager, error) {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logging.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}

	return &Manager{
		secret:   secret,
		ttl:      ttl,
		email:    cfg.Email,
		password: cfg.Password,
		sweep:    sweep,
		now:      time.Now,
		sessions: make(map[string]Session),
	}, nil
}

// Start launches the background sweeper. It is a no-op when already started.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil || m.closed {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.sweepLoop(m.stop, m.done)
}

// Close stops the sweeper and revokes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	stop, done := m.stop, m.done
	m.sessions = make(map[string]Session)
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (m *Manager) sweepLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := m.removeExpired(); n > 0 {
				logging.Debug("Expired sessions removed", "count", n)
			}
		}
	}
}

func (m *Manager) removeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Login checks the credentials and issues a signed token.
func (m *Manager) Login(email, password string) (Session, string, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), []byte(m.email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !emailOK || !passOK || m.email == "" {
		return Session{}, "", ErrInvalidCredentials
	}

	now := m.now().Truncate(time.Second)
	s := Session{
		ID:        uuid.New().String(),
		Email:     m.email,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Issuer:    issuer,
		Subject:   s.Email,
		IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Session{}, "", ErrClosed
	}
	m.sessions[s.ID] = s
	return s, token, nil
}

// Verify parses token and returns its session when it is still tracked.
func (m *Manager) Verify(token string) (Session, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[claims.ID]
	if !ok || !m.now().Before(s.ExpiresAt) {
		return Session{}, ErrRevoked
	}
	return s, nil
}

// Logout revokes the session behind token.
func (m *Manager) Logout(token string) error {
	s, err := m.Verify(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	return nil
}

// Active returns the number of tracked sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by the session middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// BearerToken extracts the token of an `Authorization: Bearer <token>` header.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
