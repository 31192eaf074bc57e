// Package session issues and verifies the signed bearer tokens that
// carry a principal between the CLI/client and the server.
//
// Tokens are HS256 JWTs. The server only ever trusts a verified token
// for principal derivation; ids or emails in request payloads are
// ignored everywhere.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shipfast/livesync/todo"
)

const issuer = "livesync"

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

var (
	// ErrMissingSecret is returned when a manager is built without a
	// signing secret.
	ErrMissingSecret = errors.New("session secret cannot be empty")

	// ErrInvalidToken is returned for tokens that fail verification,
	// including expired ones.
	ErrInvalidToken = errors.New("invalid session token")
)

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a manager signing with the given secret. A zero ttl
// defaults to DefaultTTL.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue returns a signed token for the principal.
func (m *Manager) Issue(principal todo.Principal) (string, error) {
	if principal.IsZero() {
		return "", fmt.Errorf("issue token: missing principal id")
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: principal.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the principal it
// carries. All failure modes (bad signature, expiry, wrong issuer,
// malformed input) collapse into ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (todo.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil || !parsed.Valid {
		return todo.Principal{}, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return todo.Principal{}, ErrInvalidToken
	}
	return todo.Principal{ID: c.Subject, Email: c.Email}, nil
}
