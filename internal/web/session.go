package web

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	cookieName = "fitlife_session"
	issuer     = "fitlife-ai"
)

// SessionManager issues and verifies the signed session cookie. The token
// only carries an opaque session id; all state stays on the server.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager returns a manager signing with secret. An empty secret is
// replaced by a random one, which invalidates sessions on restart.
func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	return &SessionManager{secret: key, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Resolve returns the session id of r, issuing a fresh session cookie when
// the request carries none or an invalid one. Tokens past half their
// lifetime are renewed.
func (m *SessionManager) Resolve(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cookieName); err == nil {
		claims, err := m.parse(c.Value)
		if err == nil {
			if claims.ExpiresAt != nil && claims.ExpiresAt.Sub(m.now()) < m.ttl/2 {
				m.issue(w, claims.Subject)
			}
			return claims.Subject
		}
	}

	id := uuid.NewString()
	m.issue(w, id)
	return id
}

func (m *SessionManager) issue(w http.ResponseWriter, id string) {
	token, err := m.sign(id)
	if err != nil {
		// Signing with an in-memory HMAC key does not fail in practice; the
		// request still works for its own duration.
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) sign(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *SessionManager) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, errors.New("session subject is not a uuid")
	}
	return claims, nil
}
