package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const CookieName = "session"

const defaultSessionTTL = 24 * time.Hour

var ErrNoSession = errors.New("no session")

// Session is an authenticated visitor: the raw backend token plus its claims.
type Session struct {
	Token  string
	Claims *Claims
}

// Sessions seals the backend token into the session cookie.
type Sessions struct {
	key     [32]byte
	secret  string
	secure  bool
	flashes *Flashes
}

func NewSessions(sessionKey, jwtSecret string, secure bool) *Sessions {
	key := sha256.Sum256([]byte(sessionKey))
	return &Sessions{key: key, secret: jwtSecret, secure: secure, flashes: newFlashes(key, secure)}
}

// Flashes shares the session key and cookie flags.
func (s *Sessions) Flashes() *Flashes { return s.flashes }

func (s *Sessions) Seal(token string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *Sessions) Open(value string) (string, error) {
	box, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(box) < 24+secretbox.Overhead {
		return "", ErrNoSession
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return "", ErrNoSession
	}
	return string(plain), nil
}

// Start writes the cookie for a freshly issued backend token.
func (s *Sessions) Start(w http.ResponseWriter, token string) (*Session, error) {
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return nil, err
	}
	sealed, err := s.Seal(token)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(defaultSessionTTL)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sealed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return &Session{Token: token, Claims: claims}, nil
}

// Read returns the session on the request, if any.
func (s *Sessions) Read(r *http.Request) (*Session, error) {
	ck, err := r.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil, ErrNoSession
	}
	token, err := s.Open(ck.Value)
	if err != nil {
		return nil, err
	}
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Claims: claims}, nil
}

func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
