package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	FlashCookie = "flash"
	flashMaxAge = 60
)

// Flashes carries one-shot messages across a redirect in a signed cookie.
type Flashes struct {
	store *sessions.CookieStore
}

func newFlashes(key [32]byte, secure bool) *Flashes {
	// separate signing key from the session box
	hashKey := sha256.Sum256(append([]byte("flash:"), key[:]...))
	store := sessions.NewCookieStore(hashKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(flashMaxAge)
	return &Flashes{store: store}
}

// Add queues msg for the next page the visitor sees.
func (f *Flashes) Add(w http.ResponseWriter, r *http.Request, msg string) error {
	// a tampered or expired cookie still yields a usable empty session
	s, _ := f.store.Get(r, FlashCookie)
	s.Options.MaxAge = flashMaxAge
	s.AddFlash(msg)
	return s.Save(r, w)
}

// Pop returns the queued messages joined by a space and drops the cookie.
func (f *Flashes) Pop(w http.ResponseWriter, r *http.Request) string {
	if _, err := r.Cookie(FlashCookie); err != nil {
		return ""
	}
	s, err := f.store.Get(r, FlashCookie)
	msgs := s.Flashes()
	s.Options.MaxAge = -1
	_ = s.Save(r, w)
	if err != nil {
		return ""
	}
	out := ""
	for _, m := range msgs {
		if str, ok := m.(string); ok && str != "" {
			if out != "" {
				out += " "
			}
			out += str
		}
	}
	return out
}
