package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"mindcare-web/internal/auth"
	"mindcare-web/internal/model"
)

type ctxKey string

const sessionKey ctxKey = "session"

// SessionFrom returns the session Authenticate attached, or nil.
func SessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionKey).(*auth.Session)
	return s
}

func WithSession(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// Authenticate attaches the session, if any. A cookie that no longer
// decodes (expired, tampered) is cleared.
func Authenticate(sessions *auth.Sessions, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Read(r)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					log.Info("dropping session", "error", err, "path", r.URL.Path)
				}
				if _, cerr := r.Cookie(auth.CookieName); cerr == nil {
					sessions.Clear(w)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireRole redirects visitors without a session to login, and visitors
// with the wrong role to their own home. No roles means any signed-in user.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := SessionFrom(r.Context())
			if s == nil {
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			if len(roles) > 0 && !hasRole(s.Claims.Role, roles) {
				http.Redirect(w, r, auth.HomePath(s.Claims.Role), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuestOnly bounces signed-in users off login/register.
func GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := SessionFrom(r.Context()); s != nil {
			http.Redirect(w, r, auth.HomePath(s.Claims.Role), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasRole(r model.Role, roles []model.Role) bool {
	for _, want := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func LoginURL(next string) string {
	if !SafeNext(next) {
		return "/login"
	}
	return "/login?" + url.Values{"next": {next}}.Encode()
}

// SafeNext allows only local absolute paths, so ?next= can't leave the site.
func SafeNext(next string) bool {
	return strings.HasPrefix(next, "/") &&
		!strings.HasPrefix(next, "//") &&
		!strings.HasPrefix(next, "/\\") &&
		!strings.ContainsAny(next, "\r\n")
}
