package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mindcare-web/internal/auth"
	"mindcare-web/internal/backend"
	"mindcare-web/internal/middleware"
	"mindcare-web/internal/survey"
)

type Handler struct {
	api      *backend.Client
	sessions *auth.Sessions
	drafts   survey.DraftStore
	views    *views
	log      *slog.Logger
	now      func() time.Time
}

func New(api *backend.Client, sessions *auth.Sessions, drafts survey.DraftStore, log *slog.Logger) (*Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	if drafts == nil {
		drafts = survey.NewMemoryStore()
	}
	return &Handler{
		api:      api,
		sessions: sessions,
		drafts:   drafts,
		views:    v,
		log:      log,
		now:      time.Now,
	}, nil
}

// SetClock replaces time.Now; tests use it to pin the cutoff checks.
func (h *Handler) SetClock(now func() time.Time) { h.now = now }

// session is only called behind RequireRole, so it is never nil there.
func session(r *http.Request) *auth.Session {
	return middleware.SessionFrom(r.Context())
}

func token(r *http.Request) string {
	if s := session(r); s != nil {
		return s.Token
	}
	return ""
}

// fail maps a backend error onto a page: 401 ends the session, 404 and 403
// get their own pages, everything else is a 502 with a retry link.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			h.sessions.Clear(w)
			// a POST target can't be revisited with GET after sign-in
			next := ""
			if r.Method == http.MethodGet {
				next = r.URL.RequestURI()
			}
			http.Redirect(w, r, middleware.LoginURL(next), http.StatusSeeOther)
			return
		case http.StatusNotFound:
			h.notFound(w, r)
			return
		case http.StatusForbidden:
			h.errorPage(w, r, http.StatusForbidden, "Not allowed", "You don't have access to this page.")
			return
		}
	}
	h.log.Error("backend call failed", "error", err, "path", r.URL.Path)
	h.render(w, r, http.StatusBadGateway, "error.html", page{
		"Title":   "Service unavailable",
		"Message": "We couldn't reach the service. Please try again.",
		"Retry":   r.URL.RequestURI(),
	})
}

func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	h.render(w, r, status, "error.html", page{"Title": title, "Message": msg})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusNotFound, "Page not found", "The page you are looking for does not exist.")
}

func (h *Handler) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusTooManyRequests, "Slow down", "Too many attempts. Please wait a minute and try again.")
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusInternalServerError, "Something went wrong", "An unexpected error occurred.")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusMethodNotAllowed, "Method not allowed", "This action is not supported here.")
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
