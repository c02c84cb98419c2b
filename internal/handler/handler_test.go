package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcare-web/internal/auth"
	"mindcare-web/internal/backend"
	"mindcare-web/internal/handler"
	"mindcare-web/internal/logger"
	"mindcare-web/internal/middleware"
	"mindcare-web/internal/model"
	"mindcare-web/internal/survey"
)

const (
	jwtSecret  = "test-jwt-secret"
	sessionKey = "test-session-key"
)

var now = time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)

// fakeAPI stands in for the platform backend.
type fakeAPI struct {
	mu        sync.Mutex
	appts     []model.Appointment
	entries   []model.JournalEntry
	followUps []model.Question
	failWith  int

	blogs     []model.BlogPost

	booked         []backend.BookingRequest
	cancelled      map[string]string
	rescheduled    map[string]time.Time
	completed      []string
	verified       []string
	submitted      []backend.SurveySubmission
	deletedJournal []string
	registered     []backend.RegisterRequest
	resetRequests  []string
	resets         []string
	profiles       []backend.ProfileUpdate
	passwords      []string
	savedBlogs     map[string]backend.BlogInput
	deletedBlogs   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		cancelled:   map[string]string{},
		rescheduled: map[string]time.Time{},
		savedBlogs:  map[string]backend.BlogInput{},
	}
}

func apiError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (f *fakeAPI) router(t *testing.T) http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			status := f.failWith
			f.mu.Unlock()
			if status != 0 {
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "backend says no"})
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if body["password"] != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		tok, err := auth.MakeToken("p1", model.RolePatient, jwtSecret, time.Hour)
		assert.NoError(t, err)
		reply(w, backend.AuthResponse{Token: tok, User: model.User{ID: "p1", Name: "Pat", Role: model.RolePatient}})
	}).Methods(http.MethodPost)
	r.HandleFunc("/appointments", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.appts)
	}).Methods(http.MethodGet)
	r.HandleFunc("/appointments", func(w http.ResponseWriter, req *http.Request) {
		var in backend.BookingRequest
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		f.mu.Lock()
		f.booked = append(f.booked, in)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		reply(w, model.Appointment{ID: "new", TherapistID: in.TherapistID, StartTime: in.StartTime, EndTime: in.EndTime})
	}).Methods(http.MethodPost)
	r.HandleFunc("/appointments/{id}/cancel", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		f.mu.Lock()
		f.cancelled[mux.Vars(req)["id"]] = body["reason"]
		f.mu.Unlock()
		reply(w, model.Appointment{ID: mux.Vars(req)["id"], Status: model.StatusCancelled})
	}).Methods(http.MethodPatch)
	r.HandleFunc("/appointments/{id}/reschedule", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]time.Time
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		id := mux.Vars(req)["id"]
		f.mu.Lock()
		f.rescheduled[id] = body["startTime"]
		f.mu.Unlock()
		reply(w, model.Appointment{ID: id, StartTime: body["startTime"], EndTime: body["endTime"], Status: model.StatusConfirmed})
	}).Methods(http.MethodPatch)
	r.HandleFunc("/appointments/{id}/complete", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		f.mu.Lock()
		f.completed = append(f.completed, id)
		f.mu.Unlock()
		reply(w, model.Appointment{ID: id, Status: model.StatusCompleted})
	}).Methods(http.MethodPatch)
	r.HandleFunc("/auth/register", func(w http.ResponseWriter, req *http.Request) {
		var in backend.RegisterRequest
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		if in.Email == "taken@example.com" {
			apiError(w, http.StatusConflict, "email already registered")
			return
		}
		f.mu.Lock()
		f.registered = append(f.registered, in)
		f.mu.Unlock()
		tok, err := auth.MakeToken("n1", in.Role, jwtSecret, time.Hour)
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(backend.AuthResponse{Token: tok, User: model.User{ID: "n1", Name: in.Name, Role: in.Role}})
	}).Methods(http.MethodPost)
	r.HandleFunc("/auth/forgot-password", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		f.mu.Lock()
		f.resetRequests = append(f.resetRequests, body["email"])
		f.mu.Unlock()
		if body["email"] != "pat@example.com" {
			apiError(w, http.StatusNotFound, "user not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset-password", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if body["token"] == "expired" {
			apiError(w, http.StatusBadRequest, "token expired")
			return
		}
		f.mu.Lock()
		f.resets = append(f.resets, body["token"])
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/users/me", func(w http.ResponseWriter, req *http.Request) {
		reply(w, model.User{ID: "p1", Name: "Pat", Email: "pat@example.com", Role: model.RolePatient})
	}).Methods(http.MethodGet)
	r.HandleFunc("/users/me", func(w http.ResponseWriter, req *http.Request) {
		var in backend.ProfileUpdate
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		f.mu.Lock()
		f.profiles = append(f.profiles, in)
		f.mu.Unlock()
		reply(w, model.User{ID: "p1", Name: in.Name, Phone: in.Phone, Bio: in.Bio, Role: model.RolePatient})
	}).Methods(http.MethodPut)
	r.HandleFunc("/users/me/password", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if body["currentPassword"] != "correct-horse" {
			apiError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		f.mu.Lock()
		f.passwords = append(f.passwords, body["newPassword"])
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPut)
	r.HandleFunc("/blogs", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.blogs)
	}).Methods(http.MethodGet)
	r.HandleFunc("/blogs", func(w http.ResponseWriter, req *http.Request) {
		var in backend.BlogInput
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		f.mu.Lock()
		f.savedBlogs["b-new"] = in
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.BlogPost{ID: "b-new", Title: in.Title, Content: in.Content, Tags: in.Tags})
	}).Methods(http.MethodPost)
	r.HandleFunc("/blogs/{id}", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, p := range f.blogs {
			if p.ID == mux.Vars(req)["id"] {
				reply(w, p)
				return
			}
		}
		apiError(w, http.StatusNotFound, "post not found")
	}).Methods(http.MethodGet)
	r.HandleFunc("/blogs/{id}", func(w http.ResponseWriter, req *http.Request) {
		var in backend.BlogInput
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		id := mux.Vars(req)["id"]
		f.mu.Lock()
		f.savedBlogs[id] = in
		f.mu.Unlock()
		reply(w, model.BlogPost{ID: id, Title: in.Title, Content: in.Content, Tags: in.Tags})
	}).Methods(http.MethodPut)
	r.HandleFunc("/blogs/{id}", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.deletedBlogs = append(f.deletedBlogs, mux.Vars(req)["id"])
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)
	r.HandleFunc("/journal/{id}", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.deletedJournal = append(f.deletedJournal, mux.Vars(req)["id"])
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)
	r.HandleFunc("/journal", func(w http.ResponseWriter, req *http.Request) {
		var in backend.JournalInput
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.JournalEntry{ID: "j-new", Title: in.Title, Content: in.Content, Mood: in.Mood})
	}).Methods(http.MethodPost)
	r.HandleFunc("/therapists/{id}", func(w http.ResponseWriter, req *http.Request) {
		reply(w, model.User{ID: mux.Vars(req)["id"], Name: "Dr. Tess", Role: model.RoleTherapist, Verified: true})
	}).Methods(http.MethodGet)
	r.HandleFunc("/therapists/{id}/slots", func(w http.ResponseWriter, req *http.Request) {
		day, err := time.Parse("2006-01-02", req.URL.Query().Get("date"))
		assert.NoError(t, err)
		start := day.Add(9 * time.Hour)
		reply(w, []model.Slot{{Start: start, End: start.Add(time.Hour), Available: true}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/journal", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.entries)
	}).Methods(http.MethodGet)
	r.HandleFunc("/survey/questions", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, f.followUps)
	}).Methods(http.MethodPost)
	r.HandleFunc("/survey/submit", func(w http.ResponseWriter, req *http.Request) {
		var in backend.SurveySubmission
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		f.mu.Lock()
		f.submitted = append(f.submitted, in)
		f.mu.Unlock()
		reply(w, model.SurveyResult{ID: "s1", Score: in.Score, Severity: in.Severity})
	}).Methods(http.MethodPost)
	r.HandleFunc("/admin/users", func(w http.ResponseWriter, req *http.Request) {
		reply(w, []model.User{
			{ID: "p1", Name: "Pat", Role: model.RolePatient},
			{ID: "t9", Name: "Tess", Role: model.RoleTherapist},
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/admin/users/{id}/verify", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.verified = append(f.verified, mux.Vars(req)["id"])
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPatch)
	return r
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type env struct {
	site     http.Handler
	api      *fakeAPI
	sessions *auth.Sessions
	drafts   *survey.MemoryStore
	metrics  *middleware.Metrics
}

func setup(t *testing.T) *env {
	t.Helper()
	f := newFakeAPI()
	srv := httptest.NewServer(f.router(t))
	t.Cleanup(srv.Close)

	api, err := backend.New(srv.URL)
	require.NoError(t, err)
	sessions := auth.NewSessions(sessionKey, jwtSecret, false)
	drafts := survey.NewMemoryStore()
	h, err := handler.New(api, sessions, drafts, logger.NewWithWriter(io.Discard, "test", "error"))
	require.NoError(t, err)
	h.SetClock(func() time.Time { return now })

	limiter := middleware.NewRateLimiter(100, 100)
	t.Cleanup(limiter.Close)
	metrics := middleware.NewMetrics()
	return &env{site: h.Routes(limiter, metrics), api: f, sessions: sessions, drafts: drafts, metrics: metrics}
}

func (e *env) cookie(t *testing.T, uid string, role model.Role) *http.Cookie {
	t.Helper()
	tok, err := auth.MakeToken(uid, role, jwtSecret, time.Hour)
	require.NoError(t, err)
	sealed, err := e.sessions.Seal(tok)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: sealed}
}

func (e *env) do(req *http.Request, c *http.Cookie) *httptest.ResponseRecorder {
	if c != nil {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.site.ServeHTTP(rec, req)
	return rec
}

func get(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func post(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// follow replays a redirect with the flash cookie it set, as a browser would.
func (e *env) follow(t *testing.T, rec *httptest.ResponseRecorder, session *http.Cookie) string {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	req := get(rec.Header().Get("Location"))
	if flash := findCookie(rec, auth.FlashCookie); flash != nil {
		req.AddCookie(flash)
	}
	next := e.do(req, session)
	require.Equal(t, http.StatusOK, next.Code)
	return next.Body.String()
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealthz(t *testing.T) {
	e := setup(t)
	rec := e.do(get("/healthz"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnknownPage(t *testing.T) {
	e := setup(t)
	rec := e.do(get("/nope"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestLoginStartsSession(t *testing.T) {
	e := setup(t)
	rec := e.do(post("/login", url.Values{"email": {"pat@example.com"}, "password": {"correct-horse"}}), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/patient/dashboard", rec.Header().Get("Location"))

	c := findCookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	// the sealed cookie opens the patient area
	rec = e.do(get("/patient/journal"), c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginHonoursLocalNext(t *testing.T) {
	e := setup(t)
	form := url.Values{"email": {"pat@example.com"}, "password": {"correct-horse"}, "next": {"/patient/journal"}}
	rec := e.do(post("/login", form), nil)
	assert.Equal(t, "/patient/journal", rec.Header().Get("Location"))

	form.Set("next", "//evil.example.com")
	rec = e.do(post("/login", form), nil)
	assert.Equal(t, "/patient/dashboard", rec.Header().Get("Location"))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	e := setup(t)
	rec := e.do(post("/login", url.Values{"email": {"pat@example.com"}, "password": {"wrong"}}), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.Nil(t, findCookie(rec, auth.CookieName))
}

func TestRoleGuards(t *testing.T) {
	e := setup(t)

	rec := e.do(get("/patient/dashboard"), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fpatient%2Fdashboard", rec.Header().Get("Location"))

	rec = e.do(get("/patient/journal"), e.cookie(t, "t1", model.RoleTherapist))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/therapist/dashboard", rec.Header().Get("Location"))

	rec = e.do(get("/admin/users"), e.cookie(t, "p1", model.RolePatient))
	assert.Equal(t, "/patient/dashboard", rec.Header().Get("Location"))

	rec = e.do(get("/login"), e.cookie(t, "a1", model.RoleAdmin))
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestTamperedCookieIsCleared(t *testing.T) {
	e := setup(t)
	rec := e.do(get("/blogs/x"), &http.Cookie{Name: auth.CookieName, Value: "garbage"})
	c := findCookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestBackendUnauthorizedEndsSession(t *testing.T) {
	e := setup(t)
	e.api.failWith = http.StatusUnauthorized
	rec := e.do(get("/patient/appointments"), e.cookie(t, "p1", model.RolePatient))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?next="))
	c := findCookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestBackendUnauthorizedOnPostSkipsNext(t *testing.T) {
	e := setup(t)
	e.api.failWith = http.StatusUnauthorized
	rec := e.do(post("/patient/journal/new", url.Values{"content": {"hello"}, "mood": {"good"}}), e.cookie(t, "p1", model.RolePatient))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	// the form target only accepts POST, so there is nothing to come back to
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	c := findCookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestMetricsEndpoint(t *testing.T) {
	e := setup(t)
	e.do(get("/healthz"), nil)
	rec := e.do(get("/metrics"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mindcare_web_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestBackendOutageShowsRetry(t *testing.T) {
	e := setup(t)
	e.api.failWith = http.StatusInternalServerError
	rec := e.do(get("/patient/appointments"), e.cookie(t, "p1", model.RolePatient))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Try again")
	assert.NotContains(t, rec.Body.String(), "backend says no")
}

func TestAppointmentTabs(t *testing.T) {
	e := setup(t)
	e.api.appts = []model.Appointment{
		{ID: "soon", TherapistName: "Dr. Soon", StartTime: now.Add(3 * time.Hour), EndTime: now.Add(4 * time.Hour), Status: model.StatusConfirmed},
		{ID: "later", TherapistName: "Dr. Later", StartTime: now.Add(72 * time.Hour), EndTime: now.Add(73 * time.Hour), Status: model.StatusConfirmed},
		{ID: "gone", TherapistName: "Dr. Gone", StartTime: now.Add(96 * time.Hour), EndTime: now.Add(97 * time.Hour), Status: model.StatusCancelled},
	}
	rec := e.do(get("/patient/appointments"), e.cookie(t, "p1", model.RolePatient))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Dr. Soon")
	assert.Contains(t, body, "Dr. Later")
	assert.NotContains(t, body, "Dr. Gone")
	assert.Contains(t, body, "/patient/appointments/later/cancel")
	assert.NotContains(t, body, "/patient/appointments/soon/cancel")
	assert.Contains(t, body, "Changes close 24 hours before the session.")

	rec = e.do(get("/patient/appointments?tab=cancelled"), e.cookie(t, "p1", model.RolePatient))
	assert.Contains(t, rec.Body.String(), "Dr. Gone")
}

func TestCancelWithinCutoffIsBlocked(t *testing.T) {
	e := setup(t)
	e.api.appts = []model.Appointment{
		{ID: "a1", TherapistID: "t1", StartTime: now.Add(3 * time.Hour), EndTime: now.Add(4 * time.Hour), Status: model.StatusConfirmed},
	}
	rec := e.do(post("/patient/appointments/a1/cancel", url.Values{"reason": {"sick"}}), e.cookie(t, "p1", model.RolePatient))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, e.api.cancelled)
}

func TestCancelNeedsReason(t *testing.T) {
	e := setup(t)
	e.api.appts = []model.Appointment{
		{ID: "a1", TherapistID: "t1", StartTime: now.Add(48 * time.Hour), EndTime: now.Add(49 * time.Hour), Status: model.StatusConfirmed},
	}
	c := e.cookie(t, "p1", model.RolePatient)
	rec := e.do(post("/patient/appointments/a1/cancel", url.Values{"reason": {"  "}}), c)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, e.api.cancelled)

	rec = e.do(post("/patient/appointments/a1/cancel", url.Values{"reason": {"travelling"}}), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/patient/appointments?tab=cancelled", rec.Header().Get("Location"))
	assert.Equal(t, "travelling", e.api.cancelled["a1"])
	assert.Contains(t, e.follow(t, rec, c), "Appointment cancelled.")
}

func TestCancelOtherUsersAppointment(t *testing.T) {
	e := setup(t)
	rec := e.do(post("/patient/appointments/not-mine/cancel", url.Values{"reason": {"x"}}), e.cookie(t, "p1", model.RolePatient))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, e.api.cancelled)
}

func TestBookSlot(t *testing.T) {
	e := setup(t)
	c := e.cookie(t, "p1", model.RolePatient)

	rec := e.do(get("/therapists/t1?date=2030-03-06"), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book session")

	start := time.Date(2030, 3, 6, 9, 0, 0, 0, time.UTC)
	slot := start.Format(time.RFC3339) + "/" + start.Add(time.Hour).Format(time.RFC3339)
	rec = e.do(post("/patient/appointments?date=2030-03-06", url.Values{
		"therapist_id": {"t1"},
		"slot":         {slot},
		"notes":        {"first visit"},
	}), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/patient/appointments", rec.Header().Get("Location"))
	require.Len(t, e.api.booked, 1)
	assert.Equal(t, "t1", e.api.booked[0].TherapistID)
	assert.True(t, start.Equal(e.api.booked[0].StartTime))
	assert.Equal(t, "first visit", e.api.booked[0].Notes)
}

func TestBookPastSlotRejected(t *testing.T) {
	e := setup(t)
	start := now.Add(-2 * time.Hour)
	rec := e.do(post("/patient/appointments?date=2030-03-04", url.Values{
		"therapist_id": {"t1"},
		"start":        {start.Format(time.RFC3339)},
		"end":          {start.Add(time.Hour).Format(time.RFC3339)},
	}), e.cookie(t, "p1", model.RolePatient))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, e.api.booked)
}

func TestTherapistsCannotBook(t *testing.T) {
	e := setup(t)
	rec := e.do(post("/patient/appointments", url.Values{"therapist_id": {"t1"}}), e.cookie(t, "t1", model.RoleTherapist))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, e.api.booked)
}

func TestJournalAnalyticsJSON(t *testing.T) {
	e := setup(t)
	e.api.entries = []model.JournalEntry{
		{ID: "j1", Mood: model.MoodGreat, Content: "a", CreatedAt: now.Add(-time.Hour)},
		{ID: "j2", Mood: model.MoodLow, Content: "b", CreatedAt: now.Add(-25 * time.Hour)},
		{ID: "j3", Mood: model.MoodGreat, Content: "c", CreatedAt: now.Add(-49 * time.Hour)},
	}
	rec := e.do(get("/patient/journal/analytics.json?days=7"), e.cookie(t, "p1", model.RolePatient))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		Total        int    `json:"total"`
		DominantMood string `json:"dominantMood"`
		Daily        []any  `json:"daily"`
		Streak       int    `json:"streak"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, "great", got.DominantMood)
	assert.Len(t, got.Daily, 7)
	assert.Equal(t, 3, got.Streak)
}

func TestJournalAnalyticsJSONOutage(t *testing.T) {
	e := setup(t)
	e.api.failWith = http.StatusServiceUnavailable
	rec := e.do(get("/patient/journal/analytics.json"), e.cookie(t, "p1", model.RolePatient))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
}

func TestJournalPageRenders(t *testing.T) {
	e := setup(t)
	e.api.entries = []model.JournalEntry{{ID: "j1", Title: "Monday", Mood: model.MoodOkay, Content: "fine", CreatedAt: now}}
	rec := e.do(get("/patient/journal/analytics"), e.cookie(t, "p1", model.RolePatient))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mood breakdown")

	rec = e.do(get("/patient/dashboard"), e.cookie(t, "p1", model.RolePatient))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Monday")
}

func TestCreateJournalValidates(t *testing.T) {
	e := setup(t)
	rec := e.do(post("/patient/journal/new", url.Values{"content": {"hello"}, "mood": {"ecstatic"}}), e.cookie(t, "p1", model.RolePatient))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pick a mood.")
}

func TestSurveyWizard(t *testing.T) {
	e := setup(t)
	c := e.cookie(t, "p1", model.RolePatient)

	rec := e.do(get("/patient/survey"), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Step 1 of 4")

	// missing answers keep the user on step 1
	rec = e.do(post("/patient/survey", url.Values{"age_range": {"25-34"}}), c)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(post("/patient/survey", url.Values{
		"age_range":     {"25-34"},
		"prior_therapy": {"No"},
		"medication":    {"No"},
		"main_concern":  {"sleep"},
	}), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	phq := url.Values{}
	for _, q := range survey.PHQQuestions {
		phq.Set(q.ID, "1")
	}
	rec = e.do(post("/patient/survey", phq), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	d, err := e.drafts.Load(t.Context(), "p1")
	require.NoError(t, err)
	assert.Equal(t, survey.StepReview, d.Step)

	rec = e.do(get("/patient/survey"), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Several days")

	rec = e.do(post("/patient/survey/submit", nil), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>9</strong>")
	require.Len(t, e.api.submitted, 1)
	assert.Equal(t, 9, e.api.submitted[0].Score)
	assert.Equal(t, "mild", e.api.submitted[0].Severity)

	_, err = e.drafts.Load(t.Context(), "p1")
	assert.ErrorIs(t, err, survey.ErrNotFound)
}

func TestSurveyFollowUpOutageKeepsAnswers(t *testing.T) {
	e := setup(t)
	c := e.cookie(t, "p1", model.RolePatient)
	d := survey.NewDraft("p1")
	d.Step = survey.StepPHQ
	require.NoError(t, e.drafts.Save(t.Context(), d))

	e.api.failWith = http.StatusInternalServerError
	phq := url.Values{}
	for _, q := range survey.PHQQuestions {
		phq.Set(q.ID, "2")
	}
	rec := e.do(post("/patient/survey", phq), c)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	got, err := e.drafts.Load(t.Context(), "p1")
	require.NoError(t, err)
	assert.Equal(t, survey.StepPHQ, got.Step)
	assert.Equal(t, "2", got.Answers["phq_1"])
}

func TestSurveySubmitIncomplete(t *testing.T) {
	e := setup(t)
	c := e.cookie(t, "p1", model.RolePatient)
	rec := e.do(post("/patient/survey/submit", nil), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/patient/survey", rec.Header().Get("Location"))
	assert.Empty(t, e.api.submitted)
}

func TestAdminVerifiesTherapist(t *testing.T) {
	e := setup(t)
	c := e.cookie(t, "a1", model.RoleAdmin)

	rec := e.do(get("/admin/users?role=therapist"), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/admin/users/t9/verify")

	rec = e.do(post("/admin/users/t9/verify", nil), c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"t9"}, e.api.verified)

	rec = e.do(get("/admin/dashboard"), c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Awaiting verification")
}

func TestRateLimitedLogin(t *testing.T) {
	f := newFakeAPI()
	srv := httptest.NewServer(f.router(t))
	t.Cleanup(srv.Close)
	api, err := backend.New(srv.URL)
	require.NoError(t, err)
	h, err := handler.New(api, auth.NewSessions(sessionKey, jwtSecret, false), nil, logger.NewWithWriter(io.Discard, "test", "error"))
	require.NoError(t, err)
	limiter := middleware.NewRateLimiter(0.001, 1)
	t.Cleanup(limiter.Close)
	metrics := middleware.NewMetrics()
	site := h.Routes(limiter, metrics)

	form := url.Values{"email": {"pat@example.com"}, "password": {"wrong"}}
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, post("/login", form))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	site.ServeHTTP(rec, post("/login", form))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	site.ServeHTTP(rec, get("/metrics"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mindcare_web_rate_limit_hits_total{route="/login"} 1`)
}
