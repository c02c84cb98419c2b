package handler

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"mindcare-web/internal/middleware"
	"mindcare-web/internal/model"
	"mindcare-web/web"
)

// Routes builds the full site. limiter throttles the credential forms;
// metrics, when set, is fed by every request and served on /metrics.
func (h *Handler) Routes(limiter middleware.Limiter, metrics *middleware.Metrics) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	r.Use(middleware.TagRoute)

	throttle := middleware.RateLimit(limiter, metrics, http.HandlerFunc(h.tooManyRequests))
	guest := func(f http.HandlerFunc) http.Handler { return middleware.GuestOnly(throttle(f)) }

	static, _ := fs.Sub(web.FS, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	// public
	r.HandleFunc("/", h.home).Methods(http.MethodGet)
	r.Handle("/login", guest(h.loginPage)).Methods(http.MethodGet)
	r.Handle("/login", guest(h.login)).Methods(http.MethodPost)
	r.Handle("/register", guest(h.registerPage)).Methods(http.MethodGet)
	r.Handle("/register", guest(h.register)).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", h.forgotPage).Methods(http.MethodGet)
	r.Handle("/forgot-password", throttle(http.HandlerFunc(h.forgot))).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", h.resetPage).Methods(http.MethodGet)
	r.Handle("/reset-password", throttle(http.HandlerFunc(h.reset))).Methods(http.MethodPost)
	r.HandleFunc("/blogs", h.blogList).Methods(http.MethodGet)
	r.HandleFunc("/blogs/{id}", h.blogShow).Methods(http.MethodGet)
	r.HandleFunc("/therapists", h.therapistList).Methods(http.MethodGet)
	r.HandleFunc("/therapists/{id}", h.therapistShow).Methods(http.MethodGet)

	// any signed-in user
	signedIn := middleware.RequireRole()
	r.Handle("/dashboard", signedIn(http.HandlerFunc(h.dashboard))).Methods(http.MethodGet)
	r.Handle("/profile", signedIn(http.HandlerFunc(h.profilePage))).Methods(http.MethodGet)
	r.Handle("/profile", signedIn(http.HandlerFunc(h.updateProfile))).Methods(http.MethodPost)
	r.Handle("/profile/password", signedIn(throttle(http.HandlerFunc(h.changePassword)))).Methods(http.MethodPost)

	patient := r.PathPrefix("/patient").Subrouter()
	patient.Use(middleware.RequireRole(model.RolePatient))
	patient.HandleFunc("/dashboard", h.patientDashboard).Methods(http.MethodGet)
	patient.HandleFunc("/appointments", h.appointments).Methods(http.MethodGet)
	patient.HandleFunc("/appointments", h.book).Methods(http.MethodPost)
	patient.HandleFunc("/appointments/{id}/cancel", h.cancelPage).Methods(http.MethodGet)
	patient.HandleFunc("/appointments/{id}/cancel", h.cancel).Methods(http.MethodPost)
	patient.HandleFunc("/appointments/{id}/reschedule", h.reschedulePage).Methods(http.MethodGet)
	patient.HandleFunc("/appointments/{id}/reschedule", h.reschedule).Methods(http.MethodPost)
	patient.HandleFunc("/journal", h.journalList).Methods(http.MethodGet)
	patient.HandleFunc("/journal/new", h.newJournalPage).Methods(http.MethodGet)
	patient.HandleFunc("/journal/new", h.createJournal).Methods(http.MethodPost)
	patient.HandleFunc("/journal/analytics", h.journalAnalytics).Methods(http.MethodGet)
	patient.HandleFunc("/journal/analytics.json", h.journalAnalyticsJSON).Methods(http.MethodGet)
	patient.HandleFunc("/journal/{id}/edit", h.editJournalPage).Methods(http.MethodGet)
	patient.HandleFunc("/journal/{id}/edit", h.updateJournal).Methods(http.MethodPost)
	patient.HandleFunc("/journal/{id}/delete", h.deleteJournal).Methods(http.MethodPost)
	patient.HandleFunc("/survey", h.surveyPage).Methods(http.MethodGet)
	patient.HandleFunc("/survey", h.surveyNext).Methods(http.MethodPost)
	patient.HandleFunc("/survey/back", h.surveyBack).Methods(http.MethodPost)
	patient.HandleFunc("/survey/restart", h.surveyRestart).Methods(http.MethodPost)
	patient.HandleFunc("/survey/submit", h.surveySubmit).Methods(http.MethodPost)

	therapist := r.PathPrefix("/therapist").Subrouter()
	therapist.Use(middleware.RequireRole(model.RoleTherapist))
	therapist.HandleFunc("/dashboard", h.therapistDashboard).Methods(http.MethodGet)
	therapist.HandleFunc("/appointments", h.appointments).Methods(http.MethodGet)
	therapist.HandleFunc("/appointments/{id}/cancel", h.cancelPage).Methods(http.MethodGet)
	therapist.HandleFunc("/appointments/{id}/cancel", h.cancel).Methods(http.MethodPost)
	therapist.HandleFunc("/appointments/{id}/complete", h.complete).Methods(http.MethodPost)
	therapist.HandleFunc("/blogs", h.myBlogs).Methods(http.MethodGet)
	therapist.HandleFunc("/blogs/new", h.newBlogPage).Methods(http.MethodGet)
	therapist.HandleFunc("/blogs/new", h.createBlog).Methods(http.MethodPost)
	therapist.HandleFunc("/blogs/{id}/edit", h.editBlogPage).Methods(http.MethodGet)
	therapist.HandleFunc("/blogs/{id}/edit", h.updateBlog).Methods(http.MethodPost)
	therapist.HandleFunc("/blogs/{id}/delete", h.deleteBlog).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.HandleFunc("/dashboard", h.adminDashboard).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.adminUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/verify", h.verifyTherapist).Methods(http.MethodPost)
	admin.HandleFunc("/blogs/{id}/delete", h.adminDeleteBlog).Methods(http.MethodPost)

	var site http.Handler = r
	site = middleware.Authenticate(h.sessions, h.log)(site)
	site = middleware.RequestLog(h.log, metrics)(site)
	site = middleware.Recover(h.log, http.HandlerFunc(h.internalError))(site)
	return site
}
