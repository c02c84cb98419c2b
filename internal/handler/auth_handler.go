package handler

import (
	"net/http"
	"strings"

	"mindcare-web/internal/auth"
	"mindcare-web/internal/backend"
	"mindcare-web/internal/middleware"
	"mindcare-web/internal/model"
)

const minPasswordLen = 8

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", page{"Next": r.URL.Query().Get("next")})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errorPage(w, r, http.StatusBadRequest, "Bad request", "Could not read the form.")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")
	form := page{"Email": email, "Next": next}

	if email == "" || password == "" {
		form["Error"] = "Email and password are required."
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", form)
		return
	}

	res, err := h.api.Login(r.Context(), email, password)
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) || backend.IsStatus(err, http.StatusBadRequest) {
			form["Error"] = "Invalid email or password."
			h.render(w, r, http.StatusUnauthorized, "login.html", form)
			return
		}
		h.fail(w, r, err)
		return
	}

	s, err := h.sessions.Start(w, res.Token)
	if err != nil {
		h.log.Error("backend issued an unusable token", "error", err)
		h.internalError(w, r)
		return
	}
	h.log.Info("login", "uid", s.Claims.UserID, "role", s.Claims.Role)

	to := auth.HomePath(s.Claims.Role)
	if middleware.SafeNext(next) {
		to = next
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", page{"RoleChoice": string(model.RolePatient)})
}

func validateRegistration(name, email, password, confirm string, role model.Role) string {
	switch {
	case name == "":
		return "Name is required."
	case !strings.Contains(email, "@"):
		return "Enter a valid email address."
	case len(password) < minPasswordLen:
		return "Password must be at least 8 characters."
	case password != confirm:
		return "Passwords do not match."
	case role != model.RolePatient && role != model.RoleTherapist:
		return "Choose whether you are a patient or a therapist."
	}
	return ""
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errorPage(w, r, http.StatusBadRequest, "Bad request", "Could not read the form.")
		return
	}
	req := backend.RegisterRequest{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Role:     model.Role(r.FormValue("role")),
	}
	form := page{"Name": req.Name, "Email": req.Email, "RoleChoice": string(req.Role)}

	if msg := validateRegistration(req.Name, req.Email, req.Password, r.FormValue("confirm_password"), req.Role); msg != "" {
		form["Error"] = msg
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", form)
		return
	}

	res, err := h.api.Register(r.Context(), req)
	if err != nil {
		if backend.IsStatus(err, http.StatusConflict) || backend.IsStatus(err, http.StatusBadRequest) {
			form["Error"] = backend.Message(err)
			h.render(w, r, http.StatusUnprocessableEntity, "register.html", form)
			return
		}
		h.fail(w, r, err)
		return
	}

	s, err := h.sessions.Start(w, res.Token)
	if err != nil {
		// account exists; let them sign in normally
		h.redirectWithFlash(w, r, "/login", "Account created. Please sign in.")
		return
	}
	h.setFlash(w, r, "Welcome, "+res.User.Name+"!")
	http.Redirect(w, r, auth.HomePath(s.Claims.Role), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	h.redirectWithFlash(w, r, "/login", "You have been signed out.")
}

// dashboard sends a signed-in user to their role's home.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, auth.HomePath(session(r).Claims.Role), http.StatusSeeOther)
}

func (h *Handler) forgotPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "forgot.html", nil)
}

func (h *Handler) forgot(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	if !strings.Contains(email, "@") {
		h.render(w, r, http.StatusUnprocessableEntity, "forgot.html", page{"Email": email, "Error": "Enter a valid email address."})
		return
	}
	// same answer whether or not the address exists
	if err := h.api.ForgotPassword(r.Context(), email); err != nil && !backend.IsStatus(err, http.StatusNotFound) {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "forgot.html", page{"Sent": true})
}

func (h *Handler) resetPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "reset.html", page{"Token": r.URL.Query().Get("token")})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	tok := r.FormValue("token")
	password := r.FormValue("password")
	form := page{"Token": tok}

	switch {
	case tok == "":
		form["Error"] = "This reset link is invalid."
	case len(password) < minPasswordLen:
		form["Error"] = "Password must be at least 8 characters."
	case password != r.FormValue("confirm_password"):
		form["Error"] = "Passwords do not match."
	}
	if form["Error"] != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "reset.html", form)
		return
	}

	if err := h.api.ResetPassword(r.Context(), tok, password); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) || backend.IsStatus(err, http.StatusNotFound) || backend.IsStatus(err, http.StatusGone) {
			form["Error"] = "This reset link is invalid or has expired."
			h.render(w, r, http.StatusUnprocessableEntity, "reset.html", form)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/login", "Password updated. Please sign in.")
}
