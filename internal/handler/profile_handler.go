package handler

import (
	"net/http"
	"strings"

	"mindcare-web/internal/backend"
	"mindcare-web/internal/model"
)

func (h *Handler) profilePage(w http.ResponseWriter, r *http.Request) {
	u, err := h.api.Me(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "profile.html", page{"User": u})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	in := backend.ProfileUpdate{
		Name:  strings.TrimSpace(r.FormValue("name")),
		Phone: strings.TrimSpace(r.FormValue("phone")),
		Bio:   strings.TrimSpace(r.FormValue("bio")),
	}
	isTherapist := session(r).Claims.Role == model.RoleTherapist
	if isTherapist {
		in.Specialization = strings.TrimSpace(r.FormValue("specialization"))
	}
	// echo what was typed back on failure
	echo := &model.User{Name: in.Name, Phone: in.Phone, Bio: in.Bio, Specialization: in.Specialization,
		Email: session(r).Claims.Email, Role: session(r).Claims.Role}

	if in.Name == "" {
		h.render(w, r, http.StatusUnprocessableEntity, "profile.html", page{"User": echo, "Error": "Name is required."})
		return
	}
	if _, err := h.api.UpdateProfile(r.Context(), token(r), in); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) {
			h.render(w, r, http.StatusUnprocessableEntity, "profile.html", page{"User": echo, "Error": backend.Message(err)})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/profile", "Profile updated.")
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	msg := ""
	switch {
	case current == "":
		msg = "Enter your current password."
	case len(next) < minPasswordLen:
		msg = "New password must be at least 8 characters."
	case next != r.FormValue("confirm_password"):
		msg = "Passwords do not match."
	}
	if msg == "" {
		err := h.api.ChangePassword(r.Context(), token(r), current, next)
		switch {
		case err == nil:
			h.redirectWithFlash(w, r, "/profile", "Password changed.")
			return
		case backend.IsStatus(err, http.StatusUnauthorized):
			// here 401 means a wrong current password, not an expired session
			msg = "Current password is incorrect."
		case backend.IsStatus(err, http.StatusBadRequest), backend.IsStatus(err, http.StatusForbidden):
			msg = backend.Message(err)
		default:
			h.fail(w, r, err)
			return
		}
	}

	u, err := h.api.Me(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, "profile.html", page{"User": u, "PasswordError": msg})
}
