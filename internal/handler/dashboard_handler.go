package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"mindcare-web/internal/backend"
	"mindcare-web/internal/booking"
	"mindcare-web/internal/model"
)

func (h *Handler) patientDashboard(w http.ResponseWriter, r *http.Request) {
	appts, err := h.api.ListAppointments(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := h.api.ListJournal(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tabs := booking.Classify(appts, h.now())
	var next *model.Appointment
	if len(tabs.Upcoming) > 0 {
		next = &tabs.Upcoming[0]
	}
	sortEntries(entries)
	if len(entries) > 3 {
		entries = entries[:3]
	}
	h.render(w, r, http.StatusOK, "patient_dashboard.html", page{
		"Next":          next,
		"UpcomingCount": len(tabs.Upcoming),
		"Entries":       entries,
	})
}

func (h *Handler) therapistDashboard(w http.ResponseWriter, r *http.Request) {
	appts, err := h.api.ListAppointments(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	now := h.now()
	tabs := booking.Classify(appts, now)
	h.render(w, r, http.StatusOK, "therapist_dashboard.html", page{
		"Today":         h.rows(booking.OnDay(appts, now), model.RoleTherapist),
		"UpcomingCount": len(tabs.Upcoming),
	})
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.api.ListUsers(r.Context(), token(r), "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	counts := map[string]int{}
	pending := 0
	for _, u := range users {
		counts[string(u.Role)]++
		if u.Role == model.RoleTherapist && !u.Verified {
			pending++
		}
	}
	h.render(w, r, http.StatusOK, "admin_dashboard.html", page{
		"Total":   len(users),
		"Counts":  counts,
		"Pending": pending,
	})
}

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	role := model.Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		role = ""
	}
	users, err := h.api.ListUsers(r.Context(), token(r), role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "admin_users.html", page{"Users": users, "Filter": string(role)})
}

func (h *Handler) verifyTherapist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.api.VerifyTherapist(r.Context(), token(r), id); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) || backend.IsStatus(err, http.StatusConflict) {
			h.redirectWithFlash(w, r, "/admin/users?role=therapist", backend.Message(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/users?role=therapist", "Therapist verified.")
}
