package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"mindcare-web/internal/backend"
	"mindcare-web/internal/booking"
	"mindcare-web/internal/model"
)

// apptRow is an appointment plus what the viewer may do with it right now.
type apptRow struct {
	model.Appointment
	CanCancel     bool
	CanReschedule bool
	CanComplete   bool
	Locked        string
}

func (h *Handler) rows(list []model.Appointment, role model.Role) []apptRow {
	now := h.now()
	out := make([]apptRow, 0, len(list))
	for _, a := range list {
		row := apptRow{Appointment: a}
		err := booking.CanCancel(a, now)
		row.CanCancel = err == nil
		row.CanReschedule = err == nil && role == model.RolePatient
		if errors.Is(err, booking.ErrWithinCutoff) {
			row.Locked = "Changes close 24 hours before the session."
		}
		row.CanComplete = role == model.RoleTherapist && booking.CanComplete(a, now) == nil
		out = append(out, row)
	}
	return out
}

func prefix(role model.Role) string {
	return "/" + string(role)
}

func (h *Handler) appointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.api.ListAppointments(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	role := session(r).Claims.Role
	tab := booking.ParseTab(r.URL.Query().Get("tab"))
	tabs := booking.Classify(list, h.now())
	h.render(w, r, http.StatusOK, "appointments.html", page{
		"Tab":       string(tab),
		"Rows":      h.rows(tabs.Get(tab), role),
		"Counts":    map[string]int{"upcoming": len(tabs.Upcoming), "past": len(tabs.Past), "cancelled": len(tabs.Cancelled)},
		"Prefix":    prefix(role),
		"Therapist": role == model.RoleTherapist,
	})
}

// findAppointment looks the id up in the caller's own list, so nobody can
// act on an appointment that isn't theirs.
func (h *Handler) findAppointment(ctx context.Context, tok, id string) (*model.Appointment, error) {
	list, err := h.api.ListAppointments(ctx, tok)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, backend.APIError{Status: http.StatusNotFound, Message: "appointment not found"}
}

func (h *Handler) cancelPage(w http.ResponseWriter, r *http.Request) {
	a, err := h.findAppointment(r.Context(), token(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p := page{"Appt": a, "Prefix": prefix(session(r).Claims.Role)}
	if err := booking.CanCancel(*a, h.now()); err != nil {
		p["Blocked"] = capitalize(err.Error()) + "."
	}
	h.render(w, r, http.StatusOK, "appointment_cancel.html", p)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	role := session(r).Claims.Role
	a, err := h.findAppointment(r.Context(), token(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reason := strings.TrimSpace(r.FormValue("reason"))
	p := page{"Appt": a, "Prefix": prefix(role), "Reason": reason}

	if err := booking.CanCancel(*a, h.now()); err != nil {
		p["Blocked"] = capitalize(err.Error()) + "."
		h.render(w, r, http.StatusConflict, "appointment_cancel.html", p)
		return
	}
	if reason == "" {
		p["Error"] = "Please tell us why you are cancelling."
		h.render(w, r, http.StatusUnprocessableEntity, "appointment_cancel.html", p)
		return
	}
	if _, err := h.api.CancelAppointment(r.Context(), token(r), a.ID, reason); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) || backend.IsStatus(err, http.StatusConflict) {
			p["Error"] = backend.Message(err)
			h.render(w, r, http.StatusUnprocessableEntity, "appointment_cancel.html", p)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, prefix(role)+"/appointments?tab=cancelled", "Appointment cancelled.")
}

func (h *Handler) reschedulePage(w http.ResponseWriter, r *http.Request) {
	h.renderReschedule(w, r, http.StatusOK, "")
}

func (h *Handler) renderReschedule(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	a, err := h.findAppointment(r.Context(), token(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p := page{"Appt": a, "Error": errMsg}
	if err := booking.CanCancel(*a, h.now()); err != nil {
		p["Blocked"] = capitalize(err.Error()) + "."
		h.render(w, r, status, "appointment_reschedule.html", p)
		return
	}

	day := h.dayParam(r)
	slots, err := h.api.TherapistSlots(r.Context(), a.TherapistID, day.Format(dateLayout))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// only offer slots the new time rule would accept
	var offer []model.Slot
	for _, s := range openSlots(slots, h.now()) {
		if booking.CanReschedule(*a, s.Start, s.End, h.now()) == nil {
			offer = append(offer, s)
		}
	}
	p["Date"] = day.Format(dateLayout)
	p["PrevDate"] = day.AddDate(0, 0, -1).Format(dateLayout)
	p["NextDate"] = day.AddDate(0, 0, 1).Format(dateLayout)
	p["Slots"] = offer
	h.render(w, r, status, "appointment_reschedule.html", p)
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	a, err := h.findAppointment(r.Context(), token(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	start, end, ok := parseRange(r)
	if !ok {
		h.renderReschedule(w, r, http.StatusUnprocessableEntity, "Pick a new time slot.")
		return
	}
	if err := booking.CanReschedule(*a, start, end, h.now()); err != nil {
		h.renderReschedule(w, r, http.StatusUnprocessableEntity, capitalize(err.Error())+".")
		return
	}
	if _, err := h.api.RescheduleAppointment(r.Context(), token(r), a.ID, start, end); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) || backend.IsStatus(err, http.StatusConflict) {
			h.renderReschedule(w, r, http.StatusUnprocessableEntity, backend.Message(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/patient/appointments", "Appointment rescheduled.")
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	a, err := h.findAppointment(r.Context(), token(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := booking.CanComplete(*a, h.now()); err != nil {
		h.redirectWithFlash(w, r, "/therapist/appointments", capitalize(err.Error())+".")
		return
	}
	if _, err := h.api.CompleteAppointment(r.Context(), token(r), a.ID); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) || backend.IsStatus(err, http.StatusConflict) {
			h.redirectWithFlash(w, r, "/therapist/appointments", backend.Message(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/therapist/appointments?tab=past", "Session marked as completed.")
}
