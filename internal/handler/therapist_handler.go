package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"mindcare-web/internal/backend"
	"mindcare-web/internal/booking"
	"mindcare-web/internal/model"
)

const dateLayout = "2006-01-02"

func (h *Handler) therapistList(w http.ResponseWriter, r *http.Request) {
	spec := strings.TrimSpace(r.URL.Query().Get("specialization"))
	list, err := h.api.ListTherapists(r.Context(), spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "therapists.html", page{"Therapists": list, "Specialization": spec})
}

// dayParam reads ?date=, falling back to today.
func (h *Handler) dayParam(r *http.Request) time.Time {
	today := h.now()
	if d, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("date"), today.Location()); err == nil {
		return d
	}
	y, m, d := today.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, today.Location())
}

// openSlots drops taken slots and ones that have already begun.
func openSlots(slots []model.Slot, now time.Time) []model.Slot {
	var out []model.Slot
	for _, s := range slots {
		if s.Available && s.Start.After(now) {
			out = append(out, s)
		}
	}
	return out
}

func (h *Handler) therapistShow(w http.ResponseWriter, r *http.Request) {
	h.renderTherapist(w, r, http.StatusOK, "", "")
}

func (h *Handler) renderTherapist(w http.ResponseWriter, r *http.Request, status int, errMsg, notes string) {
	id := mux.Vars(r)["id"]
	t, err := h.api.GetTherapist(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	day := h.dayParam(r)
	slots, err := h.api.TherapistSlots(r.Context(), id, day.Format(dateLayout))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s := session(r)
	h.render(w, r, status, "therapist_show.html", page{
		"Therapist": t,
		"Date":      day.Format(dateLayout),
		"PrevDate":  day.AddDate(0, 0, -1).Format(dateLayout),
		"NextDate":  day.AddDate(0, 0, 1).Format(dateLayout),
		"Slots":     openSlots(slots, h.now()),
		"CanBook":   s != nil && s.Claims.Role == model.RolePatient,
		"Error":     errMsg,
		"Notes":     notes,
	})
}

// parseRange reads a slot either as start/end fields or as one "start/end"
// radio value.
func parseRange(r *http.Request) (start, end time.Time, ok bool) {
	rawStart, rawEnd := r.FormValue("start"), r.FormValue("end")
	if rawStart == "" {
		rawStart, rawEnd, _ = strings.Cut(r.FormValue("slot"), "/")
	}
	start, err1 := time.Parse(time.RFC3339, rawStart)
	end, err2 := time.Parse(time.RFC3339, rawEnd)
	return start, end, err1 == nil && err2 == nil
}

// book is posted from a therapist's page by a patient.
func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	therapistID := r.FormValue("therapist_id")
	notes := strings.TrimSpace(r.FormValue("notes"))
	// re-render on the therapist page, which reads the id from the route
	r = mux.SetURLVars(r, map[string]string{"id": therapistID})

	start, end, ok := parseRange(r)
	if therapistID == "" || !ok {
		h.renderTherapist(w, r, http.StatusUnprocessableEntity, "Pick a time slot.", notes)
		return
	}
	if err := booking.ValidateBooking(start, end, h.now()); err != nil {
		h.renderTherapist(w, r, http.StatusUnprocessableEntity, capitalize(err.Error())+".", notes)
		return
	}

	_, err := h.api.BookAppointment(r.Context(), token(r), backend.BookingRequest{
		TherapistID: therapistID,
		StartTime:   start,
		EndTime:     end,
		Notes:       notes,
	})
	if err != nil {
		if backend.IsStatus(err, http.StatusConflict) || backend.IsStatus(err, http.StatusBadRequest) {
			h.renderTherapist(w, r, http.StatusUnprocessableEntity, backend.Message(err), notes)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/patient/appointments", "Appointment booked.")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
