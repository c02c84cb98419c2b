package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"mindcare-web/internal/backend"
	"mindcare-web/internal/journal"
	"mindcare-web/internal/model"
)

const analyticsDays = 30

func sortEntries(entries []model.JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
}

func (h *Handler) journalList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.api.ListJournal(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	mood := model.Mood(r.URL.Query().Get("mood"))
	if journal.ValidMood(mood) {
		var keep []model.JournalEntry
		for _, e := range entries {
			if e.Mood == mood {
				keep = append(keep, e)
			}
		}
		entries = keep
	} else {
		mood = ""
	}
	sortEntries(entries)
	h.render(w, r, http.StatusOK, "journal_list.html", page{"Entries": entries, "Moods": journal.Moods, "Mood": string(mood)})
}

func journalInput(r *http.Request) backend.JournalInput {
	return backend.JournalInput{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
		Mood:    model.Mood(r.FormValue("mood")),
	}
}

func validateJournal(in backend.JournalInput) string {
	switch {
	case in.Content == "":
		return "Write something before saving."
	case !journal.ValidMood(in.Mood):
		return "Pick a mood."
	}
	return ""
}

func (h *Handler) newJournalPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "journal_form.html", page{"Action": "/patient/journal/new", "Moods": journal.Moods})
}

func (h *Handler) createJournal(w http.ResponseWriter, r *http.Request) {
	in := journalInput(r)
	form := page{"Action": "/patient/journal/new", "Moods": journal.Moods, "Input": in}
	if msg := validateJournal(in); msg != "" {
		form["Error"] = msg
		h.render(w, r, http.StatusUnprocessableEntity, "journal_form.html", form)
		return
	}
	if _, err := h.api.CreateJournal(r.Context(), token(r), in); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) {
			form["Error"] = backend.Message(err)
			h.render(w, r, http.StatusUnprocessableEntity, "journal_form.html", form)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/patient/journal", "Entry saved.")
}

func (h *Handler) findEntry(w http.ResponseWriter, r *http.Request) (*model.JournalEntry, bool) {
	entries, err := h.api.ListJournal(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	id := mux.Vars(r)["id"]
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], true
		}
	}
	h.notFound(w, r)
	return nil, false
}

func (h *Handler) editJournalPage(w http.ResponseWriter, r *http.Request) {
	e, ok := h.findEntry(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "journal_form.html", page{
		"Action": "/patient/journal/" + e.ID + "/edit",
		"Moods":  journal.Moods,
		"Input":  backend.JournalInput{Title: e.Title, Content: e.Content, Mood: e.Mood},
		"Edit":   true,
	})
}

func (h *Handler) updateJournal(w http.ResponseWriter, r *http.Request) {
	e, ok := h.findEntry(w, r)
	if !ok {
		return
	}
	in := journalInput(r)
	form := page{"Action": "/patient/journal/" + e.ID + "/edit", "Moods": journal.Moods, "Input": in, "Edit": true}
	if msg := validateJournal(in); msg != "" {
		form["Error"] = msg
		h.render(w, r, http.StatusUnprocessableEntity, "journal_form.html", form)
		return
	}
	if _, err := h.api.UpdateJournal(r.Context(), token(r), e.ID, in); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) {
			form["Error"] = backend.Message(err)
			h.render(w, r, http.StatusUnprocessableEntity, "journal_form.html", form)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/patient/journal", "Entry updated.")
}

func (h *Handler) deleteJournal(w http.ResponseWriter, r *http.Request) {
	e, ok := h.findEntry(w, r)
	if !ok {
		return
	}
	if err := h.api.DeleteJournal(r.Context(), token(r), e.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/patient/journal", "Entry deleted.")
}

func (h *Handler) summary(r *http.Request) (journal.Summary, error) {
	entries, err := h.api.ListJournal(r.Context(), token(r))
	if err != nil {
		return journal.Summary{}, err
	}
	days := analyticsDays
	if n, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && n > 0 && n <= 365 {
		days = n
	}
	return journal.Analyze(entries, h.now(), days), nil
}

func (h *Handler) journalAnalytics(w http.ResponseWriter, r *http.Request) {
	s, err := h.summary(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "journal_analytics.html", page{"Summary": s})
}

func (h *Handler) journalAnalyticsJSON(w http.ResponseWriter, r *http.Request) {
	s, err := h.summary(r)
	if err != nil {
		status := http.StatusBadGateway
		var apiErr backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			status = apiErr.Status
		}
		writeJSON(w, status, map[string]string{"error": backend.Message(err)})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
