package handler

import (
	"errors"
	"net/http"

	"mindcare-web/internal/backend"
	"mindcare-web/internal/survey"
)

// loadDraft returns the user's draft, starting a new one when there is none.
func (h *Handler) loadDraft(r *http.Request) (*survey.Draft, error) {
	uid := session(r).Claims.UserID
	d, err := h.drafts.Load(r.Context(), uid)
	if errors.Is(err, survey.ErrNotFound) {
		return survey.NewDraft(uid), nil
	}
	return d, err
}

// saveDraft keeps what the user typed on paths that still answer with a page;
// a failed save is logged and the page is served anyway.
func (h *Handler) saveDraft(r *http.Request, d *survey.Draft) {
	if err := h.drafts.Save(r.Context(), d); err != nil {
		h.log.Error("save survey draft", "uid", d.UserID, "step", d.Step, "error", err)
	}
}

func (h *Handler) renderStep(w http.ResponseWriter, r *http.Request, status int, d *survey.Draft, p page) {
	if p == nil {
		p = page{}
	}
	p["Step"] = d.Step
	p["StepTitle"] = survey.StepTitles[d.Step]
	p["Steps"] = survey.StepReview
	p["Answers"] = d.Answers
	if d.Step == survey.StepReview {
		p["Review"] = d.Review()
		h.render(w, r, status, "survey_review.html", p)
		return
	}
	p["Questions"] = d.Questions(d.Step)
	h.render(w, r, status, "survey_step.html", p)
}

func (h *Handler) surveyPage(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraft(r)
	if err != nil {
		h.log.Error("load survey draft", "error", err)
		h.internalError(w, r)
		return
	}
	h.renderStep(w, r, http.StatusOK, d, nil)
}

func (h *Handler) surveyNext(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraft(r)
	if err != nil {
		h.log.Error("load survey draft", "error", err)
		h.internalError(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.errorPage(w, r, http.StatusBadRequest, "Bad request", "Could not read the form.")
		return
	}
	form := map[string]string{}
	for _, q := range d.Questions(d.Step) {
		form[q.ID] = r.PostForm.Get(q.ID)
	}

	if err := d.Apply(form); err != nil {
		var verr survey.ValidationError
		if errors.As(err, &verr) {
			h.saveDraft(r, d)
			h.renderStep(w, r, http.StatusUnprocessableEntity, d, page{"Errors": map[string]string(verr)})
			return
		}
		h.internalError(w, r)
		return
	}

	if d.NeedsGeneration() {
		qs, err := h.api.GenerateSurveyQuestions(r.Context(), token(r), d.Answers)
		if err != nil {
			if backend.IsStatus(err, http.StatusUnauthorized) {
				h.fail(w, r, err)
				return
			}
			h.log.Warn("generate survey questions", "error", err)
			h.saveDraft(r, d)
			h.renderStep(w, r, http.StatusBadGateway, d, page{"Error": "We couldn't load the next questions. Please try again."})
			return
		}
		d.SetDynamic(qs)
	}
	d.Advance()
	if err := h.drafts.Save(r.Context(), d); err != nil {
		h.log.Error("save survey draft", "error", err)
		h.internalError(w, r)
		return
	}
	http.Redirect(w, r, "/patient/survey", http.StatusSeeOther)
}

func (h *Handler) surveyBack(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraft(r)
	if err != nil {
		h.internalError(w, r)
		return
	}
	d.Back()
	if err := h.drafts.Save(r.Context(), d); err != nil {
		h.log.Error("save survey draft", "error", err)
		h.internalError(w, r)
		return
	}
	http.Redirect(w, r, "/patient/survey", http.StatusSeeOther)
}

func (h *Handler) surveyRestart(w http.ResponseWriter, r *http.Request) {
	if err := h.drafts.Delete(r.Context(), session(r).Claims.UserID); err != nil {
		h.log.Error("delete survey draft", "error", err)
	}
	http.Redirect(w, r, "/patient/survey", http.StatusSeeOther)
}

func (h *Handler) surveySubmit(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraft(r)
	if err != nil {
		h.internalError(w, r)
		return
	}
	if step := d.FirstInvalidStep(); step != 0 {
		d.Step = step
		h.saveDraft(r, d)
		h.redirectWithFlash(w, r, "/patient/survey", "Some answers are missing.")
		return
	}

	score := survey.Score(d.Answers)
	res, err := h.api.SubmitSurvey(r.Context(), token(r), backend.SurveySubmission{
		Answers:  d.Answers,
		Score:    score.Score,
		Severity: string(score.Severity),
	})
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) {
			h.fail(w, r, err)
			return
		}
		h.log.Warn("submit survey", "error", err)
		h.renderStep(w, r, http.StatusBadGateway, d, page{"Error": "We couldn't submit your answers. Please try again."})
		return
	}
	if err := h.drafts.Delete(r.Context(), d.UserID); err != nil {
		h.log.Error("delete survey draft", "error", err)
	}

	rec := res.Recommendation
	if rec == "" {
		rec = survey.Recommendation(score.Severity)
	}
	h.render(w, r, http.StatusOK, "survey_result.html", page{
		"Score":          score.Score,
		"Severity":       string(score.Severity),
		"Crisis":         score.CrisisFlag,
		"Recommendation": rec,
	})
}
