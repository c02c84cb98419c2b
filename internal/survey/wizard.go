// Package survey runs the multi-step intake assessment.
package survey

import (
	"errors"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindcare-web/internal/model"
)

var ErrNotFound = errors.New("survey draft not found")

// ValidationError maps question IDs to messages.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "invalid answers: " + strings.Join(parts, "; ")
}

// Draft is one user's in-progress assessment.
type Draft struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Step      int               `json:"step"`
	Answers   map[string]string `json:"answers"`
	Dynamic   []model.Question  `json:"dynamic"`
	Generated bool              `json:"generated"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func NewDraft(userID string) *Draft {
	return &Draft{
		ID:        uuid.NewString(),
		UserID:    userID,
		Step:      StepAbout,
		Answers:   map[string]string{},
		UpdatedAt: time.Now(),
	}
}

// Questions returns what the given step asks.
func (d *Draft) Questions(step int) []model.Question {
	switch step {
	case StepAbout:
		return AboutQuestions
	case StepPHQ:
		return PHQQuestions
	case StepFollowUp:
		return d.Dynamic
	}
	return nil
}

// Apply validates and records answers for the current step.
func (d *Draft) Apply(form map[string]string) error {
	if d.Answers == nil {
		d.Answers = map[string]string{}
	}
	verr := ValidationError{}
	for _, q := range d.Questions(d.Step) {
		v := strings.TrimSpace(form[q.ID])
		if msg := check(q, v); msg != "" {
			verr[q.ID] = msg
			continue
		}
		if v == "" {
			delete(d.Answers, q.ID)
			continue
		}
		d.Answers[q.ID] = v
	}
	d.UpdatedAt = time.Now()
	if len(verr) > 0 {
		return verr
	}
	return nil
}

func check(q model.Question, v string) string {
	if v == "" {
		if q.Required {
			return "required"
		}
		return ""
	}
	switch q.Kind {
	case model.KindChoice:
		if len(q.Options) > 0 && !slices.Contains(q.Options, v) {
			return "choose one of the options"
		}
	case model.KindScale:
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n >= len(q.Options) {
			return "choose one of the options"
		}
	}
	return ""
}

// SetDynamic stores backend-generated follow-ups. Answers to follow-ups
// that are no longer asked are dropped.
func (d *Draft) SetDynamic(qs []model.Question) {
	keep := map[string]bool{}
	for _, q := range qs {
		keep[q.ID] = true
	}
	for _, old := range d.Dynamic {
		if !keep[old.ID] {
			delete(d.Answers, old.ID)
		}
	}
	d.Dynamic = qs
	d.Generated = true
}

// NeedsGeneration is true whenever the PHQ step is being completed; the
// follow-ups depend on its answers so they are fetched again each time.
func (d *Draft) NeedsGeneration() bool {
	return d.Step == StepPHQ
}

// FirstInvalidStep is the earliest step with a missing or bad answer, or 0.
func (d *Draft) FirstInvalidStep() int {
	for _, step := range []int{StepAbout, StepPHQ, StepFollowUp} {
		for _, q := range d.Questions(step) {
			if check(q, d.Answers[q.ID]) != "" {
				return step
			}
		}
	}
	return 0
}

func (d *Draft) Advance() {
	if d.Step >= StepReview {
		return
	}
	d.Step++
	if d.Step == StepFollowUp && len(d.Dynamic) == 0 {
		d.Step = StepReview
	}
	d.UpdatedAt = time.Now()
}

func (d *Draft) Back() {
	if d.Step <= StepAbout {
		return
	}
	d.Step--
	if d.Step == StepFollowUp && len(d.Dynamic) == 0 {
		d.Step = StepPHQ
	}
	d.UpdatedAt = time.Now()
}

// Validate checks every step before submission.
func (d *Draft) Validate() error {
	verr := ValidationError{}
	for _, step := range []int{StepAbout, StepPHQ, StepFollowUp} {
		for _, q := range d.Questions(step) {
			if msg := check(q, d.Answers[q.ID]); msg != "" {
				verr[q.ID] = msg
			}
		}
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

// Answered pairs each question of a step with the recorded answer, for review pages.
type Answered struct {
	Question model.Question
	Answer   string
}

func (d *Draft) Review() []Answered {
	var out []Answered
	for _, step := range []int{StepAbout, StepPHQ, StepFollowUp} {
		for _, q := range d.Questions(step) {
			out = append(out, Answered{Question: q, Answer: Display(q, d.Answers[q.ID])})
		}
	}
	return out
}

// Display renders a stored answer the way the user picked it.
func Display(q model.Question, v string) string {
	if q.Kind == model.KindScale {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(q.Options) {
			return q.Options[n]
		}
	}
	return v
}
