package survey

import "mindcare-web/internal/model"

// Wizard steps.
const (
	StepAbout    = 1
	StepPHQ      = 2
	StepFollowUp = 3
	StepReview   = 4
)

var StepTitles = map[int]string{
	StepAbout:    "About you",
	StepPHQ:      "Over the last two weeks",
	StepFollowUp: "A few more questions",
	StepReview:   "Review",
}

var frequency = []string{"Not at all", "Several days", "More than half the days", "Nearly every day"}

var AboutQuestions = []model.Question{
	{ID: "age_range", Text: "How old are you?", Kind: model.KindChoice, Required: true,
		Options: []string{"Under 18", "18-24", "25-34", "35-44", "45-64", "65+"}},
	{ID: "prior_therapy", Text: "Have you been in therapy before?", Kind: model.KindChoice, Required: true,
		Options: []string{"Yes", "No"}},
	{ID: "medication", Text: "Are you currently taking medication for your mental health?", Kind: model.KindChoice, Required: true,
		Options: []string{"Yes", "No", "Prefer not to say"}},
	{ID: "main_concern", Text: "What brings you here today?", Kind: model.KindText, Required: true},
}

// PHQItemSelfHarm is the PHQ-9 item that raises the crisis flag.
const PHQItemSelfHarm = "phq_9"

var PHQQuestions = []model.Question{
	phq("phq_1", "Little interest or pleasure in doing things"),
	phq("phq_2", "Feeling down, depressed, or hopeless"),
	phq("phq_3", "Trouble falling or staying asleep, or sleeping too much"),
	phq("phq_4", "Feeling tired or having little energy"),
	phq("phq_5", "Poor appetite or overeating"),
	phq("phq_6", "Feeling bad about yourself, or that you are a failure or have let yourself or your family down"),
	phq("phq_7", "Trouble concentrating on things, such as reading or watching television"),
	phq("phq_8", "Moving or speaking so slowly that other people could have noticed, or being so fidgety or restless that you have been moving around a lot more than usual"),
	phq(PHQItemSelfHarm, "Thoughts that you would be better off dead, or of hurting yourself in some way"),
}

func phq(id, text string) model.Question {
	return model.Question{ID: id, Text: text, Kind: model.KindScale, Options: frequency, Required: true}
}
