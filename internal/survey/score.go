package survey

import "strconv"

type Severity string

const (
	SeverityMinimal          Severity = "minimal"
	SeverityMild             Severity = "mild"
	SeverityModerate         Severity = "moderate"
	SeverityModeratelySevere Severity = "moderately severe"
	SeveritySevere           Severity = "severe"
)

type Result struct {
	Score      int
	Severity   Severity
	CrisisFlag bool
}

// Score totals the PHQ-9 items (0..27) and bands the result.
func Score(answers map[string]string) Result {
	var r Result
	for _, q := range PHQQuestions {
		n, err := strconv.Atoi(answers[q.ID])
		if err != nil || n < 0 || n >= len(q.Options) {
			continue
		}
		r.Score += n
		if q.ID == PHQItemSelfHarm && n > 0 {
			r.CrisisFlag = true
		}
	}
	r.Severity = Band(r.Score)
	return r
}

func Band(score int) Severity {
	switch {
	case score >= 20:
		return SeveritySevere
	case score >= 15:
		return SeverityModeratelySevere
	case score >= 10:
		return SeverityModerate
	case score >= 5:
		return SeverityMild
	}
	return SeverityMinimal
}

// Recommendation is the fallback advice when the backend sends none.
func Recommendation(s Severity) string {
	switch s {
	case SeveritySevere, SeverityModeratelySevere:
		return "We strongly recommend booking a session with a therapist soon."
	case SeverityModerate:
		return "Talking to a therapist could help. Consider booking a session."
	case SeverityMild:
		return "Keep an eye on how you feel. Journaling and a check-in session may help."
	}
	return "Your answers suggest minimal symptoms. Keep looking after yourself."
}
