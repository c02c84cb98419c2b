package backend

import (
	"context"
	"net/http"

	"mindcare-web/internal/model"
)

type SurveySubmission struct {
	Answers  map[string]string `json:"answers"`
	Score    int               `json:"score"`
	Severity string            `json:"severity"`
}

// GenerateSurveyQuestions asks the backend for follow-ups based on answers so far.
func (c *Client) GenerateSurveyQuestions(ctx context.Context, token string, answers map[string]string) ([]model.Question, error) {
	var out []model.Question
	body := map[string]any{"answers": answers}
	if err := c.do(ctx, http.MethodPost, "/survey/questions", body, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SubmitSurvey(ctx context.Context, token string, s SurveySubmission) (*model.SurveyResult, error) {
	var r model.SurveyResult
	if err := c.do(ctx, http.MethodPost, "/survey/submit", s, token, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
