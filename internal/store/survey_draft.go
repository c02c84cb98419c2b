package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"mindcare-web/internal/model"
	"mindcare-web/internal/survey"
)

// Load implements survey.DraftStore.
func (s *Store) Load(ctx context.Context, userID string) (*survey.Draft, error) {
	d := &survey.Draft{UserID: userID}
	var answers, dynamic []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, step, answers, dynamic, generated, updated_at
		 FROM survey_drafts WHERE user_id = $1`, userID,
	).Scan(&d.ID, &d.Step, &answers, &dynamic, &d.Generated, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, survey.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	d.Answers = map[string]string{}
	if err := json.Unmarshal(answers, &d.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	var qs []model.Question
	if err := json.Unmarshal(dynamic, &qs); err != nil {
		return nil, fmt.Errorf("decode dynamic questions: %w", err)
	}
	d.Dynamic = qs
	return d, nil
}

// Save upserts; one draft per user. Every save refreshes UpdatedAt, which
// is what PurgeDrafts ages drafts by.
func (s *Store) Save(ctx context.Context, d *survey.Draft) error {
	answers, err := json.Marshal(d.Answers)
	if err != nil {
		return err
	}
	dynamic, err := json.Marshal(d.Dynamic)
	if err != nil {
		return err
	}
	d.UpdatedAt = time.Now()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO survey_drafts (id, user_id, step, answers, dynamic, generated, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (user_id) DO UPDATE
		 SET id=EXCLUDED.id, step=EXCLUDED.step, answers=EXCLUDED.answers,
		     dynamic=EXCLUDED.dynamic, generated=EXCLUDED.generated, updated_at=EXCLUDED.updated_at`,
		d.ID, d.UserID, d.Step, answers, dynamic, d.Generated, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM survey_drafts WHERE user_id = $1`, userID)
	return err
}

// PurgeDrafts removes drafts untouched since before cutoff.
func (s *Store) PurgeDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM survey_drafts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
