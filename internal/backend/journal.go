package backend

import (
	"context"
	"net/http"

	"mindcare-web/internal/model"
)

type JournalInput struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Mood    model.Mood `json:"mood"`
}

func (c *Client) ListJournal(ctx context.Context, token string) ([]model.JournalEntry, error) {
	var out []model.JournalEntry
	if err := c.do(ctx, http.MethodGet, "/journal", nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateJournal(ctx context.Context, token string, in JournalInput) (*model.JournalEntry, error) {
	var e model.JournalEntry
	if err := c.do(ctx, http.MethodPost, "/journal", in, token, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateJournal(ctx context.Context, token, id string, in JournalInput) (*model.JournalEntry, error) {
	var e model.JournalEntry
	if err := c.do(ctx, http.MethodPut, "/journal/"+escape(id), in, token, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) DeleteJournal(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/journal/"+escape(id), nil, token, nil)
}
