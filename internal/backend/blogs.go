package backend

import (
	"context"
	"net/http"

	"mindcare-web/internal/model"
)

type BlogInput struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (c *Client) ListBlogs(ctx context.Context) ([]model.BlogPost, error) {
	var out []model.BlogPost
	if err := c.do(ctx, http.MethodGet, "/blogs", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBlog(ctx context.Context, id string) (*model.BlogPost, error) {
	var p model.BlogPost
	if err := c.do(ctx, http.MethodGet, "/blogs/"+escape(id), nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateBlog(ctx context.Context, token string, in BlogInput) (*model.BlogPost, error) {
	var p model.BlogPost
	if err := c.do(ctx, http.MethodPost, "/blogs", in, token, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateBlog(ctx context.Context, token, id string, in BlogInput) (*model.BlogPost, error) {
	var p model.BlogPost
	if err := c.do(ctx, http.MethodPut, "/blogs/"+escape(id), in, token, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteBlog(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/blogs/"+escape(id), nil, token, nil)
}
