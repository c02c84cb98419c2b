package backend

import (
	"context"
	"net/http"
	"net/url"

	"mindcare-web/internal/model"
)

type ProfileUpdate struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Bio            string `json:"bio"`
	Specialization string `json:"specialization,omitempty"`
}

func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, token, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, p ProfileUpdate) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPut, "/users/me", p, token, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ChangePassword(ctx context.Context, token, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.do(ctx, http.MethodPut, "/users/me/password", body, token, nil)
}

func (c *Client) ListTherapists(ctx context.Context, specialization string) ([]model.User, error) {
	path := "/therapists"
	if specialization != "" {
		path += "?" + url.Values{"specialization": {specialization}}.Encode()
	}
	var out []model.User
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTherapist(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/therapists/"+escape(id), nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// TherapistSlots lists bookable slots for one day (YYYY-MM-DD).
func (c *Client) TherapistSlots(ctx context.Context, id, date string) ([]model.Slot, error) {
	path := "/therapists/" + escape(id) + "/slots?" + url.Values{"date": {date}}.Encode()
	var out []model.Slot
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListUsers(ctx context.Context, token string, role model.Role) ([]model.User, error) {
	path := "/admin/users"
	if role != "" {
		path += "?" + url.Values{"role": {string(role)}}.Encode()
	}
	var out []model.User
	if err := c.do(ctx, http.MethodGet, path, nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) VerifyTherapist(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/users/"+escape(id)+"/verify", nil, token, nil)
}
