package backend

import (
	"context"
	"net/http"
	"time"

	"mindcare-web/internal/model"
)

type BookingRequest struct {
	TherapistID string    `json:"therapistId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Notes       string    `json:"notes,omitempty"`
}

// ListAppointments returns the caller's appointments; the backend scopes by role.
func (c *Client) ListAppointments(ctx context.Context, token string) ([]model.Appointment, error) {
	var out []model.Appointment
	if err := c.do(ctx, http.MethodGet, "/appointments", nil, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BookAppointment(ctx context.Context, token string, req BookingRequest) (*model.Appointment, error) {
	var a model.Appointment
	if err := c.do(ctx, http.MethodPost, "/appointments", req, token, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CancelAppointment(ctx context.Context, token, id, reason string) (*model.Appointment, error) {
	var a model.Appointment
	body := map[string]string{"reason": reason}
	if err := c.do(ctx, http.MethodPatch, "/appointments/"+escape(id)+"/cancel", body, token, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) RescheduleAppointment(ctx context.Context, token, id string, start, end time.Time) (*model.Appointment, error) {
	var a model.Appointment
	body := map[string]time.Time{"startTime": start, "endTime": end}
	if err := c.do(ctx, http.MethodPatch, "/appointments/"+escape(id)+"/reschedule", body, token, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CompleteAppointment(ctx context.Context, token, id string) (*model.Appointment, error) {
	var a model.Appointment
	if err := c.do(ctx, http.MethodPatch, "/appointments/"+escape(id)+"/complete", nil, token, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
