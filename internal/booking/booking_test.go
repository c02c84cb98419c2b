package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcare-web/internal/model"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func appt(id string, startIn time.Duration, status model.AppointmentStatus) model.Appointment {
	start := now.Add(startIn)
	return model.Appointment{ID: id, StartTime: start, EndTime: start.Add(time.Hour), Status: status}
}

func TestCanCancel(t *testing.T) {
	tests := []struct {
		name string
		a    model.Appointment
		want error
	}{
		{"well ahead", appt("a", 48*time.Hour, model.StatusConfirmed), nil},
		{"exactly at cutoff", appt("a", 24*time.Hour, model.StatusPending), nil},
		{"just inside cutoff", appt("a", 24*time.Hour-time.Second, model.StatusConfirmed), ErrWithinCutoff},
		{"already started", appt("a", -time.Minute, model.StatusConfirmed), ErrStarted},
		{"cancelled", appt("a", 72*time.Hour, model.StatusCancelled), ErrAlreadyCancelled},
		{"completed", appt("a", -72*time.Hour, model.StatusCompleted), ErrCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanCancel(tt.a, now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCanReschedule(t *testing.T) {
	a := appt("a", 48*time.Hour, model.StatusConfirmed)

	newStart := now.Add(72 * time.Hour)
	assert.NoError(t, CanReschedule(a, newStart, newStart.Add(time.Hour), now))

	assert.ErrorIs(t, CanReschedule(a, newStart, newStart, now), ErrInvalidRange)
	assert.ErrorIs(t, CanReschedule(a, now.Add(time.Hour), now.Add(2*time.Hour), now), ErrWithinCutoff)
	assert.ErrorIs(t, CanReschedule(a, a.StartTime, a.EndTime, now), ErrSameSlot)

	soon := appt("b", 2*time.Hour, model.StatusConfirmed)
	assert.ErrorIs(t, CanReschedule(soon, newStart, newStart.Add(time.Hour), now), ErrWithinCutoff)
}

func TestCanComplete(t *testing.T) {
	assert.ErrorIs(t, CanComplete(appt("a", time.Hour, model.StatusConfirmed), now), ErrNotStarted)
	assert.NoError(t, CanComplete(appt("a", -time.Hour, model.StatusConfirmed), now))
	assert.ErrorIs(t, CanComplete(appt("a", -time.Hour, model.StatusCompleted), now), ErrCompleted)
}

func TestValidateBooking(t *testing.T) {
	assert.NoError(t, ValidateBooking(now.Add(time.Hour), now.Add(2*time.Hour), now))
	assert.ErrorIs(t, ValidateBooking(now, now.Add(time.Hour), now), ErrInPast)
	assert.ErrorIs(t, ValidateBooking(now.Add(2*time.Hour), now.Add(time.Hour), now), ErrInvalidRange)
}

func TestClassify(t *testing.T) {
	list := []model.Appointment{
		appt("later", 72*time.Hour, model.StatusConfirmed),
		appt("sooner", 2*time.Hour, model.StatusPending),
		appt("ongoing", -30*time.Minute, model.StatusConfirmed),
		appt("done", -48*time.Hour, model.StatusCompleted),
		appt("missed", -24*time.Hour, model.StatusConfirmed),
		appt("c1", 24*time.Hour, model.StatusCancelled),
		appt("c2", 96*time.Hour, model.StatusCancelled),
	}
	tabs := Classify(list, now)

	ids := func(as []model.Appointment) []string {
		var out []string
		for _, a := range as {
			out = append(out, a.ID)
		}
		return out
	}
	require.Equal(t, []string{"ongoing", "sooner", "later"}, ids(tabs.Upcoming))
	assert.Equal(t, []string{"missed", "done"}, ids(tabs.Past))
	assert.Equal(t, []string{"c2", "c1"}, ids(tabs.Cancelled))
	assert.Equal(t, ids(tabs.Past), ids(tabs.Get(ParseTab("past"))))
	assert.Equal(t, ids(tabs.Upcoming), ids(tabs.Get(ParseTab("bogus"))))
}

func TestOnDay(t *testing.T) {
	list := []model.Appointment{
		appt("today-late", 6*time.Hour, model.StatusConfirmed),
		appt("today-early", -2*time.Hour, model.StatusConfirmed),
		appt("tomorrow", 24*time.Hour, model.StatusConfirmed),
		appt("today-cancelled", time.Hour, model.StatusCancelled),
	}
	got := OnDay(list, now)
	require.Len(t, got, 2)
	assert.Equal(t, "today-early", got[0].ID)
	assert.Equal(t, "today-late", got[1].ID)
}
