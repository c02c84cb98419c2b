// Package booking holds the appointment rules shared by patient and therapist pages.
package booking

import (
	"errors"
	"sort"
	"time"

	"mindcare-web/internal/model"
)

// CancellationCutoff is how close to the start an appointment can still be changed.
const CancellationCutoff = 24 * time.Hour

var (
	ErrAlreadyCancelled = errors.New("appointment is already cancelled")
	ErrCompleted        = errors.New("appointment is already completed")
	ErrStarted          = errors.New("appointment has already started")
	ErrWithinCutoff     = errors.New("appointments can only be changed more than 24 hours in advance")
	ErrInvalidRange     = errors.New("end must be after start")
	ErrInPast           = errors.New("cannot book in the past")
	ErrSameSlot         = errors.New("new time is the same as the current one")
	ErrNotStarted       = errors.New("appointment has not started yet")
)

func checkChangeable(a model.Appointment, now time.Time) error {
	switch a.Status {
	case model.StatusCancelled:
		return ErrAlreadyCancelled
	case model.StatusCompleted:
		return ErrCompleted
	}
	if !now.Before(a.StartTime) {
		return ErrStarted
	}
	if a.StartTime.Sub(now) < CancellationCutoff {
		return ErrWithinCutoff
	}
	return nil
}

// CanCancel reports why a cannot be cancelled at now, or nil.
func CanCancel(a model.Appointment, now time.Time) error {
	return checkChangeable(a, now)
}

func CanReschedule(a model.Appointment, start, end time.Time, now time.Time) error {
	if err := checkChangeable(a, now); err != nil {
		return err
	}
	if !end.After(start) {
		return ErrInvalidRange
	}
	if start.Sub(now) < CancellationCutoff {
		return ErrWithinCutoff
	}
	if start.Equal(a.StartTime) && end.Equal(a.EndTime) {
		return ErrSameSlot
	}
	return nil
}

// CanComplete is for therapists closing out a session that has begun.
func CanComplete(a model.Appointment, now time.Time) error {
	switch a.Status {
	case model.StatusCancelled:
		return ErrAlreadyCancelled
	case model.StatusCompleted:
		return ErrCompleted
	}
	if now.Before(a.StartTime) {
		return ErrNotStarted
	}
	return nil
}

func ValidateBooking(start, end, now time.Time) error {
	if !start.After(now) {
		return ErrInPast
	}
	if !end.After(start) {
		return ErrInvalidRange
	}
	return nil
}

type Tab string

const (
	TabUpcoming  Tab = "upcoming"
	TabPast      Tab = "past"
	TabCancelled Tab = "cancelled"
)

// ParseTab falls back to upcoming for anything unknown.
func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabPast, TabCancelled:
		return Tab(s)
	}
	return TabUpcoming
}

type Tabs struct {
	Upcoming  []model.Appointment
	Past      []model.Appointment
	Cancelled []model.Appointment
}

func (t Tabs) Get(tab Tab) []model.Appointment {
	switch tab {
	case TabPast:
		return t.Past
	case TabCancelled:
		return t.Cancelled
	}
	return t.Upcoming
}

// Classify splits appointments into the three list tabs.
func Classify(list []model.Appointment, now time.Time) Tabs {
	var t Tabs
	for _, a := range list {
		switch {
		case a.Status == model.StatusCancelled:
			t.Cancelled = append(t.Cancelled, a)
		case a.Status == model.StatusCompleted, !a.EndTime.After(now):
			t.Past = append(t.Past, a)
		default:
			t.Upcoming = append(t.Upcoming, a)
		}
	}
	sort.SliceStable(t.Upcoming, func(i, j int) bool { return t.Upcoming[i].StartTime.Before(t.Upcoming[j].StartTime) })
	sort.SliceStable(t.Past, func(i, j int) bool { return t.Past[i].StartTime.After(t.Past[j].StartTime) })
	sort.SliceStable(t.Cancelled, func(i, j int) bool { return t.Cancelled[i].StartTime.After(t.Cancelled[j].StartTime) })
	return t
}

// OnDay returns the active appointments starting on the same calendar day as day.
func OnDay(list []model.Appointment, day time.Time) []model.Appointment {
	y, m, d := day.Date()
	var out []model.Appointment
	for _, a := range list {
		if !a.Status.Active() {
			continue
		}
		ay, am, ad := a.StartTime.In(day.Location()).Date()
		if ay == y && am == m && ad == d {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}
