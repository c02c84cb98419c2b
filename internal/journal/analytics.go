// Package journal aggregates mood data from journal entries for charting.
package journal

import (
	"time"

	"mindcare-web/internal/model"
)

// Moods in display order, most positive first.
var Moods = []model.Mood{model.MoodGreat, model.MoodGood, model.MoodOkay, model.MoodLow, model.MoodAwful}

// Score maps a mood onto 1..5; ok is false for unknown moods.
func Score(m model.Mood) (score int, ok bool) {
	switch m {
	case model.MoodGreat:
		return 5, true
	case model.MoodGood:
		return 4, true
	case model.MoodOkay:
		return 3, true
	case model.MoodLow:
		return 2, true
	case model.MoodAwful:
		return 1, true
	}
	return 0, false
}

func ValidMood(m model.Mood) bool {
	_, ok := Score(m)
	return ok
}

type MoodCount struct {
	Mood    model.Mood `json:"mood"`
	Count   int        `json:"count"`
	Percent float64    `json:"percent"`
}

type DayPoint struct {
	Date    string   `json:"date"`
	Count   int      `json:"count"`
	Average *float64 `json:"average,omitempty"`
}

type Summary struct {
	Total        int         `json:"total"`
	Counts       []MoodCount `json:"counts"`
	Average      float64     `json:"average"`
	DominantMood model.Mood  `json:"dominantMood,omitempty"`
	Daily        []DayPoint  `json:"daily"`
	Streak       int         `json:"streak"`
	Trend        *float64    `json:"trend,omitempty"`
}

const dayLayout = "2006-01-02"

func dayKey(t time.Time) string { return t.UTC().Format(dayLayout) }

type acc struct {
	n, scored, sum int
}

func (a acc) avg() (float64, bool) {
	if a.scored == 0 {
		return 0, false
	}
	return float64(a.sum) / float64(a.scored), true
}

// Analyze summarises entries over the last days days ending on now's UTC date.
// Totals, counts, dominant mood and average cover every entry.
func Analyze(entries []model.JournalEntry, now time.Time, days int) Summary {
	if days <= 0 {
		days = 30
	}
	s := Summary{Total: len(entries)}

	counts := make(map[model.Mood]int, len(Moods))
	byDay := make(map[string]acc)
	var all acc
	for _, e := range entries {
		k := dayKey(e.CreatedAt)
		d := byDay[k]
		d.n++
		if sc, ok := Score(e.Mood); ok {
			counts[e.Mood]++
			d.scored++
			d.sum += sc
			all.scored++
			all.sum += sc
		}
		byDay[k] = d
	}

	best := 0
	for _, m := range Moods {
		c := MoodCount{Mood: m, Count: counts[m]}
		if all.scored > 0 {
			c.Percent = float64(c.Count) * 100 / float64(all.scored)
		}
		s.Counts = append(s.Counts, c)
		// strict > keeps the more positive mood on ties
		if c.Count > best {
			best = c.Count
			s.DominantMood = m
		}
	}
	if avg, ok := all.avg(); ok {
		s.Average = avg
	}

	today := now.UTC().Truncate(24 * time.Hour)
	for i := days - 1; i >= 0; i-- {
		k := dayKey(today.AddDate(0, 0, -i))
		d := byDay[k]
		p := DayPoint{Date: k, Count: d.n}
		if avg, ok := d.avg(); ok {
			p.Average = &avg
		}
		s.Daily = append(s.Daily, p)
	}

	s.Streak = streak(byDay, today)
	s.Trend = trend(byDay, today)
	return s
}

// streak counts consecutive days with entries ending today, or yesterday if
// nothing has been written yet today.
func streak(byDay map[string]acc, today time.Time) int {
	day := today
	if byDay[dayKey(day)].n == 0 {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for byDay[dayKey(day)].n > 0 {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func window(byDay map[string]acc, from time.Time, days int) acc {
	var w acc
	for i := 0; i < days; i++ {
		d := byDay[dayKey(from.AddDate(0, 0, -i))]
		w.n += d.n
		w.scored += d.scored
		w.sum += d.sum
	}
	return w
}

// trend is last-7-days average minus the 7 days before; nil without data on both sides.
func trend(byDay map[string]acc, today time.Time) *float64 {
	recent, rok := window(byDay, today, 7).avg()
	prior, pok := window(byDay, today.AddDate(0, 0, -7), 7).avg()
	if !rok || !pok {
		return nil
	}
	d := recent - prior
	return &d
}
