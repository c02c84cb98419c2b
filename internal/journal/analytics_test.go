package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcare-web/internal/model"
)

var now = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func entry(daysAgo int, m model.Mood) model.JournalEntry {
	return model.JournalEntry{Mood: m, CreatedAt: now.AddDate(0, 0, -daysAgo).Add(-time.Hour)}
}

func TestAnalyzeEmpty(t *testing.T) {
	s := Analyze(nil, now, 7)
	assert.Equal(t, 0, s.Total)
	assert.Len(t, s.Counts, len(Moods))
	assert.Len(t, s.Daily, 7)
	assert.Equal(t, "", string(s.DominantMood))
	assert.Nil(t, s.Trend)
	assert.Equal(t, 0, s.Streak)
	assert.Nil(t, s.Daily[6].Average)
}

func TestAnalyzeCountsAndAverage(t *testing.T) {
	s := Analyze([]model.JournalEntry{
		entry(0, model.MoodGreat),
		entry(0, model.MoodLow),
		entry(1, model.MoodGood),
		entry(2, model.Mood("meh")),
	}, now, 7)

	assert.Equal(t, 4, s.Total)
	assert.InDelta(t, (5.0+2+4)/3, s.Average, 1e-9)
	assert.Equal(t, 1, s.Counts[0].Count)
	assert.InDelta(t, 100.0/3, s.Counts[0].Percent, 1e-9)

	last := s.Daily[len(s.Daily)-1]
	assert.Equal(t, "2026-10-19", last.Date)
	assert.Equal(t, 2, last.Count)
	require.NotNil(t, last.Average)
	assert.InDelta(t, 3.5, *last.Average, 1e-9)

	// unscored entries still count for the day
	assert.Equal(t, 1, s.Daily[len(s.Daily)-3].Count)
	assert.Nil(t, s.Daily[len(s.Daily)-3].Average)
}

func TestDominantMoodPrefersPositiveOnTie(t *testing.T) {
	s := Analyze([]model.JournalEntry{
		entry(0, model.MoodLow),
		entry(1, model.MoodGood),
	}, now, 7)
	assert.Equal(t, model.MoodGood, s.DominantMood)
}

func TestStreak(t *testing.T) {
	s := Analyze([]model.JournalEntry{entry(0, model.MoodOkay), entry(1, model.MoodOkay), entry(3, model.MoodOkay)}, now, 7)
	assert.Equal(t, 2, s.Streak)

	// nothing today yet, streak still counts from yesterday
	s = Analyze([]model.JournalEntry{entry(1, model.MoodOkay), entry(2, model.MoodOkay)}, now, 7)
	assert.Equal(t, 2, s.Streak)

	s = Analyze([]model.JournalEntry{entry(2, model.MoodOkay)}, now, 7)
	assert.Equal(t, 0, s.Streak)
}

func TestTrend(t *testing.T) {
	s := Analyze([]model.JournalEntry{
		entry(1, model.MoodGreat),
		entry(9, model.MoodLow),
	}, now, 30)
	require.NotNil(t, s.Trend)
	assert.InDelta(t, 3.0, *s.Trend, 1e-9)

	s = Analyze([]model.JournalEntry{entry(1, model.MoodGreat)}, now, 30)
	assert.Nil(t, s.Trend)
}

func TestScore(t *testing.T) {
	sc, ok := Score(model.MoodAwful)
	assert.True(t, ok)
	assert.Equal(t, 1, sc)
	assert.False(t, ValidMood("fine"))
}
