package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
)

func sprintReview() meetings.Meeting {
	return meetings.Meeting{
		ID:          1,
		Title:       "Sprint Review",
		Agenda:      "1. Plan\n2. Demo",
		Time:        "10:00",
		ChannelName: "eng",
		ChannelID:   "111",
		Theme:       "corporate",
		CreatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestSplitAgenda(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"numbered lines", "1. Plan\n2. Demo", []string{"1. Plan", "2. Demo"}},
		{"inline numbers", "1. Plan 2. Demo 3. Retro", []string{"1. Plan", "2. Demo", "3. Retro"}},
		{"multi digit marker", "10. Wrap up", []string{"10. Wrap up"}},
		{"plain lines", "Intro\n\n  Q&A  \n", []string{"Intro", "Q&A"}},
		{"blank", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitAgenda(tt.input)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCorporate(t *testing.T) {
	out := Format(sprintReview(), "corporate")

	want := "════════════════════════════════════\n\n" +
		"⚡ 📈 **Strategic Meeting**\n   Sprint Review\n\n" +
		"📋 **Agenda Items**\n   1. Plan\n   2. Demo\n\n" +
		"🕒 **Timing**\n   10:00\n\n" +
		"📢 **Channel**\n   #eng\n\n" +
		"📌 **Key Information**\n   • Please review any materials beforehand\n   • Be prepared with your questions\n   • Meeting notes will be shared in the channel" +
		"\n\n*Together we drive excellence. Your presence is essential.* 🎯" +
		"\n\n════════════════════════════════════"
	assert.Equal(t, want, out)
}

func TestFormatIsPureForEveryTheme(t *testing.T) {
	m := sprintReview()
	for _, key := range append(themes.Keys(), "unknown-theme", "") {
		first := Format(m, key)
		second := Format(m, key)
		assert.Equal(t, first, second, "theme %q", key)
		assert.Contains(t, first, "Sprint Review")
	}
}

func TestFormatUnknownThemeFallsBack(t *testing.T) {
	m := sprintReview()
	assert.Equal(t, Format(m, themes.FallbackKey), Format(m, "no-such-theme"))
}

func TestListingSortedByTime(t *testing.T) {
	ms := []meetings.Meeting{
		{ID: 1, Title: "Late", Time: "16:00", ChannelName: "eng", Theme: "modern"},
		{ID: 2, Title: "Early", Time: "8:15", ChannelName: "ops", Theme: "minimal"},
		{ID: 3, Title: "Mid", Time: "12:00", ChannelName: "eng", Theme: "corporate"},
	}
	out := Listing(ms)

	early := strings.Index(out, "Early")
	mid := strings.Index(out, "Mid")
	late := strings.Index(out, "Late")
	require.True(t, early >= 0 && mid >= 0 && late >= 0)
	assert.True(t, early < mid && mid < late)
	assert.Contains(t, out, "**Channel:** #ops")
	assert.Equal(t, "Late", ms[0].Title, "input order must be kept")

	assert.Equal(t, "No meetings are currently scheduled.", Listing(nil))
}

func TestNotices(t *testing.T) {
	m := sprintReview()
	assert.Contains(t, Cancellation(m), "Sprint Review")
	assert.Contains(t, Moved(m, "ops"), "#ops")
	assert.True(t, strings.HasPrefix(Updated(m), "🔄 **Meeting Updated**"))

	digest := Digest("eng", []meetings.Meeting{m, m}, "minimal")
	assert.True(t, strings.HasPrefix(digest, "**📅 Today's Meetings in #eng**\n\n"))
	assert.Equal(t, 2, strings.Count(digest, "Sprint Review"))
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"short"}, Chunk("short", 10))

	text := strings.Repeat("line of text\n", 40)
	chunks := Chunk(text, 100)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
		assert.True(t, strings.HasSuffix(c, "\n"), "chunks should end on a line boundary")
	}
	assert.Equal(t, text, strings.Join(chunks, ""))

	// no newline: hard cut on runes
	wide := strings.Repeat("é", 250)
	chunks = Chunk(wide, 100)
	assert.Len(t, chunks, 3)
	assert.Equal(t, wide, strings.Join(chunks, ""))
}
