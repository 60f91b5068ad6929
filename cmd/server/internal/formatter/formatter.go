// Package formatter renders meetings into chat message text.
package formatter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
)

const indent = "\n   "

const notes = "   • Please review any materials beforehand" + indent +
	"• Be prepared with your questions" + indent +
	"• Meeting notes will be shared in the channel"

// agendaBreak marks where an agenda item starts: a numbered-list marker or a newline.
var agendaBreak = regexp.MustCompile(`\d+\.|\n`)

// SplitAgenda splits free agenda text into trimmed, non-empty items.
func SplitAgenda(agenda string) []string {
	var (
		items []string
		start int
	)
	for _, loc := range agendaBreak.FindAllStringIndex(agenda, -1) {
		if loc[0] > start {
			items = append(items, agenda[start:loc[0]])
		}
		start = loc[0]
	}
	items = append(items, agenda[start:])

	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Format renders m with the theme named by themeKey. Unknown keys use the fallback theme.
func Format(m meetings.Meeting, themeKey string) string {
	style := themes.Resolve(themeKey)

	var b strings.Builder
	if style.Decorator != "" {
		b.WriteString(style.Decorator)
		b.WriteString("\n\n")
	}

	sections := []string{
		style.Prefix + " " + style.TitleLabel + indent + m.Title,
		style.AgendaLabel + indent + strings.Join(SplitAgenda(m.Agenda), indent),
		style.TimeLabel + indent + m.Time,
		style.ChannelLabel + indent + "#" + m.ChannelName,
		style.NotesLabel + "\n" + notes,
	}
	b.WriteString(strings.Join(sections, style.Separator))

	b.WriteString(style.Footer)
	if style.Decorator != "" {
		b.WriteString("\n\n")
		b.WriteString(style.Decorator)
	}
	return b.String()
}

// Listing renders the fixed-format overview of all meetings, ordered by time of day.
func Listing(ms []meetings.Meeting) string {
	if len(ms) == 0 {
		return "No meetings are currently scheduled."
	}

	sorted := make([]meetings.Meeting, len(ms))
	copy(sorted, ms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return meetings.MinutesOfDay(sorted[i].Time) < meetings.MinutesOfDay(sorted[j].Time)
	})

	var b strings.Builder
	b.WriteString("**📋 Scheduled Meetings**\n\n")
	for _, m := range sorted {
		fmt.Fprintf(&b, "**ID:** %d\n", m.ID)
		fmt.Fprintf(&b, "**Title:** %s\n", m.Title)
		fmt.Fprintf(&b, "**Time:** %s\n", m.Time)
		fmt.Fprintf(&b, "**Channel:** #%s\n", m.ChannelName)
		fmt.Fprintf(&b, "**Theme:** %s\n", m.Theme)
		b.WriteString("───────────────\n\n")
	}
	return b.String()
}

// Cancellation is posted to a meeting's channel when it is deleted.
func Cancellation(m meetings.Meeting) string {
	return fmt.Sprintf("❌ **Meeting Cancelled**\n\n**%s** scheduled for %s has been cancelled.", m.Title, m.Time)
}

// Moved is posted to the previous channel when an update changes a meeting's channel.
func Moved(m meetings.Meeting, newChannel string) string {
	return fmt.Sprintf("📢 **Meeting Moved**\n\n**%s** (%s) is now announced in #%s.", m.Title, m.Time, newChannel)
}

// Updated is posted to the meeting's channel after an update.
func Updated(m meetings.Meeting) string {
	return "🔄 **Meeting Updated**\n\n" + Format(m, m.Theme)
}

// Digest concatenates every meeting of one channel under a single header.
func Digest(channelName string, ms []meetings.Meeting, themeKey string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**📅 Today's Meetings in #%s**\n\n", channelName)
	for _, m := range ms {
		b.WriteString(Format(m, themeKey))
		b.WriteString("\n\n")
	}
	return b.String()
}
