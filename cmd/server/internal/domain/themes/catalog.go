// Package themes holds the static catalog of message themes.
package themes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownTheme is returned when a theme key or menu number is not in the catalog.
var ErrUnknownTheme = errors.New("unknown theme")

// FallbackKey is used when a meeting refers to a theme the catalog does not know.
const FallbackKey = "executive"

// Theme is the set of decorative rules used to render a meeting.
type Theme struct {
	Key          string
	Description  string
	Prefix       string
	Separator    string
	Decorator    string
	TitleLabel   string
	AgendaLabel  string
	TimeLabel    string
	ChannelLabel string
	NotesLabel   string
	Footer       string
}

// catalog is in menu order; menu positions are 1-based indexes into it.
var catalog = []Theme{
	{
		Key:          "executive",
		Description:  "Formal executive meetings",
		Prefix:       "🎯",
		Separator:    "\n\n",
		Decorator:    "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━",
		TitleLabel:   "📊 **Meeting Overview**",
		AgendaLabel:  "🎯 **Key Points**",
		TimeLabel:    "⏰ **Schedule**",
		ChannelLabel: "📢 **Channel**",
		NotesLabel:   "📝 **Additional Notes**",
		Footer:       "\n\n*Your insights are invaluable to our success. We look forward to your participation.* ✨",
	},
	{
		Key:          "corporate",
		Description:  "Professional business meetings",
		Prefix:       "⚡",
		Separator:    "\n\n",
		Decorator:    "════════════════════════════════════",
		TitleLabel:   "📈 **Strategic Meeting**",
		AgendaLabel:  "📋 **Agenda Items**",
		TimeLabel:    "🕒 **Timing**",
		ChannelLabel: "📢 **Channel**",
		NotesLabel:   "📌 **Key Information**",
		Footer:       "\n\n*Together we drive excellence. Your presence is essential.* 🎯",
	},
	{
		Key:          "modern",
		Description:  "Contemporary casual meetings",
		Prefix:       "💫",
		Separator:    "\n\n",
		Decorator:    "──────────────────────────────",
		TitleLabel:   "🔮 **Session**",
		AgendaLabel:  "🎯 **Focus Areas**",
		TimeLabel:    "⏳ **Time**",
		ChannelLabel: "📢 **Channel**",
		NotesLabel:   "💡 **Notes**",
		Footer:       "\n\n*Be part of something extraordinary. Your perspective matters.* 🚀",
	},
	{
		Key:          "minimal",
		Description:  "Clean and simple style",
		Prefix:       "●",
		Separator:    "\n\n",
		Decorator:    "⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯⎯",
		TitleLabel:   "∙ **Meeting**",
		AgendaLabel:  "∙ **Agenda**",
		TimeLabel:    "∙ **Time**",
		ChannelLabel: "∙ **Channel**",
		NotesLabel:   "∙ **Notes**",
		Footer:       "\n\n*We value your contribution.* ○",
	},
	{
		Key:          "product",
		Description:  "Product-focused meetings",
		Prefix:       "🎯",
		Separator:    "\n\n",
		Decorator:    "━━━━━━━━━━━━━━━━━━━━━━━",
		TitleLabel:   "📌 **Title**",
		AgendaLabel:  "📝 **Agenda**",
		TimeLabel:    "⏰ **Time**",
		ChannelLabel: "📢 **Channel**",
		NotesLabel:   "📋 **Notes**",
		Footer:       "\n*Your presence matters. See you there!* ✨",
	},
	{
		Key:          "holiday",
		Description:  "Festive celebrations",
		Prefix:       "🎉",
		Separator:    "\n\n",
		Decorator:    "∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽∽",
		TitleLabel:   "🎊 **Holiday Celebration**",
		AgendaLabel:  "🎈 **Activities**",
		TimeLabel:    "🕰️ **Event Time**",
		ChannelLabel: "📣 **Meeting Point**",
		NotesLabel:   "✨ **Important Details**",
		Footer:       "\n\n*Let's celebrate together! Join us for some festive fun.* 🎄",
	},
	{
		Key:          "intern",
		Description:  "Learning sessions",
		Prefix:       "🌟",
		Separator:    "\n\n",
		Decorator:    "· · · · · · · · · · · · · · · · · ·",
		TitleLabel:   "📚 **Learning Session**",
		AgendaLabel:  "💡 **Today's Topics**",
		TimeLabel:    "⌚ **Meeting Time**",
		ChannelLabel: "🎓 **Meeting Room**",
		NotesLabel:   "📝 **Preparation Notes**",
		Footer:       "\n\n*Your growth journey matters! Come ready to learn and share.* 🚀",
	},
}

// Lookup returns the theme registered under key.
func Lookup(key string) (Theme, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, t := range catalog {
		if t.Key == key {
			return t, true
		}
	}
	return Theme{}, false
}

// Resolve returns the theme for key, or the fallback theme when the key is unknown.
func Resolve(key string) Theme {
	if t, ok := Lookup(key); ok {
		return t
	}
	t, _ := Lookup(FallbackKey)
	return t
}

// Valid reports whether key names a catalog theme.
func Valid(key string) bool {
	_, ok := Lookup(key)
	return ok
}

// Keys returns the catalog keys in menu order.
func Keys() []string {
	keys := make([]string, len(catalog))
	for i, t := range catalog {
		keys[i] = t.Key
	}
	return keys
}

// ByMenuPosition returns the theme at the 1-based menu position n.
func ByMenuPosition(n int) (Theme, bool) {
	if n < 1 || n > len(catalog) {
		return Theme{}, false
	}
	return catalog[n-1], true
}

// Select accepts either a catalog key or a 1-based menu number and returns the theme key.
func Select(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if n, err := strconv.Atoi(input); err == nil {
		if t, ok := ByMenuPosition(n); ok {
			return t.Key, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownTheme, input)
	}
	if t, ok := Lookup(input); ok {
		return t.Key, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTheme, input)
}

// Menu renders the numbered theme menu shown in conversations and by /themes.
func Menu() string {
	var b strings.Builder
	b.WriteString("Choose a theme for your meeting:\n")
	for i, t := range catalog {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, t.Key, t.Description)
	}
	b.WriteString("\nType the theme name or number:")
	return b.String()
}
