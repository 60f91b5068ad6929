package commands

import (
	"regexp"
	"strings"
)

var (
	pairPattern  = regexp.MustCompile(`(?i)\b(title|agenda|time|channelname|channel|theme)\s*:\s*"([^"]*)"`)
	quoteReplace = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`)
)

// Fields are the quoted key:"value" arguments shared by /add and /update.
type Fields struct {
	Title       string
	Agenda      string
	Time        string
	ChannelName string
	Theme       string
}

// Empty reports whether no field was given.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// ParseFields extracts key:"value" pairs. Keys are case-insensitive, the first
// occurrence of a key wins and unknown text between pairs is ignored.
func ParseFields(s string) Fields {
	var f Fields
	for _, m := range pairPattern.FindAllStringSubmatch(quoteReplace.Replace(s), -1) {
		value := m[2]
		var dst *string
		switch strings.ToLower(m[1]) {
		case "title":
			dst = &f.Title
		case "agenda":
			dst = &f.Agenda
		case "time":
			dst = &f.Time
		case "channelname", "channel":
			dst = &f.ChannelName
		case "theme":
			dst = &f.Theme
		}
		if dst != nil && *dst == "" {
			*dst = value
		}
	}
	return f
}

// splitCommand separates the leading command token from the remainder.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return strings.ToLower(text), ""
	}
	return strings.ToLower(text[:idx]), strings.TrimSpace(text[idx+1:])
}
