package meetings

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrNotFound is returned when no meeting carries the requested id.
	ErrNotFound = errors.New("meeting not found")
	// ErrInvalidTime is returned for times that are not HH:MM on a 24h clock.
	ErrInvalidTime = errors.New("invalid meeting time")
)

var timePattern = regexp.MustCompile(`^([0-1]?\d|2[0-3]):[0-5]\d$`)

// Meeting is the persisted meeting record.
type Meeting struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Agenda      string     `json:"agenda"`
	Time        string     `json:"time"`
	ChannelName string     `json:"channelName"`
	ChannelID   string     `json:"channelId"`
	Theme       string     `json:"theme"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ValidTime reports whether s is an HH:MM time of day.
func ValidTime(s string) bool {
	return timePattern.MatchString(s)
}

// MinutesOfDay converts a valid HH:MM time into minutes after midnight.
// Invalid input sorts last.
func MinutesOfDay(s string) int {
	if !ValidTime(s) {
		return 24 * 60
	}
	var h, m int
	i := 0
	for ; s[i] != ':'; i++ {
		h = h*10 + int(s[i]-'0')
	}
	for i++; i < len(s); i++ {
		m = m*10 + int(s[i]-'0')
	}
	return h*60 + m
}
