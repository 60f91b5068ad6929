package conversation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

// IdleTimeout is how long a session may sit between turns before it is dropped.
const IdleTimeout = 300000 * time.Millisecond

// Step is a position in the dialogue.
type Step string

const (
	StepInitial      Step = "initial"
	StepActionChoice Step = "action_choice"
	StepTitle        Step = "title"
	StepAgenda       Step = "agenda"
	StepTime         Step = "time"
	StepChannel      Step = "channel"
	StepTheme        Step = "theme"
	StepDelete       Step = "delete"
	StepUpdateID     Step = "update_id"
)

// mode tells the field steps whether they build a new meeting or edit one.
type mode int

const (
	modeAdd mode = iota
	modeUpdate
)

// Session is the per-user dialogue state. Step, Draft and the unexported
// fields belong to whoever holds the turn lock; the activity stamp is atomic
// so the table can check expiry without taking it.
type Session struct {
	UserID string
	Step   Step
	Draft  services.Draft

	turn       sync.Mutex
	lastUpdate atomic.Int64 // unix nanoseconds

	mode     mode
	updateID int
	current  meetings.Meeting
}

func newSession(userID, defaultTheme string, now time.Time) *Session {
	s := &Session{
		UserID: userID,
		Step:   StepInitial,
		Draft:  services.Draft{Theme: defaultTheme},
	}
	s.touch(now)
	return s
}

// LastUpdate returns when the user last spoke in this session.
func (s *Session) LastUpdate() time.Time {
	return time.Unix(0, s.lastUpdate.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastUpdate.Store(now.UnixNano())
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastUpdate()) > ttl
}

// Table holds sessions keyed by user id. Expiry is checked when a session is read.
type Table struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
}

// NewTable creates a table whose sessions expire after ttl of inactivity.
func NewTable(ttl time.Duration) *Table {
	if ttl <= 0 {
		ttl = IdleTimeout
	}
	return &Table{ttl: ttl, sessions: map[string]*Session{}}
}

// Get returns the session of userID. An expired session is removed and reported
// with expired=true.
func (t *Table) Get(userID string, now time.Time) (s *Session, expired bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		return nil, false
	}
	if s.expired(now, t.ttl) {
		delete(t.sessions, userID)
		return nil, true
	}
	return s, false
}

// Put stores s under its user id, replacing any previous session.
func (t *Table) Put(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.UserID] = s
}

// DeleteSession drops s only if it is still the live session of its user.
func (t *Table) DeleteSession(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessions[s.UserID] == s {
		delete(t.sessions, s.UserID)
	}
}

// Sweep removes sessions idle for longer than olderThan and returns how many were
// dropped. olderThan is raised to the idle timeout, so a user coming back shortly
// after expiry is still told the conversation timed out.
func (t *Table) Sweep(now time.Time, olderThan time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if olderThan < t.ttl {
		olderThan = t.ttl
	}
	n := 0
	for id, s := range t.sessions {
		if s.expired(now, olderThan) {
			delete(t.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
