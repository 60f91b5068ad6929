// Package conversation walks a user through creating, listing, updating and
// deleting meetings one message at a time.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/houzhh15/meetbot/cmd/server/internal/commands"
	"github.com/houzhh15/meetbot/cmd/server/internal/config"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
	"github.com/houzhh15/meetbot/cmd/server/internal/formatter"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
	"github.com/houzhh15/meetbot/pkg/metrics"
)

const (
	menuText = "What would you like to do?\n" +
		"1️⃣ Add a new meeting\n" +
		"2️⃣ List meetings\n" +
		"3️⃣ Delete a meeting\n" +
		"4️⃣ Update a meeting\n\n" +
		"Just type the number or action you want!"
	timedOutText  = "The conversation timed out. Please start again with 'hey'."
	cancelledText = "Okay, I've cancelled that. Say 'hey' whenever you want to start again."
	keepToken     = "-"
)

var (
	greetings   = wordSet("hi", "hello", "hey", "start", "help")
	cancelWords = wordSet("cancel", "stop", "exit", "quit")
	addWords    = wordSet("1", "add", "new", "create")
	listWords   = wordSet("2", "list", "show")
	deleteWords = wordSet("3", "delete", "remove")
	updateWords = wordSet("4", "update", "edit")
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// IsGreeting reports whether text starts a conversation.
func IsGreeting(text string) bool {
	return greetings[strings.ToLower(strings.TrimSpace(text))]
}

// Machine drives every user's dialogue.
type Machine struct {
	svc          services.MeetingService
	table        *Table
	defaultTheme string
	now          func() time.Time
	log          *slog.Logger
}

// Option customises a Machine.
type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// NewMachine creates a state machine storing sessions in table.
func NewMachine(svc services.MeetingService, table *Table, defaultTheme string, opts ...Option) *Machine {
	m := &Machine{
		svc:          svc,
		table:        table,
		defaultTheme: defaultTheme,
		now:          time.Now,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "conversation")
	return m
}

// Sweep drops sessions idle for longer than olderThan.
func (m *Machine) Sweep(olderThan time.Duration) int {
	return m.table.Sweep(m.now(), olderThan)
}

// Handle processes one message from userID and returns the replies to send.
// Messages from users without a session that are not greetings get no reply.
func (m *Machine) Handle(ctx context.Context, userID, text string) []string {
	now := m.now()
	content := strings.TrimSpace(text)
	lower := strings.ToLower(content)

	if greetings[lower] {
		s := newSession(userID, m.defaultTheme, now)
		s.turn.Lock()
		defer s.turn.Unlock()
		m.table.Put(s)
		return m.step(ctx, s, content, lower)
	}

	s, expired := m.table.Get(userID, now)
	if expired {
		metrics.RecordEviction()
		m.log.Info("conversation expired", "user", userID)
		return []string{timedOutText}
	}
	if s == nil {
		return nil
	}

	// one turn at a time per user; other users are not blocked
	s.turn.Lock()
	defer s.turn.Unlock()
	s.touch(now)

	if cancelWords[lower] {
		m.finish(s)
		return []string{cancelledText}
	}
	return m.step(ctx, s, content, lower)
}

// finish drops s from the table unless a newer session replaced it.
func (m *Machine) finish(s *Session) {
	m.table.DeleteSession(s)
}

func (m *Machine) step(ctx context.Context, s *Session, content, lower string) []string {
	switch s.Step {
	case StepInitial:
		s.Step = StepActionChoice
		return []string{menuText}

	case StepActionChoice:
		return m.chooseAction(ctx, s, lower)

	case StepTitle:
		if s.mode == modeUpdate && content == keepToken {
			content = ""
		}
		s.Draft.Title = content
		s.Step = StepAgenda
		if s.mode == modeUpdate {
			return []string{keepPrompt("Enter the new agenda", s.current.Agenda)}
		}
		return []string{"Great! Now enter the agenda items (separate items with numbers like:\n1. First item\n2. Second item):"}

	case StepAgenda:
		if s.mode == modeUpdate && content == keepToken {
			content = ""
		}
		s.Draft.Agenda = content
		s.Step = StepTime
		if s.mode == modeUpdate {
			return []string{keepPrompt("Enter the new time (HH:MM)", s.current.Time)}
		}
		return []string{"When should the meeting take place? (Format: HH:MM, e.g., 14:30):"}

	case StepTime:
		switch {
		case s.mode == modeUpdate && content == keepToken:
			s.Draft.Time = ""
		case meetings.ValidTime(lower):
			s.Draft.Time = lower
		default:
			return []string{"Please enter a valid time in HH:MM format (e.g., 14:30):"}
		}
		s.Step = StepChannel
		channels := strings.Join(m.svc.ChannelNames(), ", ")
		if s.mode == modeUpdate {
			return []string{keepPrompt("Which channel should it be posted in? Available channels: "+channels+".", s.current.ChannelName)}
		}
		return []string{fmt.Sprintf("Which channel should I post this in?\nAvailable channels: %s", channels)}

	case StepChannel:
		switch {
		case s.mode == modeUpdate && content == keepToken:
			s.Draft.ChannelName = ""
		case m.knownChannel(lower):
			s.Draft.ChannelName = config.NormalizeChannel(lower)
		default:
			return []string{fmt.Sprintf("Invalid channel. Please choose from: %s", strings.Join(m.svc.ChannelNames(), ", "))}
		}
		s.Step = StepTheme
		if s.mode == modeUpdate {
			return []string{themes.Menu() + fmt.Sprintf(" (or '%s' to keep %s)", keepToken, s.current.Theme)}
		}
		return []string{themes.Menu()}

	case StepTheme:
		if s.mode == modeUpdate && content == keepToken {
			s.Draft.Theme = ""
			return m.completeUpdate(ctx, s)
		}
		key, err := themes.Select(lower)
		if err != nil {
			return []string{"Please choose a valid theme name or number."}
		}
		s.Draft.Theme = key
		if s.mode == modeUpdate {
			return m.completeUpdate(ctx, s)
		}
		return m.completeCreate(ctx, s)

	case StepDelete:
		id, err := strconv.Atoi(lower)
		if err != nil {
			return []string{"Please enter a valid meeting ID number:"}
		}
		defer m.finish(s)
		res, err := m.svc.Delete(ctx, s.UserID, id)
		if err != nil {
			if errors.Is(err, meetings.ErrNotFound) {
				return []string{fmt.Sprintf("❌ No meeting found with ID: %d", id)}
			}
			return []string{commands.ErrorReply(err, nil)}
		}
		msg := fmt.Sprintf("✅ Meeting with ID %d has been deleted.", id)
		if !res.Delivered {
			msg += fmt.Sprintf("\n⚠️ The cancellation notice to #%s could not be delivered.", res.Meeting.ChannelName)
		}
		return []string{msg}

	case StepUpdateID:
		id, err := strconv.Atoi(lower)
		if err != nil {
			return []string{"Please enter a valid meeting ID number:"}
		}
		current, err := m.svc.Get(ctx, id)
		if err != nil {
			m.finish(s)
			if errors.Is(err, meetings.ErrNotFound) {
				return []string{fmt.Sprintf("❌ No meeting found with ID: %d", id)}
			}
			return []string{commands.ErrorReply(err, nil)}
		}
		s.mode, s.updateID, s.current = modeUpdate, id, current
		s.Draft = services.Draft{}
		s.Step = StepTitle
		return []string{fmt.Sprintf("Updating meeting %d. Type '%s' at any step to keep the current value.\n%s",
			id, keepToken, keepPrompt("Enter the new title", current.Title))}
	}

	m.log.Warn("conversation in unknown step", "user", s.UserID, "step", s.Step)
	m.finish(s)
	return []string{timedOutText}
}

func (m *Machine) chooseAction(ctx context.Context, s *Session, lower string) []string {
	switch {
	case addWords[lower]:
		s.mode = modeAdd
		s.Step = StepTitle
		return []string{"Please enter the meeting title:"}
	case listWords[lower]:
		s.Step = StepInitial
		ms, err := m.svc.List(ctx)
		if err != nil {
			return []string{"❌ There was an error listing the meetings. Please try again."}
		}
		return formatter.Chunk(formatter.Listing(ms), formatter.MaxMessageLen)
	case deleteWords[lower]:
		s.Step = StepDelete
		return []string{"Please enter the meeting ID to delete:"}
	case updateWords[lower]:
		s.Step = StepUpdateID
		return []string{"Please enter the meeting ID to update:"}
	default:
		return []string{"I didn't understand that. Please choose a number between 1-4 or type the action."}
	}
}

func (m *Machine) completeCreate(ctx context.Context, s *Session) []string {
	defer m.finish(s)

	res, err := m.svc.Create(ctx, s.UserID, s.Draft)
	if err != nil {
		m.log.Warn("conversation create failed", "user", s.UserID, "error", err)
		return []string{"❌ There was an error creating the meeting. " + strings.TrimPrefix(commands.ErrorReply(err, m.svc.ChannelNames()), "❌ ")}
	}
	if !res.Delivered {
		return []string{fmt.Sprintf("⚠️ Meeting %d was saved, but I couldn't post the announcement in #%s.", res.Meeting.ID, res.Meeting.ChannelName)}
	}
	return []string{fmt.Sprintf("✅ Meeting has been created successfully! (ID: %d)", res.Meeting.ID)}
}

func (m *Machine) completeUpdate(ctx context.Context, s *Session) []string {
	defer m.finish(s)

	patch := services.Patch{
		Title:       s.Draft.Title,
		Agenda:      s.Draft.Agenda,
		Time:        s.Draft.Time,
		ChannelName: s.Draft.ChannelName,
		Theme:       s.Draft.Theme,
	}
	if patch.IsEmpty() {
		return []string{fmt.Sprintf("Nothing changed, meeting %d is left as it was.", s.updateID)}
	}
	res, err := m.svc.Update(ctx, s.UserID, s.updateID, patch)
	if err != nil {
		return []string{commands.ErrorReply(err, m.svc.ChannelNames())}
	}
	msg := fmt.Sprintf("✅ Meeting %d has been updated.", s.updateID)
	if !res.Delivered || (res.Moved && !res.MovedDelivered) {
		msg += "\n⚠️ Some notifications could not be delivered."
	}
	return []string{msg}
}

func (m *Machine) knownChannel(name string) bool {
	name = config.NormalizeChannel(name)
	for _, known := range m.svc.ChannelNames() {
		if known == name {
			return true
		}
	}
	return false
}

func keepPrompt(prompt, current string) string {
	return fmt.Sprintf("%s (or '%s' to keep \"%s\"):", prompt, keepToken, current)
}
