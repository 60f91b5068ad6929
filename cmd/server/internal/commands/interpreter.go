// Package commands implements the slash-command surface of the bot.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
	"github.com/houzhh15/meetbot/cmd/server/internal/formatter"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
	"github.com/houzhh15/meetbot/pkg/metrics"
)

// Usage is returned for /help and every unrecognised command.
const Usage = "**📖 Meeting Bot Commands**\n\n" +
	"`/add title:\"…\" agenda:\"…\" time:\"HH:MM\" channelName:\"…\" [theme:\"…\"]`\n" +
	"`/update {id} [title:\"…\"] [agenda:\"…\"] [time:\"HH:MM\"] [channelName:\"…\"] [theme:\"…\"]`\n" +
	"`/delete {id}`\n" +
	"`/list`\n" +
	"`/themes`\n\n" +
	"Or just say **hey** to be walked through it step by step."

// Response is what the interpreter wants posted back to the command channel.
type Response struct {
	Replies []string
}

func reply(text string) Response {
	return Response{Replies: []string{text}}
}

// Interpreter turns command text into meeting service calls.
type Interpreter struct {
	svc services.MeetingService
	log *slog.Logger
}

// NewInterpreter creates an interpreter on top of svc.
func NewInterpreter(svc services.MeetingService, log *slog.Logger) *Interpreter {
	if log == nil {
		log = slog.Default()
	}
	return &Interpreter{svc: svc, log: log.With("component", "commands")}
}

// IsCommand reports whether text looks like a slash command.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// Handle executes one command. operator identifies the author for the audit trail.
func (in *Interpreter) Handle(ctx context.Context, operator, text string) Response {
	cmd, rest := splitCommand(text)

	var (
		resp   Response
		result string
	)
	switch cmd {
	case "/add":
		resp, result = in.add(ctx, operator, rest)
	case "/delete":
		resp, result = in.delete(ctx, operator, rest)
	case "/update":
		resp, result = in.update(ctx, operator, rest)
	case "/list":
		resp, result = in.list(ctx)
	case "/themes":
		resp, result = reply(themes.Menu()), "ok"
	default:
		cmd = "help"
		resp, result = reply(Usage), "ok"
	}

	metrics.RecordCommand(cmd, result)
	in.log.Debug("command handled", "command", cmd, "result", result, "operator", operator)
	return resp
}

func (in *Interpreter) add(ctx context.Context, operator, rest string) (Response, string) {
	f := ParseFields(rest)
	draft := services.Draft{
		Title:       f.Title,
		Agenda:      f.Agenda,
		Time:        f.Time,
		ChannelName: f.ChannelName,
		Theme:       f.Theme,
	}
	if missing := draft.Missing(); len(missing) > 0 {
		return reply(fmt.Sprintf("❌ Missing %s.\nUsage: `/add title:\"…\" agenda:\"…\" time:\"HH:MM\" channelName:\"…\" [theme:\"…\"]`",
			strings.Join(missing, ", "))), "usage"
	}

	res, err := in.svc.Create(ctx, operator, draft)
	if err != nil {
		return reply(ErrorReply(err, in.svc.ChannelNames())), resultFor(err)
	}
	if !res.Delivered {
		return reply(fmt.Sprintf("⚠️ Meeting saved (ID: %d) but the announcement to #%s could not be delivered. Check the bot's permissions in that channel.",
			res.Meeting.ID, res.Meeting.ChannelName)), "ok"
	}
	return reply(fmt.Sprintf("✅ Meeting scheduled (ID: %d) and announced in #%s.", res.Meeting.ID, res.Meeting.ChannelName)), "ok"
}

func (in *Interpreter) delete(ctx context.Context, operator, rest string) (Response, string) {
	args := strings.Fields(rest)
	if len(args) != 1 {
		return reply("❌ Usage: `/delete {id}`"), "usage"
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return reply("❌ Meeting ID must be a number. Usage: `/delete {id}`"), "usage"
	}

	res, err := in.svc.Delete(ctx, operator, id)
	if err != nil {
		return reply(ErrorReply(err, nil)), resultFor(err)
	}
	msg := fmt.Sprintf("✅ Meeting with ID %d has been deleted.", id)
	if !res.Delivered {
		msg += fmt.Sprintf("\n⚠️ The cancellation notice to #%s could not be delivered.", res.Meeting.ChannelName)
	}
	return reply(msg), "ok"
}

func (in *Interpreter) update(ctx context.Context, operator, rest string) (Response, string) {
	idText, pairs := splitCommand(rest)
	id, err := strconv.Atoi(idText)
	if err != nil {
		return reply("❌ Usage: `/update {id} [title:\"…\"] [agenda:\"…\"] [time:\"HH:MM\"] [channelName:\"…\"] [theme:\"…\"]`"), "usage"
	}
	f := ParseFields(pairs)
	if f.Empty() {
		return reply("❌ Nothing to update. Give at least one of title, agenda, time, channelName or theme as key:\"value\"."), "usage"
	}

	res, err := in.svc.Update(ctx, operator, id, services.Patch{
		Title:       f.Title,
		Agenda:      f.Agenda,
		Time:        f.Time,
		ChannelName: f.ChannelName,
		Theme:       f.Theme,
	})
	if err != nil {
		return reply(ErrorReply(err, in.svc.ChannelNames())), resultFor(err)
	}

	msg := fmt.Sprintf("✅ Meeting %d has been updated.", id)
	if res.Moved && !res.MovedDelivered {
		msg += fmt.Sprintf("\n⚠️ The move notice to #%s could not be delivered.", res.Previous.ChannelName)
	}
	if !res.Delivered {
		msg += fmt.Sprintf("\n⚠️ The update notice to #%s could not be delivered.", res.Meeting.ChannelName)
	}
	return reply(msg), "ok"
}

func (in *Interpreter) list(ctx context.Context) (Response, string) {
	ms, err := in.svc.List(ctx)
	if err != nil {
		return reply(ErrorReply(err, nil)), "error"
	}
	return Response{Replies: formatter.Chunk(formatter.Listing(ms), formatter.MaxMessageLen)}, "ok"
}

// ErrorReply maps a service error to the text shown to the user.
func ErrorReply(err error, channels []string) string {
	var unknown *services.UnknownChannelError
	switch {
	case errors.As(err, &unknown):
		return fmt.Sprintf("❌ Invalid channel name. Available channels: %s", strings.Join(unknown.Valid, ", "))
	case errors.Is(err, services.ErrUnknownChannel):
		return fmt.Sprintf("❌ Invalid channel name. Available channels: %s", strings.Join(channels, ", "))
	case errors.Is(err, meetings.ErrNotFound):
		return "❌ No meeting found with that ID."
	case errors.Is(err, meetings.ErrInvalidTime):
		return "❌ Please use a valid time in HH:MM format (e.g., 14:30)."
	case errors.Is(err, themes.ErrUnknownTheme):
		return fmt.Sprintf("❌ Unknown theme. Available themes: %s", strings.Join(themes.Keys(), ", "))
	case errors.Is(err, services.ErrMissingField):
		return "❌ " + capitalize(err.Error()) + "."
	case errors.Is(err, services.ErrEmptyPatch):
		return "❌ Nothing to update."
	case errors.Is(err, services.ErrStorage):
		return "❌ The meeting store is unavailable right now. Nothing was changed, please try again later."
	default:
		return "❌ Something went wrong. Please try again."
	}
}

func resultFor(err error) string {
	if errors.Is(err, services.ErrStorage) {
		return "error"
	}
	return "rejected"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
