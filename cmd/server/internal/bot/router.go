// Package bot routes incoming chat messages to the command interpreter or the
// conversation state machine.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/houzhh15/meetbot/cmd/server/internal/commands"
	"github.com/houzhh15/meetbot/cmd/server/internal/conversation"
)

// Event is a chat message as seen by the router, independent of the transport.
type Event struct {
	ID          string
	AuthorID    string
	AuthorIsBot bool
	ChannelID   string
	Content     string
}

// Conversation handles free-text dialogue.
type Conversation interface {
	Handle(ctx context.Context, userID, text string) []string
}

// Commands handles slash commands.
type Commands interface {
	Handle(ctx context.Context, operator, text string) commands.Response
}

// Router decides who answers a message.
type Router struct {
	commandChannelID string
	commands         Commands
	conversation     Conversation
	log              *slog.Logger
}

// NewRouter creates a router. Slash commands are only honoured in commandChannelID.
func NewRouter(commandChannelID string, cmds Commands, conv Conversation, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		commandChannelID: commandChannelID,
		commands:         cmds,
		conversation:     conv,
		log:              log.With("component", "router"),
	}
}

var _ Conversation = (*conversation.Machine)(nil)

// Handle returns the replies for ev. Messages from bots never get a reply.
func (r *Router) Handle(ctx context.Context, ev Event) []string {
	if ev.AuthorIsBot {
		return nil
	}
	eventID := ev.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	log := r.log.With("event_id", eventID, "author", ev.AuthorID, "channel", ev.ChannelID)

	if ev.ChannelID == r.commandChannelID && commands.IsCommand(ev.Content) {
		log.Info("routing command", "command", firstWord(ev.Content))
		return r.commands.Handle(ctx, ev.AuthorID, ev.Content).Replies
	}

	replies := r.conversation.Handle(ctx, ev.AuthorID, ev.Content)
	if len(replies) > 0 {
		log.Debug("conversation replied", "replies", len(replies))
	}
	return replies
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
