package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/houzhh15/meetbot/cmd/server/internal/bot"
	"github.com/houzhh15/meetbot/cmd/server/internal/config"
	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
)

// Handler answers routed events.
type Handler interface {
	Handle(ctx context.Context, ev bot.Event) []string
}

// GatewayConfig identifies the bot and the channels it works with.
type GatewayConfig struct {
	BotName          string
	CommandChannelID string
	Channels         config.ChannelDirectory
}

// Gateway keeps the websocket connection open and feeds messages to the router.
type Gateway struct {
	session          *discordgo.Session
	transport        notify.Transport
	handler          Handler
	botName          string
	channels         config.ChannelDirectory
	commandChannelID string
	log              *slog.Logger
	ctx              context.Context
}

// NewGateway wires handler to s.
func NewGateway(s *discordgo.Session, transport notify.Transport, handler Handler, cfg GatewayConfig, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BotName == "" {
		cfg.BotName = config.DefaultBotName
	}
	return &Gateway{
		session:          s,
		transport:        transport,
		handler:          handler,
		botName:          cfg.BotName,
		channels:         cfg.Channels,
		commandChannelID: cfg.CommandChannelID,
		log:              log.With("component", "gateway"),
		ctx:              context.Background(),
	}
}

// Run opens the connection and blocks until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	g.ctx = ctx
	removeReady := g.session.AddHandler(g.onReady)
	removeMessage := g.session.AddHandler(g.onMessage)
	defer removeReady()
	defer removeMessage()

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	g.log.Info("discord gateway connected")

	<-ctx.Done()

	if err := g.session.Close(); err != nil {
		g.log.Warn("close discord gateway", "error", err)
	}
	g.log.Info("discord gateway closed")
	return nil
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	user := ""
	if r.User != nil {
		user = r.User.String()
	}
	g.log.Info(g.botName+" logged in", "user", user, "guilds", len(r.Guilds))
	g.Verify(g.ctx)
}

// Verify checks that the command channel and every directory channel are reachable and
// writable. Problems are only logged, the bot keeps running.
func (g *Gateway) Verify(ctx context.Context) int {
	problems := 0
	if g.commandChannelID != "" {
		if _, err := g.transport.ResolveChannel(ctx, g.commandChannelID); err != nil {
			g.log.Warn("command channel not reachable", "channel_id", g.commandChannelID, "error", err)
			problems++
		}
	}
	for _, name := range g.channels.Names() {
		id, _ := g.channels.Lookup(name)
		if _, err := g.transport.ResolveChannel(ctx, id); err != nil {
			g.log.Warn("notification channel not reachable", "channel", name, "channel_id", id, "error", err)
			problems++
			continue
		}
		ok, err := g.transport.CanSend(ctx, id)
		if err != nil || !ok {
			g.log.Warn("cannot post in notification channel", "channel", name, "channel_id", id, "error", err)
			problems++
		}
	}
	if problems == 0 {
		g.log.Info("all channels verified", "count", len(g.channels))
	}
	return problems
}

func (g *Gateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	replies := g.handler.Handle(g.ctx, toEvent(m))
	for _, text := range replies {
		if _, err := s.ChannelMessageSendReply(m.ChannelID, text, m.Reference(), discordgo.WithContext(g.ctx)); err != nil {
			g.log.Error("reply failed", "channel_id", m.ChannelID, "message_id", m.ID, "error", err)
			return
		}
	}
}

func toEvent(m *discordgo.MessageCreate) bot.Event {
	ev := bot.Event{ID: m.ID, ChannelID: m.ChannelID, Content: m.Content}
	if m.Author != nil {
		ev.AuthorID = m.Author.ID
		ev.AuthorIsBot = m.Author.Bot
	}
	return ev
}
