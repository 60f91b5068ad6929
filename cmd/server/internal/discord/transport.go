// Package discord adapts discordgo to the bot's transport-neutral interfaces.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
)

// ErrNotConnected is returned before the gateway has identified the bot user.
var ErrNotConnected = errors.New("discord session not ready")

// restAPI is the part of *discordgo.Session the transport uses.
type restAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// Transport implements notify.Transport on top of the Discord REST API.
type Transport struct {
	api    restAPI
	selfID func() string

	mu   sync.Mutex
	self string
}

var _ notify.Transport = (*Transport)(nil)

// NewSession creates a discordgo session for a bot token with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	return s, nil
}

// NewTransport wraps s. The bot user id comes from the gateway state when connected and
// from the REST API otherwise, so the transport also works without an open gateway.
func NewTransport(s *discordgo.Session) *Transport {
	return &Transport{
		api: s,
		selfID: func() string {
			if s.State == nil || s.State.User == nil {
				return ""
			}
			return s.State.User.ID
		},
	}
}

func (t *Transport) ResolveChannel(ctx context.Context, channelID string) (string, error) {
	ch, err := t.api.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	return ch.Name, nil
}

func (t *Transport) botUserID(ctx context.Context) (string, error) {
	if id := t.selfID(); id != "" {
		return id, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.self != "" {
		return t.self, nil
	}
	u, err := t.api.User("@me", discordgo.WithContext(ctx))
	if err != nil || u == nil || u.ID == "" {
		return "", fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	t.self = u.ID
	return t.self, nil
}

func (t *Transport) CanSend(ctx context.Context, channelID string) (bool, error) {
	self, err := t.botUserID(ctx)
	if err != nil {
		return false, err
	}
	perms, err := t.api.UserChannelPermissions(self, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("read permissions in %s: %w", channelID, err)
	}
	return perms&discordgo.PermissionSendMessages != 0, nil
}

func (t *Transport) Send(ctx context.Context, channelID, text string) error {
	if _, err := t.api.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send to %s: %w", channelID, err)
	}
	return nil
}
