// Package notify delivers formatted meeting messages to chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/houzhh15/meetbot/cmd/server/internal/formatter"
	"github.com/houzhh15/meetbot/pkg/logger"
	"github.com/houzhh15/meetbot/pkg/metrics"
)

// Kind labels what a notification announces.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindMoved  Kind = "moved"
	KindCancel Kind = "cancel"
	KindDigest Kind = "digest"
)

// ErrMissingPermission is returned when the bot may not post in the target channel.
var ErrMissingPermission = errors.New("missing send permission")

// Transport is the chat platform seen by the dispatcher.
type Transport interface {
	// ResolveChannel looks the target up and returns its display name.
	ResolveChannel(ctx context.Context, channelID string) (string, error)
	// CanSend reports whether the bot may post in the channel.
	CanSend(ctx context.Context, channelID string) (bool, error)
	// Send posts one message.
	Send(ctx context.Context, channelID, text string) error
}

// Notifier is what the meeting service depends on.
type Notifier interface {
	Dispatch(ctx context.Context, kind Kind, channelID, text string) error
}

// Dispatcher is a best-effort, at-most-once sender. It never retries.
type Dispatcher struct {
	transport Transport
	log       *slog.Logger
	limit     int
}

// NewDispatcher creates a dispatcher over transport.
func NewDispatcher(transport Transport, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		transport: transport,
		log:       log.With("component", "dispatcher"),
		limit:     formatter.MaxMessageLen,
	}
}

// Dispatch resolves channelID, checks send permission and posts text, split into
// transport-sized chunks. Every fault is logged here and returned as the failure signal.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, channelID, text string) error {
	start := time.Now()
	step, err := d.deliver(ctx, channelID, text)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = step
	}
	metrics.RecordDispatch(string(kind), status, elapsed.Seconds())
	logger.LogDispatch(d.log, string(kind), channelID, elapsed.Milliseconds(), step, err)
	return err
}

func (d *Dispatcher) deliver(ctx context.Context, channelID, text string) (string, error) {
	if channelID == "" {
		return "resolve", errors.New("empty channel id")
	}

	name, err := d.transport.ResolveChannel(ctx, channelID)
	if err != nil {
		return "resolve", fmt.Errorf("resolve channel %s: %w", channelID, err)
	}

	ok, err := d.transport.CanSend(ctx, channelID)
	if err != nil {
		return "permission", fmt.Errorf("check permissions in %s (%s): %w", name, channelID, err)
	}
	if !ok {
		return "permission", fmt.Errorf("%w in channel %s (%s)", ErrMissingPermission, name, channelID)
	}

	chunks := formatter.Chunk(text, d.limit)
	for i, chunk := range chunks {
		if err := d.transport.Send(ctx, channelID, chunk); err != nil {
			return "send", fmt.Errorf("send part %d/%d to %s: %w", i+1, len(chunks), channelID, err)
		}
	}
	return "", nil
}
