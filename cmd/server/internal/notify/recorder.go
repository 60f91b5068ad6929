package notify

import (
	"context"
	"sync"
)

// Sent is one notification captured by a Recorder.
type Sent struct {
	Kind      Kind
	ChannelID string
	Text      string
}

// Recorder is an in-memory Notifier used by the offline CLI commands and tests.
// Channels listed in Fail make Dispatch return an error.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Fail map[string]error
}

func (r *Recorder) Dispatch(_ context.Context, kind Kind, channelID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.Fail[channelID]; ok {
		return err
	}
	r.sent = append(r.sent, Sent{Kind: kind, ChannelID: channelID, Text: text})
	return nil
}

// Sent returns a copy of everything dispatched so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
