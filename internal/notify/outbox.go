package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Outbox is a Gateway that writes rendered messages to a writer. The CLI uses
// it to run an exchange from a terminal, printing each private message
// instead of sending it.
type Outbox struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *Renderer
	closed   map[string]bool
}

// NewOutbox returns an Outbox writing to w. Participants listed in closed are
// reported as unreachable.
func NewOutbox(w io.Writer, r *Renderer, closed ...string) *Outbox {
	o := &Outbox{w: w, renderer: r, closed: make(map[string]bool, len(closed))}
	for _, id := range closed {
		o.closed[id] = true
	}
	return o
}

// Deliver writes msg for participantID.
func (o *Outbox) Deliver(ctx context.Context, participantID string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed[participantID] {
		return fmt.Errorf("outbox %s: %w", participantID, ErrUnreachable)
	}

	text := o.renderer.Text(msg)
	if msg.Attachment != nil {
		text += fmt.Sprintf("\n[attachment: %s]", msg.Attachment.URL)
	}
	if _, err := fmt.Fprintf(o.w, "--- to %s ---\n%s\n\n", participantID, text); err != nil {
		return fmt.Errorf("outbox %s: %w", participantID, err)
	}
	return nil
}
