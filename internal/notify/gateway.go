// Package notify defines how the exchange talks to participants: the
// Gateway contract, the messages it carries and their localized text.
//
// A Gateway reports a participant who cannot receive private messages with
// ErrUnreachable. Any other error is a transport failure. Callers keep the
// two apart because they call for different guidance: the first is a
// participant setting, the second a system problem.
package notify

import (
	"context"
	"errors"

	"github.com/roach88/santa/internal/profile"
)

// ErrUnreachable means the participant does not accept private messages.
var ErrUnreachable = errors.New("participant unreachable")

// Kind tells the renderer which message to produce.
type Kind string

const (
	// KindAssignment tells a giver who they give to and where to send it.
	KindAssignment Kind = "assignment"

	// KindGift forwards a giver's attachment and note to their recipient.
	KindGift Kind = "gift"
)

// Attachment is an opaque reference to a file hosted by the transport,
// such as a pickup QR code. It is passed through untouched.
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// Message is the payload handed to a Gateway.
type Message struct {
	Kind Kind `json:"kind"`

	// Parcel is set for KindAssignment.
	Parcel *profile.Parcel `json:"parcel,omitempty"`

	// Attachment and Note are set for KindGift. Note may be empty.
	Attachment *Attachment `json:"attachment,omitempty"`
	Note       string      `json:"note,omitempty"`
}

// AssignmentMessage builds the message telling a giver about their recipient.
func AssignmentMessage(parcel profile.Parcel) Message {
	return Message{Kind: KindAssignment, Parcel: &parcel}
}

// GiftMessage builds the message forwarding an attachment to a recipient.
func GiftMessage(att Attachment, note string) Message {
	return Message{Kind: KindGift, Attachment: &att, Note: note}
}

// Gateway delivers a message privately to one participant.
type Gateway interface {
	Deliver(ctx context.Context, participantID string, msg Message) error
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, participantID string, msg Message) error

// Deliver calls f.
func (f GatewayFunc) Deliver(ctx context.Context, participantID string, msg Message) error {
	return f(ctx, participantID, msg)
}

// IsUnreachable reports whether err means the participant cannot be messaged.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
