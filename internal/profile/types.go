package profile

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Channel names a pickup network a recipient can collect a parcel from.
type Channel string

const (
	ChannelOzon        Channel = "ozon"
	ChannelWildberries Channel = "wildberries"
	ChannelYandex      Channel = "yandex"
)

// Channels lists the predefined pickup channels in display order.
var Channels = []Channel{ChannelOzon, ChannelWildberries, ChannelYandex}

// Sentinels stored in place of empty free text.
const (
	NoPickup        = "none"
	NoteUnspecified = "unspecified"
)

// ErrMissingParticipant is returned when a profile has no participant id.
var ErrMissingParticipant = errors.New("participant id is required")

// ErrMissingRecipient is returned when a profile has no recipient label.
var ErrMissingRecipient = errors.New("recipient label is required")

// GiftProfile is one participant's submission plus their current assignment.
type GiftProfile struct {
	ParticipantID  string             `json:"-"`
	RecipientLabel string             `json:"recipient_label"`
	Pickup         map[Channel]string `json:"pickup"`
	Note           string             `json:"note"`

	// AssignedTarget is the participant this participant gives a gift to.
	// Empty until an exchange has run.
	AssignedTarget string `json:"assigned_target,omitempty"`
}

// Parcel is the part of a recipient's profile shown to their giver.
// It deliberately has no identity fields.
type Parcel struct {
	RecipientLabel string             `json:"recipient_label"`
	Pickup         map[Channel]string `json:"pickup"`
	Note           string             `json:"note"`
}

// Assigned reports whether the exchange has given this participant a target.
func (p GiftProfile) Assigned() bool {
	return p.AssignedTarget != ""
}

// Parcel returns the notification payload built from this profile.
func (p GiftProfile) Parcel() Parcel {
	pickup := make(map[Channel]string, len(Channels))
	for _, ch := range Channels {
		pickup[ch] = p.PickupAt(ch)
	}
	note := p.Note
	if note == "" {
		note = NoteUnspecified
	}
	return Parcel{
		RecipientLabel: p.RecipientLabel,
		Pickup:         pickup,
		Note:           note,
	}
}

// PickupAt returns the address for ch, or NoPickup.
func (p GiftProfile) PickupAt(ch Channel) string {
	if addr, ok := p.Pickup[ch]; ok && addr != "" {
		return addr
	}
	return NoPickup
}

// Clone returns a deep copy so callers can mutate the pickup map freely.
func (p GiftProfile) Clone() GiftProfile {
	out := p
	if p.Pickup != nil {
		out.Pickup = make(map[Channel]string, len(p.Pickup))
		for k, v := range p.Pickup {
			out.Pickup[k] = v
		}
	}
	return out
}

// Normalize trims and NFC-normalizes free text, fills sentinels and drops
// unknown channels. It returns an error only for missing required fields.
func Normalize(p GiftProfile) (GiftProfile, error) {
	out := GiftProfile{
		ParticipantID:  strings.TrimSpace(p.ParticipantID),
		RecipientLabel: clean(p.RecipientLabel),
		Pickup:         make(map[Channel]string, len(Channels)),
		Note:           clean(p.Note),
		AssignedTarget: strings.TrimSpace(p.AssignedTarget),
	}
	if out.ParticipantID == "" {
		return GiftProfile{}, ErrMissingParticipant
	}
	if out.RecipientLabel == "" {
		return GiftProfile{}, ErrMissingRecipient
	}
	for _, ch := range Channels {
		addr := clean(p.Pickup[ch])
		if addr == "" {
			addr = NoPickup
		}
		out.Pickup[ch] = addr
	}
	if out.Note == "" {
		out.Note = NoteUnspecified
	}
	return out, nil
}

// ParseChannel maps a channel name to a Channel.
func ParseChannel(name string) (Channel, bool) {
	ch := Channel(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Channels {
		if ch == known {
			return ch, true
		}
	}
	return "", false
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
