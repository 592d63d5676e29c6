package notify

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/santa/internal/profile"
)

// DefaultLocale is used when no locale is configured or it is not supported.
const DefaultLocale = "ru"

// supported lists the locales with a catalog, default first.
var supported = []language.Tag{language.Russian, language.English}

var matcher = language.NewMatcher(supported)

// Renderer turns messages and reply keys into localized text.
type Renderer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewRenderer returns a renderer for the closest supported locale.
// Unknown or malformed locales fall back to DefaultLocale.
func NewRenderer(locale string) *Renderer {
	tag := supported[0]
	if locale != "" {
		if requested, err := language.Parse(locale); err == nil {
			_, idx, conf := matcher.Match(requested)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Renderer{tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the BCP 47 tag the renderer prints in.
func (r *Renderer) Locale() string {
	return r.tag.String()
}

// Sprintf formats a catalog key.
func (r *Renderer) Sprintf(key string, args ...any) string {
	return r.printer.Sprintf(key, args...)
}

// Text renders msg as the private message body.
func (r *Renderer) Text(msg Message) string {
	switch msg.Kind {
	case KindAssignment:
		return r.assignment(msg.Parcel)
	case KindGift:
		return r.gift(msg.Note)
	default:
		return string(msg.Kind)
	}
}

func (r *Renderer) assignment(parcel *profile.Parcel) string {
	if parcel == nil {
		parcel = &profile.Parcel{}
	}
	lines := []string{
		r.Sprintf("assignment.title"),
		"",
		r.Sprintf("assignment.target", parcel.RecipientLabel),
		"",
		r.Sprintf("assignment.details"),
	}
	for _, ch := range profile.Channels {
		lines = append(lines, r.Sprintf("assignment.pickup."+string(ch), r.pickup(parcel.Pickup[ch])))
	}
	lines = append(lines,
		r.Sprintf("assignment.note", r.note(parcel.Note)),
		"",
		r.Sprintf("assignment.footer"),
	)
	return strings.Join(lines, "\n")
}

func (r *Renderer) gift(note string) string {
	text := r.Sprintf("gift.title")
	if note = strings.TrimSpace(note); note != "" {
		text += "\n\n" + r.Sprintf("gift.note", note)
	}
	return text
}

func (r *Renderer) pickup(addr string) string {
	if addr == "" || addr == profile.NoPickup {
		return r.Sprintf("value.none")
	}
	return addr
}

func (r *Renderer) note(note string) string {
	if note == "" || note == profile.NoteUnspecified {
		return r.Sprintf("value.unspecified")
	}
	return note
}
