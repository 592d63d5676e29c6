package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/roach88/santa/internal/profile"
)

// Sentinels written by the first version of the bot into presents.json.
const (
	legacyNoPickup = "нет"
	legacyNoNote   = "не скажу"
)

// ErrInvalidAssignment is returned when a legacy gift_to does not name
// another participant of the same document, or names one taken by someone else.
var ErrInvalidAssignment = errors.New("invalid assignment")

// legacyEntry is one record of presents.json.
type legacyEntry struct {
	Label      string  `json:"flm"`
	Ozon       string  `json:"ozon"`
	WB         string  `json:"wb"`
	YM         string  `json:"ym"`
	Additional string  `json:"additional"`
	GiftTo     *string `json:"gift_to"`
}

// DecodeLegacy reads a presents.json document. Legacy sentinels are mapped to
// profile.NoPickup and profile.NoteUnspecified. Assignments are kept only if
// every gift_to names a different participant of the document and no target
// has two givers; otherwise ErrInvalidAssignment is returned.
func DecodeLegacy(r io.Reader) (map[string]profile.GiftProfile, error) {
	var doc map[string]legacyEntry
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode legacy roster: %w", err)
	}

	out := make(map[string]profile.GiftProfile, len(doc))
	for id, e := range doc {
		p := profile.GiftProfile{
			ParticipantID:  id,
			RecipientLabel: e.Label,
			Pickup: map[profile.Channel]string{
				profile.ChannelOzon:        fromLegacy(e.Ozon, legacyNoPickup),
				profile.ChannelWildberries: fromLegacy(e.WB, legacyNoPickup),
				profile.ChannelYandex:      fromLegacy(e.YM, legacyNoPickup),
			},
			Note: fromLegacy(e.Additional, legacyNoNote),
		}
		if e.GiftTo != nil {
			p.AssignedTarget = *e.GiftTo
		}
		norm, err := profile.Normalize(p)
		if err != nil {
			return nil, fmt.Errorf("legacy participant %s: %w", id, err)
		}
		out[id] = norm
	}
	if err := checkLegacyAssignments(out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkLegacyAssignments(roster map[string]profile.GiftProfile) error {
	ids := make([]string, 0, len(roster))
	for id := range roster {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	givers := make(map[string]string, len(roster))
	for _, id := range ids {
		target := roster[id].AssignedTarget
		if target == "" {
			continue
		}
		if target == id {
			return fmt.Errorf("legacy participant %s gives to themselves: %w", id, ErrInvalidAssignment)
		}
		if _, ok := roster[target]; !ok {
			return fmt.Errorf("legacy participant %s gives to unknown %s: %w", id, target, ErrInvalidAssignment)
		}
		if other, ok := givers[target]; ok {
			return fmt.Errorf("legacy participants %s and %s both give to %s: %w", other, id, target, ErrInvalidAssignment)
		}
		givers[target] = id
	}
	return nil
}

// EncodeLegacy writes the roster in presents.json form.
func EncodeLegacy(w io.Writer, roster map[string]profile.GiftProfile) error {
	doc := make(map[string]legacyEntry, len(roster))
	for id, p := range roster {
		e := legacyEntry{
			Label:      p.RecipientLabel,
			Ozon:       toLegacy(p.PickupAt(profile.ChannelOzon), profile.NoPickup, legacyNoPickup),
			WB:         toLegacy(p.PickupAt(profile.ChannelWildberries), profile.NoPickup, legacyNoPickup),
			YM:         toLegacy(p.PickupAt(profile.ChannelYandex), profile.NoPickup, legacyNoPickup),
			Additional: toLegacy(p.Note, profile.NoteUnspecified, legacyNoNote),
		}
		if p.AssignedTarget != "" {
			target := p.AssignedTarget
			e.GiftTo = &target
		}
		doc[id] = e
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode legacy roster: %w", err)
	}
	return nil
}

func fromLegacy(v, legacySentinel string) string {
	if v == legacySentinel {
		return ""
	}
	return v
}

func toLegacy(v, sentinel, legacySentinel string) string {
	if v == sentinel || v == "" {
		return legacySentinel
	}
	return v
}
