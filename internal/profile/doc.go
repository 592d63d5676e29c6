// Package profile defines the gift profile each participant submits and the
// parcel derived from it that is shown to the participant's giver.
//
// A profile carries one address per pickup channel. Channels with no address
// hold the NoPickup sentinel and an absent note holds NoteUnspecified, so a
// stored profile never has empty free-text fields.
//
// All free text is NFC-normalized before it is stored, which keeps labels
// entered from different keyboards byte-comparable.
package profile
