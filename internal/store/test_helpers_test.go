package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/santa/internal/profile"
)

// createTestStore creates a new file-backed store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProfile creates a normalized profile with one ozon address.
func createTestProfile(t *testing.T, id, label string) profile.GiftProfile {
	t.Helper()
	p, err := profile.Normalize(profile.GiftProfile{
		ParticipantID:  id,
		RecipientLabel: label,
		Pickup:         map[profile.Channel]string{profile.ChannelOzon: "ozon for " + label},
	})
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	return p
}
