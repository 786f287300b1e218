package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/Vasu1712/scenyx-studio/internal/storage"
)

// Malformed ids are answered before any query runs, so a Store without a
// connection is enough here.
func TestMalformedIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	s := &Store{}

	tests := []struct {
		name string
		call func() error
	}{
		{"get song", func() error { _, err := s.GetSong(ctx, "42"); return err }},
		{"get user", func() error { _, err := s.GetUser(ctx, "ada"); return err }},
		{"delete song", func() error { return s.DeleteSong(ctx, "not-a-uuid") }},
		{"delete track", func() error { return s.DeleteTrack(ctx, "t1") }},
		{"delete note", func() error { return s.DeleteNote(ctx, "") }},
		{"add contributor", func() error { _, err := s.AddContributor(ctx, "42", "u1"); return err }},
		{"chat message", func() error { _, err := s.CreateChatMessage(ctx, "42", "u1", "hi"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestListChatMessagesMalformedSong(t *testing.T) {
	msgs, err := (&Store{}).ListChatMessages(context.Background(), "42")
	if err != nil {
		t.Fatalf("ListChatMessages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages = %+v, want none", msgs)
	}
}

func TestCheckIDAcceptsUUID(t *testing.T) {
	if err := checkID("song", "7f1d2c4e-8a0b-4c3d-9e5f-1a2b3c4d5e6f"); err != nil {
		t.Errorf("checkID() error = %v", err)
	}
}
