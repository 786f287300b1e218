package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestGetOrCreateUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.GetOrCreateUser(ctx, "ada")
	if err != nil {
		t.Fatalf("GetOrCreateUser() error = %v", err)
	}
	b, err := s.GetOrCreateUser(ctx, "ada")
	if err != nil {
		t.Fatalf("GetOrCreateUser() error = %v", err)
	}
	if a.ID != b.ID {
		t.Errorf("second lookup created a new user: %s != %s", a.ID, b.ID)
	}
	if a.AvatarIcon == "" {
		t.Error("avatar icon should be assigned")
	}
}

func TestSongGraphOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	song, err := s.CreateSong(ctx, models.SongInput{Name: "Demo"})
	if err != nil {
		t.Fatalf("CreateSong() error = %v", err)
	}
	drums, err := s.CreateTrack(ctx, models.TrackInput{SongID: song.ID, InstrumentType: "drums", Order: intPtr(5)})
	if err != nil {
		t.Fatalf("CreateTrack() error = %v", err)
	}
	piano, err := s.CreateTrack(ctx, models.TrackInput{SongID: song.ID, InstrumentType: "piano", Order: intPtr(0)})
	if err != nil {
		t.Fatalf("CreateTrack() error = %v", err)
	}
	bass, err := s.CreateTrack(ctx, models.TrackInput{SongID: song.ID, InstrumentType: "bass"})
	if err != nil {
		t.Fatalf("CreateTrack() error = %v", err)
	}
	if bass.Order != 6 {
		t.Errorf("appended track order = %d, want 6", bass.Order)
	}
	if piano.Volume != models.DefaultTrackVolume {
		t.Errorf("default volume = %v, want %v", piano.Volume, models.DefaultTrackVolume)
	}

	for _, pos := range []int{8, 0, 4} {
		if _, err := s.CreateNote(ctx, models.NoteInput{TrackID: piano.ID, Pitch: strPtr("C4"), Duration: "quarter", StartPosition: intPtr(pos)}); err != nil {
			t.Fatalf("CreateNote() error = %v", err)
		}
	}

	full, err := s.GetSong(ctx, song.ID)
	if err != nil {
		t.Fatalf("GetSong() error = %v", err)
	}
	wantOrder := []string{piano.ID, drums.ID, bass.ID}
	for i, id := range wantOrder {
		if full.Tracks[i].ID != id {
			t.Fatalf("track[%d] = %s, want %s", i, full.Tracks[i].ID, id)
		}
	}
	notes := full.Tracks[0].Notes
	if len(notes) != 3 || notes[0].StartPosition != 0 || notes[1].StartPosition != 4 || notes[2].StartPosition != 8 {
		t.Errorf("notes not sorted by start position: %+v", notes)
	}
}

func TestDeleteTrackRemovesNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	song, _ := s.CreateSong(ctx, models.SongInput{Name: "Demo"})
	track, _ := s.CreateTrack(ctx, models.TrackInput{SongID: song.ID, InstrumentType: "drums"})
	note, err := s.CreateNote(ctx, models.NoteInput{TrackID: track.ID, DrumType: strPtr("snare"), Duration: "sixteenth", StartPosition: intPtr(3)})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	if err := s.DeleteTrack(ctx, track.ID); err != nil {
		t.Fatalf("DeleteTrack() error = %v", err)
	}
	if err := s.DeleteNote(ctx, note.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteNote() after track delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTrack(ctx, track.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteTrack() = %v, want ErrNotFound", err)
	}
}

func TestAddContributorIsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	song, _ := s.CreateSong(ctx, models.SongInput{Name: "Demo"})
	user, _ := s.CreateUser(ctx, "grace")

	first, err := s.AddContributor(ctx, song.ID, user.ID)
	if err != nil {
		t.Fatalf("AddContributor() error = %v", err)
	}
	second, err := s.AddContributor(ctx, song.ID, user.ID)
	if err != nil {
		t.Fatalf("AddContributor() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("upsert created a second contributor")
	}
	if first.User.Name != "grace" {
		t.Errorf("contributor user = %+v", first.User)
	}

	full, _ := s.GetSong(ctx, song.ID)
	if len(full.Contributors) != 1 {
		t.Errorf("contributors = %d, want 1", len(full.Contributors))
	}
}

func TestChatRequiresKnownSongAndUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	song, _ := s.CreateSong(ctx, models.SongInput{Name: "Demo"})
	if _, err := s.CreateChatMessage(ctx, song.ID, "ghost", "hi"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("CreateChatMessage() unknown user = %v, want ErrNotFound", err)
	}

	user, _ := s.CreateUser(ctx, "lin")
	msg, err := s.CreateChatMessage(ctx, song.ID, user.ID, "hi")
	if err != nil {
		t.Fatalf("CreateChatMessage() error = %v", err)
	}
	if msg.User.ID != user.ID {
		t.Errorf("message user = %+v", msg.User)
	}

	msgs, _ := s.ListChatMessages(ctx, song.ID)
	if len(msgs) != 1 || msgs[0].Message != "hi" {
		t.Errorf("transcript = %+v", msgs)
	}
}
