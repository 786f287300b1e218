package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/api"
	"github.com/Vasu1712/scenyx-studio/internal/auth"
	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/Vasu1712/scenyx-studio/internal/storage/memory"
	"github.com/Vasu1712/scenyx-studio/internal/ws"
)

type testServer struct {
	*httptest.Server
	store *memory.Store
	hub   *ws.Hub
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	store := memory.NewStore()
	hub := ws.NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Store:  store,
		Hub:    hub,
		Tokens: auth.NewIssuer("test-secret", time.Hour),
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{Server: srv, store: store, hub: hub}
}

func TestAPIClientRoundTrip(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	client := NewAPIClient(srv.URL + "/")

	user, err := client.GetOrCreateUser(ctx, "ada lovelace")
	if err != nil {
		t.Fatalf("GetOrCreateUser() error = %v", err)
	}
	if user.Name != "ada lovelace" {
		t.Errorf("user = %+v", user)
	}
	token, err := client.IssueToken(ctx, user.ID)
	if err != nil || token == "" {
		t.Fatalf("IssueToken() = %q, %v", token, err)
	}

	song, _ := srv.store.CreateSong(ctx, models.SongInput{Name: "Demo"})

	track, err := client.CreateTrack(ctx, models.TrackInput{SongID: song.ID, InstrumentType: "drums"})
	if err != nil {
		t.Fatalf("CreateTrack() error = %v", err)
	}
	drum := "snare"
	pos := 4
	note, err := client.CreateNote(ctx, models.NoteInput{TrackID: track.ID, DrumType: &drum, Duration: "sixteenth", StartPosition: &pos})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	vol := 0.5
	if _, err := client.UpdateTrack(ctx, track.ID, models.TrackPatch{Volume: &vol}); err != nil {
		t.Fatalf("UpdateTrack() error = %v", err)
	}
	name := "Renamed"
	if _, err := client.UpdateSong(ctx, song.ID, models.SongPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateSong() error = %v", err)
	}
	if _, err := client.CreateChatMessage(ctx, song.ID, user.ID, "hello"); err != nil {
		t.Fatalf("CreateChatMessage() error = %v", err)
	}
	if _, err := client.AddContributor(ctx, song.ID, user.ID); err != nil {
		t.Fatalf("AddContributor() error = %v", err)
	}

	got, err := client.GetSong(ctx, song.ID)
	if err != nil {
		t.Fatalf("GetSong() error = %v", err)
	}
	if got.Name != "Renamed" || len(got.Tracks) != 1 || got.Tracks[0].Volume != 0.5 {
		t.Errorf("song = %+v", got)
	}
	if len(got.Tracks[0].Notes) != 1 || got.Tracks[0].Notes[0].ID != note.ID {
		t.Errorf("notes = %+v", got.Tracks[0].Notes)
	}
	if len(got.ChatMessages) != 1 || len(got.Contributors) != 1 {
		t.Errorf("chat = %d, contributors = %d", len(got.ChatMessages), len(got.Contributors))
	}

	if err := client.DeleteNote(ctx, note.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if err := client.DeleteTrack(ctx, track.ID); err != nil {
		t.Fatalf("DeleteTrack() error = %v", err)
	}
}

func TestAPIClientErrors(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	client := NewAPIClient(srv.URL)

	if _, err := client.GetSong(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSong(missing) = %v, want ErrNotFound", err)
	}
	if err := client.DeleteTrack(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteTrack(missing) = %v, want ErrNotFound", err)
	}

	var invalid *models.ValidationError
	_, err := client.CreateTrack(ctx, models.TrackInput{SongID: "x", InstrumentType: "theremin"})
	if !errors.As(err, &invalid) {
		t.Errorf("CreateTrack(bad instrument) = %v, want ValidationError", err)
	}
}
