// Package storage defines the durable CRUD store that the collaboration
// layer treats as the source of truth.
package storage

import (
	"context"
	"errors"
	"math/rand"

	"github.com/Vasu1712/scenyx-studio/internal/models"
)

// ErrNotFound is returned when the referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Store is implemented by the in-memory and PostgreSQL backends.
type Store interface {
	GetOrCreateUser(ctx context.Context, name string) (*models.User, error)
	CreateUser(ctx context.Context, name string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)

	ListSongs(ctx context.Context) ([]models.Song, error)
	CreateSong(ctx context.Context, in models.SongInput) (*models.Song, error)
	GetSong(ctx context.Context, id string) (*models.Song, error)
	UpdateSong(ctx context.Context, id string, patch models.SongPatch) (*models.Song, error)
	DeleteSong(ctx context.Context, id string) error

	CreateTrack(ctx context.Context, in models.TrackInput) (*models.Track, error)
	UpdateTrack(ctx context.Context, id string, patch models.TrackPatch) (*models.Track, error)
	DeleteTrack(ctx context.Context, id string) error

	CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error

	ListChatMessages(ctx context.Context, songID string) ([]models.ChatMessage, error)
	CreateChatMessage(ctx context.Context, songID, userID, message string) (*models.ChatMessage, error)

	// AddContributor is an upsert: adding an existing contributor returns
	// the existing record.
	AddContributor(ctx context.Context, songID, userID string) (*models.Contributor, error)

	Close() error
}

var animalIcons = []string{"🦁", "🐯", "🐻", "🐼", "🐨", "🦊", "🐸", "🐵", "🐔", "🐧", "🦉", "🦆", "🐺", "🐗", "🐴", "🦄"}

// RandomAvatarIcon picks the icon assigned to newly created users.
func RandomAvatarIcon() string {
	return animalIcons[rand.Intn(len(animalIcons))]
}
