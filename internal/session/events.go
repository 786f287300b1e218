package session

import "github.com/Vasu1712/scenyx-studio/internal/models"

// Inbound payloads, as this session sends them.
type (
	joinSong struct {
		SongID string      `json:"songId"`
		User   models.User `json:"user"`
	}
	leaveSong struct {
		SongID string `json:"songId"`
	}
	songUpdate struct {
		SongID  string           `json:"songId"`
		Updates models.SongPatch `json:"updates"`
	}
	trackCreated struct {
		SongID string       `json:"songId"`
		Track  models.Track `json:"track"`
	}
	trackUpdate struct {
		SongID  string            `json:"songId"`
		TrackID string            `json:"trackId"`
		Updates models.TrackPatch `json:"updates"`
	}
	trackDeleted struct {
		SongID  string `json:"songId"`
		TrackID string `json:"trackId"`
	}
	noteCreated struct {
		SongID  string      `json:"songId"`
		TrackID string      `json:"trackId"`
		Note    models.Note `json:"note"`
	}
	noteDeleted struct {
		SongID  string `json:"songId"`
		TrackID string `json:"trackId"`
		NoteID  string `json:"noteId"`
	}
	chatMessage struct {
		SongID  string             `json:"songId"`
		Message models.ChatMessage `json:"message"`
	}
	contributorAdded struct {
		SongID      string             `json:"songId"`
		Contributor models.Contributor `json:"contributor"`
	}
)

// Outbound payloads that are not a bare entity.
type (
	trackUpdated struct {
		TrackID string            `json:"trackId"`
		Updates models.TrackPatch `json:"updates"`
	}
	noteCreatedOut struct {
		TrackID string      `json:"trackId"`
		Note    models.Note `json:"note"`
	}
	noteDeletedOut struct {
		TrackID string `json:"trackId"`
		NoteID  string `json:"noteId"`
	}
)
