package ws

import (
	"encoding/json"
	"errors"
)

var errMissingSongID = errors.New("missing songId")

// route describes how one inbound event is forwarded.
type route struct {
	out           string
	includeSender bool
	// build extracts the room and the outbound payload from inbound data.
	build func(data json.RawMessage) (songID string, payload any, err error)
}

// routes is the relay's dispatch table. Payloads are forwarded opaquely;
// only the envelope fields needed for addressing are decoded.
var routes = map[string]route{
	EventSongUpdate: {
		out: EventSongUpdated,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				Updates json.RawMessage `json:"updates"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, in.Updates, err
		},
	},
	EventTrackCreated: {
		out: EventTrackCreated,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				Track json.RawMessage `json:"track"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, in.Track, err
		},
	},
	EventTrackUpdate: {
		out: EventTrackUpdated,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				TrackID string          `json:"trackId"`
				Updates json.RawMessage `json:"updates"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, TrackUpdated{TrackID: in.TrackID, Updates: in.Updates}, err
		},
	},
	EventTrackDeleted: {
		out: EventTrackDeleted,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				TrackID string `json:"trackId"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, in.TrackID, err
		},
	},
	EventNoteCreated: {
		out: EventNoteCreated,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				TrackID string          `json:"trackId"`
				Note    json.RawMessage `json:"note"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, NoteCreated{TrackID: in.TrackID, Note: in.Note}, err
		},
	},
	EventNoteDeleted: {
		out: EventNoteDeleted,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				TrackID string `json:"trackId"`
				NoteID  string `json:"noteId"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, NoteDeleted{TrackID: in.TrackID, NoteID: in.NoteID}, err
		},
	},
	EventChatMessage: {
		out:           EventChatMessage,
		includeSender: true,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				Message json.RawMessage `json:"message"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, in.Message, err
		},
	},
	EventContributorAdded: {
		out: EventContributorAdded,
		build: func(data json.RawMessage) (string, any, error) {
			var in struct {
				SongRef
				Contributor json.RawMessage `json:"contributor"`
			}
			err := decode(data, &in.SongRef, &in)
			return in.SongID, in.Contributor, err
		},
	},
}

// Outbound payloads that are not a bare entity.
type (
	TrackUpdated struct {
		TrackID string          `json:"trackId"`
		Updates json.RawMessage `json:"updates"`
	}
	NoteCreated struct {
		TrackID string          `json:"trackId"`
		Note    json.RawMessage `json:"note"`
	}
	NoteDeleted struct {
		TrackID string `json:"trackId"`
		NoteID  string `json:"noteId"`
	}
)

func decode(data json.RawMessage, ref *SongRef, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	if ref.SongID == "" {
		return errMissingSongID
	}
	return nil
}
