package ws

import "encoding/json"

// Event names on the wire. Inbound names are what clients send; the relay
// maps each to the outbound name recipients see.
const (
	EventConnected        = "connected"
	EventJoinSong         = "join-song"
	EventLeaveSong        = "leave-song"
	EventPresenceUpdate   = "presence-update"
	EventSongUpdate       = "song-update"
	EventSongUpdated      = "song-updated"
	EventTrackCreated     = "track-created"
	EventTrackUpdate      = "track-update"
	EventTrackUpdated     = "track-updated"
	EventTrackDeleted     = "track-deleted"
	EventNoteCreated      = "note-created"
	EventNoteDeleted      = "note-deleted"
	EventChatMessage      = "chat-message"
	EventContributorAdded = "contributor-added"
)

// Frame is the envelope of every WebSocket text message. Origin is the
// connection id of the sender and is only set on relayed events.
type Frame struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	Origin string          `json:"origin,omitempty"`
}

// RoomName is the transport group a song's collaborators share.
func RoomName(songID string) string {
	return "song:" + songID
}

// Connected is sent once to a new connection.
type Connected struct {
	ConnectionID string `json:"connectionId"`
}

// SongRef carries the room scope every inbound event names.
type SongRef struct {
	SongID string `json:"songId"`
}

func encodeFrame(event string, data any, origin string) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw, Origin: origin})
}
