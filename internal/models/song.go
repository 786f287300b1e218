package models

import (
	"fmt"
	"time"
)

// User is the stable identity behind one or more live connections.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AvatarIcon string    `json:"avatarIcon"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Song is the root of the entity graph a room is built around.
// Tracks, ChatMessages and Contributors are only populated by full reads.
type Song struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Tempo         int           `json:"tempo"`
	TimeSignature string        `json:"timeSignature"`
	Bars          int           `json:"bars"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Tracks        []Track       `json:"tracks"`
	ChatMessages  []ChatMessage `json:"chatMessages,omitempty"`
	Contributors  []Contributor `json:"contributors,omitempty"`
}

// Track is one instrument lane of a song.
type Track struct {
	ID             string    `json:"id"`
	SongID         string    `json:"songId"`
	InstrumentType string    `json:"instrumentType"`
	Volume         float64   `json:"volume"`
	Order          int       `json:"order"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Notes          []Note    `json:"notes"`
}

// Note is a single cell on the piano roll or drum grid. Exactly one of
// Pitch and DrumType is set, depending on the track's instrument.
type Note struct {
	ID            string    `json:"id"`
	TrackID       string    `json:"trackId"`
	Pitch         *string   `json:"pitch"`
	DrumType      *string   `json:"drumType"`
	Duration      string    `json:"duration"`
	StartPosition int       `json:"startPosition"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ChatMessage is a line of the song's chat transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	SongID    string    `json:"songId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	User      User      `json:"user"`
}

// Contributor records that a user has edited a song at least once.
type Contributor struct {
	ID        string    `json:"id"`
	SongID    string    `json:"songId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	User      User      `json:"user"`
}

const (
	DefaultTempo         = 100
	DefaultTimeSignature = "4/4"
	DefaultBars          = 4
	DefaultTrackVolume   = 0.8
)

var (
	InstrumentTypes = []string{"piano", "bass", "drums"}
	NoteDurations   = []string{"whole", "half", "quarter", "eighth", "sixteenth"}
	DrumTypes       = []string{"bass", "snare", "hihat", "ride"}
)

// DurationSixteenths maps a note duration to its length in sixteenth notes.
var DurationSixteenths = map[string]int{
	"whole":     16,
	"half":      8,
	"quarter":   4,
	"eighth":    2,
	"sixteenth": 1,
}

// ValidationError reports a request that cannot be applied as given.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not one of %v", value, allowed)}
}
