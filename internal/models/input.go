package models

// SongInput is the payload for creating a song. Zero values take defaults.
type SongInput struct {
	Name          string `json:"name"`
	Tempo         int    `json:"tempo,omitempty"`
	TimeSignature string `json:"timeSignature,omitempty"`
	Bars          int    `json:"bars,omitempty"`
}

// Normalize fills defaults and checks required fields.
func (in *SongInput) Normalize() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if in.Tempo == 0 {
		in.Tempo = DefaultTempo
	}
	if in.TimeSignature == "" {
		in.TimeSignature = DefaultTimeSignature
	}
	if in.Bars == 0 {
		in.Bars = DefaultBars
	}
	return nil
}

// SongPatch is a partial song update; nil fields are left untouched.
// It is also the payload of song-update / song-updated events.
type SongPatch struct {
	Name          *string `json:"name,omitempty"`
	Tempo         *int    `json:"tempo,omitempty"`
	TimeSignature *string `json:"timeSignature,omitempty"`
	Bars          *int    `json:"bars,omitempty"`
}

// Apply merges the patch into s.
func (p SongPatch) Apply(s *Song) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Tempo != nil {
		s.Tempo = *p.Tempo
	}
	if p.TimeSignature != nil {
		s.TimeSignature = *p.TimeSignature
	}
	if p.Bars != nil {
		s.Bars = *p.Bars
	}
}

// TrackInput is the payload for creating a track. A nil Order appends
// the track after the current last one.
type TrackInput struct {
	SongID         string   `json:"songId"`
	InstrumentType string   `json:"instrumentType"`
	Volume         *float64 `json:"volume,omitempty"`
	Order          *int     `json:"order,omitempty"`
}

func (in *TrackInput) Validate() error {
	if in.SongID == "" {
		return &ValidationError{Field: "songId", Reason: "is required"}
	}
	if in.InstrumentType == "" {
		return &ValidationError{Field: "instrumentType", Reason: "is required"}
	}
	return oneOf("instrumentType", in.InstrumentType, InstrumentTypes)
}

// TrackPatch is a partial track update and the updates body of track-update.
type TrackPatch struct {
	InstrumentType *string  `json:"instrumentType,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	Order          *int     `json:"order,omitempty"`
}

func (p TrackPatch) Validate() error {
	if p.InstrumentType != nil {
		return oneOf("instrumentType", *p.InstrumentType, InstrumentTypes)
	}
	return nil
}

func (p TrackPatch) Apply(t *Track) {
	if p.InstrumentType != nil {
		t.InstrumentType = *p.InstrumentType
	}
	if p.Volume != nil {
		t.Volume = *p.Volume
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
}

// NoteInput is the payload for creating a note.
type NoteInput struct {
	TrackID       string  `json:"trackId"`
	Pitch         *string `json:"pitch,omitempty"`
	DrumType      *string `json:"drumType,omitempty"`
	Duration      string  `json:"duration"`
	StartPosition *int    `json:"startPosition"`
}

func (in *NoteInput) Validate() error {
	if in.TrackID == "" {
		return &ValidationError{Field: "trackId", Reason: "is required"}
	}
	if in.Duration == "" {
		return &ValidationError{Field: "duration", Reason: "is required"}
	}
	if in.StartPosition == nil {
		return &ValidationError{Field: "startPosition", Reason: "is required"}
	}
	if *in.StartPosition < 0 {
		return &ValidationError{Field: "startPosition", Reason: "must not be negative"}
	}
	if err := oneOf("duration", in.Duration, NoteDurations); err != nil {
		return err
	}
	if in.DrumType != nil {
		return oneOf("drumType", *in.DrumType, DrumTypes)
	}
	return nil
}

// NotePatch is a partial note update.
type NotePatch struct {
	Pitch         *string `json:"pitch,omitempty"`
	DrumType      *string `json:"drumType,omitempty"`
	Duration      *string `json:"duration,omitempty"`
	StartPosition *int    `json:"startPosition,omitempty"`
}

func (p NotePatch) Validate() error {
	if p.Duration != nil {
		if err := oneOf("duration", *p.Duration, NoteDurations); err != nil {
			return err
		}
	}
	if p.DrumType != nil {
		return oneOf("drumType", *p.DrumType, DrumTypes)
	}
	return nil
}

func (p NotePatch) Apply(n *Note) {
	if p.Pitch != nil {
		n.Pitch = p.Pitch
	}
	if p.DrumType != nil {
		n.DrumType = p.DrumType
	}
	if p.Duration != nil {
		n.Duration = *p.Duration
	}
	if p.StartPosition != nil {
		n.StartPosition = *p.StartPosition
	}
}
