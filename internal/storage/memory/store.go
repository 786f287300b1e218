package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/google/uuid"
)

// Store keeps every entity of the song graph in process memory.
// It is used when no database URL is configured and in tests.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*models.User
	songs        map[string]*models.Song // without children
	tracks       map[string]*models.Track
	notes        map[string]*models.Note
	chat         map[string][]models.ChatMessage // songID -> transcript
	contributors map[string][]models.Contributor // songID -> contributors
	now          func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]*models.User),
		songs:        make(map[string]*models.Song),
		tracks:       make(map[string]*models.Track),
		notes:        make(map[string]*models.Note),
		chat:         make(map[string][]models.ChatMessage),
		contributors: make(map[string][]models.Contributor),
		now:          time.Now,
	}
}

func (s *Store) GetOrCreateUser(ctx context.Context, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return s.createUserLocked(name), nil
}

func (s *Store) CreateUser(ctx context.Context, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(name), nil
}

func (s *Store) createUserLocked(name string) *models.User {
	u := &models.User{
		ID:         uuid.NewString(),
		Name:       name,
		AvatarIcon: storage.RandomAvatarIcon(),
		CreatedAt:  s.now(),
	}
	s.users[u.ID] = u
	log.Printf("[Store] User created: ID=%s, Name=%s", u.ID, u.Name)
	cp := *u
	return &cp
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// ListSongs returns songs by most recent update, each with its tracks
// (without notes) in order.
func (s *Store) ListSongs(ctx context.Context) ([]models.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := make([]models.Song, 0, len(s.songs))
	for _, song := range s.songs {
		cp := *song
		cp.Tracks = s.tracksForLocked(song.ID, false)
		songs = append(songs, cp)
	}
	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].UpdatedAt.After(songs[j].UpdatedAt)
	})
	return songs, nil
}

func (s *Store) CreateSong(ctx context.Context, in models.SongInput) (*models.Song, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	song := &models.Song{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Tempo:         in.Tempo,
		TimeSignature: in.TimeSignature,
		Bars:          in.Bars,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.songs[song.ID] = song

	log.Printf("[Store] Song created: ID=%s, Name=%s", song.ID, song.Name)
	cp := *song
	cp.Tracks = []models.Track{}
	return &cp, nil
}

// GetSong returns the full graph: tracks by order, notes by start position,
// chat and contributors by creation time.
func (s *Store) GetSong(ctx context.Context, id string) (*models.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
	}
	cp := *song
	cp.Tracks = s.tracksForLocked(id, true)
	cp.ChatMessages = append([]models.ChatMessage{}, s.chat[id]...)
	cp.Contributors = s.contributorsForLocked(id)
	return &cp, nil
}

func (s *Store) UpdateSong(ctx context.Context, id string, patch models.SongPatch) (*models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
	}
	patch.Apply(song)
	song.UpdatedAt = s.now()

	cp := *song
	cp.Tracks = s.tracksForLocked(id, false)
	return &cp, nil
}

func (s *Store) DeleteSong(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.songs[id]; !ok {
		return fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
	}
	for trackID, t := range s.tracks {
		if t.SongID == id {
			s.deleteTrackLocked(trackID)
		}
	}
	delete(s.songs, id)
	delete(s.chat, id)
	delete(s.contributors, id)

	log.Printf("[Store] Song deleted: ID=%s", id)
	return nil
}

func (s *Store) CreateTrack(ctx context.Context, in models.TrackInput) (*models.Track, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[in.SongID]
	if !ok {
		return nil, fmt.Errorf("song %s: %w", in.SongID, storage.ErrNotFound)
	}

	volume := models.DefaultTrackVolume
	if in.Volume != nil {
		volume = *in.Volume
	}
	order := 0
	if in.Order != nil {
		order = *in.Order
	} else {
		maxOrder := -1
		for _, t := range s.tracks {
			if t.SongID == in.SongID && t.Order > maxOrder {
				maxOrder = t.Order
			}
		}
		order = maxOrder + 1
	}

	now := s.now()
	track := &models.Track{
		ID:             uuid.NewString(),
		SongID:         in.SongID,
		InstrumentType: in.InstrumentType,
		Volume:         volume,
		Order:          order,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.tracks[track.ID] = track
	song.UpdatedAt = now

	cp := *track
	cp.Notes = []models.Note{}
	return &cp, nil
}

func (s *Store) UpdateTrack(ctx context.Context, id string, patch models.TrackPatch) (*models.Track, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	track, ok := s.tracks[id]
	if !ok {
		return nil, fmt.Errorf("track %s: %w", id, storage.ErrNotFound)
	}
	patch.Apply(track)
	track.UpdatedAt = s.now()

	cp := *track
	cp.Notes = s.notesForLocked(id)
	return &cp, nil
}

func (s *Store) DeleteTrack(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracks[id]; !ok {
		return fmt.Errorf("track %s: %w", id, storage.ErrNotFound)
	}
	s.deleteTrackLocked(id)
	return nil
}

func (s *Store) deleteTrackLocked(id string) {
	for noteID, n := range s.notes {
		if n.TrackID == id {
			delete(s.notes, noteID)
		}
	}
	delete(s.tracks, id)
}

func (s *Store) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracks[in.TrackID]; !ok {
		return nil, fmt.Errorf("track %s: %w", in.TrackID, storage.ErrNotFound)
	}

	now := s.now()
	note := &models.Note{
		ID:            uuid.NewString(),
		TrackID:       in.TrackID,
		Pitch:         in.Pitch,
		DrumType:      in.DrumType,
		Duration:      in.Duration,
		StartPosition: *in.StartPosition,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.notes[note.ID] = note

	cp := *note
	return &cp, nil
}

func (s *Store) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, storage.ErrNotFound)
	}
	patch.Apply(note)
	note.UpdatedAt = s.now()

	cp := *note
	return &cp, nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("note %s: %w", id, storage.ErrNotFound)
	}
	delete(s.notes, id)
	return nil
}

func (s *Store) ListChatMessages(ctx context.Context, songID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage{}, s.chat[songID]...), nil
}

func (s *Store) CreateChatMessage(ctx context.Context, songID, userID, message string) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.songs[songID]; !ok {
		return nil, fmt.Errorf("song %s: %w", songID, storage.ErrNotFound)
	}
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		SongID:    songID,
		UserID:    userID,
		Message:   message,
		CreatedAt: s.now(),
		User:      *user,
	}
	s.chat[songID] = append(s.chat[songID], msg)
	return &msg, nil
}

func (s *Store) AddContributor(ctx context.Context, songID, userID string) (*models.Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.songs[songID]; !ok {
		return nil, fmt.Errorf("song %s: %w", songID, storage.ErrNotFound)
	}
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}

	for _, c := range s.contributors[songID] {
		if c.UserID == userID {
			cp := c
			cp.User = *user
			return &cp, nil
		}
	}

	c := models.Contributor{
		ID:        uuid.NewString(),
		SongID:    songID,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	s.contributors[songID] = append(s.contributors[songID], c)

	log.Printf("[Store] User %s added as contributor to song %s", userID, songID)
	c.User = *user
	return &c, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) tracksForLocked(songID string, withNotes bool) []models.Track {
	tracks := []models.Track{}
	for _, t := range s.tracks {
		if t.SongID != songID {
			continue
		}
		cp := *t
		if withNotes {
			cp.Notes = s.notesForLocked(t.ID)
		} else {
			cp.Notes = nil
		}
		tracks = append(tracks, cp)
	}
	sort.SliceStable(tracks, func(i, j int) bool {
		if tracks[i].Order != tracks[j].Order {
			return tracks[i].Order < tracks[j].Order
		}
		return tracks[i].CreatedAt.Before(tracks[j].CreatedAt)
	})
	return tracks
}

func (s *Store) notesForLocked(trackID string) []models.Note {
	notes := []models.Note{}
	for _, n := range s.notes {
		if n.TrackID == trackID {
			notes = append(notes, *n)
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].StartPosition < notes[j].StartPosition
	})
	return notes
}

// contributorsForLocked joins each contributor with its current user record.
func (s *Store) contributorsForLocked(songID string) []models.Contributor {
	out := make([]models.Contributor, 0, len(s.contributors[songID]))
	for _, c := range s.contributors[songID] {
		if u, ok := s.users[c.UserID]; ok {
			c.User = *u
		}
		out = append(out, c)
	}
	return out
}
