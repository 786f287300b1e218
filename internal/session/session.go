// Package session keeps one client's view of a song consistent with its own
// edits and with the edits other collaborators relay through the hub.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/ws"
)

// ErrClosed is returned by operations on a session that has left its song.
var ErrClosed = errors.New("session closed")

// ErrNotLoaded is returned by mutations issued before Load succeeded.
var ErrNotLoaded = errors.New("song not loaded")

// State is the session's position in its connection lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	Joined
	TemporarilyDisconnected
	LeftOrClosed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Joined:
		return "joined"
	case TemporarilyDisconnected:
		return "temporarily-disconnected"
	case LeftOrClosed:
		return "left"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Store is the durable write surface. storage.Store and APIClient both
// satisfy it.
type Store interface {
	GetSong(ctx context.Context, id string) (*models.Song, error)
	UpdateSong(ctx context.Context, id string, patch models.SongPatch) (*models.Song, error)
	CreateTrack(ctx context.Context, in models.TrackInput) (*models.Track, error)
	UpdateTrack(ctx context.Context, id string, patch models.TrackPatch) (*models.Track, error)
	DeleteTrack(ctx context.Context, id string) error
	CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	CreateChatMessage(ctx context.Context, songID, userID, message string) (*models.ChatMessage, error)
	AddContributor(ctx context.Context, songID, userID string) (*models.Contributor, error)
}

// Transport carries named events to the relay.
type Transport interface {
	Emit(event string, payload any) error
	Close() error
}

// Option configures a Session.
type Option func(*Session)

// WithRefetchOnReconnect controls whether a reconnect reloads the song from
// the store. It is on by default.
func WithRefetchOnReconnect(enabled bool) Option {
	return func(s *Session) { s.refetchOnReconnect = enabled }
}

// WithFailureHandler is called whenever a durable write fails.
func WithFailureHandler(fn func(op string, err error)) Option {
	return func(s *Session) { s.onFailure = fn }
}

// WithChangeHandler is called after every change to the view.
func WithChangeHandler(fn func()) Option {
	return func(s *Session) { s.onChange = fn }
}

// Session is one client's view of one song.
type Session struct {
	store  Store
	songID string
	user   models.User

	refetchOnReconnect bool
	onFailure          func(op string, err error)
	onChange           func()

	mu           sync.Mutex
	transport    Transport
	state        State
	connectionID string
	dropped      bool // a connection was lost since the last join
	song         *models.Song
	viewers      []models.User
	contributed  bool
}

func New(store Store, songID string, user models.User, opts ...Option) *Session {
	s := &Session{
		store:              store,
		songID:             songID,
		user:               user,
		refetchOnReconnect: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the authoritative song state and replaces the view.
func (s *Session) Load(ctx context.Context) error {
	song, err := s.store.GetSong(ctx, s.songID)
	if err != nil {
		return fmt.Errorf("failed to load song %s: %w", s.songID, err)
	}
	s.mu.Lock()
	s.song = song
	for _, c := range song.Contributors {
		if c.UserID == s.user.ID {
			s.contributed = true
		}
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// Attach sets the transport used for emitting events.
func (s *Session) Attach(t Transport) {
	s.mu.Lock()
	s.transport = t
	s.mu.Unlock()
}

func (s *Session) SongID() string {
	return s.songID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConnectionID is the id the relay assigned to the current connection.
func (s *Session) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectionID
}

// Song returns a copy of the current view.
func (s *Session) Song() *models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSong(s.song)
}

// Viewers returns the last presence snapshot.
func (s *Session) Viewers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.viewers...)
}

// Connected is called by the transport once a connection is up. After a
// drop it optionally reloads the song, then re-issues join-song. The reload
// comes first so events relayed after the join are not overwritten.
func (s *Session) Connected(ctx context.Context) {
	s.mu.Lock()
	if s.state == LeftOrClosed {
		s.mu.Unlock()
		return
	}
	refetch := s.dropped && s.refetchOnReconnect
	s.dropped = false
	s.state = Connecting
	s.mu.Unlock()

	if refetch {
		if err := s.Load(ctx); err != nil {
			log.Printf("[Session] Refetch after reconnect failed: %v", err)
		}
	}

	s.emit(ws.EventJoinSong, joinSong{SongID: s.songID, User: s.user})
}

// Disconnected is called by the transport when the connection drops.
func (s *Session) Disconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == LeftOrClosed {
		return
	}
	s.dropped = true
	if s.state == Connecting || s.state == Joined {
		s.state = TemporarilyDisconnected
	}
	s.viewers = nil
	s.connectionID = ""
}

// HandleFrame folds one relayed frame into the view.
func (s *Session) HandleFrame(f ws.Frame) {
	if err := s.handleFrame(f); err != nil {
		log.Printf("[Session] Ignoring %s: %v", f.Event, err)
		return
	}
	s.changed()
}

func (s *Session) handleFrame(f ws.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == LeftOrClosed {
		return ErrClosed
	}

	switch f.Event {
	case ws.EventConnected:
		var c ws.Connected
		if err := json.Unmarshal(f.Data, &c); err != nil {
			return err
		}
		s.connectionID = c.ConnectionID
		return nil

	case ws.EventPresenceUpdate:
		var users []models.User
		if err := json.Unmarshal(f.Data, &users); err != nil {
			return err
		}
		s.viewers = users
		if s.state == Connecting {
			s.state = Joined
		}
		return nil
	}

	if s.song == nil {
		return ErrNotLoaded
	}

	switch f.Event {
	case ws.EventSongUpdated:
		var patch models.SongPatch
		if err := json.Unmarshal(f.Data, &patch); err != nil {
			return err
		}
		applySongPatch(s.song, patch)

	case ws.EventTrackCreated:
		var t models.Track
		if err := json.Unmarshal(f.Data, &t); err != nil {
			return err
		}
		applyTrackCreated(s.song, t)

	case ws.EventTrackUpdated:
		var in trackUpdated
		if err := json.Unmarshal(f.Data, &in); err != nil {
			return err
		}
		applyTrackUpdated(s.song, in.TrackID, in.Updates)

	case ws.EventTrackDeleted:
		var trackID string
		if err := json.Unmarshal(f.Data, &trackID); err != nil {
			return err
		}
		applyTrackDeleted(s.song, trackID)

	case ws.EventNoteCreated:
		var in noteCreatedOut
		if err := json.Unmarshal(f.Data, &in); err != nil {
			return err
		}
		applyNoteCreated(s.song, in.TrackID, in.Note)

	case ws.EventNoteDeleted:
		var in noteDeletedOut
		if err := json.Unmarshal(f.Data, &in); err != nil {
			return err
		}
		applyNoteDeleted(s.song, in.TrackID, in.NoteID)

	case ws.EventChatMessage:
		var m models.ChatMessage
		if err := json.Unmarshal(f.Data, &m); err != nil {
			return err
		}
		applyChatMessage(s.song, m)

	case ws.EventContributorAdded:
		var c models.Contributor
		if err := json.Unmarshal(f.Data, &c); err != nil {
			return err
		}
		applyContributor(s.song, c)

	default:
		return fmt.Errorf("unknown event")
	}
	return nil
}

// mutate runs the shared write-then-apply-then-emit sequence. write performs
// the durable call; apply and the returned event only run when it succeeds.
func (s *Session) mutate(op string, write func() (apply func(*models.Song), event string, payload any, err error)) error {
	s.mu.Lock()
	switch {
	case s.state == LeftOrClosed:
		s.mu.Unlock()
		return ErrClosed
	case s.song == nil:
		s.mu.Unlock()
		return ErrNotLoaded
	}
	s.mu.Unlock()

	apply, event, payload, err := write()
	if err != nil {
		s.fail(op, err)
		return err
	}

	s.mu.Lock()
	if apply != nil {
		apply(s.song)
	}
	s.mu.Unlock()
	s.changed()

	s.emit(event, payload)
	return nil
}

func (s *Session) UpdateSong(ctx context.Context, patch models.SongPatch) error {
	err := s.mutate("update song", func() (func(*models.Song), string, any, error) {
		if _, err := s.store.UpdateSong(ctx, s.songID, patch); err != nil {
			return nil, "", nil, err
		}
		apply := func(song *models.Song) { applySongPatch(song, patch) }
		return apply, ws.EventSongUpdate, songUpdate{SongID: s.songID, Updates: patch}, nil
	})
	return s.contributeAfter(ctx, err)
}

func (s *Session) CreateTrack(ctx context.Context, in models.TrackInput) (*models.Track, error) {
	in.SongID = s.songID
	var track *models.Track
	err := s.mutate("create track", func() (func(*models.Song), string, any, error) {
		t, err := s.store.CreateTrack(ctx, in)
		if err != nil {
			return nil, "", nil, err
		}
		track = t
		apply := func(song *models.Song) { applyTrackCreated(song, *t) }
		return apply, ws.EventTrackCreated, trackCreated{SongID: s.songID, Track: *t}, nil
	})
	return track, s.contributeAfter(ctx, err)
}

func (s *Session) UpdateTrack(ctx context.Context, trackID string, patch models.TrackPatch) error {
	err := s.mutate("update track", func() (func(*models.Song), string, any, error) {
		if _, err := s.store.UpdateTrack(ctx, trackID, patch); err != nil {
			return nil, "", nil, err
		}
		apply := func(song *models.Song) { applyTrackUpdated(song, trackID, patch) }
		return apply, ws.EventTrackUpdate, trackUpdate{SongID: s.songID, TrackID: trackID, Updates: patch}, nil
	})
	return s.contributeAfter(ctx, err)
}

func (s *Session) DeleteTrack(ctx context.Context, trackID string) error {
	err := s.mutate("delete track", func() (func(*models.Song), string, any, error) {
		if err := s.store.DeleteTrack(ctx, trackID); err != nil {
			return nil, "", nil, err
		}
		apply := func(song *models.Song) { applyTrackDeleted(song, trackID) }
		return apply, ws.EventTrackDeleted, trackDeleted{SongID: s.songID, TrackID: trackID}, nil
	})
	return s.contributeAfter(ctx, err)
}

func (s *Session) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	var note *models.Note
	err := s.mutate("create note", func() (func(*models.Song), string, any, error) {
		n, err := s.store.CreateNote(ctx, in)
		if err != nil {
			return nil, "", nil, err
		}
		note = n
		apply := func(song *models.Song) { applyNoteCreated(song, n.TrackID, *n) }
		return apply, ws.EventNoteCreated, noteCreated{SongID: s.songID, TrackID: n.TrackID, Note: *n}, nil
	})
	return note, s.contributeAfter(ctx, err)
}

func (s *Session) DeleteNote(ctx context.Context, trackID, noteID string) error {
	err := s.mutate("delete note", func() (func(*models.Song), string, any, error) {
		if err := s.store.DeleteNote(ctx, noteID); err != nil {
			return nil, "", nil, err
		}
		apply := func(song *models.Song) { applyNoteDeleted(song, trackID, noteID) }
		return apply, ws.EventNoteDeleted, noteDeleted{SongID: s.songID, TrackID: trackID, NoteID: noteID}, nil
	})
	return s.contributeAfter(ctx, err)
}

// SendChat stores and relays a chat line. The transcript only changes when
// the relay echoes the message back, so every viewer sees the same order.
func (s *Session) SendChat(ctx context.Context, text string) (*models.ChatMessage, error) {
	var msg *models.ChatMessage
	err := s.mutate("send chat", func() (func(*models.Song), string, any, error) {
		m, err := s.store.CreateChatMessage(ctx, s.songID, s.user.ID, text)
		if err != nil {
			return nil, "", nil, err
		}
		msg = m
		return nil, ws.EventChatMessage, chatMessage{SongID: s.songID, Message: *m}, nil
	})
	return msg, err
}

// contributeAfter records the local user as a contributor after their
// first successful edit. A failed upsert is logged and retried on the next
// edit; it never fails the edit itself.
func (s *Session) contributeAfter(ctx context.Context, editErr error) error {
	if editErr != nil {
		return editErr
	}
	s.mu.Lock()
	done := s.contributed
	s.mu.Unlock()
	if done {
		return nil
	}

	c, err := s.store.AddContributor(ctx, s.songID, s.user.ID)
	if err != nil {
		log.Printf("[Session] Failed to record contributor %s: %v", s.user.ID, err)
		return nil
	}

	s.mu.Lock()
	s.contributed = true
	added := s.song != nil && applyContributor(s.song, *c)
	s.mu.Unlock()

	if added {
		s.changed()
		s.emit(ws.EventContributorAdded, contributorAdded{SongID: s.songID, Contributor: *c})
	}
	return nil
}

// Leave tells the room this client is going away and closes the transport.
func (s *Session) Leave() error {
	s.mu.Lock()
	if s.state == LeftOrClosed {
		s.mu.Unlock()
		return nil
	}
	t := s.transport
	s.mu.Unlock()

	s.emit(ws.EventLeaveSong, leaveSong{SongID: s.songID})

	s.mu.Lock()
	s.state = LeftOrClosed
	s.viewers = nil
	s.mu.Unlock()

	if t != nil {
		return t.Close()
	}
	return nil
}

// emit is fire-and-forget: a lost event only costs other viewers a refetch.
func (s *Session) emit(event string, payload any) {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t == nil {
		return
	}
	if err := t.Emit(event, payload); err != nil {
		log.Printf("[Session] Failed to emit %s: %v", event, err)
	}
}

func (s *Session) fail(op string, err error) {
	log.Printf("[Session] %s failed: %v", op, err)
	if s.onFailure != nil {
		s.onFailure(op, err)
	}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
