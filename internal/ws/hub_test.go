package ws

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
)

func startHub(t *testing.T, mirror PresenceMirror) *Hub {
	t.Helper()
	h := NewHub(mirror)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

// connectClient registers a buffered fake connection and consumes its
// connected frame.
func connectClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := &Client{ID: id, Send: make(chan []byte, 64)}
	h.Connect(c)
	f := expectFrame(t, c)
	if f.Event != EventConnected {
		t.Fatalf("first frame = %s, want %s", f.Event, EventConnected)
	}
	return c
}

func emit(t *testing.T, h *Hub, c *Client, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	msg, _ := json.Marshal(Frame{Event: event, Data: raw})
	h.Receive(c, msg)
}

func join(t *testing.T, h *Hub, c *Client, songID string) {
	t.Helper()
	emit(t, h, c, EventJoinSong, map[string]any{"songId": songID, "user": user(c.ID)})
}

func expectFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if !ok {
			t.Fatalf("%s: send channel closed", c.ID)
		}
		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			t.Fatalf("%s: bad frame %s: %v", c.ID, msg, err)
		}
		return f
	case <-time.After(time.Second):
		t.Fatalf("%s: timed out waiting for frame", c.ID)
	}
	return Frame{}
}

// settle waits until the hub has processed everything queued before it.
func settle(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := h.Presence(ctx, ""); err != nil {
		t.Fatalf("Presence() error = %v", err)
	}
}

func expectNoFrame(t *testing.T, h *Hub, clients ...*Client) {
	t.Helper()
	settle(t, h)
	for _, c := range clients {
		select {
		case msg := <-c.Send:
			t.Errorf("%s: unexpected frame %s", c.ID, msg)
		default:
		}
	}
}

func expectPresence(t *testing.T, c *Client, want ...string) {
	t.Helper()
	f := expectFrame(t, c)
	if f.Event != EventPresenceUpdate {
		t.Fatalf("%s: got %s, want %s", c.ID, f.Event, EventPresenceUpdate)
	}
	var users []models.User
	if err := json.Unmarshal(f.Data, &users); err != nil {
		t.Fatalf("%s: bad presence payload: %v", c.ID, err)
	}
	if got := userIDs(users); !reflect.DeepEqual(got, want) {
		t.Errorf("%s: presence = %v, want %v", c.ID, got, want)
	}
}

func TestJoinBroadcastsPresenceToEveryone(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")

	join(t, h, a, "42")
	expectPresence(t, a, "a")

	join(t, h, b, "42")
	expectPresence(t, a, "a", "b")
	expectPresence(t, b, "a", "b")
}

func TestLeaveBroadcastsToRemaining(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")
	join(t, h, a, "42")
	join(t, h, b, "42")
	expectPresence(t, a, "a")
	expectPresence(t, a, "a", "b")
	expectPresence(t, b, "a", "b")

	emit(t, h, b, EventLeaveSong, SongRef{SongID: "42"})
	expectPresence(t, a, "a")
	expectNoFrame(t, h, b)

	// A second leave is a no-op.
	emit(t, h, b, EventLeaveSong, SongRef{SongID: "42"})
	expectNoFrame(t, h, a, b)
}

func TestRelayRecipients(t *testing.T) {
	tests := []struct {
		name          string
		event         string
		data          map[string]any
		outEvent      string
		senderReceive bool
	}{
		{
			name:     "song update",
			event:    EventSongUpdate,
			data:     map[string]any{"songId": "42", "updates": map[string]any{"tempo": 120}},
			outEvent: EventSongUpdated,
		},
		{
			name:     "track created",
			event:    EventTrackCreated,
			data:     map[string]any{"songId": "42", "track": map[string]any{"id": "t1"}},
			outEvent: EventTrackCreated,
		},
		{
			name:     "track update",
			event:    EventTrackUpdate,
			data:     map[string]any{"songId": "42", "trackId": "t1", "updates": map[string]any{"volume": 0.5}},
			outEvent: EventTrackUpdated,
		},
		{
			name:     "track deleted",
			event:    EventTrackDeleted,
			data:     map[string]any{"songId": "42", "trackId": "t1"},
			outEvent: EventTrackDeleted,
		},
		{
			name:     "note created",
			event:    EventNoteCreated,
			data:     map[string]any{"songId": "42", "trackId": "t1", "note": map[string]any{"id": "n1"}},
			outEvent: EventNoteCreated,
		},
		{
			name:     "note deleted",
			event:    EventNoteDeleted,
			data:     map[string]any{"songId": "42", "trackId": "t1", "noteId": "n1"},
			outEvent: EventNoteDeleted,
		},
		{
			name:     "contributor added",
			event:    EventContributorAdded,
			data:     map[string]any{"songId": "42", "contributor": map[string]any{"id": "c1"}},
			outEvent: EventContributorAdded,
		},
		{
			name:          "chat message",
			event:         EventChatMessage,
			data:          map[string]any{"songId": "42", "message": map[string]any{"id": "m1"}},
			outEvent:      EventChatMessage,
			senderReceive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := startHub(t, nil)
			members := []*Client{connectClient(t, h, "a"), connectClient(t, h, "b"), connectClient(t, h, "c")}
			for _, c := range members {
				join(t, h, c, "42")
			}
			settle(t, h)
			for _, c := range members {
				for len(c.Send) > 0 {
					<-c.Send
				}
			}

			sender := members[0]
			emit(t, h, sender, tt.event, tt.data)
			settle(t, h)

			received := 0
			for _, c := range members {
				if len(c.Send) == 0 {
					continue
				}
				f := expectFrame(t, c)
				if f.Event != tt.outEvent {
					t.Errorf("%s got %s, want %s", c.ID, f.Event, tt.outEvent)
				}
				if f.Origin != sender.ID {
					t.Errorf("origin = %q, want %q", f.Origin, sender.ID)
				}
				if c == sender && !tt.senderReceive {
					t.Errorf("sender received its own %s", tt.event)
				}
				received++
			}

			want := len(members) - 1
			if tt.senderReceive {
				want = len(members)
			}
			if received != want {
				t.Errorf("%d recipients, want %d", received, want)
			}
		})
	}
}

func TestRelayPayloadShapes(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")
	join(t, h, a, "42")
	join(t, h, b, "42")
	expectPresence(t, b, "a", "b")

	emit(t, h, a, EventTrackDeleted, map[string]any{"songId": "42", "trackId": "t1"})
	if f := expectFrame(t, b); string(f.Data) != `"t1"` {
		t.Errorf("track-deleted data = %s, want bare track id", f.Data)
	}

	emit(t, h, a, EventSongUpdate, map[string]any{"songId": "42", "updates": map[string]any{"tempo": 90}})
	if f := expectFrame(t, b); string(f.Data) != `{"tempo":90}` {
		t.Errorf("song-updated data = %s, want the updates object", f.Data)
	}

	emit(t, h, a, EventNoteDeleted, map[string]any{"songId": "42", "trackId": "t1", "noteId": "n1"})
	if f := expectFrame(t, b); string(f.Data) != `{"trackId":"t1","noteId":"n1"}` {
		t.Errorf("note-deleted data = %s", f.Data)
	}
}

func TestRelayPreservesOrder(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")
	join(t, h, a, "42")
	join(t, h, b, "42")
	expectPresence(t, b, "a", "b")

	for _, id := range []string{"n1", "n2", "n3"} {
		emit(t, h, a, EventNoteCreated, map[string]any{"songId": "42", "trackId": "t1", "note": map[string]any{"id": id}})
	}
	for _, want := range []string{"n1", "n2", "n3"} {
		f := expectFrame(t, b)
		var got NoteCreated
		if err := json.Unmarshal(f.Data, &got); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		var note struct{ ID string }
		json.Unmarshal(got.Note, &note)
		if note.ID != want {
			t.Fatalf("got %s, want %s", note.ID, want)
		}
	}
}

func TestRelayDropsBadFrames(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")
	outsider := connectClient(t, h, "outsider")
	join(t, h, a, "42")
	join(t, h, b, "42")
	expectPresence(t, a, "a")
	expectPresence(t, a, "a", "b")
	expectPresence(t, b, "a", "b")

	h.Receive(a, []byte("not json"))
	emit(t, h, a, "self-destruct", map[string]any{"songId": "42"})
	emit(t, h, a, EventNoteCreated, map[string]any{"trackId": "t1"})
	emit(t, h, outsider, EventNoteCreated, map[string]any{"songId": "42", "trackId": "t1", "note": map[string]any{}})
	emit(t, h, a, EventNoteCreated, map[string]any{"songId": "other", "trackId": "t1", "note": map[string]any{}})
	expectNoFrame(t, h, a, b, outsider)

	// The room keeps working afterwards.
	emit(t, h, a, EventChatMessage, map[string]any{"songId": "42", "message": map[string]any{"id": "m1"}})
	if f := expectFrame(t, b); f.Event != EventChatMessage {
		t.Errorf("got %s after bad frames, want chat-message", f.Event)
	}
}

func TestDuplicateJoinIsIdempotent(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	join(t, h, a, "42")
	join(t, h, a, "42")
	expectPresence(t, a, "a")
	expectPresence(t, a, "a")

	ctx := context.Background()
	users, err := h.Presence(ctx, "42")
	if err != nil {
		t.Fatalf("Presence() error = %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Presence() = %d entries, want 1", len(users))
	}
}

func TestJoinLeavesPreviousRoom(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")
	join(t, h, a, "1")
	join(t, h, b, "1")
	expectPresence(t, a, "a")
	expectPresence(t, a, "a", "b")

	join(t, h, b, "2")
	expectPresence(t, a, "a")
	expectPresence(t, b, "a", "b")
	expectPresence(t, b, "b")

	users, _ := h.Presence(context.Background(), "1")
	if got := userIDs(users); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("room 1 presence = %v", got)
	}
}

func TestDisconnectRemovesPresence(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")
	join(t, h, a, "42")
	join(t, h, b, "42")
	expectPresence(t, a, "a")
	expectPresence(t, a, "a", "b")
	expectPresence(t, b, "a", "b")

	h.Disconnect(b)
	expectPresence(t, a, "a")

	// A repeated disconnect must not rebroadcast.
	h.Disconnect(b)
	expectNoFrame(t, h, a)

	if _, ok := <-b.Send; ok {
		t.Error("send channel of disconnected client is still open")
	}
}

func TestTokenIdentityOverridesJoin(t *testing.T) {
	h := startHub(t, nil)
	c := &Client{ID: "a", User: &models.User{ID: "verified", Name: "Verified"}, Send: make(chan []byte, 8)}
	h.Connect(c)
	expectFrame(t, c)

	emit(t, h, c, EventJoinSong, map[string]any{"songId": "42", "user": user("spoofed")})
	expectPresence(t, c, "verified")
}

type recordingMirror struct {
	mu    sync.Mutex
	calls map[string][][]models.User
}

func (m *recordingMirror) Publish(songID string, participants []models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string][][]models.User)
	}
	m.calls[songID] = append(m.calls[songID], participants)
}

func TestPresenceIsMirrored(t *testing.T) {
	mirror := &recordingMirror{}
	h := startHub(t, mirror)
	a := connectClient(t, h, "a")
	join(t, h, a, "42")
	h.Disconnect(a)
	settle(t, h)

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	calls := mirror.calls["42"]
	if len(calls) != 2 {
		t.Fatalf("mirror got %d snapshots, want 2", len(calls))
	}
	if len(calls[0]) != 1 || len(calls[1]) != 0 {
		t.Errorf("mirror snapshots = %v", calls)
	}
}

func (m *recordingMirror) snapshots(songID string) [][]models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]models.User(nil), m.calls[songID]...)
}

func TestMirrorRefreshRepublishesLiveRooms(t *testing.T) {
	mirror := &recordingMirror{}
	h := NewHub(mirror, WithMirrorRefresh(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})

	a := connectClient(t, h, "a")
	b := connectClient(t, h, "b")
	join(t, h, a, "42")
	join(t, h, b, "42")
	join(t, h, b, "43")
	settle(t, h)

	deadline := time.Now().Add(2 * time.Second)
	for len(mirror.snapshots("42")) < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("room 42 republished %d times, want at least 5 snapshots", len(mirror.snapshots("42")))
		}
		time.Sleep(10 * time.Millisecond)
	}

	calls := mirror.snapshots("42")
	if last := calls[len(calls)-1]; len(last) != 1 || last[0].ID != "a" {
		t.Errorf("latest refresh of 42 = %v, want [a]", last)
	}
	if calls := mirror.snapshots("43"); len(calls[len(calls)-1]) != 1 {
		t.Errorf("latest refresh of 43 = %v", calls[len(calls)-1])
	}
}

func TestNoRefreshWithoutInterval(t *testing.T) {
	mirror := &recordingMirror{}
	h := startHub(t, mirror)
	a := connectClient(t, h, "a")
	join(t, h, a, "42")
	settle(t, h)
	time.Sleep(50 * time.Millisecond)

	if n := len(mirror.snapshots("42")); n != 1 {
		t.Errorf("mirror got %d snapshots, want only the join", n)
	}
}

// Two editors on song 42: presence, a note, a chat line and a dropped
// connection.
func TestCollaborationScenario(t *testing.T) {
	h := startHub(t, nil)
	a := connectClient(t, h, "A")
	b := connectClient(t, h, "B")

	join(t, h, a, "42")
	expectPresence(t, a, "A")

	join(t, h, b, "42")
	expectPresence(t, a, "A", "B")
	expectPresence(t, b, "A", "B")

	emit(t, h, a, EventNoteCreated, map[string]any{
		"songId":  "42",
		"trackId": "t1",
		"note":    map[string]any{"id": "n1", "pitch": "C4", "startPosition": 0},
	})
	f := expectFrame(t, b)
	if f.Event != EventNoteCreated {
		t.Fatalf("B got %s, want note-created", f.Event)
	}
	var created NoteCreated
	if err := json.Unmarshal(f.Data, &created); err != nil || created.TrackID != "t1" {
		t.Errorf("note-created payload = %s", f.Data)
	}
	expectNoFrame(t, h, a)

	emit(t, h, b, EventChatMessage, map[string]any{"songId": "42", "message": map[string]any{"id": "m1", "text": "hi"}})
	for _, c := range []*Client{a, b} {
		f := expectFrame(t, c)
		if f.Event != EventChatMessage || string(f.Data) != `{"id":"m1","text":"hi"}` {
			t.Errorf("%s got %s %s", c.ID, f.Event, f.Data)
		}
	}

	h.Disconnect(b)
	expectPresence(t, a, "A")
}
