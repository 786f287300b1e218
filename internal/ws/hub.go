package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
)

// ErrHubClosed is returned by queries made after Run has returned.
var ErrHubClosed = errors.New("hub closed")

// PresenceMirror receives every presence snapshot the hub broadcasts.
// Publish must not block.
type PresenceMirror interface {
	Publish(songID string, participants []models.User)
}

type inboundFrame struct {
	client *Client
	data   []byte
}

type presenceQuery struct {
	songID string
	reply  chan []models.User
}

// Hub owns the registry and every room's transport group. All state is
// touched only from Run, so join, leave, relay and disconnect are each
// handled as one atomic step.
type Hub struct {
	clients  map[string]*Client
	groups   map[string]map[string]*Client // room name -> connection id -> client
	registry *Registry
	mirror   PresenceMirror

	// refresh is how often live rooms are re-published to the mirror;
	// zero disables it.
	refresh time.Duration

	connect    chan *Client
	disconnect chan *Client
	inbound    chan inboundFrame
	presence   chan presenceQuery
	done       chan struct{}
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithMirrorRefresh re-publishes every live room's snapshot to the mirror
// at the given interval. It has no effect without a mirror.
func WithMirrorRefresh(every time.Duration) HubOption {
	return func(h *Hub) { h.refresh = every }
}

// NewHub creates a hub. mirror may be nil.
func NewHub(mirror PresenceMirror, opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		groups:     make(map[string]map[string]*Client),
		registry:   NewRegistry(),
		mirror:     mirror,
		connect:    make(chan *Client),
		disconnect: make(chan *Client),
		inbound:    make(chan inboundFrame),
		presence:   make(chan presenceQuery),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	log.Println("[Hub] Running")

	var refresh <-chan time.Time
	if h.mirror != nil && h.refresh > 0 {
		ticker := time.NewTicker(h.refresh)
		defer ticker.Stop()
		refresh = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				close(c.Send)
			}
			h.clients = nil
			log.Println("[Hub] Stopped")
			return
		case c := <-h.connect:
			h.handleConnect(c)
		case c := <-h.disconnect:
			h.handleDisconnect(c)
		case f := <-h.inbound:
			h.handleFrame(f.client, f.data)
		case q := <-h.presence:
			q.reply <- h.registry.Snapshot(q.songID)
		case <-refresh:
			for _, songID := range h.registry.Rooms() {
				h.mirror.Publish(songID, h.registry.Snapshot(songID))
			}
		}
	}
}

// Connect hands a new connection to the hub.
func (h *Hub) Connect(c *Client) {
	select {
	case h.connect <- c:
	case <-h.done:
	}
}

// Disconnect removes the connection from every room it is in.
func (h *Hub) Disconnect(c *Client) {
	select {
	case h.disconnect <- c:
	case <-h.done:
	}
}

// Receive queues one inbound text frame from c.
func (h *Hub) Receive(c *Client, data []byte) {
	select {
	case h.inbound <- inboundFrame{client: c, data: data}:
	case <-h.done:
	}
}

// Presence returns the current viewers of a song.
func (h *Hub) Presence(ctx context.Context, songID string) ([]models.User, error) {
	q := presenceQuery{songID: songID, reply: make(chan []models.User, 1)}
	select {
	case h.presence <- q:
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case users := <-q.reply:
		return users, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) handleConnect(c *Client) {
	h.clients[c.ID] = c
	log.Printf("[Hub] Client %s connected", c.ID)

	msg, err := encodeFrame(EventConnected, Connected{ConnectionID: c.ID}, "")
	if err != nil {
		log.Printf("[Hub] Failed to encode connected frame: %v", err)
		return
	}
	h.send(c, msg)
}

func (h *Hub) handleDisconnect(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	for _, songID := range h.registry.RoomsOf(c.ID) {
		h.leave(c, songID)
	}
	delete(h.clients, c.ID)
	close(c.Send)
	log.Printf("[Hub] Client %s disconnected", c.ID)
}

func (h *Hub) handleFrame(c *Client, data []byte) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("[Relay] Dropping malformed frame from %s: %v", c.ID, err)
		return
	}

	switch f.Event {
	case EventJoinSong:
		var in struct {
			SongRef
			User models.User `json:"user"`
		}
		if err := decode(f.Data, &in.SongRef, &in); err != nil {
			log.Printf("[Relay] Dropping %s from %s: %v", f.Event, c.ID, err)
			return
		}
		if c.User != nil {
			in.User = *c.User
		}
		for _, songID := range h.registry.RoomsOf(c.ID) {
			if songID != in.SongID {
				h.leave(c, songID)
			}
		}
		h.join(c, in.SongID, in.User)

	case EventLeaveSong:
		var in SongRef
		if err := decode(f.Data, &in, &in); err != nil {
			log.Printf("[Relay] Dropping %s from %s: %v", f.Event, c.ID, err)
			return
		}
		h.leave(c, in.SongID)

	default:
		h.relay(c, f)
	}
}

func (h *Hub) join(c *Client, songID string, user models.User) {
	room := RoomName(songID)
	if h.groups[room] == nil {
		h.groups[room] = make(map[string]*Client)
	}
	h.groups[room][c.ID] = c
	h.registry.Register(c.ID, songID, user)
	log.Printf("[Hub] Client %s (%s) joined %s", c.ID, user.Name, room)

	h.broadcastPresence(songID)
}

// leave is a no-op for connections that are not in the room.
func (h *Hub) leave(c *Client, songID string) {
	if !h.registry.Unregister(c.ID, songID) {
		return
	}
	room := RoomName(songID)
	delete(h.groups[room], c.ID)
	if len(h.groups[room]) == 0 {
		delete(h.groups, room)
	}
	log.Printf("[Hub] Client %s left %s", c.ID, room)

	h.broadcastPresence(songID)
}

func (h *Hub) relay(c *Client, f Frame) {
	rt, ok := routes[f.Event]
	if !ok {
		log.Printf("[Relay] Dropping unknown event %q from %s", f.Event, c.ID)
		return
	}
	songID, payload, err := rt.build(f.Data)
	if err != nil {
		log.Printf("[Relay] Dropping %s from %s: %v", f.Event, c.ID, err)
		return
	}
	if !h.registry.Contains(c.ID, songID) {
		log.Printf("[Relay] Dropping %s from %s: not a member of %s", f.Event, c.ID, RoomName(songID))
		return
	}

	msg, err := encodeFrame(rt.out, payload, c.ID)
	if err != nil {
		log.Printf("[Relay] Failed to encode %s: %v", rt.out, err)
		return
	}
	exclude := c.ID
	if rt.includeSender {
		exclude = ""
	}
	h.broadcast(songID, msg, exclude)
}

func (h *Hub) broadcastPresence(songID string) {
	snapshot := h.registry.Snapshot(songID)
	if h.mirror != nil {
		h.mirror.Publish(songID, snapshot)
	}

	msg, err := encodeFrame(EventPresenceUpdate, snapshot, "")
	if err != nil {
		log.Printf("[Hub] Failed to encode presence: %v", err)
		return
	}
	h.broadcast(songID, msg, "")
}

// broadcast delivers msg to the room in registry order, skipping exclude.
func (h *Hub) broadcast(songID string, msg []byte, exclude string) {
	group := h.groups[RoomName(songID)]
	for _, p := range h.registry.rooms[songID] {
		if p.ConnectionID == exclude {
			continue
		}
		if c, ok := group[p.ConnectionID]; ok {
			h.send(c, msg)
		}
	}
}

// send never blocks the loop; a full buffer drops the frame.
func (h *Hub) send(c *Client, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		log.Printf("[Hub] Send buffer full for %s, dropping frame", c.ID)
	}
}
