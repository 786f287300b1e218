// Package valkey mirrors live room presence into Valkey so that processes
// other than the one holding the connections can read who is viewing a song.
package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/valkey-io/valkey-go"
)

// Key is where a song's presence snapshot is stored.
func Key(songID string) string {
	return "song:" + songID + ":presence"
}

// kv is the subset of Valkey commands the mirror needs.
type kv interface {
	set(ctx context.Context, key, value string, ttl time.Duration) error
	del(ctx context.Context, key string) error
	get(ctx context.Context, key string) (string, bool, error)
}

type client struct {
	valkey.Client
}

func (c client) set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Do(ctx, c.B().Set().Key(key).Value(value).ExSeconds(int64(ttl/time.Second)).Build()).Error()
}

func (c client) del(ctx context.Context, key string) error {
	return c.Do(ctx, c.B().Del().Key(key).Build()).Error()
}

func (c client) get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.Do(ctx, c.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

type update struct {
	songID       string
	participants []models.User
}

// PresenceMirror writes presence snapshots from a background worker so the
// hub never waits on the network.
type PresenceMirror struct {
	kv    kv
	ttl   time.Duration
	queue chan update
	wg    sync.WaitGroup
}

// Dial connects to Valkey and returns a mirror whose keys expire after ttl.
func Dial(addr string, ttl time.Duration) (*PresenceMirror, error) {
	c, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	log.Printf("[Presence] Valkey connection established at %s", addr)
	return newPresenceMirror(client{c}, ttl), nil
}

func newPresenceMirror(store kv, ttl time.Duration) *PresenceMirror {
	if ttl < time.Second {
		ttl = time.Second
	}
	return &PresenceMirror{
		kv:    store,
		ttl:   ttl,
		queue: make(chan update, 256),
	}
}

// Start runs the writer until ctx is cancelled.
func (m *PresenceMirror) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-m.queue:
				m.write(ctx, u)
			}
		}
	}()
}

// RefreshInterval is how often live rooms must be re-published to keep
// their keys from expiring.
func (m *PresenceMirror) RefreshInterval() time.Duration {
	return m.ttl / 3
}

// Wait blocks until the writer has stopped.
func (m *PresenceMirror) Wait() {
	m.wg.Wait()
}

// Publish queues a snapshot. Snapshots are dropped when the queue is full.
func (m *PresenceMirror) Publish(songID string, participants []models.User) {
	select {
	case m.queue <- update{songID: songID, participants: participants}:
	default:
		log.Printf("[Presence] Queue full, dropping snapshot for song %s", songID)
	}
}

func (m *PresenceMirror) write(ctx context.Context, u update) {
	key := Key(u.songID)
	if len(u.participants) == 0 {
		if err := m.kv.del(ctx, key); err != nil {
			log.Printf("[Presence] Failed to clear %s: %v", key, err)
		}
		return
	}

	data, err := json.Marshal(u.participants)
	if err != nil {
		log.Printf("[Presence] Failed to encode %s: %v", key, err)
		return
	}
	if err := m.kv.set(ctx, key, string(data), m.ttl); err != nil {
		log.Printf("[Presence] Failed to write %s: %v", key, err)
	}
}

// Presence reads the last mirrored snapshot. A missing key means nobody
// is viewing the song.
func (m *PresenceMirror) Presence(ctx context.Context, songID string) ([]models.User, error) {
	v, ok, err := m.kv.get(ctx, Key(songID))
	if err != nil {
		return nil, fmt.Errorf("failed to read presence for song %s: %w", songID, err)
	}
	users := []models.User{}
	if !ok {
		return users, nil
	}
	if err := json.Unmarshal([]byte(v), &users); err != nil {
		return nil, fmt.Errorf("corrupt presence for song %s: %w", songID, err)
	}
	return users, nil
}

// Close releases the Valkey connection.
func (m *PresenceMirror) Close() {
	if c, ok := m.kv.(client); ok {
		c.Close()
	}
}
