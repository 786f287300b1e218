package ws

import (
	"sort"

	"github.com/Vasu1712/scenyx-studio/internal/models"
)

// Participant is one live connection's presence entry.
type Participant struct {
	ConnectionID string
	User         models.User
}

// Registry maps song rooms to their participants in join order. It is owned
// by the hub loop and is not safe for concurrent use.
type Registry struct {
	rooms map[string][]Participant
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string][]Participant)}
}

// Register adds the connection to the room. Registering an existing
// connection again replaces its identity without moving its slot.
func (r *Registry) Register(connID, songID string, user models.User) {
	members := r.rooms[songID]
	for i := range members {
		if members[i].ConnectionID == connID {
			members[i].User = user
			return
		}
	}
	r.rooms[songID] = append(members, Participant{ConnectionID: connID, User: user})
}

// Unregister removes the connection from the room and reports whether it
// was there. Empty rooms are dropped.
func (r *Registry) Unregister(connID, songID string) bool {
	members := r.rooms[songID]
	for i := range members {
		if members[i].ConnectionID != connID {
			continue
		}
		members = append(members[:i], members[i+1:]...)
		if len(members) == 0 {
			delete(r.rooms, songID)
		} else {
			r.rooms[songID] = members
		}
		return true
	}
	return false
}

func (r *Registry) Contains(connID, songID string) bool {
	for _, p := range r.rooms[songID] {
		if p.ConnectionID == connID {
			return true
		}
	}
	return false
}

// Snapshot returns the room's identities in registration order.
func (r *Registry) Snapshot(songID string) []models.User {
	members := r.rooms[songID]
	users := make([]models.User, 0, len(members))
	for _, p := range members {
		users = append(users, p.User)
	}
	return users
}

// RoomsOf scans every room for the connection.
func (r *Registry) RoomsOf(connID string) []string {
	var songs []string
	for songID := range r.rooms {
		if r.Contains(connID, songID) {
			songs = append(songs, songID)
		}
	}
	sort.Strings(songs)
	return songs
}

// Rooms lists every non-empty room, sorted.
func (r *Registry) Rooms() []string {
	songs := make([]string, 0, len(r.rooms))
	for songID := range r.rooms {
		songs = append(songs, songID)
	}
	sort.Strings(songs)
	return songs
}

// Len is the number of non-empty rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}
