package session

import (
	"sort"

	"github.com/Vasu1712/scenyx-studio/internal/models"
)

// The merges below are the only way a session's song changes. Local
// mutations and relayed events go through the same functions, keyed by
// entity id, so applying an event twice leaves the same state as once.

func applySongPatch(song *models.Song, patch models.SongPatch) {
	patch.Apply(song)
}

func findTrack(song *models.Song, trackID string) *models.Track {
	for i := range song.Tracks {
		if song.Tracks[i].ID == trackID {
			return &song.Tracks[i]
		}
	}
	return nil
}

func applyTrackCreated(song *models.Song, track models.Track) {
	if track.Notes == nil {
		track.Notes = []models.Note{}
	}
	if existing := findTrack(song, track.ID); existing != nil {
		*existing = track
	} else {
		song.Tracks = append(song.Tracks, track)
	}
	sort.SliceStable(song.Tracks, func(i, j int) bool {
		return song.Tracks[i].Order < song.Tracks[j].Order
	})
}

func applyTrackUpdated(song *models.Song, trackID string, patch models.TrackPatch) {
	t := findTrack(song, trackID)
	if t == nil {
		return
	}
	patch.Apply(t)
	if patch.Order != nil {
		sort.SliceStable(song.Tracks, func(i, j int) bool {
			return song.Tracks[i].Order < song.Tracks[j].Order
		})
	}
}

func applyTrackDeleted(song *models.Song, trackID string) {
	for i := range song.Tracks {
		if song.Tracks[i].ID == trackID {
			song.Tracks = append(song.Tracks[:i], song.Tracks[i+1:]...)
			return
		}
	}
}

func applyNoteCreated(song *models.Song, trackID string, note models.Note) {
	t := findTrack(song, trackID)
	if t == nil {
		return
	}
	replaced := false
	for i := range t.Notes {
		if t.Notes[i].ID == note.ID {
			t.Notes[i] = note
			replaced = true
			break
		}
	}
	if !replaced {
		t.Notes = append(t.Notes, note)
	}
	sort.SliceStable(t.Notes, func(i, j int) bool {
		return t.Notes[i].StartPosition < t.Notes[j].StartPosition
	})
}

func applyNoteDeleted(song *models.Song, trackID, noteID string) {
	t := findTrack(song, trackID)
	if t == nil {
		return
	}
	for i := range t.Notes {
		if t.Notes[i].ID == noteID {
			t.Notes = append(t.Notes[:i], t.Notes[i+1:]...)
			return
		}
	}
}

// applyChatMessage appends msg unless the transcript already has it.
func applyChatMessage(song *models.Song, msg models.ChatMessage) bool {
	for _, m := range song.ChatMessages {
		if m.ID == msg.ID {
			return false
		}
	}
	song.ChatMessages = append(song.ChatMessages, msg)
	return true
}

// applyContributor adds c unless its user is already listed.
func applyContributor(song *models.Song, c models.Contributor) bool {
	for _, existing := range song.Contributors {
		if existing.UserID == c.UserID {
			return false
		}
	}
	song.Contributors = append(song.Contributors, c)
	return true
}

func cloneSong(song *models.Song) *models.Song {
	if song == nil {
		return nil
	}
	out := *song
	out.Tracks = make([]models.Track, len(song.Tracks))
	for i, t := range song.Tracks {
		t.Notes = append([]models.Note(nil), t.Notes...)
		out.Tracks[i] = t
	}
	out.ChatMessages = append([]models.ChatMessage(nil), song.ChatMessages...)
	out.Contributors = append([]models.Contributor(nil), song.Contributors...)
	return &out
}
