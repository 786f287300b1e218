package songs

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/gorilla/mux"
)

// RegisterSongRoutes registers the song endpoints on r.
func RegisterSongRoutes(r *mux.Router, h *SongHandler) {
	r.HandleFunc("/api/v1/songs", respond.Logged(tag, h.ListSongs)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/songs", respond.Logged(tag, h.CreateSong)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/songs/{id}", respond.Logged(tag, h.GetSong)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/songs/{id}", respond.Logged(tag, h.UpdateSong)).Methods(http.MethodPatch)
	r.HandleFunc("/api/v1/songs/{id}", respond.Logged(tag, h.DeleteSong)).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/songs/{id}/contributors", respond.Logged(tag, h.AddContributor)).Methods(http.MethodPost)

	if h.Presence != nil {
		r.HandleFunc("/api/v1/songs/{id}/presence", respond.Logged(tag, h.GetPresence)).Methods(http.MethodGet)
	}
	r.HandleFunc("/api/v1/songs/{id}/export.mid", respond.Logged(tag, h.ExportMIDI)).Methods(http.MethodGet)
}
