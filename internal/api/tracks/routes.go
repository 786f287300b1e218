package tracks

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/gorilla/mux"
)

func RegisterTrackRoutes(r *mux.Router, h *TrackHandler) {
	r.HandleFunc("/api/v1/tracks", respond.Logged(tag, h.CreateTrack)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/tracks/{id}", respond.Logged(tag, h.UpdateTrack)).Methods(http.MethodPatch)
	r.HandleFunc("/api/v1/tracks/{id}", respond.Logged(tag, h.DeleteTrack)).Methods(http.MethodDelete)
}
