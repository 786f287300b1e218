package tracks

import (
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/gorilla/mux"
)

const tag = "Track"

type TrackHandler struct {
	Store storage.Store
}

// CreateTrack expects {songId, instrumentType, volume?, order?}. Without an
// order the track goes after the song's current last track.
func (h *TrackHandler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var in models.TrackInput
	if !respond.Decode(w, r, tag, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	t, err := h.Store.CreateTrack(r.Context(), in)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusCreated, t)
	log.Printf("[Track] Created track: ID=%s, Song=%s, Instrument=%s", t.ID, t.SongID, t.InstrumentType)
}

func (h *TrackHandler) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	var patch models.TrackPatch
	if !respond.Decode(w, r, tag, &patch) {
		return
	}
	if err := patch.Validate(); err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	t, err := h.Store.UpdateTrack(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

func (h *TrackHandler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Store.DeleteTrack(r.Context(), id); err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Deleted)
	log.Printf("[Track] Deleted track %s", id)
}
