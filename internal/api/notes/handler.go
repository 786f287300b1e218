package notes

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/gorilla/mux"
)

const tag = "Note"

type NoteHandler struct {
	Store storage.Store
}

// CreateNote expects {trackId, pitch?, drumType?, duration, startPosition}.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in models.NoteInput
	if !respond.Decode(w, r, tag, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	n, err := h.Store.CreateNote(r.Context(), in)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusCreated, n)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var patch models.NotePatch
	if !respond.Decode(w, r, tag, &patch) {
		return
	}
	if err := patch.Validate(); err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	n, err := h.Store.UpdateNote(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, n)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteNote(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.Error(w, r, tag, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Deleted)
}
