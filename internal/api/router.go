// Package api assembles the REST and WebSocket routes.
package api

import (
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/api/chat"
	"github.com/Vasu1712/scenyx-studio/internal/api/notes"
	"github.com/Vasu1712/scenyx-studio/internal/api/respond"
	"github.com/Vasu1712/scenyx-studio/internal/api/songs"
	"github.com/Vasu1712/scenyx-studio/internal/api/tracks"
	"github.com/Vasu1712/scenyx-studio/internal/api/users"
	"github.com/Vasu1712/scenyx-studio/internal/auth"
	"github.com/Vasu1712/scenyx-studio/internal/middleware"
	"github.com/Vasu1712/scenyx-studio/internal/ratelimit"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/Vasu1712/scenyx-studio/internal/ws"
	"github.com/gorilla/mux"
)

// Deps are the services the routes are built on. Tokens, Limiter and
// Presence are optional; Presence defaults to asking the hub.
type Deps struct {
	Store         storage.Store
	Hub           *ws.Hub
	WS            ws.Settings
	Tokens        *auth.Issuer
	Limiter       *ratelimit.Limiter
	Presence      songs.PresenceSource
	AllowedOrigin string
}

// NewRouter returns the full HTTP surface wrapped in CORS.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	presence := d.Presence
	if presence == nil && d.Hub != nil {
		presence = d.Hub
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	users.RegisterUserRoutes(r, &users.UserHandler{Store: d.Store, Tokens: d.Tokens})
	songs.RegisterSongRoutes(r, &songs.SongHandler{Store: d.Store, Presence: presence})
	tracks.RegisterTrackRoutes(r, &tracks.TrackHandler{Store: d.Store})
	notes.RegisterNoteRoutes(r, &notes.NoteHandler{Store: d.Store})
	chat.RegisterChatRoutes(r, &chat.ChatHandler{Store: d.Store, Limiter: d.Limiter})

	if d.Hub != nil {
		wsh := &ws.Handler{Hub: d.Hub, Settings: d.WS, AllowedOrigin: d.AllowedOrigin}
		if d.Tokens != nil {
			wsh.Tokens = d.Tokens
		}
		r.HandleFunc("/ws/songs", respond.Logged("WS", wsh.ServeWS)).Methods(http.MethodGet)
	}

	return middleware.CORS(d.AllowedOrigin)(r)
}
