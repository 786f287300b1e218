package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/gorilla/websocket"
)

type staticTokens map[string]models.User

func (s staticTokens) Parse(token string) (*models.User, error) {
	u, ok := s[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &u, nil
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := startHub(t, nil)
	handler := &Handler{
		Hub:    h,
		Tokens: staticTokens{"good": {ID: "u1", Name: "Ada"}},
	}
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/songs" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return f
}

func TestServeWSJoinAndPresence(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv, "")

	if f := readFrame(t, conn); f.Event != EventConnected {
		t.Fatalf("first frame = %s, want connected", f.Event)
	}

	err := conn.WriteJSON(map[string]any{
		"event": EventJoinSong,
		"data":  map[string]any{"songId": "42", "user": map[string]any{"id": "u9", "name": "Lin"}},
	})
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	f := readFrame(t, conn)
	if f.Event != EventPresenceUpdate {
		t.Fatalf("got %s, want presence-update", f.Event)
	}
	if !strings.Contains(string(f.Data), `"name":"Lin"`) {
		t.Errorf("presence = %s", f.Data)
	}
}

func TestServeWSToken(t *testing.T) {
	srv := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/songs?token=bad"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() with bad token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token response = %v, want 401", resp)
	}

	conn := dial(t, srv, "?token=good")
	readFrame(t, conn)
	conn.WriteJSON(map[string]any{
		"event": EventJoinSong,
		"data":  map[string]any{"songId": "42", "user": map[string]any{"id": "someone-else"}},
	})
	f := readFrame(t, conn)
	if !strings.Contains(string(f.Data), `"id":"u1"`) {
		t.Errorf("presence = %s, want token identity", f.Data)
	}
}
