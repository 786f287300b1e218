package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/ratelimit"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
)

// APIClient implements Store against the REST API.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
}

var _ Store = (*APIClient)(nil)

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// StatusError is a non-2xx response that has no sentinel mapping.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Code, e.Message)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		text := strings.TrimSpace(string(msg))
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", method, path, storage.ErrNotFound)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s %s: %w", method, path, ratelimit.ErrRateLimited)
		case http.StatusBadRequest:
			return &models.ValidationError{Field: "request", Reason: text}
		}
		return &StatusError{Code: resp.StatusCode, Message: text}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *APIClient) GetOrCreateUser(ctx context.Context, name string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users?name="+url.QueryEscape(name), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *APIClient) IssueToken(ctx context.Context, userID string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/users/"+userID+"/token", nil, &out)
	return out.Token, err
}

func (c *APIClient) GetSong(ctx context.Context, id string) (*models.Song, error) {
	var song models.Song
	if err := c.do(ctx, http.MethodGet, "/api/v1/songs/"+id, nil, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

func (c *APIClient) UpdateSong(ctx context.Context, id string, patch models.SongPatch) (*models.Song, error) {
	var song models.Song
	if err := c.do(ctx, http.MethodPatch, "/api/v1/songs/"+id, patch, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

func (c *APIClient) CreateTrack(ctx context.Context, in models.TrackInput) (*models.Track, error) {
	var t models.Track
	if err := c.do(ctx, http.MethodPost, "/api/v1/tracks", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *APIClient) UpdateTrack(ctx context.Context, id string, patch models.TrackPatch) (*models.Track, error) {
	var t models.Track
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tracks/"+id, patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *APIClient) DeleteTrack(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tracks/"+id, nil, nil)
}

func (c *APIClient) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	var n models.Note
	if err := c.do(ctx, http.MethodPost, "/api/v1/notes", in, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *APIClient) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/notes/"+id, nil, nil)
}

func (c *APIClient) CreateChatMessage(ctx context.Context, songID, userID, message string) (*models.ChatMessage, error) {
	var m models.ChatMessage
	body := map[string]string{"songId": songID, "userId": userID, "message": message}
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat", body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *APIClient) AddContributor(ctx context.Context, songID, userID string) (*models.Contributor, error) {
	var ct models.Contributor
	body := map[string]string{"userId": userID}
	if err := c.do(ctx, http.MethodPost, "/api/v1/songs/"+songID+"/contributors", body, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}
