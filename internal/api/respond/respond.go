// Package respond holds the JSON and error helpers shared by the API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/ratelimit"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

// Decode reads a JSON request body into v, answering 400 when it cannot.
func Decode(w http.ResponseWriter, r *http.Request, tag string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Printf("[%s] Error decoding request body for %s %s: %v", tag, r.Method, r.URL.Path, err)
		return false
	}
	return true
}

// Error maps err onto an HTTP status and logs it under tag.
func Error(w http.ResponseWriter, r *http.Request, tag string, err error) {
	var invalid *models.ValidationError
	switch {
	case errors.As(err, &invalid):
		http.Error(w, invalid.Error(), http.StatusBadRequest)
		log.Printf("[%s] Validation error on %s %s: %v", tag, r.Method, r.URL.Path, err)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
		log.Printf("[%s] Not found on %s %s: %v", tag, r.Method, r.URL.Path, err)
	case errors.Is(err, ratelimit.ErrRateLimited):
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		log.Printf("[%s] Rate limited on %s %s", tag, r.Method, r.URL.Path)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		log.Printf("[%s] %s %s failed: %v", tag, r.Method, r.URL.Path, err)
	}
}

// Logged wraps a handler with the per-request access log line.
func Logged(tag string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[%s] %s %s", tag, r.Method, r.URL.Path)
		fn(w, r)
	}
}

// Deleted is the body returned by successful DELETE requests.
var Deleted = map[string]bool{"success": true}
