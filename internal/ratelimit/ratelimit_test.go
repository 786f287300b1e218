package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	if err := l.AllowChat(context.Background(), "song", "user"); err != nil {
		t.Errorf("AllowChat() on nil limiter = %v", err)
	}
	if err := NewLimiter(nil, 1, time.Minute).AllowChat(context.Background(), "song", "user"); err != nil {
		t.Errorf("AllowChat() without redis = %v", err)
	}
}

func TestLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewLimiter(client, 1, time.Minute)
	for i := 0; i < 3; i++ {
		if err := l.AllowChat(context.Background(), "song", "user"); err != nil {
			t.Fatalf("AllowChat() with unreachable redis = %v, want nil", err)
		}
	}
}

func TestDialRejectsBadURL(t *testing.T) {
	if _, err := Dial(context.Background(), "not a url"); err == nil {
		t.Error("Dial() accepted an invalid url")
	}
}
