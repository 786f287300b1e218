package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ListChatMessages returns a song's transcript oldest first, each message
// joined with its author.
func (s *Store) ListChatMessages(ctx context.Context, songID string) ([]models.ChatMessage, error) {
	if checkID("song", songID) != nil {
		return []models.ChatMessage{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.song_id, m.user_id, m.message, m.created_at,
		       u.id, u.name, u.avatar_icon, u.created_at
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.song_id = $1
		ORDER BY m.created_at ASC
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for song %s: %w", songID, err)
	}
	defer rows.Close()

	msgs := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SongID, &m.UserID, &m.Message, &m.CreatedAt,
			&m.User.ID, &m.User.Name, &m.User.AvatarIcon, &m.User.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message for song %s: %w", songID, err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages for song %s: %w", songID, err)
	}
	return msgs, nil
}

func (s *Store) CreateChatMessage(ctx context.Context, songID, userID, message string) (*models.ChatMessage, error) {
	if err := checkID("song", songID); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	m := &models.ChatMessage{User: *user}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (id, song_id, user_id, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, song_id, user_id, message, created_at
	`, uuid.NewString(), songID, userID, message).Scan(&m.ID, &m.SongID, &m.UserID, &m.Message, &m.CreatedAt)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("song %s: %w", songID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add message to song %s: %w", songID, err)
	}

	log.Printf("[DB] Added message %s to song %s from user %s", m.ID, songID, userID)
	return m, nil
}

// AddContributor inserts the pair once; ON CONFLICT keeps the original row.
func (s *Store) AddContributor(ctx context.Context, songID, userID string) (*models.Contributor, error) {
	if err := checkID("song", songID); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO song_contributors (id, song_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (song_id, user_id) DO NOTHING
	`, uuid.NewString(), songID, userID)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("song %s: %w", songID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add contributor %s to song %s: %w", userID, songID, err)
	}

	c := &models.Contributor{User: *user}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, song_id, user_id, created_at FROM song_contributors
		WHERE song_id = $1 AND user_id = $2
	`, songID, userID).Scan(&c.ID, &c.SongID, &c.UserID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read contributor %s of song %s: %w", userID, songID, err)
	}
	return c, nil
}

func (s *Store) listContributors(ctx context.Context, songID string) ([]models.Contributor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.song_id, c.user_id, c.created_at,
		       u.id, u.name, u.avatar_icon, u.created_at
		FROM song_contributors c
		JOIN users u ON u.id = c.user_id
		WHERE c.song_id = $1
		ORDER BY c.created_at ASC
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors for song %s: %w", songID, err)
	}
	defer rows.Close()

	out := []models.Contributor{}
	for rows.Next() {
		var c models.Contributor
		if err := rows.Scan(&c.ID, &c.SongID, &c.UserID, &c.CreatedAt,
			&c.User.ID, &c.User.Name, &c.User.AvatarIcon, &c.User.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// foreign_key_violation
const fkViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == fkViolation
}
