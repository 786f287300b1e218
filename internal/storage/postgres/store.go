package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

//go:embed schema.sql
var schema string

// Store implements storage.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// NewStore opens and pings a connection pool for the given DSN.
func NewStore(ctx context.Context, dataSourceName string) (*Store, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("[DB] PostgreSQL connection established")
	return &Store{db: db}, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Println("[DB] Schema is up to date")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetOrCreateUser(ctx context.Context, name string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, avatar_icon, created_at FROM users WHERE name = $1 ORDER BY created_at LIMIT 1`,
		name,
	).Scan(&u.ID, &u.Name, &u.AvatarIcon, &u.CreatedAt)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user %q: %w", name, err)
	}
	return s.CreateUser(ctx, name)
}

func (s *Store) CreateUser(ctx context.Context, name string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, name, avatar_icon) VALUES ($1, $2, $3)
		 RETURNING id, name, avatar_icon, created_at`,
		uuid.NewString(), name, storage.RandomAvatarIcon(),
	).Scan(&u.ID, &u.Name, &u.AvatarIcon, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("[DB] User created: ID=%s, Name=%s", u.ID, u.Name)
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := checkID("user", id); err != nil {
		return nil, err
	}
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, avatar_icon, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.AvatarIcon, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return u, nil
}

const songColumns = `id, name, tempo, time_signature, bars, created_at, updated_at`

func scanSong(row interface{ Scan(...any) error }, song *models.Song) error {
	return row.Scan(&song.ID, &song.Name, &song.Tempo, &song.TimeSignature, &song.Bars, &song.CreatedAt, &song.UpdatedAt)
}

func (s *Store) ListSongs(ctx context.Context) ([]models.Song, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+songColumns+` FROM songs ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var song models.Song
		if err := scanSong(rows, &song); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate songs: %w", err)
	}

	for i := range songs {
		tracks, err := s.listTracks(ctx, songs[i].ID)
		if err != nil {
			return nil, err
		}
		songs[i].Tracks = tracks
	}
	return songs, nil
}

func (s *Store) CreateSong(ctx context.Context, in models.SongInput) (*models.Song, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	song := &models.Song{}
	err := scanSong(s.db.QueryRowContext(ctx,
		`INSERT INTO songs (id, name, tempo, time_signature, bars) VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+songColumns,
		uuid.NewString(), in.Name, in.Tempo, in.TimeSignature, in.Bars,
	), song)
	if err != nil {
		return nil, fmt.Errorf("failed to create song: %w", err)
	}
	song.Tracks = []models.Track{}

	log.Printf("[DB] Song created: ID=%s, Name=%s", song.ID, song.Name)
	return song, nil
}

// GetSong loads the full graph of a song.
func (s *Store) GetSong(ctx context.Context, id string) (*models.Song, error) {
	if err := checkID("song", id); err != nil {
		return nil, err
	}
	song := &models.Song{}
	err := scanSong(s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = $1`, id), song)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song %s: %w", id, err)
	}

	if song.Tracks, err = s.listTracks(ctx, id); err != nil {
		return nil, err
	}
	for i := range song.Tracks {
		if song.Tracks[i].Notes, err = s.listNotes(ctx, song.Tracks[i].ID); err != nil {
			return nil, err
		}
	}
	if song.ChatMessages, err = s.ListChatMessages(ctx, id); err != nil {
		return nil, err
	}
	if song.Contributors, err = s.listContributors(ctx, id); err != nil {
		return nil, err
	}
	return song, nil
}

func (s *Store) UpdateSong(ctx context.Context, id string, patch models.SongPatch) (*models.Song, error) {
	if err := checkID("song", id); err != nil {
		return nil, err
	}
	song := &models.Song{}
	err := scanSong(s.db.QueryRowContext(ctx,
		`UPDATE songs SET
			name = COALESCE($2, name),
			tempo = COALESCE($3, tempo),
			time_signature = COALESCE($4, time_signature),
			bars = COALESCE($5, bars),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+songColumns,
		id, patch.Name, patch.Tempo, patch.TimeSignature, patch.Bars,
	), song)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update song %s: %w", id, err)
	}

	if song.Tracks, err = s.listTracks(ctx, id); err != nil {
		return nil, err
	}
	return song, nil
}

func (s *Store) DeleteSong(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "songs", "song", id)
}

// deleteByID removes one row and maps a zero row count to ErrNotFound.
func (s *Store) deleteByID(ctx context.Context, table, kind, id string) error {
	if err := checkID(kind, id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deleting %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	log.Printf("[DB] Deleted %s %s", kind, id)
	return nil
}

// checkID rejects ids that are not UUIDs. Every id column is UUID typed, so
// such an id cannot name a row and Postgres would fail the cast instead.
func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
