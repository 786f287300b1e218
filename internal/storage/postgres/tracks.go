package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/google/uuid"
)

const trackColumns = `id, song_id, instrument_type, volume, sort_order, created_at, updated_at`

func scanTrack(row interface{ Scan(...any) error }, t *models.Track) error {
	return row.Scan(&t.ID, &t.SongID, &t.InstrumentType, &t.Volume, &t.Order, &t.CreatedAt, &t.UpdatedAt)
}

func (s *Store) listTracks(ctx context.Context, songID string) ([]models.Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE song_id = $1 ORDER BY sort_order, created_at`, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks for song %s: %w", songID, err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		var t models.Track
		if err := scanTrack(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (s *Store) CreateTrack(ctx context.Context, in models.TrackInput) (*models.Track, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if err := checkID("song", in.SongID); err != nil {
		return nil, err
	}

	volume := models.DefaultTrackVolume
	if in.Volume != nil {
		volume = *in.Volume
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM songs WHERE id = $1)`, in.SongID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check song %s: %w", in.SongID, err)
	}
	if !exists {
		return nil, fmt.Errorf("song %s: %w", in.SongID, storage.ErrNotFound)
	}

	var order int
	if in.Order != nil {
		order = *in.Order
	} else if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM tracks WHERE song_id = $1`, in.SongID,
	).Scan(&order); err != nil {
		return nil, fmt.Errorf("failed to compute track order: %w", err)
	}

	track := &models.Track{}
	if err := scanTrack(tx.QueryRowContext(ctx,
		`INSERT INTO tracks (id, song_id, instrument_type, volume, sort_order) VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+trackColumns,
		uuid.NewString(), in.SongID, in.InstrumentType, volume, order,
	), track); err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE songs SET updated_at = NOW() WHERE id = $1`, in.SongID); err != nil {
		return nil, fmt.Errorf("failed to touch song %s: %w", in.SongID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit track: %w", err)
	}

	track.Notes = []models.Note{}
	return track, nil
}

func (s *Store) UpdateTrack(ctx context.Context, id string, patch models.TrackPatch) (*models.Track, error) {
	if err := checkID("track", id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	track := &models.Track{}
	err := scanTrack(s.db.QueryRowContext(ctx,
		`UPDATE tracks SET
			instrument_type = COALESCE($2, instrument_type),
			volume = COALESCE($3, volume),
			sort_order = COALESCE($4, sort_order),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+trackColumns,
		id, patch.InstrumentType, patch.Volume, patch.Order,
	), track)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update track %s: %w", id, err)
	}

	if track.Notes, err = s.listNotes(ctx, id); err != nil {
		return nil, err
	}
	return track, nil
}

func (s *Store) DeleteTrack(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "tracks", "track", id)
}

const noteColumns = `id, track_id, pitch, drum_type, duration, start_position, created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }, n *models.Note) error {
	var pitch, drumType sql.NullString
	if err := row.Scan(&n.ID, &n.TrackID, &pitch, &drumType, &n.Duration, &n.StartPosition, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return err
	}
	n.Pitch = nullable(pitch)
	n.DrumType = nullable(drumType)
	return nil
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func (s *Store) listNotes(ctx context.Context, trackID string) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE track_id = $1 ORDER BY start_position`, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for track %s: %w", trackID, err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := scanNote(rows, &n); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if err := checkID("track", in.TrackID); err != nil {
		return nil, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tracks WHERE id = $1)`, in.TrackID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check track %s: %w", in.TrackID, err)
	}
	if !exists {
		return nil, fmt.Errorf("track %s: %w", in.TrackID, storage.ErrNotFound)
	}

	note := &models.Note{}
	if err := scanNote(s.db.QueryRowContext(ctx,
		`INSERT INTO notes (id, track_id, pitch, drum_type, duration, start_position) VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+noteColumns,
		uuid.NewString(), in.TrackID, in.Pitch, in.DrumType, in.Duration, *in.StartPosition,
	), note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (s *Store) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	if err := checkID("note", id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	note := &models.Note{}
	err := scanNote(s.db.QueryRowContext(ctx,
		`UPDATE notes SET
			pitch = COALESCE($2, pitch),
			drum_type = COALESCE($3, drum_type),
			duration = COALESCE($4, duration),
			start_position = COALESCE($5, start_position),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+noteColumns,
		id, patch.Pitch, patch.DrumType, patch.Duration, patch.StartPosition,
	), note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update note %s: %w", id, err)
	}
	return note, nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "notes", "note", id)
}
