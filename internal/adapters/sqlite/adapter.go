// Package sqlite provides a SQLite-backed track cache implementing the
// repository port. Rounds and scores are never written here; only the
// candidate pool and play history survive a restart.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/reverb-labs/encore/internal/core/domain"
	"github.com/reverb-labs/encore/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // driver registration
)

// Adapter implements ports.TrackRepository on SQLite.
type Adapter struct {
	db *sql.DB
}

var _ ports.TrackRepository = (*Adapter)(nil)

// NewAdapter opens the database and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup for local dev
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// QuizTracks serves a random pool of cached tracks that carry previews.
func (a *Adapter) QuizTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	if limit < 1 {
		limit = 1
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, title, artist, album, year, popularity, tempo, duration_ms, preview_url
		FROM tracks
		WHERE preview_url IS NOT NULL AND preview_url != ''
		ORDER BY RANDOM()
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		var track domain.Track
		var album, year, previewURL sql.NullString
		var popularity, duration sql.NullInt64
		var tempo sql.NullFloat64
		if err := rows.Scan(
			&track.ID,
			&track.Title,
			&track.Artist,
			&album,
			&year,
			&popularity,
			&tempo,
			&duration,
			&previewURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cached track: %w", err)
		}
		if album.Valid {
			track.Album = album.String
		}
		if year.Valid {
			track.Year = year.String
		}
		if popularity.Valid {
			track.Popularity = int(popularity.Int64)
		}
		if tempo.Valid {
			track.Tempo = tempo.Float64
		}
		if duration.Valid {
			track.DurationMs = int(duration.Int64)
		}
		if previewURL.Valid {
			track.PreviewURL = previewURL.String
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached tracks: %w", err)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("track cache empty: %w", domain.ErrNotFound)
	}
	return tracks, nil
}

// SaveTracks upserts a batch of candidates in one transaction.
func (a *Adapter) SaveTracks(ctx context.Context, tracks []domain.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error/panic before commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (id, title, artist, album, year, popularity, tempo, duration_ms, preview_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			album=excluded.album,
			year=excluded.year,
			popularity=excluded.popularity,
			tempo=excluded.tempo,
			duration_ms=excluded.duration_ms,
			preview_url=excluded.preview_url;
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tracks {
		if _, err := stmt.ExecContext(
			ctx,
			t.ID,
			t.Title,
			t.Artist,
			t.Album,
			t.Year,
			t.Popularity,
			t.Tempo,
			t.DurationMs,
			t.PreviewURL,
		); err != nil {
			return fmt.Errorf("failed to save track %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// MarkPlayed records that a track fronted a round.
func (a *Adapter) MarkPlayed(ctx context.Context, trackID string, playedAt time.Time) error {
	if _, err := a.db.ExecContext(ctx, `
		INSERT INTO play_history (track_id, played_at) VALUES (?, ?)
	`, trackID, playedAt.UTC()); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// RecentlyPlayed returns track IDs in most-recent-first order, up to limit.
func (a *Adapter) RecentlyPlayed(ctx context.Context, limit int) ([]string, error) {
	if limit < 1 {
		limit = 1
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT track_id FROM play_history
		ORDER BY played_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query play history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan play history: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate play history: %w", err)
	}
	return ids, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT,
		year TEXT,
		popularity INTEGER,
		tempo REAL,
		duration_ms INTEGER,
		preview_url TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS play_history (
		track_id TEXT NOT NULL,
		played_at DATETIME NOT NULL,
		FOREIGN KEY(track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_play_history_played_at
		ON play_history(played_at DESC);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}
	return nil
}
