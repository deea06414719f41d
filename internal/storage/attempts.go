// Package storage persists extraction-attempt diagnostics in SQLite.
//
// Only attempt records are stored. Transcript text is handed to the caller
// and discarded; it is never written anywhere.
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tubescribe/tubescribe/internal/types"
)

// AttemptStore records which stages succeeded and why the others failed, so
// it is possible to tell after the fact which upstream defenses are
// currently blocking extraction.
type AttemptStore struct {
	db *sql.DB
}

// NewAttemptStore opens (creating if needed) the diagnostics database.
func NewAttemptStore(dbPath string) (*AttemptStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS extraction_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		method TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_video ON extraction_attempts(video_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_request ON extraction_attempts(request_id);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &AttemptStore{db: db}, nil
}

// Record inserts one attempt. Implements the pipeline's AttemptSink; insert
// failures are logged, never propagated, since diagnostics must not break
// acquisition.
func (s *AttemptStore) Record(attempt types.ExtractionAttempt) {
	query := `
	INSERT INTO extraction_attempts (request_id, video_id, stage, method, outcome, detail, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		attempt.RequestID, attempt.VideoID, attempt.Stage, attempt.Method,
		attempt.Outcome, attempt.Detail, attempt.Duration.Milliseconds(), attempt.At)
	if err != nil {
		log.Printf("Failed to record extraction attempt: %v", err)
	}
}

// RecentByVideo returns the newest attempts for a video, newest first.
func (s *AttemptStore) RecentByVideo(videoID string, limit int) ([]types.ExtractionAttempt, error) {
	query := `
	SELECT request_id, video_id, stage, method, outcome, detail, duration_ms, created_at
	FROM extraction_attempts WHERE video_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
	`
	return s.queryAttempts(query, videoID, limit)
}

// ByRequest returns all attempts recorded for one acquisition, oldest first.
func (s *AttemptStore) ByRequest(requestID string) ([]types.ExtractionAttempt, error) {
	query := `
	SELECT request_id, video_id, stage, method, outcome, detail, duration_ms, created_at
	FROM extraction_attempts WHERE request_id = ? ORDER BY id ASC
	`
	return s.queryAttempts(query, requestID)
}

func (s *AttemptStore) queryAttempts(query string, args ...any) ([]types.ExtractionAttempt, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %v", err)
	}
	defer rows.Close()

	var attempts []types.ExtractionAttempt
	for rows.Next() {
		var (
			a          types.ExtractionAttempt
			durationMS int64
			createdAt  time.Time
		)
		if err := rows.Scan(&a.RequestID, &a.VideoID, &a.Stage, &a.Method, &a.Outcome, &a.Detail, &durationMS, &createdAt); err != nil {
			continue
		}
		a.Duration = time.Duration(durationMS) * time.Millisecond
		a.At = createdAt
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// Close closes the database connection.
func (s *AttemptStore) Close() error {
	return s.db.Close()
}
