package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/company-lookup/internal/transcript"
)

// CreateSession inserts a session row. Creating an existing session is a no-op.
func (db *DB) CreateSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO lookup_sessions (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Returns nil when it does not exist.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var s Session
	err := db.pool.QueryRow(ctx,
		`SELECT id, created_at FROM lookup_sessions WHERE id = $1`,
		sessionID,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// RecordEntry stores a transcript entry at position seq (1-based).
func (db *DB) RecordEntry(ctx context.Context, sessionID uuid.UUID, seq int, entry transcript.Entry) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO transcript_entries (session_id, seq, role, text)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, seq) DO UPDATE SET role = $3, text = $4`,
		sessionID, seq, string(entry.Role), entry.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to record entry %d: %w", seq, err)
	}
	return nil
}

// ListEntries returns the transcript of a session in order.
func (db *DB) ListEntries(ctx context.Context, sessionID uuid.UUID) ([]Entry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT session_id, seq, role, text, created_at
		 FROM transcript_entries WHERE session_id = $1 ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SessionID, &e.Seq, &e.Role, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// RecordExport stores the content written by an export.
func (db *DB) RecordExport(ctx context.Context, sessionID uuid.UUID, path string, content []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO exports (session_id, path, content) VALUES ($1, $2, $3)`,
		sessionID, path, string(content),
	)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// LatestExport returns the most recent export of a session, or nil.
func (db *DB) LatestExport(ctx context.Context, sessionID uuid.UUID) (*Export, error) {
	var ex Export
	err := db.pool.QueryRow(ctx,
		`SELECT session_id, path, content, created_at
		 FROM exports WHERE session_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		sessionID,
	).Scan(&ex.SessionID, &ex.Path, &ex.Content, &ex.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}
	return &ex, nil
}
