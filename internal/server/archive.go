package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/company-lookup/internal/db"
	"github.com/jonathan/company-lookup/internal/transcript"
)

// Archive reads back what the describer's recorder persisted. *db.DB implements it.
type Archive interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*db.Session, error)
	ListEntries(ctx context.Context, sessionID uuid.UUID) ([]db.Entry, error)
	LatestExport(ctx context.Context, sessionID uuid.UUID) (*db.Export, error)
	Close()
}

// fromArchive reports whether a lookup that missed in memory should be retried against the archive.
func (s *Server) fromArchive(err error) bool {
	var notFound *ErrSessionNotFound
	return s.archive != nil && errors.As(err, &notFound)
}

// archivedTranscript rebuilds the transcript of a session that is no longer in memory.
func (s *Server) archivedTranscript(ctx context.Context, id uuid.UUID) (*transcript.Transcript, error) {
	stored, err := s.archive.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load archived session: %w", err)
	}
	if stored == nil {
		return nil, &ErrSessionNotFound{SessionID: id}
	}

	rows, err := s.archive.ListEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load archived transcript: %w", err)
	}

	t := transcript.New()
	for _, row := range rows {
		t.Append(transcript.Role(row.Role), row.Text)
	}
	return t, nil
}

// archivedExport returns the last recorded export of a session, or its bot
// replies when it was never exported.
func (s *Server) archivedExport(ctx context.Context, id uuid.UUID) (string, error) {
	ex, err := s.archive.LatestExport(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load archived export: %w", err)
	}
	if ex != nil {
		return ex.Content, nil
	}

	t, err := s.archivedTranscript(ctx, id)
	if err != nil {
		return "", err
	}
	return t.BotText(), nil
}
