package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/jonathan/company-lookup/internal/transcript"
)

// TranscriptResponse represents the response for /sessions/{id}/transcript
type TranscriptResponse struct {
	SessionID string             `json:"session_id"`
	Entries   []transcript.Entry `json:"entries"`
	BotText   string             `json:"bot_text"`
	// Archived is set when the session was read back from the database.
	Archived bool `json:"archived,omitempty"`
}

// ExportResponse represents the response for POST /sessions/{id}/export
type ExportResponse struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Label     string `json:"label"`
	Bytes     int    `json:"bytes"`
	Content   string `json:"content"`
}

// handleTranscript returns the chat history in order. Sessions that left
// memory are read back from the archive when one is configured.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.failResponse(w, err)
		return
	}

	sess, err := s.sessions.get(id)
	if err == nil {
		s.jsonResponse(w, http.StatusOK, TranscriptResponse{
			SessionID: id.String(),
			Entries:   sess.state.Transcript.Entries(),
			BotText:   sess.state.Transcript.BotText(),
		})
		return
	}
	if !s.fromArchive(err) {
		s.failResponse(w, err)
		return
	}

	t, err := s.archivedTranscript(r.Context(), id)
	if err != nil {
		s.failResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, TranscriptResponse{
		SessionID: id.String(),
		Entries:   t.Entries(),
		BotText:   t.BotText(),
		Archived:  true,
	})
}

// handleExport writes the bot replies to the export file
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.failResponse(w, err)
		return
	}

	release, err := sess.acquire()
	if err != nil {
		s.failResponse(w, err)
		return
	}
	defer release()

	content, err := s.describer.Export(r.Context(), sess.state)
	if err != nil {
		s.failResponse(w, fmt.Errorf("failed to export transcript: %w", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, ExportResponse{
		SessionID: sess.state.ID.String(),
		Path:      sess.state.ExportPath,
		Filename:  transcript.DownloadFilename,
		Label:     transcript.DownloadLabel,
		Bytes:     len(content),
		Content:   string(content),
	})
}

// handleDownload serves the export content as a text attachment. Sessions
// that left memory are served from their last archived export.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.failResponse(w, err)
		return
	}

	var content string
	sess, err := s.sessions.get(id)
	switch {
	case err == nil:
		content = sess.state.Transcript.BotText()
	case s.fromArchive(err):
		content, err = s.archivedExport(r.Context(), id)
		if err != nil {
			s.failResponse(w, err)
			return
		}
	default:
		s.failResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", transcript.DownloadContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transcript.DownloadFilename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(content)); err != nil {
		log.Printf("Error writing download: %v", err)
	}
}
