package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/company-lookup/internal/ingestion"
)

// SessionResponse describes a lookup session
type SessionResponse struct {
	SessionID  string   `json:"session_id"`
	Names      []string `json:"names"`
	Display    string   `json:"display"`
	Entries    int      `json:"entries"`
	ExportPath string   `json:"export_path"`
	CreatedAt  string   `json:"created_at"`
}

// NamesResponse represents the response for /sessions/{id}/names
type NamesResponse struct {
	SessionID string               `json:"session_id"`
	Names     []string             `json:"names"`
	Display   string               `json:"display"`
	Source    ingestion.SourceKind `json:"source,omitempty"`
	Preview   *ingestion.Preview   `json:"preview,omitempty"`
	Warnings  []string             `json:"warnings,omitempty"`
}

// sessionID parses the {id} path value.
func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid session ID format"}
	}
	return id, nil
}

// lookupSession resolves the {id} path value to an in-memory session.
func (s *Server) lookupSession(r *http.Request) (*session, error) {
	id, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	return s.sessions.get(id)
}

func (s *Server) sessionResponse(sess *session) SessionResponse {
	names := sess.names()
	coll := ingestion.Collection{Names: names}
	return SessionResponse{
		SessionID:  sess.state.ID.String(),
		Names:      names,
		Display:    coll.Display(),
		Entries:    sess.state.Transcript.Len(),
		ExportPath: sess.state.ExportPath,
		CreatedAt:  sess.state.CreatedAt.Format(time.RFC3339),
	}
}

// handleCreateSession starts a new empty session
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.create(s.exportPath)
	if err != nil {
		s.failResponse(w, err)
		return
	}

	if rec := s.describer.Recorder; rec != nil {
		if err := rec.CreateSession(r.Context(), sess.state.ID); err != nil {
			log.Printf("[server] warning: failed to persist session %s: %v", sess.state.ID, err)
		}
	}
	if s.verbose {
		log.Printf("[server] created session %s", sess.state.ID)
	}

	s.jsonResponse(w, http.StatusCreated, s.sessionResponse(sess))
}

// handleGetSession returns the names and transcript size of a session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.failResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.sessionResponse(sess))
}

// handleSetNames collects names from a multipart upload ("file") and a typed name ("name").
// The result replaces the session's current name list.
func (s *Server) handleSetNames(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		s.failResponse(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid file: "+err.Error())
		return
	}

	release, err := sess.acquire()
	if err != nil {
		s.failResponse(w, err)
		return
	}
	defer release()

	coll, err := ingestion.Collect(r.FormValue("name"), upload, ingestion.CollectOptions{Dedupe: s.dedupeNames})
	if err != nil {
		s.failResponse(w, err)
		return
	}
	sess.setCollection(coll)

	s.jsonResponse(w, http.StatusOK, NamesResponse{
		SessionID: sess.state.ID.String(),
		Names:     coll.Names,
		Display:   coll.Display(),
		Source:    coll.Source,
		Preview:   coll.Preview,
		Warnings:  coll.Warnings,
	})
}

// readUpload returns the "file" part of a multipart form, or nil when there is none.
func readUpload(r *http.Request) (*ingestion.Upload, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &ingestion.Upload{Filename: header.Filename, Data: data}, nil
}
