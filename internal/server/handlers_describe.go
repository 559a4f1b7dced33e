package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/company-lookup/internal/describe"
	"github.com/jonathan/company-lookup/internal/ingestion"
	"github.com/jonathan/company-lookup/internal/transcript"
)

// DescribeRequest is the optional body of the describe endpoints.
// When Names is empty the session's collected names are used.
type DescribeRequest struct {
	Names []string `json:"names,omitempty" validate:"omitempty,max=200,dive,required"`
}

// DescribeResponse represents the response for /sessions/{id}/describe
type DescribeResponse struct {
	SessionID  string             `json:"session_id"`
	Results    []describe.Result  `json:"results"`
	Transcript []transcript.Entry `json:"transcript"`
	Error      string             `json:"error,omitempty"`
}

// describeInput resolves the session and the names to describe.
func (s *Server) describeInput(r *http.Request) (*session, ingestion.NameList, error) {
	sess, err := s.lookupSession(r)
	if err != nil {
		return nil, nil, err
	}

	var req DescribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, &ErrValidation{Field: "names", Message: validationMessage(err)}
	}

	names := ingestion.NameList(req.Names)
	if len(names) == 0 {
		names = sess.names()
	}
	if len(names) == 0 {
		return nil, nil, &ErrValidation{Field: "names", Message: "no company names; submit a name or upload a file first"}
	}
	return sess, names, nil
}

// handleDescribe runs the lookup for every name and returns when all are done.
// On failure the results gathered so far are returned alongside the error.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	sess, names, err := s.describeInput(r)
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

	results, err := s.describer.Describe(r.Context(), sess.state, names, nil)
	resp := DescribeResponse{
		SessionID:  sess.state.ID.String(),
		Results:    results,
		Transcript: sess.state.Transcript.Entries(),
	}
	if err != nil {
		resp.Error = err.Error()
		s.jsonResponse(w, HTTPStatus(err), resp)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleDescribeStream runs the lookup and streams progress as Server-Sent Events:
// start, name_started, chunk, description, then complete or error.
func (s *Server) handleDescribeStream(w http.ResponseWriter, r *http.Request) {
	sess, names, err := s.describeInput(r)
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

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := sse.WriteEvent("start", map[string]any{
		"session_id": sess.state.ID.String(),
		"names":      names,
	}); err != nil {
		return
	}

	results, err := s.describer.Describe(r.Context(), sess.state, names, func(ev describe.Event) error {
		return sse.WriteEvent(string(ev.Type), ev)
	})
	if err != nil {
		sse.WriteError(err.Error(), HTTPStatus(err))
		return
	}
	sse.WriteComplete(sess.state.ID.String(), len(results))
}
