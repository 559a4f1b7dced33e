package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/company-lookup/internal/describe"
	"github.com/jonathan/company-lookup/internal/llm"
	"github.com/jonathan/company-lookup/internal/search"
	"github.com/jonathan/company-lookup/internal/server/ratelimit"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (s *stubSearcher) Search(_ context.Context, query string) (*search.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return &search.Response{OrganicResults: []search.OrganicResult{{Title: "T", Snippet: "S"}}}, nil
}

// stubChat answers every prompt with "<n>: description", streamed in two chunks.
type stubChat struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *stubChat) StreamMessage(_ context.Context, session *llm.Session, text string, onChunk llm.ChunkHandler) (string, error) {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}

	chunks := []string{fmt.Sprintf("%d: ", n), "description"}
	for _, ch := range chunks {
		if err := onChunk(ch); err != nil {
			return "", err
		}
	}
	reply := strings.Join(chunks, "")
	session.Append(llm.RoleUser, text)
	session.Append(llm.RoleModel, reply)
	return reply, nil
}

func (c *stubChat) Close() error { return nil }

type testEnv struct {
	server   *Server
	searcher *stubSearcher
	chat     *stubChat
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, Config{}, nil)
}

// newTestEnvWith fills in the export path and disables rate limiting.
func newTestEnvWith(t *testing.T, cfg Config, archive Archive) *testEnv {
	t.Helper()
	searcher := &stubSearcher{}
	chat := &stubChat{}
	cfg.ExportPath = filepath.Join(t.TempDir(), "comp_text.txt")
	cfg.RateLimit = &ratelimit.Config{Enabled: false}
	s, err := New(cfg, &describe.Describer{Search: searcher, Chat: chat}, archive)
	require.NoError(t, err)
	t.Cleanup(s.cleanup)
	return &testEnv{server: s, searcher: searcher, chat: chat, handler: s.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/sessions", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.SessionID
}

// multipartBody builds a form with an optional file part and an optional name field.
func multipartBody(t *testing.T, filename string, data []byte, name string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
