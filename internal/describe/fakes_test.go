package describe

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/company-lookup/internal/llm"
	"github.com/jonathan/company-lookup/internal/search"
	"github.com/jonathan/company-lookup/internal/transcript"
)

type fakeSearcher struct {
	results map[string][]search.OrganicResult
	fail    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) (*search.Response, error) {
	f.queries = append(f.queries, query)
	if err := f.fail[query]; err != nil {
		return nil, err
	}
	return &search.Response{OrganicResults: f.results[query]}, nil
}

// fakeChat streams pre-set chunks for each call, keyed by the company name found in the prompt.
type fakeChat struct {
	chunks  map[string][]string
	fail    map[string]error
	prompts []string
	// historyLens records session length at the time of each call.
	historyLens []int
}

func (f *fakeChat) StreamMessage(_ context.Context, session *llm.Session, text string, onChunk llm.ChunkHandler) (string, error) {
	f.prompts = append(f.prompts, text)
	f.historyLens = append(f.historyLens, session.Len())

	for name, err := range f.fail {
		if strings.Contains(text, "company: "+name+"?") {
			return "", err
		}
	}

	var chunks []string
	for name, c := range f.chunks {
		if strings.Contains(text, "company: "+name+"?") {
			chunks = c
		}
	}
	if chunks == nil {
		return "", errors.New("no scripted reply")
	}

	var sb strings.Builder
	for _, c := range chunks {
		if err := onChunk(c); err != nil {
			return "", err
		}
		sb.WriteString(c)
	}
	session.Append(llm.RoleUser, text)
	session.Append(llm.RoleModel, sb.String())
	return sb.String(), nil
}

func (f *fakeChat) Close() error { return nil }

type fakeEnricher struct {
	out string
	err error
}

func (f *fakeEnricher) Enrich(_ context.Context, _ []search.OrganicResult) (string, error) {
	return f.out, f.err
}

type recordedEntry struct {
	seq   int
	entry transcript.Entry
}

type fakeRecorder struct {
	mu       sync.Mutex
	sessions []uuid.UUID
	entries  []recordedEntry
	exports  [][]byte
	fail     error
}

func (f *fakeRecorder) CreateSession(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, id)
	return f.fail
}

func (f *fakeRecorder) RecordEntry(_ context.Context, _ uuid.UUID, seq int, entry transcript.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedEntry{seq: seq, entry: entry})
	return f.fail
}

func (f *fakeRecorder) RecordExport(_ context.Context, _ uuid.UUID, _ string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports = append(f.exports, content)
	return f.fail
}
