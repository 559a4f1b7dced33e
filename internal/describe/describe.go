// Package describe runs the per-company lookup loop: search, prompt, stream the model reply, log the transcript.
package describe

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/company-lookup/internal/ingestion"
	"github.com/jonathan/company-lookup/internal/llm"
	"github.com/jonathan/company-lookup/internal/search"
	"github.com/jonathan/company-lookup/internal/transcript"
)

// Enricher adds extra context for a set of search results.
type Enricher interface {
	Enrich(ctx context.Context, results []search.OrganicResult) (string, error)
}

// Recorder persists transcript entries and exports outside the process.
type Recorder interface {
	CreateSession(ctx context.Context, sessionID uuid.UUID) error
	RecordEntry(ctx context.Context, sessionID uuid.UUID, seq int, entry transcript.Entry) error
	RecordExport(ctx context.Context, sessionID uuid.UUID, path string, content []byte) error
}

// EventType names a progress event.
type EventType string

const (
	EventNameStarted EventType = "name_started"
	EventChunk       EventType = "chunk"
	EventDescription EventType = "description"
)

// Event reports progress while names are being described.
type Event struct {
	Type  EventType `json:"type"`
	Index int       `json:"index"`
	Name  string    `json:"name"`
	Text  string    `json:"text,omitempty"`
}

// EventHandler receives progress events. Returning an error aborts the run.
type EventHandler func(Event) error

// Result is the outcome for one company name.
type Result struct {
	Name        string `json:"name"`
	Query       string `json:"query"`
	Summary     string `json:"search_summary"`
	Description string `json:"description"`
}

// Stage names the step of the loop that failed.
type Stage string

const (
	StageSearch Stage = "search"
	StageEnrich Stage = "enrich"
	StageModel  Stage = "model"
)

// Error reports which name and stage stopped a run.
type Error struct {
	Name  string
	Index int
	Stage Stage
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("describe %q (#%d) failed at %s: %v", e.Name, e.Index+1, e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Describer wires the search client and the chat model together.
type Describer struct {
	Search   search.Searcher
	Chat     llm.ChatClient
	Enricher Enricher
	Recorder Recorder
	Verbose  bool
}

// Describe processes names strictly in order. The first failure stops the
// run; entries appended before it stay in the transcript.
func (d *Describer) Describe(ctx context.Context, state *State, names ingestion.NameList, onEvent EventHandler) ([]Result, error) {
	results := make([]Result, 0, len(names))
	for i, name := range names {
		res, err := d.DescribeOne(ctx, state, i, name, onEvent)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// DescribeOne runs the lookup for a single name.
func (d *Describer) DescribeOne(ctx context.Context, state *State, index int, name string, onEvent EventHandler) (*Result, error) {
	emit := func(ev Event) error {
		if onEvent == nil {
			return nil
		}
		return onEvent(ev)
	}

	if d.Verbose {
		log.Printf("[DESCRIBE] (%d) %s", index+1, name)
	}
	if err := emit(Event{Type: EventNameStarted, Index: index, Name: name}); err != nil {
		return nil, err
	}

	query := search.Query(name)
	resp, err := d.Search.Search(ctx, query)
	if err != nil {
		return nil, &Error{Name: name, Index: index, Stage: StageSearch, Cause: err}
	}
	summary := search.Summarize(resp.OrganicResults)

	if d.Enricher != nil {
		excerpts, err := d.Enricher.Enrich(ctx, resp.OrganicResults)
		if err != nil {
			return nil, &Error{Name: name, Index: index, Stage: StageEnrich, Cause: err}
		}
		if excerpts != "" {
			summary = strings.TrimRight(summary+"\n\n"+excerpts, "\n")
		}
	}

	instructions := BuildInstructions(name, summary)

	d.record(ctx, state, state.Transcript.Append(transcript.RoleUser, name))

	reply, err := d.Chat.StreamMessage(ctx, state.Chat, instructions, func(chunk string) error {
		return emit(Event{Type: EventChunk, Index: index, Name: name, Text: chunk})
	})
	if err != nil {
		return nil, &Error{Name: name, Index: index, Stage: StageModel, Cause: err}
	}

	d.record(ctx, state, state.Transcript.Append(transcript.RoleBot, reply))

	if err := emit(Event{Type: EventDescription, Index: index, Name: name, Text: reply}); err != nil {
		return nil, err
	}

	return &Result{
		Name:        name,
		Query:       query,
		Summary:     summary,
		Description: reply,
	}, nil
}

// Export writes the bot replies of the session to its export path.
func (d *Describer) Export(ctx context.Context, state *State) ([]byte, error) {
	content, err := state.Transcript.Export(state.ExportPath)
	if err != nil {
		return nil, err
	}

	if d.Recorder != nil {
		if err := d.Recorder.RecordExport(ctx, state.ID, state.ExportPath, content); err != nil {
			log.Printf("[DESCRIBE] warning: failed to record export for session %s: %v", state.ID, err)
		}
	}

	if d.Verbose {
		log.Printf("[DESCRIBE] Exported %d bytes to %s", len(content), state.ExportPath)
	}
	return content, nil
}

// record persists an entry. Persistence is best-effort and never stops the lookup.
func (d *Describer) record(ctx context.Context, state *State, entry transcript.Entry) {
	if d.Recorder == nil {
		return
	}
	seq := state.Transcript.Len()
	if err := d.Recorder.RecordEntry(ctx, state.ID, seq, entry); err != nil {
		log.Printf("[DESCRIBE] warning: failed to record %s entry for session %s: %v", entry.Role, state.ID, err)
	}
}
