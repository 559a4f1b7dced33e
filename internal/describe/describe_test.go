package describe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/company-lookup/internal/ingestion"
	"github.com/jonathan/company-lookup/internal/llm"
	"github.com/jonathan/company-lookup/internal/search"
	"github.com/jonathan/company-lookup/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	return NewState(filepath.Join(t.TempDir(), transcript.DownloadFilename))
}

func TestBuildInstructions_Deterministic(t *testing.T) {
	a := BuildInstructions("Acme", "")
	b := BuildInstructions("Acme", "")
	assert.Equal(t, a, b)
}

func TestBuildInstructions_Content(t *testing.T) {
	prompt := BuildInstructions("Acme", "Acme Corp: Acme makes anvils.")

	assert.Contains(t, prompt, "following company: Acme?")
	assert.Contains(t, prompt, "**Acme**")
	assert.Contains(t, prompt, "Information Verification")
	assert.Contains(t, prompt, "without any additional headings or sections")
	assert.Contains(t, prompt, "### Search Summary:\nAcme Corp: Acme makes anvils.\n")
	assert.NotContains(t, prompt, "{{.")
}

func TestBuildInstructions_ExactText(t *testing.T) {
	want := "I am a company analyst and need to collect extensive company descriptions. " +
		"The user who inputted the prompt MUST input a valid company name. If the user does not input a valid company name, reprompt the user to input a company name. " +
		"The user may input a list of names split by commas. In that case, you must follow the instructions on each of the company that is split by commas. Do not miss a company." +
		"Can you help me create a detailed and comprehensive description for the following company: Acme?\n\n" +
		"### Instructions:\n" +
		"1. **Information Gathering**: Search the internet to find extensive and relevant information about **Acme**. Utilize a wide variety of reliable websites.\n" +
		"2. **Information Verification**: Double-check the collected information to ensure accuracy and relevance. Rely only on verified and trustworthy sources.\n" +
		"3. **Description Creation**: Based on the verified information, write a clear and comprehensive company description.\n" +
		"4. **Format**: Focus on including all significant details about the company, highlighting its main practices and unique aspects. Ensure the description is detailed and thorough, without any additional headings or sections. " +
		"### Search Summary:\nAcme Corp: Acme makes anvils.\n"

	assert.Equal(t, want, BuildInstructions("Acme", "Acme Corp: Acme makes anvils."))
}

func TestBuildInstructions_NameWithPlaceholderText(t *testing.T) {
	prompt := BuildInstructions("{{.SearchSummary}}", "summary")
	assert.Contains(t, prompt, "company: {{.SearchSummary}}?")
}

func TestDescribe_EndToEnd(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]search.OrganicResult{
		"Acme company description": {{Title: "Acme", Snippet: "Acme makes anvils."}},
	}}
	chat := &fakeChat{chunks: map[string][]string{"Acme": {"Acme ", "is a ", "company."}}}
	d := &Describer{Search: searcher, Chat: chat}

	coll, err := ingestion.Collect("Acme", nil, ingestion.CollectOptions{})
	require.NoError(t, err)

	state := newTestState(t)
	results, err := d.Describe(context.Background(), state, coll.Names, nil)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Acme is a company.", results[0].Description)
	assert.Equal(t, "Acme: Acme makes anvils.", results[0].Summary)
	assert.Equal(t, []string{"Acme company description"}, searcher.queries)

	assert.Equal(t, []transcript.Entry{
		{Role: transcript.RoleUser, Text: "Acme"},
		{Role: transcript.RoleBot, Text: "Acme is a company."},
	}, state.Transcript.Entries())

	content, err := d.Export(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "Acme is a company.", string(content))

	onDisk, err := os.ReadFile(state.ExportPath)
	require.NoError(t, err)
	assert.Equal(t, "Acme is a company.", string(onDisk))
}

func TestDescribe_PromptCarriesSummary(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]search.OrganicResult{
		"Acme company description": {{Title: "A", Snippet: "B"}, {Title: "C", Snippet: "D"}},
	}}
	chat := &fakeChat{chunks: map[string][]string{"Acme": {"ok"}}}
	d := &Describer{Search: searcher, Chat: chat}

	_, err := d.Describe(context.Background(), newTestState(t), ingestion.NameList{"Acme"}, nil)
	require.NoError(t, err)

	require.Len(t, chat.prompts, 1)
	assert.Equal(t, BuildInstructions("Acme", "A: B\nC: D"), chat.prompts[0])
}

func TestDescribe_SequentialSharedSession(t *testing.T) {
	searcher := &fakeSearcher{}
	chat := &fakeChat{chunks: map[string][]string{
		"Acme":   {"Acme desc"},
		"Globex": {"Globex desc"},
	}}
	d := &Describer{Search: searcher, Chat: chat}
	state := newTestState(t)

	var events []Event
	results, err := d.Describe(context.Background(), state, ingestion.NameList{"Acme", "Globex"}, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"Acme company description", "Globex company description"}, searcher.queries)
	// second call sees the first exchange in the session history
	assert.Equal(t, []int{0, 2}, chat.historyLens)
	assert.Equal(t, 4, state.Chat.Len())
	assert.Equal(t, llm.RoleModel, state.Chat.History[1].Role)

	assert.Equal(t, []Event{
		{Type: EventNameStarted, Index: 0, Name: "Acme"},
		{Type: EventChunk, Index: 0, Name: "Acme", Text: "Acme desc"},
		{Type: EventDescription, Index: 0, Name: "Acme", Text: "Acme desc"},
		{Type: EventNameStarted, Index: 1, Name: "Globex"},
		{Type: EventChunk, Index: 1, Name: "Globex", Text: "Globex desc"},
		{Type: EventDescription, Index: 1, Name: "Globex", Text: "Globex desc"},
	}, events)

	assert.Equal(t, "Acme desc\nGlobex desc", state.Transcript.BotText())
}

func TestDescribe_DuplicateNamesProcessedTwice(t *testing.T) {
	searcher := &fakeSearcher{}
	chat := &fakeChat{chunks: map[string][]string{"Acme": {"desc"}}}
	d := &Describer{Search: searcher, Chat: chat}
	state := newTestState(t)

	results, err := d.Describe(context.Background(), state, ingestion.NameList{"Acme", "Acme"}, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 4, state.Transcript.Len())
}

func TestDescribe_SearchFailureAbortsRemaining(t *testing.T) {
	boom := errors.New("connection refused")
	searcher := &fakeSearcher{fail: map[string]error{"Globex company description": boom}}
	chat := &fakeChat{chunks: map[string][]string{"Acme": {"Acme desc"}, "Initech": {"Initech desc"}}}
	d := &Describer{Search: searcher, Chat: chat}
	state := newTestState(t)

	results, err := d.Describe(context.Background(), state, ingestion.NameList{"Acme", "Globex", "Initech"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Globex", de.Name)
	assert.Equal(t, 1, de.Index)
	assert.Equal(t, StageSearch, de.Stage)

	assert.Len(t, results, 1)
	assert.Len(t, chat.prompts, 1)
	// Initech never searched
	assert.Equal(t, []string{"Acme company description", "Globex company description"}, searcher.queries)
	assert.Equal(t, 2, state.Transcript.Len())
}

func TestDescribe_ModelFailureKeepsUserEntry(t *testing.T) {
	boom := errors.New("stream reset")
	chat := &fakeChat{fail: map[string]error{"Acme": boom}}
	d := &Describer{Search: &fakeSearcher{}, Chat: chat}
	state := newTestState(t)

	_, err := d.Describe(context.Background(), state, ingestion.NameList{"Acme"}, nil)
	require.Error(t, err)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, StageModel, de.Stage)

	assert.Equal(t, []transcript.Entry{{Role: transcript.RoleUser, Text: "Acme"}}, state.Transcript.Entries())
	assert.Equal(t, 0, state.Chat.Len())
}

func TestDescribe_EventHandlerErrorAborts(t *testing.T) {
	stop := errors.New("client gone")
	chat := &fakeChat{chunks: map[string][]string{"Acme": {"a", "b"}}}
	d := &Describer{Search: &fakeSearcher{}, Chat: chat}

	_, err := d.Describe(context.Background(), newTestState(t), ingestion.NameList{"Acme"}, func(ev Event) error {
		if ev.Type == EventChunk {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}

func TestDescribe_EmptyNames(t *testing.T) {
	d := &Describer{Search: &fakeSearcher{}, Chat: &fakeChat{}}
	results, err := d.Describe(context.Background(), newTestState(t), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDescribe_Enricher(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]search.OrganicResult{
		"Acme company description": {{Title: "A", Snippet: "B"}},
	}}
	chat := &fakeChat{chunks: map[string][]string{"Acme": {"desc"}}}
	d := &Describer{Search: searcher, Chat: chat, Enricher: &fakeEnricher{out: "Source excerpts:\nA: long text"}}

	results, err := d.Describe(context.Background(), newTestState(t), ingestion.NameList{"Acme"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "A: B\n\nSource excerpts:\nA: long text", results[0].Summary)
	assert.Contains(t, chat.prompts[0], "A: B\n\nSource excerpts:\nA: long text")
}

func TestDescribe_EnricherFailure(t *testing.T) {
	d := &Describer{
		Search:   &fakeSearcher{},
		Chat:     &fakeChat{chunks: map[string][]string{"Acme": {"desc"}}},
		Enricher: &fakeEnricher{err: context.Canceled},
	}

	_, err := d.Describe(context.Background(), newTestState(t), ingestion.NameList{"Acme"}, nil)
	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, StageEnrich, de.Stage)
}

func TestDescribe_Recorder(t *testing.T) {
	rec := &fakeRecorder{}
	d := &Describer{
		Search:   &fakeSearcher{},
		Chat:     &fakeChat{chunks: map[string][]string{"Acme": {"desc"}}},
		Recorder: rec,
	}
	state := newTestState(t)

	_, err := d.Describe(context.Background(), state, ingestion.NameList{"Acme"}, nil)
	require.NoError(t, err)
	_, err = d.Export(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, []recordedEntry{
		{seq: 1, entry: transcript.Entry{Role: transcript.RoleUser, Text: "Acme"}},
		{seq: 2, entry: transcript.Entry{Role: transcript.RoleBot, Text: "desc"}},
	}, rec.entries)
	assert.Equal(t, [][]byte{[]byte("desc")}, rec.exports)
}

func TestDescribe_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &fakeRecorder{fail: errors.New("db down")}
	d := &Describer{
		Search:   &fakeSearcher{},
		Chat:     &fakeChat{chunks: map[string][]string{"Acme": {"desc"}}},
		Recorder: rec,
	}
	state := newTestState(t)

	_, err := d.Describe(context.Background(), state, ingestion.NameList{"Acme"}, nil)
	require.NoError(t, err)

	content, err := d.Export(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "desc", string(content))
}

func TestExport_Idempotent(t *testing.T) {
	d := &Describer{
		Search: &fakeSearcher{},
		Chat:   &fakeChat{chunks: map[string][]string{"Acme": {"desc"}}},
	}
	state := newTestState(t)
	_, err := d.Describe(context.Background(), state, ingestion.NameList{"Acme"}, nil)
	require.NoError(t, err)

	first, err := d.Export(context.Background(), state)
	require.NoError(t, err)
	second, err := d.Export(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	onDisk, err := os.ReadFile(state.ExportPath)
	require.NoError(t, err)
	assert.Equal(t, second, onDisk)
}

func TestNewState(t *testing.T) {
	s := NewState("out.txt")
	assert.NotEqual(t, s.ID.String(), NewState("out.txt").ID.String())
	assert.Equal(t, "out.txt", s.ExportPath)
	assert.Empty(t, s.Names)
	assert.Equal(t, 0, s.Chat.Len())
	assert.Equal(t, 0, s.Transcript.Len())
}
