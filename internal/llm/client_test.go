package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	client, err := NewGeminiClient(context.Background(), DefaultConfig(), "", false)
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"

	client, err := NewClient(context.Background(), cfg, "key", false)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestSession(t *testing.T) {
	s := NewSession()
	assert.Equal(t, 0, s.Len())

	s.Append(RoleUser, "Describe Acme")
	s.Append(RoleModel, "Acme is a company.")

	require.Equal(t, 2, s.Len())
	assert.Equal(t, Message{Role: RoleUser, Text: "Describe Acme"}, s.History[0])
	assert.Equal(t, Message{Role: RoleModel, Text: "Acme is a company."}, s.History[1])
}

func TestToContents(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Text: "hello"},
		{Role: RoleModel, Text: "hi"},
	}

	contents := toContents(history)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, []genai.Part{genai.Text("hello")}, contents[0].Parts)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("hi")}, contents[1].Parts)
}

func TestToContents_Empty(t *testing.T) {
	assert.Empty(t, toContents(nil))
}

func TestTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Acme "), genai.Text("is a ")}}},
		},
	}
	assert.Equal(t, "Acme is a ", textFromResponse(resp))
}

func TestTextFromResponse_SkipsNonText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("company.")}}},
		},
	}
	assert.Equal(t, "company.", textFromResponse(resp))
}

func TestTextFromResponse_Empty(t *testing.T) {
	assert.Equal(t, "", textFromResponse(nil))
	assert.Equal(t, "", textFromResponse(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", textFromResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestStreamError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &StreamError{Model: "gemini-2.5-flash", Message: "stream failed", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "model gemini-2.5-flash: stream failed: connection reset", err.Error())
}
