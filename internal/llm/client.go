package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ChunkHandler receives each streamed text fragment as it arrives.
// Returning an error stops the stream.
type ChunkHandler func(chunk string) error

// ChatClient sends messages within an explicit conversation.
type ChatClient interface {
	// StreamMessage sends text as the next user turn of session, streams the
	// reply through onChunk and returns the concatenated reply. On success the
	// user text and the reply are appended to session.
	StreamMessage(ctx context.Context, session *Session, text string, onChunk ChunkHandler) (string, error)
	// Close releases any resources held by the client
	Close() error
}

// StreamError represents a failed or malformed model stream
type StreamError struct {
	Model   string
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model %s: %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("model %s: %s", e.Model, e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// NewClient creates a chat client for the configured provider
func NewClient(ctx context.Context, config *Config, apiKey string, verbose bool) (ChatClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey, verbose)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements ChatClient for Google Gemini
type GeminiClient struct {
	client  *genai.Client
	config  *Config
	verbose bool
}

// NewGeminiClient creates a new Gemini client. Extra options, such as a
// custom endpoint, are passed through to the underlying genai client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string, verbose bool, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		config:  config,
		verbose: verbose,
	}, nil
}

// StreamMessage replays the session history into a fresh Gemini chat and streams the reply.
func (c *GeminiClient) StreamMessage(ctx context.Context, session *Session, text string, onChunk ChunkHandler) (string, error) {
	modelName := c.config.ChatModel()
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", c.config.Tier)
	}

	model := c.client.GenerativeModel(modelName)
	if c.config.Temperature != nil {
		model.SetTemperature(*c.config.Temperature)
	}

	chat := model.StartChat()
	chat.History = toContents(session.History)

	if c.verbose {
		log.Printf("[LLM] Sending %d chars to %s with %d history messages", len(text), modelName, len(chat.History))
	}

	iter := chat.SendMessageStream(ctx, genai.Text(text))

	var sb strings.Builder
	chunks := 0
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", &StreamError{Model: modelName, Message: "stream failed", Cause: err}
		}

		chunk := textFromResponse(resp)
		if chunk == "" {
			continue
		}
		chunks++
		sb.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return "", &StreamError{Model: modelName, Message: "chunk handler failed", Cause: err}
			}
		}
	}

	if chunks == 0 {
		return "", &StreamError{Model: modelName, Message: "no text in response"}
	}

	reply := sb.String()
	session.Append(RoleUser, text)
	session.Append(RoleModel, reply)

	if c.verbose {
		log.Printf("[LLM] Received %d chunks (%d chars) from %s", chunks, len(reply), modelName)
	}

	return reply, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// toContents converts session history into Gemini chat contents.
func toContents(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		contents = append(contents, &genai.Content{
			Role:  string(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return contents
}

// textFromResponse joins the text parts of the first candidate of a streamed chunk.
func textFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
