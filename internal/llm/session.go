package llm

// Role tags a chat message with its author.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single turn of a chat conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is the caller-owned history of one conversation. It starts empty
// and grows by one user and one model message per successful exchange.
// A Session is not safe for concurrent use.
type Session struct {
	History []Message `json:"history"`
}

// NewSession creates an empty conversation.
func NewSession() *Session {
	return &Session{History: []Message{}}
}

// Append adds a message to the end of the history.
func (s *Session) Append(role Role, text string) {
	s.History = append(s.History, Message{Role: role, Text: text})
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	return len(s.History)
}
