// Package transcript keeps the ordered log of user requests and bot replies and exports the replies.
package transcript

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser Role = "User"
	RoleBot  Role = "Bot"
)

// Download metadata for the exported file.
const (
	DownloadFilename    = "comp_text.txt"
	DownloadContentType = "text/plain"
	DownloadLabel       = "Download Company Descriptions"
)

// Entry is a single role-tagged line of the transcript.
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// String renders the entry the way it is shown in the chat history.
func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.Role, e.Text)
}

// Transcript is an append-only, ordered list of entries.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append adds an entry at the end of the transcript.
func (t *Transcript) Append(role Role, text string) Entry {
	entry := Entry{Role: role, Text: text}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
	return entry
}

// Entries returns a copy of all entries in arrival order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// BotText joins the text of all Bot entries with newlines. User entries are excluded.
func (t *Transcript) BotText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	replies := make([]string, 0, len(t.entries)/2+1)
	for _, e := range t.entries {
		if e.Role == RoleBot {
			replies = append(replies, e.Text)
		}
	}
	return strings.Join(replies, "\n")
}

// Export writes BotText to path, replacing any previous export, and returns the bytes written.
func (t *Transcript) Export(path string) ([]byte, error) {
	content := []byte(t.BotText())
	if err := os.WriteFile(path, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export %s: %w", path, err)
	}
	return content, nil
}
