package describe

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/company-lookup/internal/ingestion"
	"github.com/jonathan/company-lookup/internal/llm"
	"github.com/jonathan/company-lookup/internal/transcript"
)

// State is everything one lookup session carries between user actions.
type State struct {
	ID         uuid.UUID
	Names      ingestion.NameList
	Chat       *llm.Session
	Transcript *transcript.Transcript
	ExportPath string
	CreatedAt  time.Time
}

// NewState creates an empty session that exports to exportPath.
func NewState(exportPath string) *State {
	return &State{
		ID:         uuid.New(),
		Names:      ingestion.NameList{},
		Chat:       llm.NewSession(),
		Transcript: transcript.New(),
		ExportPath: exportPath,
		CreatedAt:  time.Now().UTC(),
	}
}
