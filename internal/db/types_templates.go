package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/rules"
)

// PromptTemplate is a named instruction template used by prompt execution.
type PromptTemplate struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Stage     string    `json:"stage"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TemplateFile is template-scoped reference material appended to every
// execution of its template.
type TemplateFile struct {
	ID         uuid.UUID `json:"id"`
	TemplateID uuid.UUID `json:"template_id"`
	FileName   string    `json:"file_name"`
	MediaType  string    `json:"media_type"`
	BlobURL    string    `json:"blob_url"`
}

// StageConfig carries a stage's processing rules and its optional
// system instruction for prompt execution.
type StageConfig struct {
	Stage             string       `json:"stage"`
	Rules             []rules.Rule `json:"rules"`
	SystemInstruction *string      `json:"system_instruction,omitempty"`
}
