package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/extract"
	"github.com/jonathan/talent-pipeline/internal/storage"
)

// sectionSeparator joins the sections of an aggregated context block.
const sectionSeparator = "\n\n---\n\n"

// Store is the candidate-data surface the builder reads from. *db.DB
// satisfies it.
type Store interface {
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	ListArtifactsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]db.Artifact, error)
	ListArtifactsByIDs(ctx context.Context, ids []uuid.UUID) ([]db.Artifact, error)
	ListInterviewNotes(ctx context.Context, candidateID uuid.UUID) ([]db.InterviewNote, error)
}

// Builder assembles context text blocks. Both build modes are read-only.
type Builder struct {
	store     Store
	fetcher   storage.Fetcher
	extractor *extract.Extractor
}

// New creates a Builder.
func New(store Store, fetcher storage.Fetcher, extractor *extract.Extractor) *Builder {
	return &Builder{store: store, fetcher: fetcher, extractor: extractor}
}

// joinSections joins non-empty sections with the fixed separator.
func joinSections(sections []string) string {
	nonEmpty := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, sectionSeparator)
}

// formatJSON pretty-prints a stored JSONB value. Returns "" for empty or
// null values so the section is skipped.
func formatJSON(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return trimmed
	}
	return buf.String()
}

// inlineTextContent fetches and decodes a text-like artifact's content,
// degrading to a placeholder on fetch failure.
func (b *Builder) inlineTextContent(ctx context.Context, a *db.Artifact) string {
	data, err := b.fetcher.Fetch(ctx, a.BlobURL)
	if err != nil {
		return "[failed to load " + a.FileName + "]"
	}
	return extract.DecodeText(data, a.MediaType)
}
