package db

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Artifact type constants for the declared (free-form) artifact type.
// Callers may store other values; these are the ones the pipeline acts on.
const (
	ArtifactTypeResume     = "resume"
	ArtifactTypeRecording  = "recording"
	ArtifactTypeNote       = "note"
	ArtifactTypeAIAnalysis = "ai_analysis"
)

// MediaTypeMarkdown is the media type assigned to generated report artifacts.
const MediaTypeMarkdown = "text/markdown"

// aiReportMarker is matched against descriptions and file names to recognize
// AI output on rows created before the explicit ai_analysis type existed.
const aiReportMarker = "AI Analysis"

// Artifact represents a stored file or authored text note tied to a candidate.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Stage       *string   `json:"stage,omitempty"` // nil means unclassified
	FileName    string    `json:"file_name"`
	Type        string    `json:"type"`
	MediaType   string    `json:"media_type"`
	SizeBytes   int64     `json:"size_bytes"`
	BlobURL     string    `json:"blob_url"`
	Description string    `json:"description,omitempty"`

	// Back-references to the template entry that produced this artifact,
	// kept for staleness detection when templates are edited or deleted.
	SourceStage        *string    `json:"source_stage,omitempty"`
	SourceTemplateID   *uuid.UUID `json:"source_template_id,omitempty"`
	SourceTemplateName *string    `json:"source_template_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsAIReport reports whether this artifact was produced by the AI pipeline.
// The explicit type tag is authoritative; the marker and media-type checks
// cover legacy rows that predate the tag.
func (a *Artifact) IsAIReport() bool {
	if a.Type == ArtifactTypeAIAnalysis {
		return true
	}
	if strings.Contains(a.Description, aiReportMarker) {
		return true
	}
	if strings.Contains(a.FileName, aiReportMarker) {
		return true
	}
	return a.MediaType == MediaTypeMarkdown && a.SourceTemplateID != nil
}

// StageLabel returns the artifact's stage, or "unclassified" when unset.
func (a *Artifact) StageLabel() string {
	if a.Stage == nil || *a.Stage == "" {
		return "unclassified"
	}
	return *a.Stage
}

// ArtifactCreateInput holds the fields for inserting a new artifact.
type ArtifactCreateInput struct {
	CandidateID        uuid.UUID
	Stage              *string
	FileName           string
	Type               string
	MediaType          string
	SizeBytes          int64
	BlobURL            string
	Description        string
	SourceStage        *string
	SourceTemplateID   *uuid.UUID
	SourceTemplateName *string
}
