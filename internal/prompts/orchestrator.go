// Package prompts executes named instruction templates against aggregated
// candidate material and persists the result as a new artifact.
package prompts

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/aggregate"
	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/extract"
	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/storage"
)

// summaryInstruction is the built-in prompt for stage summaries.
var summaryInstruction = MustGet("execution.json", "stage-summary")

// Store is the persistence surface the orchestrator needs. *db.DB satisfies it.
type Store interface {
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	GetPromptTemplate(ctx context.Context, id uuid.UUID) (*db.PromptTemplate, error)
	ListTemplateFiles(ctx context.Context, templateID uuid.UUID) ([]db.TemplateFile, error)
	ListArtifactsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]db.Artifact, error)
	GetStageConfig(ctx context.Context, stage string) (*db.StageConfig, error)
	CreateArtifact(ctx context.Context, input *db.ArtifactCreateInput) (*db.Artifact, error)
}

// Result is a finished prompt execution: the persisted artifact and the raw
// response text.
type Result struct {
	Artifact *db.Artifact
	Text     string
}

// Orchestrator assembles and runs one inference call per prompt execution.
type Orchestrator struct {
	store     Store
	builder   *aggregate.Builder
	extractor *extract.Extractor
	objects   storage.ObjectStore
	client    llm.Client
}

// New creates an Orchestrator.
func New(store Store, builder *aggregate.Builder, extractor *extract.Extractor, objects storage.ObjectStore, client llm.Client) *Orchestrator {
	return &Orchestrator{store: store, builder: builder, extractor: extractor, objects: objects, client: client}
}

// Execute runs the named template for a candidate over an explicit artifact
// selection. The assembled prompt is, in order: the template body, the
// template's reference material, and the selected candidate material.
func (o *Orchestrator) Execute(ctx context.Context, candidateID uuid.UUID, stage string, templateID uuid.UUID, artifactIDs []uuid.UUID) (*Result, error) {
	candidate, err := o.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, fmt.Errorf("candidate not found: %s", candidateID)
	}

	template, err := o.store.GetPromptTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("prompt template not found: %s", templateID)
	}

	var sb strings.Builder
	sb.WriteString(template.Body)

	files, err := o.store.ListTemplateFiles(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		sb.WriteString("\n\n# Reference Material\n")
		for _, f := range files {
			content, err := o.extractor.Extract(ctx, f.BlobURL, f.MediaType, f.FileName)
			if err != nil {
				return nil, err
			}
			sb.WriteString(fmt.Sprintf("\n## %s\n\n%s\n", f.FileName, content))
		}
	}

	material, err := o.builder.BuildSelection(ctx, candidateID, artifactIDs)
	if err != nil {
		return nil, err
	}
	sb.WriteString("\n\n# Candidate Material\n\n")
	sb.WriteString(material)

	req := &llm.Request{
		Parts: []llm.Part{llm.TextPart(sb.String())},
		Tier:  llm.TierAdvanced,
	}
	// A stage-level system instruction applies when the template's stage
	// has one configured.
	stageConfig, err := o.store.GetStageConfig(ctx, template.Stage)
	if err != nil {
		return nil, err
	}
	if stageConfig != nil && stageConfig.SystemInstruction != nil {
		req.SystemInstruction = *stageConfig.SystemInstruction
	}

	text, err := o.client.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	artifact, err := o.persistResult(ctx, candidate, stage, template.Name, &template.ID, text)
	if err != nil {
		return nil, err
	}
	return &Result{Artifact: artifact, Text: text}, nil
}

// ExecuteSummary generates a stage summary over every artifact the candidate
// has accumulated in that stage. It is an error to summarize an empty stage.
func (o *Orchestrator) ExecuteSummary(ctx context.Context, candidateID uuid.UUID, stage string) (*Result, error) {
	candidate, err := o.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, fmt.Errorf("candidate not found: %s", candidateID)
	}

	artifacts, err := o.store.ListArtifactsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for i := range artifacts {
		if artifacts[i].StageLabel() == stage {
			ids = append(ids, artifacts[i].ID)
		}
	}
	if len(ids) == 0 {
		return nil, &EmptyStageError{Stage: stage}
	}

	material, err := o.builder.BuildSelection(ctx, candidateID, ids)
	if err != nil {
		return nil, err
	}

	text, err := o.client.Generate(ctx, &llm.Request{
		Parts: []llm.Part{llm.TextPart(summaryInstruction + "\n\n# Candidate Material\n\n" + material)},
		Tier:  llm.TierStandard,
	})
	if err != nil {
		return nil, err
	}

	artifact, err := o.persistResult(ctx, candidate, stage, fmt.Sprintf("%s summary", stage), nil, text)
	if err != nil {
		return nil, err
	}
	return &Result{Artifact: artifact, Text: text}, nil
}

// EmptyStageError indicates a summary was requested for a stage with no
// artifacts.
type EmptyStageError struct {
	Stage string
}

func (e *EmptyStageError) Error() string {
	return fmt.Sprintf("stage %q has no artifacts to summarize", e.Stage)
}

// persistResult uploads the response text and inserts the result artifact,
// tagged with the source template for staleness detection.
func (o *Orchestrator) persistResult(ctx context.Context, candidate *db.Candidate, stage, name string, templateID *uuid.UUID, text string) (*db.Artifact, error) {
	fileName := fmt.Sprintf("%s-%d.md", slugify(name), time.Now().Unix())
	blobPath := path.Join(candidate.ID.String(), stage, fileName)

	blobURL, err := o.objects.Put(ctx, blobPath, []byte(text), db.MediaTypeMarkdown)
	if err != nil {
		return nil, fmt.Errorf("failed to upload prompt result: %w", err)
	}

	var templateName *string
	if templateID != nil {
		templateName = &name
	}
	return o.store.CreateArtifact(ctx, &db.ArtifactCreateInput{
		CandidateID:        candidate.ID,
		Stage:              &stage,
		FileName:           fileName,
		Type:               db.ArtifactTypeAIAnalysis,
		MediaType:          db.MediaTypeMarkdown,
		SizeBytes:          int64(len(text)),
		BlobURL:            blobURL,
		Description:        fmt.Sprintf("AI Analysis: %s", name),
		SourceStage:        &stage,
		SourceTemplateID:   templateID,
		SourceTemplateName: templateName,
	})
}

// slugify lowercases a name and replaces separators for use in a file name.
func slugify(name string) string {
	out := strings.ToLower(strings.TrimSpace(name))
	out = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, out)
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}
