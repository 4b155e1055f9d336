// Package jobs drives processing jobs from pending to a terminal state and
// provides the in-process queue they are picked up from.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/extract"
	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/prompts"
	"github.com/jonathan/talent-pipeline/internal/rules"
	"github.com/jonathan/talent-pipeline/internal/storage"
)

// DefaultJobTimeout bounds a single job's execution, including the
// extraction and inference calls.
const DefaultJobTimeout = 5 * time.Minute

// Store is the persistence surface the executor needs. *db.DB satisfies it.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*db.ProcessingJob, error)
	GetArtifactByID(ctx context.Context, id uuid.UUID) (*db.Artifact, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	CreateArtifact(ctx context.Context, input *db.ArtifactCreateInput) (*db.Artifact, error)
	MarkJobProcessing(ctx context.Context, id uuid.UUID) error
	MarkJobCompleted(ctx context.Context, id uuid.UUID, output any, resultArtifactID *uuid.UUID) error
	MarkJobFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// Executor runs one job to completion or failure.
type Executor struct {
	store   Store
	objects storage.ObjectStore
	fetcher storage.Fetcher
	client  llm.Client
	timeout time.Duration
}

// NewExecutor creates an Executor. timeout 0 means DefaultJobTimeout.
func NewExecutor(store Store, objects storage.ObjectStore, fetcher storage.Fetcher, client llm.Client, timeout time.Duration) *Executor {
	if timeout == 0 {
		timeout = DefaultJobTimeout
	}
	return &Executor{store: store, objects: objects, fetcher: fetcher, client: client, timeout: timeout}
}

// Run drives the job with the given id to a terminal state. Re-invoking a
// still-pending job is safe; anything else is rejected before any transition.
// Execution errors are recorded on the job row and also returned.
func (e *Executor) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if job.Status != db.JobStatusPending {
		return fmt.Errorf("job %s is %s, not pending", jobID, job.Status)
	}

	if err := e.store.MarkJobProcessing(ctx, jobID); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	output, resultArtifactID, err := e.execute(runCtx, job)
	if err != nil {
		msg := err.Error()
		if IsTooLarge(err) {
			msg = "input exceeds model limits: " + msg
		}
		// The failure marker is written with the parent context so a job
		// that timed out still reaches its terminal state.
		if markErr := e.store.MarkJobFailed(ctx, jobID, msg); markErr != nil {
			return fmt.Errorf("failed to record job failure (%v): %w", err, markErr)
		}
		return err
	}

	return e.store.MarkJobCompleted(ctx, jobID, output, resultArtifactID)
}

// execute performs the job's work and returns its output payload and the
// optional result artifact.
func (e *Executor) execute(ctx context.Context, job *db.ProcessingJob) (any, *uuid.UUID, error) {
	artifact, err := e.store.GetArtifactByID(ctx, job.ArtifactID)
	if err != nil {
		return nil, nil, err
	}
	if artifact == nil {
		return nil, nil, fmt.Errorf("artifact not found: %s", job.ArtifactID)
	}

	candidate, err := e.store.GetCandidate(ctx, job.CandidateID)
	if err != nil {
		return nil, nil, err
	}
	if candidate == nil {
		return nil, nil, fmt.Errorf("candidate not found: %s", job.CandidateID)
	}

	switch job.Kind {
	case db.JobKindTranscribe:
		return e.executeTranscribe(artifact)
	case db.JobKindAnalyze:
		return e.executeAnalyze(ctx, job, artifact, candidate)
	default:
		return nil, nil, fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// executeTranscribe is a stub: automated transcription is not wired up yet,
// so the job completes immediately with a manual-transcription marker.
// TODO: replace with a speech-to-text call once a provider is chosen.
func (e *Executor) executeTranscribe(artifact *db.Artifact) (any, *uuid.UUID, error) {
	return map[string]string{
		"status":  "manual_transcription_required",
		"message": fmt.Sprintf("automated transcription is not available; %s requires manual transcription", artifact.FileName),
	}, nil, nil
}

// executeAnalyze renders the captured prompt template, runs the inference
// call with the artifact's content, and (for report/note output kinds)
// persists the response as a new Markdown artifact.
func (e *Executor) executeAnalyze(ctx context.Context, job *db.ProcessingJob, artifact *db.Artifact, candidate *db.Candidate) (any, *uuid.UUID, error) {
	stage := ""
	if job.Stage != nil {
		stage = *job.Stage
	}
	template := job.Config.PromptTemplate
	if template == "" {
		// Rules may omit a prompt; fall back to the built-in analysis prompt.
		template = prompts.MustGet("execution.json", "default-analysis")
	}
	prompt := renderTemplate(template, map[string]string{
		"candidate_name": candidate.Name,
		"stage":          stage,
		"file_name":      artifact.FileName,
	})

	req := &llm.Request{Tier: llm.TierStandard}
	switch {
	case artifact.MediaType == "application/pdf":
		data, err := e.fetcher.Fetch(ctx, artifact.BlobURL)
		if err != nil {
			return nil, nil, err
		}
		req.Parts = []llm.Part{
			llm.DocumentPart(artifact.MediaType, data),
			llm.TextPart(prompt),
		}
	case extract.IsImage(artifact.MediaType):
		data, err := e.fetcher.Fetch(ctx, artifact.BlobURL)
		if err != nil {
			return nil, nil, err
		}
		req.Parts = []llm.Part{
			llm.ImagePart(artifact.MediaType, data),
			llm.TextPart(prompt),
		}
	case extract.IsTextLike(artifact.MediaType, artifact.FileName):
		data, err := e.fetcher.Fetch(ctx, artifact.BlobURL)
		if err != nil {
			return nil, nil, err
		}
		content := extract.DecodeText(data, artifact.MediaType)
		req.Parts = []llm.Part{llm.TextPart(substituteContent(prompt, content))}
	default:
		placeholder := fmt.Sprintf("[content of %s (%s) is not available for analysis]", artifact.FileName, artifact.MediaType)
		req.Parts = []llm.Part{llm.TextPart(substituteContent(prompt, placeholder))}
	}

	analysis, err := e.client.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	output := map[string]string{"analysis": analysis}

	if job.Config.OutputKind != rules.OutputReport && job.Config.OutputKind != rules.OutputNote {
		return output, nil, nil
	}

	// The result artifact is created only after the inference call fully
	// succeeded; a failed analyze leaves no partial writes behind.
	result, err := e.writeResultArtifact(ctx, job, artifact, candidate, analysis)
	if err != nil {
		return nil, nil, err
	}
	return output, &result.ID, nil
}

// writeResultArtifact uploads the analysis text and inserts its record.
func (e *Executor) writeResultArtifact(ctx context.Context, job *db.ProcessingJob, artifact *db.Artifact, candidate *db.Candidate, analysis string) (*db.Artifact, error) {
	base := strings.TrimSuffix(artifact.FileName, path.Ext(artifact.FileName))
	fileName := fmt.Sprintf("%s-analysis-%s.md", base, job.ID.String()[:8])

	blobPath := path.Join(candidate.ID.String(), artifact.StageLabel(), fileName)
	blobURL, err := e.objects.Put(ctx, blobPath, []byte(analysis), db.MediaTypeMarkdown)
	if err != nil {
		return nil, fmt.Errorf("failed to upload analysis for %s: %w", artifact.FileName, err)
	}

	artifactType := db.ArtifactTypeAIAnalysis
	if job.Config.OutputKind == rules.OutputNote {
		artifactType = db.ArtifactTypeNote
	}

	return e.store.CreateArtifact(ctx, &db.ArtifactCreateInput{
		CandidateID: candidate.ID,
		Stage:       job.Stage,
		FileName:    fileName,
		Type:        artifactType,
		MediaType:   db.MediaTypeMarkdown,
		SizeBytes:   int64(len(analysis)),
		BlobURL:     blobURL,
		Description: fmt.Sprintf("AI Analysis of %s", artifact.FileName),
		SourceStage: job.Stage,
	})
}

// renderTemplate substitutes {{key}} placeholders.
func renderTemplate(template string, values map[string]string) string {
	out := template
	for key, value := range values {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}

// substituteContent places content at the {{content}} placeholder, or
// appends it when the template has none.
func substituteContent(prompt, content string) string {
	if strings.Contains(prompt, "{{content}}") {
		return strings.ReplaceAll(prompt, "{{content}}", content)
	}
	return prompt + "\n\n" + content
}

// IsTooLarge reports whether err is a file-size abort from extraction or a
// provider limit condition.
func IsTooLarge(err error) bool {
	var tooLarge *extract.FileTooLargeError
	var limit *llm.LimitError
	return errors.As(err, &tooLarge) || errors.As(err, &limit)
}
