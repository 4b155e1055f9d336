package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/rules"
)

// JobKind names the automated action a processing job performs.
type JobKind string

// JobKind constants define the closed set of job kinds.
const (
	JobKindTranscribe JobKind = "transcribe"
	JobKindAnalyze    JobKind = "analyze"
)

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

// JobStatus constants. A job starts pending, moves to processing on pickup,
// and ends in exactly one of completed or failed.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobConfig is the config snapshot captured at job creation. Rule edits after
// creation never affect in-flight jobs.
type JobConfig struct {
	PromptTemplate string           `json:"prompt_template,omitempty"`
	OutputKind     rules.OutputKind `json:"output_kind,omitempty"`
}

// ProcessingJob is one tracked unit of automated work on one artifact.
type ProcessingJob struct {
	ID               uuid.UUID       `json:"id"`
	ArtifactID       uuid.UUID       `json:"artifact_id"`
	CandidateID      uuid.UUID       `json:"candidate_id"`
	Stage            *string         `json:"stage,omitempty"`
	Kind             JobKind         `json:"kind"`
	Status           JobStatus       `json:"status"`
	Progress         int             `json:"progress"`
	Config           JobConfig       `json:"config"`
	Output           json.RawMessage `json:"output,omitempty"`
	ResultArtifactID *uuid.UUID      `json:"result_artifact_id,omitempty"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

// JobCreateInput holds the fields for inserting a new processing job.
type JobCreateInput struct {
	ArtifactID  uuid.UUID
	CandidateID uuid.UUID
	Stage       *string
	Kind        JobKind
	Config      JobConfig
}

// ErrJobInFlight is returned by CreateJob when another job on the same
// artifact and kind blocks creation.
type ErrJobInFlight struct {
	ArtifactID uuid.UUID
	Kind       JobKind
}

func (e *ErrJobInFlight) Error() string {
	return fmt.Sprintf("a %s job is already in flight for artifact %s", e.Kind, e.ArtifactID)
}
