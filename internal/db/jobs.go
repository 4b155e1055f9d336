package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobColumns = `id, artifact_id, candidate_id, stage, kind, status, progress, config,
	        output, result_artifact_id, error_message, created_at, started_at, completed_at`

func scanJob(row pgx.Row) (*ProcessingJob, error) {
	var j ProcessingJob
	var configJSON []byte
	err := row.Scan(&j.ID, &j.ArtifactID, &j.CandidateID, &j.Stage, &j.Kind, &j.Status,
		&j.Progress, &configJSON, &j.Output, &j.ResultArtifactID, &j.ErrorMessage,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	if configJSON != nil {
		_ = json.Unmarshal(configJSON, &j.Config)
	}
	return &j, nil
}

// CreateJob inserts a new pending job for an artifact. The insert is guarded
// by a WHERE NOT EXISTS over the blocking statuses so two concurrent triggers
// cannot both create a job; the losing insert returns ErrJobInFlight.
// blockedStatuses normally holds only JobStatusProcessing; include
// JobStatusPending to also reject queued duplicates.
func (db *DB) CreateJob(ctx context.Context, input *JobCreateInput, blockedStatuses []JobStatus) (*ProcessingJob, error) {
	configJSON, err := json.Marshal(input.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job config: %w", err)
	}

	blocked := make([]string, len(blockedStatuses))
	for i, s := range blockedStatuses {
		blocked[i] = string(s)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO processing_jobs (artifact_id, candidate_id, stage, kind, status, progress, config)
		 SELECT $1, $2, $3, $4, 'pending', 0, $5
		 WHERE NOT EXISTS (
		     SELECT 1 FROM processing_jobs
		     WHERE artifact_id = $1 AND kind = $4 AND status = ANY($6)
		 )
		 RETURNING `+jobColumns,
		input.ArtifactID, input.CandidateID, input.Stage, input.Kind, configJSON, blocked,
	)
	j, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrJobInFlight{ArtifactID: input.ArtifactID, Kind: input.Kind}
		}
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return j, nil
}

// GetJob retrieves a processing job by its ID
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*ProcessingJob, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// ListJobsByCandidate retrieves all jobs for a candidate, newest first
func (db *DB) ListJobsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]ProcessingJob, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs
		 WHERE candidate_id = $1 ORDER BY created_at DESC`,
		candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ProcessingJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, nil
}

// MarkJobProcessing transitions a pending job to processing and stamps
// started_at. The status predicate keeps the transition one-way.
func (db *DB) MarkJobProcessing(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = 'processing', started_at = NOW()
		 WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not pending", id)
	}
	return nil
}

// MarkJobCompleted finalizes a job as completed with its output payload and
// optional result-artifact back-reference.
func (db *DB) MarkJobCompleted(ctx context.Context, id uuid.UUID, output any, resultArtifactID *uuid.UUID) error {
	outputJSON, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal job output: %w", err)
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE processing_jobs
		 SET status = 'completed', progress = 100, output = $1, result_artifact_id = $2,
		     completed_at = NOW()
		 WHERE id = $3 AND status = 'processing'`,
		outputJSON, resultArtifactID, id)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not processing", id)
	}
	return nil
}

// MarkJobFailed finalizes a job as failed, recording the error message.
// No partial output is retained.
func (db *DB) MarkJobFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE processing_jobs
		 SET status = 'failed', error_message = $1, output = NULL, completed_at = NOW()
		 WHERE id = $2 AND status = 'processing'`,
		errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s is not processing", id)
	}
	return nil
}
