package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const artifactColumns = `id, candidate_id, stage, file_name, type, media_type, size_bytes,
	        blob_url, description, source_stage, source_template_id, source_template_name,
	        created_at`

func scanArtifact(row pgx.Row) (*Artifact, error) {
	var a Artifact
	err := row.Scan(&a.ID, &a.CandidateID, &a.Stage, &a.FileName, &a.Type, &a.MediaType,
		&a.SizeBytes, &a.BlobURL, &a.Description, &a.SourceStage, &a.SourceTemplateID,
		&a.SourceTemplateName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateArtifact inserts a new artifact record and returns it
func (db *DB) CreateArtifact(ctx context.Context, input *ArtifactCreateInput) (*Artifact, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO artifacts (candidate_id, stage, file_name, type, media_type, size_bytes,
		                        blob_url, description, source_stage, source_template_id, source_template_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+artifactColumns,
		input.CandidateID, input.Stage, input.FileName, input.Type, input.MediaType,
		input.SizeBytes, input.BlobURL, input.Description, input.SourceStage,
		input.SourceTemplateID, input.SourceTemplateName,
	)
	a, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}
	return a, nil
}

// GetArtifactByID retrieves an artifact by its ID
func (db *DB) GetArtifactByID(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id)
	a, err := scanArtifact(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return a, nil
}

// ListArtifactsByCandidate retrieves all artifacts for a candidate,
// oldest first
func (db *DB) ListArtifactsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]Artifact, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
		 WHERE candidate_id = $1 ORDER BY created_at ASC`,
		candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, nil
}

// ListArtifactsByIDs retrieves the artifacts named by ids, preserving the
// order of the id list. Unknown ids are skipped.
func (db *DB) ListArtifactsByIDs(ctx context.Context, ids []uuid.UUID) ([]Artifact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*Artifact, len(ids))
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		byID[a.ID] = a
	}

	artifacts := make([]Artifact, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			artifacts = append(artifacts, *a)
		}
	}
	return artifacts, nil
}

// DeleteArtifact removes an artifact record
func (db *DB) DeleteArtifact(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM artifacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("artifact not found: %s", id)
	}
	return nil
}

// RelinkArtifactStage changes the stage label of an artifact
func (db *DB) RelinkArtifactStage(ctx context.Context, id uuid.UUID, stage *string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE artifacts SET stage = $1 WHERE id = $2`, stage, id)
	if err != nil {
		return fmt.Errorf("failed to relink artifact stage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("artifact not found: %s", id)
	}
	return nil
}

// RelinkArtifactTemplate updates the template back-references of an artifact.
// Passing nils clears the references, detaching the artifact from a deleted
// template.
func (db *DB) RelinkArtifactTemplate(ctx context.Context, id uuid.UUID, templateID *uuid.UUID, templateName *string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE artifacts SET source_template_id = $1, source_template_name = $2 WHERE id = $3`,
		templateID, templateName, id)
	if err != nil {
		return fmt.Errorf("failed to relink artifact template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("artifact not found: %s", id)
	}
	return nil
}
