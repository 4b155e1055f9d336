package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateCandidate inserts a new candidate and returns its ID
func (db *DB) CreateCandidate(ctx context.Context, name, email, currentStage string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, current_stage)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		name, email, currentStage,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return id, nil
}

// GetCandidate retrieves a candidate by ID
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, current_stage, COALESCE(resume_raw_text, ''),
		        profile, preferences, created_at
		 FROM candidates WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.CurrentStage, &c.ResumeRawText,
		&c.Profile, &c.Preferences, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}

// ListInterviewNotes retrieves a candidate's interview notes, oldest first
func (db *DB) ListInterviewNotes(ctx context.Context, candidateID uuid.UUID) ([]InterviewNote, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, stage, interviewer, rating, content, created_at
		 FROM interview_notes WHERE candidate_id = $1 ORDER BY created_at ASC`,
		candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview notes: %w", err)
	}
	defer rows.Close()

	var notes []InterviewNote
	for rows.Next() {
		var n InterviewNote
		if err := rows.Scan(&n.ID, &n.CandidateID, &n.Stage, &n.Interviewer,
			&n.Rating, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}
