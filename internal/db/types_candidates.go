package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Candidate represents a person moving through the recruiting pipeline.
// Profile and Preferences are stored as JSONB and kept opaque here; the
// aggregator serializes them back out as formatted JSON.
type Candidate struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	CurrentStage  string          `json:"current_stage"`
	ResumeRawText string          `json:"resume_raw_text,omitempty"`
	Profile       json.RawMessage `json:"profile,omitempty"`
	Preferences   json.RawMessage `json:"preferences,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InterviewNote is free-text feedback recorded after an interview.
type InterviewNote struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Stage       string    `json:"stage"`
	Interviewer string    `json:"interviewer"`
	Rating      *int      `json:"rating,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
