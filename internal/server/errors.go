// Package server provides the HTTP REST API for the artifact-processing
// pipeline.
package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/extract"
	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/prompts"
)

// ErrNotFound indicates a referenced record does not exist
type ErrNotFound struct {
	Kind string
	ID   uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return e.Kind + " not found: " + e.ID.String()
}

// ErrNoRuleMatches indicates no processing rule applies to an artifact
type ErrNoRuleMatches struct {
	ArtifactID uuid.UUID
}

func (e *ErrNoRuleMatches) Error() string {
	return "no processing rule matches artifact " + e.ArtifactID.String()
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrNotFound
		noRule     *ErrNoRuleMatches
		inFlight   *db.ErrJobInFlight
		emptyStage *prompts.EmptyStageError
		tooLarge   *extract.FileTooLargeError
		limit      *llm.LimitError
		validation validator.ValidationErrors
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &inFlight):
		return http.StatusConflict
	case errors.As(err, &noRule), errors.As(err, &emptyStage),
		errors.As(err, &tooLarge), errors.As(err, &limit),
		errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
