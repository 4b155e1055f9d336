package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/aggregate"
)

// ---------------------------------------------------------------------
// Prompt Execution Handlers
// ---------------------------------------------------------------------

type ExecutePromptRequest struct {
	TemplateID  string   `json:"template_id" validate:"required,uuid"`
	Stage       string   `json:"stage" validate:"required"`
	ArtifactIDs []string `json:"artifact_ids"`
}

func (s *Server) handleExecutePrompt(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	var req ExecutePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	templateID, _ := uuid.Parse(req.TemplateID)
	artifactIDs := make([]uuid.UUID, 0, len(req.ArtifactIDs))
	for _, raw := range req.ArtifactIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid artifact ID: "+raw)
			return
		}
		artifactIDs = append(artifactIDs, id)
	}

	candidate, err := s.db.GetCandidate(r.Context(), candidateID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	template, err := s.db.GetPromptTemplate(r.Context(), templateID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if template == nil {
		s.errorResponse(w, http.StatusNotFound, "Prompt template not found")
		return
	}

	result, err := s.orchestrator.Execute(r.Context(), candidateID, req.Stage, templateID, artifactIDs)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"artifact": result.Artifact,
		"text":     result.Text,
	})
}

// handleCandidateContext previews the named-source context block that would
// be fed to an inference call. sources is a comma-separated list; the default
// includes everything.
func (s *Server) handleCandidateContext(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	candidate, err := s.db.GetCandidate(r.Context(), candidateID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	stage := r.URL.Query().Get("stage")
	if stage == "" {
		stage = candidate.CurrentStage
	}

	sources := defaultContextSources
	if raw := r.URL.Query().Get("sources"); raw != "" {
		sources = nil
		for _, name := range strings.Split(raw, ",") {
			source, err := aggregate.ParseSource(strings.TrimSpace(name))
			if err != nil {
				s.errorResponse(w, http.StatusBadRequest, err.Error())
				return
			}
			sources = append(sources, source)
		}
	}

	text, err := s.builder.BuildNamed(r.Context(), candidateID, stage, sources)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"stage":   stage,
		"sources": sources,
		"context": text,
	})
}

var defaultContextSources = []aggregate.ContextSource{
	aggregate.SourceResume,
	aggregate.SourceProfile,
	aggregate.SourcePreferences,
	aggregate.SourceCurrentStage,
	aggregate.SourcePriorStages,
	aggregate.SourcePriorReports,
	aggregate.SourceInterviewNotes,
}

func (s *Server) handleStageSummary(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}
	stage := r.PathValue("stage")
	if stage == "" {
		s.errorResponse(w, http.StatusBadRequest, "Stage is required")
		return
	}

	candidate, err := s.db.GetCandidate(r.Context(), candidateID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	result, err := s.orchestrator.ExecuteSummary(r.Context(), candidateID, stage)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"artifact": result.Artifact,
		"text":     result.Text,
	})
}
