package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/rules"
)

// ---------------------------------------------------------------------
// Artifact Handlers
// ---------------------------------------------------------------------

type UploadArtifactRequest struct {
	FileName    string  `json:"file_name" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	MediaType   string  `json:"media_type"`
	Stage       *string `json:"stage"`
	Description string  `json:"description"`

	// Exactly one of ContentBase64 (binary uploads) or TextContent
	// (authored notes) must be set.
	ContentBase64 string `json:"content_base64"`
	TextContent   string `json:"text_content"`
}

func (s *Server) handleUploadArtifact(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	var req UploadArtifactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if req.ContentBase64 == "" && req.TextContent == "" {
		s.errorResponse(w, http.StatusBadRequest, "content_base64 or text_content is required")
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

	data := []byte(req.TextContent)
	if req.ContentBase64 != "" {
		data, err = base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "content_base64 is not valid base64")
			return
		}
	}

	stage := candidate.CurrentStage
	if req.Stage != nil && *req.Stage != "" {
		stage = *req.Stage
	}

	blobPath := path.Join(candidateID.String(), stage, req.FileName)
	blobURL, err := s.objects.Put(r.Context(), blobPath, data, req.MediaType)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Storage error: "+err.Error())
		return
	}

	artifact, err := s.db.CreateArtifact(r.Context(), &db.ArtifactCreateInput{
		CandidateID: candidateID,
		Stage:       &stage,
		FileName:    req.FileName,
		Type:        req.Type,
		MediaType:   req.MediaType,
		SizeBytes:   int64(len(data)),
		BlobURL:     blobURL,
		Description: req.Description,
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	// Rule-driven auto-trigger. A stage without config simply creates no jobs.
	jobIDs, err := s.triggerJobs(r.Context(), artifact)
	if err != nil {
		// The artifact exists; report it with the trigger failure noted.
		log.Printf("[artifacts] auto-trigger failed for %s: %v", artifact.ID, err)
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"artifact": artifact,
		"job_ids":  jobIDs,
	})
}

func (s *Server) handleProcessArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid artifact ID")
		return
	}

	artifact, err := s.db.GetArtifactByID(r.Context(), artifactID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if artifact == nil {
		s.errorResponse(w, http.StatusNotFound, "Artifact not found")
		return
	}

	jobIDs, err := s.triggerJobs(r.Context(), artifact)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if len(jobIDs) == 0 {
		err := &ErrNoRuleMatches{ArtifactID: artifactID}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]any{"job_ids": jobIDs})
}

// triggerJobs matches the artifact against its stage's rules and creates and
// enqueues the jobs the matched rule asks for. A nil rule creates nothing.
func (s *Server) triggerJobs(ctx context.Context, artifact *db.Artifact) ([]uuid.UUID, error) {
	stageConfig, err := s.db.GetStageConfig(ctx, artifact.StageLabel())
	if err != nil {
		return nil, err
	}
	if stageConfig == nil {
		return nil, nil
	}

	rule := rules.Match(stageConfig.Rules, artifact.MediaType, artifact.Type)
	if rule == nil {
		return nil, nil
	}

	var kinds []db.JobKind
	if rule.AutoTranscribe {
		kinds = append(kinds, db.JobKindTranscribe)
	}
	if rule.AutoAnalyze {
		kinds = append(kinds, db.JobKindAnalyze)
	}

	var jobIDs []uuid.UUID
	for _, kind := range kinds {
		job, err := s.db.CreateJob(ctx, &db.JobCreateInput{
			ArtifactID:  artifact.ID,
			CandidateID: artifact.CandidateID,
			Stage:       artifact.Stage,
			Kind:        kind,
			Config: db.JobConfig{
				PromptTemplate: rule.AnalysisPrompt,
				OutputKind:     rule.OutputKind,
			},
		}, s.blockedStatuses)
		if err != nil {
			return jobIDs, err
		}
		if err := s.queue.Enqueue(job.ID); err != nil {
			return jobIDs, err
		}
		jobIDs = append(jobIDs, job.ID)
	}
	return jobIDs, nil
}

func (s *Server) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid artifact ID")
		return
	}

	artifact, err := s.db.GetArtifactByID(r.Context(), artifactID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if artifact == nil {
		s.errorResponse(w, http.StatusNotFound, "Artifact not found")
		return
	}

	// Blob deletion is best-effort; a missing blob never strands the record.
	if err := s.objects.Delete(r.Context(), artifact.BlobURL); err != nil {
		log.Printf("[artifacts] failed to delete blob %s: %v", artifact.BlobURL, err)
	}

	if err := s.db.DeleteArtifact(r.Context(), artifactID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type RelinkArtifactRequest struct {
	Stage         *string `json:"stage"`
	TemplateID    *string `json:"template_id"`
	TemplateName  *string `json:"template_name"`
	ClearTemplate bool    `json:"clear_template"`
}

func (s *Server) handleRelinkArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid artifact ID")
		return
	}

	var req RelinkArtifactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Stage == nil && req.TemplateID == nil && !req.ClearTemplate {
		s.errorResponse(w, http.StatusBadRequest, "stage, template_id, or clear_template is required")
		return
	}

	artifact, err := s.db.GetArtifactByID(r.Context(), artifactID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if artifact == nil {
		s.errorResponse(w, http.StatusNotFound, "Artifact not found")
		return
	}

	if req.Stage != nil {
		if err := s.db.RelinkArtifactStage(r.Context(), artifactID, req.Stage); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
	}

	switch {
	case req.ClearTemplate:
		if err := s.db.RelinkArtifactTemplate(r.Context(), artifactID, nil, nil); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
	case req.TemplateID != nil:
		templateID, err := uuid.Parse(*req.TemplateID)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid template_id")
			return
		}
		if err := s.db.RelinkArtifactTemplate(r.Context(), artifactID, &templateID, req.TemplateName); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
	}

	updated, err := s.db.GetArtifactByID(r.Context(), artifactID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}
