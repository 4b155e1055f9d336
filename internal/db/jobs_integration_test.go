//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return db
}

func createTestCandidate(t *testing.T, db *DB, ctx context.Context) uuid.UUID {
	t.Helper()

	id, err := db.CreateCandidate(ctx, "Integration Test Candidate", "it@test.example.com", "screening")
	if err != nil {
		t.Fatalf("CreateCandidate failed: %v", err)
	}
	return id
}

func cleanupTestCandidate(t *testing.T, db *DB, id uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	_, _ = db.pool.Exec(ctx, "DELETE FROM processing_jobs WHERE candidate_id = $1", id)
	_, _ = db.pool.Exec(ctx, "DELETE FROM artifacts WHERE candidate_id = $1", id)
	_, _ = db.pool.Exec(ctx, "DELETE FROM candidates WHERE id = $1", id)
}

func TestIntegration_JobLifecycle(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	candidateID := createTestCandidate(t, db, ctx)
	defer cleanupTestCandidate(t, db, candidateID)

	stage := "screening"
	artifact, err := db.CreateArtifact(ctx, &ArtifactCreateInput{
		CandidateID: candidateID,
		Stage:       &stage,
		FileName:    "call.mp3",
		Type:        ArtifactTypeRecording,
		MediaType:   "audio/mpeg",
		SizeBytes:   1024,
		BlobURL:     "http://blobs/test/call.mp3",
	})
	if err != nil {
		t.Fatalf("CreateArtifact failed: %v", err)
	}

	blocked := []JobStatus{JobStatusPending, JobStatusProcessing}
	var jobID uuid.UUID

	t.Run("create job", func(t *testing.T) {
		job, err := db.CreateJob(ctx, &JobCreateInput{
			ArtifactID:  artifact.ID,
			CandidateID: candidateID,
			Stage:       &stage,
			Kind:        JobKindTranscribe,
		}, blocked)
		if err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
		if job.Status != JobStatusPending {
			t.Errorf("Status = %q, want pending", job.Status)
		}
		if job.Progress != 0 {
			t.Errorf("Progress = %d, want 0", job.Progress)
		}
		jobID = job.ID
	})

	t.Run("duplicate is rejected while pending", func(t *testing.T) {
		_, err := db.CreateJob(ctx, &JobCreateInput{
			ArtifactID:  artifact.ID,
			CandidateID: candidateID,
			Stage:       &stage,
			Kind:        JobKindTranscribe,
		}, blocked)
		if _, ok := err.(*ErrJobInFlight); !ok {
			t.Fatalf("CreateJob error = %v, want *ErrJobInFlight", err)
		}
	})

	t.Run("other kind is not blocked", func(t *testing.T) {
		job, err := db.CreateJob(ctx, &JobCreateInput{
			ArtifactID:  artifact.ID,
			CandidateID: candidateID,
			Stage:       &stage,
			Kind:        JobKindAnalyze,
		}, blocked)
		if err != nil {
			t.Fatalf("CreateJob failed: %v", err)
		}
		if job.Kind != JobKindAnalyze {
			t.Errorf("Kind = %q, want analyze", job.Kind)
		}
	})

	t.Run("pending to processing to completed", func(t *testing.T) {
		if err := db.MarkJobProcessing(ctx, jobID); err != nil {
			t.Fatalf("MarkJobProcessing failed: %v", err)
		}
		// A second pickup of the same job must fail.
		if err := db.MarkJobProcessing(ctx, jobID); err == nil {
			t.Error("MarkJobProcessing succeeded twice")
		}

		if err := db.MarkJobCompleted(ctx, jobID, map[string]string{"status": "done"}, nil); err != nil {
			t.Fatalf("MarkJobCompleted failed: %v", err)
		}

		job, err := db.GetJob(ctx, jobID)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if job.Status != JobStatusCompleted {
			t.Errorf("Status = %q, want completed", job.Status)
		}
		if job.Progress != 100 {
			t.Errorf("Progress = %d, want 100", job.Progress)
		}
		if job.CompletedAt == nil {
			t.Error("CompletedAt not set")
		}
	})

	t.Run("terminal job rejects further transitions", func(t *testing.T) {
		if err := db.MarkJobFailed(ctx, jobID, "late failure"); err == nil {
			t.Error("MarkJobFailed succeeded on a completed job")
		}
	})

	t.Run("retrigger allowed after terminal state", func(t *testing.T) {
		job, err := db.CreateJob(ctx, &JobCreateInput{
			ArtifactID:  artifact.ID,
			CandidateID: candidateID,
			Stage:       &stage,
			Kind:        JobKindTranscribe,
		}, blocked)
		if err != nil {
			t.Fatalf("CreateJob after completion failed: %v", err)
		}
		if job.ID == jobID {
			t.Error("expected a new job row")
		}
	})

	t.Run("list jobs newest first", func(t *testing.T) {
		jobs, err := db.ListJobsByCandidate(ctx, candidateID)
		if err != nil {
			t.Fatalf("ListJobsByCandidate failed: %v", err)
		}
		if len(jobs) != 3 {
			t.Errorf("Jobs count = %d, want 3", len(jobs))
		}
	})

	t.Run("get unknown job returns nil", func(t *testing.T) {
		job, err := db.GetJob(ctx, uuid.New())
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if job != nil {
			t.Error("expected nil for unknown job")
		}
	})
}

func TestIntegration_ArtifactCRUD(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	candidateID := createTestCandidate(t, db, ctx)
	defer cleanupTestCandidate(t, db, candidateID)

	stage := "onsite"
	a, err := db.CreateArtifact(ctx, &ArtifactCreateInput{
		CandidateID: candidateID,
		Stage:       &stage,
		FileName:    "resume.pdf",
		Type:        ArtifactTypeResume,
		MediaType:   "application/pdf",
		SizeBytes:   2048,
		BlobURL:     "http://blobs/test/resume.pdf",
	})
	if err != nil {
		t.Fatalf("CreateArtifact failed: %v", err)
	}

	t.Run("get by id", func(t *testing.T) {
		got, err := db.GetArtifactByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetArtifactByID failed: %v", err)
		}
		if got == nil || got.FileName != "resume.pdf" {
			t.Errorf("GetArtifactByID = %+v", got)
		}
	})

	t.Run("relink stage", func(t *testing.T) {
		newStage := "offer"
		if err := db.RelinkArtifactStage(ctx, a.ID, &newStage); err != nil {
			t.Fatalf("RelinkArtifactStage failed: %v", err)
		}
		got, _ := db.GetArtifactByID(ctx, a.ID)
		if got.StageLabel() != "offer" {
			t.Errorf("Stage = %q, want offer", got.StageLabel())
		}
	})

	t.Run("list preserves requested order", func(t *testing.T) {
		b, err := db.CreateArtifact(ctx, &ArtifactCreateInput{
			CandidateID: candidateID,
			FileName:    "notes.md",
			Type:        ArtifactTypeNote,
			MediaType:   "text/markdown",
			BlobURL:     "http://blobs/test/notes.md",
		})
		if err != nil {
			t.Fatalf("CreateArtifact failed: %v", err)
		}

		got, err := db.ListArtifactsByIDs(ctx, []uuid.UUID{b.ID, uuid.New(), a.ID})
		if err != nil {
			t.Fatalf("ListArtifactsByIDs failed: %v", err)
		}
		if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
			t.Errorf("ListArtifactsByIDs order = %+v", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := db.DeleteArtifact(ctx, a.ID); err != nil {
			t.Fatalf("DeleteArtifact failed: %v", err)
		}
		got, err := db.GetArtifactByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetArtifactByID failed: %v", err)
		}
		if got != nil {
			t.Error("artifact still present after delete")
		}
	})
}
