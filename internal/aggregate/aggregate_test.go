package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/extract"
	"github.com/jonathan/talent-pipeline/internal/llm"
)

type fakeStore struct {
	candidate *db.Candidate
	artifacts []db.Artifact
	notes     []db.InterviewNote
}

func (s *fakeStore) GetCandidate(_ context.Context, id uuid.UUID) (*db.Candidate, error) {
	if s.candidate != nil && s.candidate.ID == id {
		return s.candidate, nil
	}
	return nil, nil
}

func (s *fakeStore) ListArtifactsByCandidate(_ context.Context, candidateID uuid.UUID) ([]db.Artifact, error) {
	var out []db.Artifact
	for _, a := range s.artifacts {
		if a.CandidateID == candidateID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListArtifactsByIDs(_ context.Context, ids []uuid.UUID) ([]db.Artifact, error) {
	byID := make(map[uuid.UUID]db.Artifact)
	for _, a := range s.artifacts {
		byID[a.ID] = a
	}
	var out []db.Artifact
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListInterviewNotes(_ context.Context, candidateID uuid.UUID) ([]db.InterviewNote, error) {
	var out []db.InterviewNote
	for _, n := range s.notes {
		if n.CandidateID == candidateID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeFetcher struct {
	blobs map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, blobURL string) ([]byte, error) {
	data, ok := f.blobs[blobURL]
	if !ok {
		return nil, fmt.Errorf("no blob at %s", blobURL)
	}
	return data, nil
}

type fakeLLM struct {
	response string
}

func (c *fakeLLM) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return c.response, nil
}

func (c *fakeLLM) Generate(_ context.Context, _ *llm.Request) (string, error) {
	return c.response, nil
}

func (c *fakeLLM) Close() error { return nil }

func newTestBuilder(store *fakeStore, fetcher *fakeFetcher) *Builder {
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	return New(store, fetcher, extract.New(fetcher, &fakeLLM{response: "extracted"}))
}

func strPtr(s string) *string { return &s }

func TestBuildNamed_ResumeOnly(t *testing.T) {
	candidateID := uuid.New()
	store := &fakeStore{
		candidate: &db.Candidate{ID: candidateID, Name: "Jane", ResumeRawText: "Hello World"},
	}
	b := newTestBuilder(store, nil)

	out, err := b.BuildNamed(context.Background(), candidateID, "screening", []ContextSource{SourceResume})
	require.NoError(t, err)

	assert.Contains(t, out, "## Resume")
	assert.Contains(t, out, "Hello World")
	assert.NotContains(t, out, "## Candidate Profile")
	assert.NotContains(t, out, "## Interview Notes")
	assert.NotContains(t, out, "## Current Stage Artifacts")
}

func TestBuildNamed_SkipsEmptySources(t *testing.T) {
	candidateID := uuid.New()
	store := &fakeStore{
		candidate: &db.Candidate{ID: candidateID, Name: "Jane"},
	}
	b := newTestBuilder(store, nil)

	out, err := b.BuildNamed(context.Background(), candidateID, "screening",
		[]ContextSource{SourceResume, SourceProfile, SourceInterviewNotes})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBuildNamed_ProfileFormattedJSON(t *testing.T) {
	candidateID := uuid.New()
	store := &fakeStore{
		candidate: &db.Candidate{
			ID:      candidateID,
			Profile: json.RawMessage(`{"years_experience":7,"location":"Remote"}`),
		},
	}
	b := newTestBuilder(store, nil)

	out, err := b.BuildNamed(context.Background(), candidateID, "screening", []ContextSource{SourceProfile})
	require.NoError(t, err)
	assert.Contains(t, out, "## Candidate Profile")
	assert.Contains(t, out, `"years_experience": 7`)
}

func TestBuildNamed_StageSplit(t *testing.T) {
	candidateID := uuid.New()
	store := &fakeStore{
		candidate: &db.Candidate{ID: candidateID},
		artifacts: []db.Artifact{
			{ID: uuid.New(), CandidateID: candidateID, Stage: strPtr("onsite"), FileName: "notes.txt",
				Type: "note", MediaType: "text/plain", BlobURL: "http://blobs/notes.txt"},
			{ID: uuid.New(), CandidateID: candidateID, Stage: strPtr("screening"), FileName: "call.mp3",
				Type: "recording", MediaType: "audio/mpeg", BlobURL: "http://blobs/call.mp3"},
		},
	}
	fetcher := &fakeFetcher{blobs: map[string][]byte{
		"http://blobs/notes.txt": []byte("strong systems background"),
	}}
	b := newTestBuilder(store, fetcher)

	out, err := b.BuildNamed(context.Background(), candidateID, "onsite",
		[]ContextSource{SourceCurrentStage, SourcePriorStages})
	require.NoError(t, err)

	// Current stage: listed and inlined because it is text-like.
	assert.Contains(t, out, "## Current Stage Artifacts")
	assert.Contains(t, out, "notes.txt (note)")
	assert.Contains(t, out, "strong systems background")

	// Prior stage: listed with its own stage label, content not inlined.
	assert.Contains(t, out, "## Prior Stage Artifacts")
	assert.Contains(t, out, "call.mp3 (recording) [stage: screening]")
}

func TestBuildNamed_PriorReports(t *testing.T) {
	candidateID := uuid.New()
	templateID := uuid.New()
	store := &fakeStore{
		candidate: &db.Candidate{ID: candidateID},
		artifacts: []db.Artifact{
			{ID: uuid.New(), CandidateID: candidateID, Stage: strPtr("screening"),
				FileName: "screening-report.md", Type: db.ArtifactTypeAIAnalysis,
				MediaType: db.MediaTypeMarkdown, BlobURL: "http://blobs/report.md",
				SourceTemplateID: &templateID},
			{ID: uuid.New(), CandidateID: candidateID, Stage: strPtr("screening"),
				FileName: "resume.pdf", Type: "resume", MediaType: "application/pdf",
				BlobURL: "http://blobs/resume.pdf"},
		},
	}
	fetcher := &fakeFetcher{blobs: map[string][]byte{
		"http://blobs/report.md": []byte("# Screening Summary\nLooks strong."),
	}}
	b := newTestBuilder(store, fetcher)

	out, err := b.BuildNamed(context.Background(), candidateID, "onsite", []ContextSource{SourcePriorReports})
	require.NoError(t, err)
	assert.Contains(t, out, "## Prior AI Reports")
	assert.Contains(t, out, "Looks strong.")
	assert.NotContains(t, out, "resume.pdf", "non-report artifacts stay out of the reports section")
}

func TestBuildNamed_InterviewNotes(t *testing.T) {
	candidateID := uuid.New()
	rating := 4
	store := &fakeStore{
		candidate: &db.Candidate{ID: candidateID},
		notes: []db.InterviewNote{
			{ID: uuid.New(), CandidateID: candidateID, Stage: "onsite", Interviewer: "Sam",
				Rating: &rating, Content: "Great communicator."},
		},
	}
	b := newTestBuilder(store, nil)

	out, err := b.BuildNamed(context.Background(), candidateID, "onsite", []ContextSource{SourceInterviewNotes})
	require.NoError(t, err)
	assert.Contains(t, out, "## Interview Notes")
	assert.Contains(t, out, "onsite | Sam | rating: 4/5")
	assert.Contains(t, out, "Great communicator.")
}

func TestBuildNamed_SourceOrderPreserved(t *testing.T) {
	candidateID := uuid.New()
	rating := 3
	store := &fakeStore{
		candidate: &db.Candidate{ID: candidateID, ResumeRawText: "resume text"},
		notes: []db.InterviewNote{
			{ID: uuid.New(), CandidateID: candidateID, Stage: "screening", Interviewer: "Ada",
				Rating: &rating, Content: "note text"},
		},
	}
	b := newTestBuilder(store, nil)

	out, err := b.BuildNamed(context.Background(), candidateID, "screening",
		[]ContextSource{SourceInterviewNotes, SourceResume})
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "## Interview Notes"), strings.Index(out, "## Resume"))
}

func TestBuildSelection_GroupsByStage(t *testing.T) {
	candidateID := uuid.New()
	var ids []uuid.UUID
	var artifacts []db.Artifact
	for i := 0; i < 3; i++ {
		a := db.Artifact{ID: uuid.New(), CandidateID: candidateID, Stage: strPtr("A"),
			FileName: fmt.Sprintf("a%d.txt", i), Type: "note", MediaType: "text/plain",
			BlobURL: fmt.Sprintf("http://blobs/a%d.txt", i)}
		artifacts = append(artifacts, a)
		ids = append(ids, a.ID)
	}
	for i := 0; i < 2; i++ {
		a := db.Artifact{ID: uuid.New(), CandidateID: candidateID, Stage: strPtr("B"),
			FileName: fmt.Sprintf("b%d.txt", i), Type: "note", MediaType: "text/plain",
			BlobURL: fmt.Sprintf("http://blobs/b%d.txt", i)}
		artifacts = append(artifacts, a)
		ids = append(ids, a.ID)
	}

	fetcher := &fakeFetcher{blobs: map[string][]byte{}}
	for _, a := range artifacts {
		fetcher.blobs[a.BlobURL] = []byte("content of " + a.FileName)
	}

	store := &fakeStore{candidate: &db.Candidate{ID: candidateID}, artifacts: artifacts}
	b := newTestBuilder(store, fetcher)

	out, err := b.BuildSelection(context.Background(), candidateID, ids)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "## Stage:"))
	stageA := out[strings.Index(out, "## Stage: A"):strings.Index(out, "## Stage: B")]
	stageB := out[strings.Index(out, "## Stage: B"):]
	assert.Equal(t, 3, strings.Count(stageA, "### "))
	assert.Equal(t, 2, strings.Count(stageB, "### "))
}

func TestBuildSelection_UnclassifiedBucket(t *testing.T) {
	candidateID := uuid.New()
	a := db.Artifact{ID: uuid.New(), CandidateID: candidateID, FileName: "loose.txt",
		Type: "note", MediaType: "text/plain", BlobURL: "http://blobs/loose.txt"}
	store := &fakeStore{candidate: &db.Candidate{ID: candidateID}, artifacts: []db.Artifact{a}}
	fetcher := &fakeFetcher{blobs: map[string][]byte{"http://blobs/loose.txt": []byte("text")}}
	b := newTestBuilder(store, fetcher)

	out, err := b.BuildSelection(context.Background(), candidateID, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Contains(t, out, "## Stage: unclassified")
}

func TestBuildSelection_EmptySelection(t *testing.T) {
	candidateID := uuid.New()
	store := &fakeStore{
		candidate: &db.Candidate{ID: candidateID, ResumeRawText: "must not appear"},
	}
	b := newTestBuilder(store, nil)

	out, err := b.BuildSelection(context.Background(), candidateID, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "[no candidate material selected]")
	assert.NotContains(t, out, "must not appear", "empty selection never falls back to named-source data")
}

func TestBuildSelection_UnsupportedType(t *testing.T) {
	candidateID := uuid.New()
	a := db.Artifact{ID: uuid.New(), CandidateID: candidateID, Stage: strPtr("onsite"),
		FileName: "bundle.zip", Type: "other", MediaType: "application/zip",
		BlobURL: "http://blobs/bundle.zip"}
	store := &fakeStore{candidate: &db.Candidate{ID: candidateID}, artifacts: []db.Artifact{a}}
	b := newTestBuilder(store, &fakeFetcher{})

	out, err := b.BuildSelection(context.Background(), candidateID, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Contains(t, out, "no text extraction available")
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource("resume")
	require.NoError(t, err)
	assert.Equal(t, SourceResume, s)

	_, err = ParseSource("payroll")
	assert.Error(t, err)
}
