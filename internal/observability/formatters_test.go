package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/talent-pipeline/internal/db"
)

func strptr(s string) *string { return &s }

func TestPrintCandidate(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidate(&db.Candidate{
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		CurrentStage: "onsite",
	})
	output := buf.String()

	assert.Contains(t, output, "CANDIDATE")
	assert.Contains(t, output, "Jane Doe")
	assert.Contains(t, output, "onsite")
}

func TestPrintCandidate_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidate(nil)

	assert.Empty(t, buf.String())
}

func TestPrintArtifacts_GroupsByStage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintArtifacts([]db.Artifact{
		{FileName: "resume.pdf", Type: db.ArtifactTypeResume, Stage: strptr("screening")},
		{FileName: "screen-analysis.md", Type: db.ArtifactTypeAIAnalysis, Stage: strptr("screening")},
		{FileName: "notes.md", Type: db.ArtifactTypeNote},
	})
	output := buf.String()

	assert.Contains(t, output, "ARTIFACTS (3)")
	assert.Contains(t, output, "screening:")
	assert.Contains(t, output, "unclassified:")
	// AI reports get a marker
	assert.Contains(t, output, "* screen-analysis.md")
}

func TestPrintArtifacts_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintArtifacts(nil)

	assert.Contains(t, buf.String(), "(none)")
}

func TestPrintJobs_TruncatesAndShowsErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	jobList := make([]db.ProcessingJob, 7)
	for i := range jobList {
		jobList[i] = db.ProcessingJob{ID: uuid.New(), Kind: db.JobKindAnalyze, Status: db.JobStatusCompleted, Progress: 100}
	}
	jobList[0].Status = db.JobStatusFailed
	jobList[0].Progress = 0
	jobList[0].ErrorMessage = strptr("model rejected input")

	p.PrintJobs(jobList)
	output := buf.String()

	assert.Contains(t, output, "JOBS (7)")
	assert.Contains(t, output, "model rejected input")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintStatusCounts(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatusCounts([]db.ProcessingJob{
		{Status: db.JobStatusPending},
		{Status: db.JobStatusCompleted},
		{Status: db.JobStatusCompleted},
	})

	line := strings.TrimSpace(buf.String())
	assert.Equal(t, "1 pending, 2 completed", line)
}

func TestPrintStatusCounts_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatusCounts(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TEST", strings.Repeat("x", 200))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}
