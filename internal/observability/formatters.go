// Package observability provides formatted output utilities for CLI
// inspection commands.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/talent-pipeline/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for inspection commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCandidate outputs a human-readable summary of a candidate.
func (p *Printer) PrintCandidate(candidate *db.Candidate) {
	if candidate == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:   %s\n", candidate.Name))
	sb.WriteString(fmt.Sprintf("Email:  %s\n", candidate.Email))
	sb.WriteString(fmt.Sprintf("Stage:  %s", candidate.CurrentStage))

	p.printBox("CANDIDATE", sb.String())
}

// PrintArtifacts outputs a summary of a candidate's artifacts grouped by
// stage, oldest first.
func (p *Printer) PrintArtifacts(artifacts []db.Artifact) {
	if len(artifacts) == 0 {
		p.printBox("ARTIFACTS", "(none)")
		return
	}

	var sb strings.Builder
	stage := ""
	for i := range artifacts {
		a := &artifacts[i]
		if a.StageLabel() != stage {
			if stage != "" {
				sb.WriteString("\n")
			}
			stage = a.StageLabel()
			sb.WriteString(fmt.Sprintf("%s:\n", stage))
		}
		marker := " "
		if a.IsAIReport() {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf(" %s %s (%s)\n", marker, a.FileName, a.Type))
	}
	sb.WriteString("\n* AI-generated report")

	p.printBox(fmt.Sprintf("ARTIFACTS (%d)", len(artifacts)), sb.String())
}

// PrintJobs outputs recent processing jobs, newest first, with failure
// messages for failed jobs.
func (p *Printer) PrintJobs(jobList []db.ProcessingJob) {
	if len(jobList) == 0 {
		p.printBox("JOBS", "(none)")
		return
	}

	var sb strings.Builder
	count := min(len(jobList), maxItemsToShow)
	for i := 0; i < count; i++ {
		job := &jobList[i]
		sb.WriteString(fmt.Sprintf("%s  %-10s %-10s %3d%%\n",
			job.ID.String()[:8], job.Kind, job.Status, job.Progress))
		if job.Status == db.JobStatusFailed && job.ErrorMessage != nil {
			sb.WriteString(fmt.Sprintf("          %s\n", *job.ErrorMessage))
		}
	}
	if len(jobList) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more", len(jobList)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("JOBS (%d)", len(jobList)), strings.TrimRight(sb.String(), "\n"))
}

// PrintStatusCounts outputs a one-line tally of jobs per status.
func (p *Printer) PrintStatusCounts(jobList []db.ProcessingJob) {
	counts := map[db.JobStatus]int{}
	for i := range jobList {
		counts[jobList[i].Status]++
	}

	parts := make([]string, 0, 4)
	for _, status := range []db.JobStatus{db.JobStatusPending, db.JobStatusProcessing, db.JobStatusCompleted, db.JobStatusFailed} {
		if counts[status] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
		}
	}
	if len(parts) == 0 {
		return
	}
	fmt.Fprintf(p.out, "%s\n", strings.Join(parts, ", "))
}
