package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/extract"
)

// BuildNamed emits one section per requested source, in the order requested,
// skipping any source that has no data. Artifact stages are compared against
// currentStage to split current from prior material.
func (b *Builder) BuildNamed(ctx context.Context, candidateID uuid.UUID, currentStage string, sources []ContextSource) (string, error) {
	candidate, err := b.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return "", err
	}
	if candidate == nil {
		return "", fmt.Errorf("candidate not found: %s", candidateID)
	}

	// Artifacts and notes are loaded once, only if some source needs them.
	var artifacts []db.Artifact
	artifactsLoaded := false
	loadArtifacts := func() ([]db.Artifact, error) {
		if !artifactsLoaded {
			artifacts, err = b.store.ListArtifactsByCandidate(ctx, candidateID)
			if err != nil {
				return nil, err
			}
			artifactsLoaded = true
		}
		return artifacts, nil
	}

	sections := make([]string, 0, len(sources))
	for _, source := range sources {
		var section string
		switch source {
		case SourceResume:
			if candidate.ResumeRawText != "" {
				section = "## Resume\n\n" + candidate.ResumeRawText
			}
		case SourceProfile:
			if formatted := formatJSON(candidate.Profile); formatted != "" {
				section = "## Candidate Profile\n\n" + formatted
			}
		case SourcePreferences:
			if formatted := formatJSON(candidate.Preferences); formatted != "" {
				section = "## Candidate Preferences\n\n" + formatted
			}
		case SourceCurrentStage:
			all, err := loadArtifacts()
			if err != nil {
				return "", err
			}
			section = b.currentStageSection(ctx, all, currentStage)
		case SourcePriorStages:
			all, err := loadArtifacts()
			if err != nil {
				return "", err
			}
			section = priorStagesSection(all, currentStage)
		case SourcePriorReports:
			all, err := loadArtifacts()
			if err != nil {
				return "", err
			}
			section = b.priorReportsSection(ctx, all)
		case SourceInterviewNotes:
			notes, err := b.store.ListInterviewNotes(ctx, candidateID)
			if err != nil {
				return "", err
			}
			section = interviewNotesSection(notes)
		}
		if section != "" {
			sections = append(sections, section)
		}
	}

	return joinSections(sections), nil
}

// currentStageSection lists artifacts in the current stage and inlines the
// content of the text-like ones.
func (b *Builder) currentStageSection(ctx context.Context, artifacts []db.Artifact, currentStage string) string {
	var sb strings.Builder
	count := 0
	for i := range artifacts {
		a := &artifacts[i]
		if a.StageLabel() != currentStage {
			continue
		}
		count++
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", a.FileName, a.Type))
		if extract.IsTextLike(a.MediaType, a.FileName) {
			sb.WriteString("\n")
			sb.WriteString(b.inlineTextContent(ctx, a))
			sb.WriteString("\n\n")
		}
	}
	if count == 0 {
		return ""
	}
	return "## Current Stage Artifacts\n\n" + strings.TrimRight(sb.String(), "\n")
}

// priorStagesSection lists artifacts from other stages without content.
func priorStagesSection(artifacts []db.Artifact, currentStage string) string {
	var sb strings.Builder
	count := 0
	for i := range artifacts {
		a := &artifacts[i]
		if a.StageLabel() == currentStage {
			continue
		}
		count++
		sb.WriteString(fmt.Sprintf("- %s (%s) [stage: %s]\n", a.FileName, a.Type, a.StageLabel()))
	}
	if count == 0 {
		return ""
	}
	return "## Prior Stage Artifacts\n\n" + strings.TrimRight(sb.String(), "\n")
}

// priorReportsSection inlines earlier AI-generated reports.
func (b *Builder) priorReportsSection(ctx context.Context, artifacts []db.Artifact) string {
	var sb strings.Builder
	count := 0
	for i := range artifacts {
		a := &artifacts[i]
		if !a.IsAIReport() {
			continue
		}
		count++
		sb.WriteString(fmt.Sprintf("### %s\n\n", a.FileName))
		if extract.IsTextLike(a.MediaType, a.FileName) {
			sb.WriteString(b.inlineTextContent(ctx, a))
		} else {
			sb.WriteString("[failed to load " + a.FileName + "]")
		}
		sb.WriteString("\n\n")
	}
	if count == 0 {
		return ""
	}
	return "## Prior AI Reports\n\n" + strings.TrimRight(sb.String(), "\n")
}

// interviewNotesSection renders each note under a small header.
func interviewNotesSection(notes []db.InterviewNote) string {
	if len(notes) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := range notes {
		n := &notes[i]
		rating := "unrated"
		if n.Rating != nil {
			rating = fmt.Sprintf("%d/5", *n.Rating)
		}
		sb.WriteString(fmt.Sprintf("### %s | %s | rating: %s\n\n%s\n\n", n.Stage, n.Interviewer, rating, n.Content))
	}
	return "## Interview Notes\n\n" + strings.TrimRight(sb.String(), "\n")
}
