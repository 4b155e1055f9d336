// Package aggregate assembles multi-section context text blocks from
// candidate data for use as inference prompts.
package aggregate

import "fmt"

// ContextSource names a category of candidate data eligible for inclusion in
// an aggregated prompt. It is a selector, not a stored entity.
type ContextSource string

// ContextSource constants define the closed set of sources.
const (
	SourceResume         ContextSource = "resume"
	SourceProfile        ContextSource = "profile"
	SourcePreferences    ContextSource = "preferences"
	SourceCurrentStage   ContextSource = "current_stage_artifacts"
	SourcePriorStages    ContextSource = "prior_stage_artifacts"
	SourcePriorReports   ContextSource = "prior_reports"
	SourceInterviewNotes ContextSource = "interview_notes"
)

// allSources is used for membership validation.
var allSources = map[ContextSource]bool{
	SourceResume:         true,
	SourceProfile:        true,
	SourcePreferences:    true,
	SourceCurrentStage:   true,
	SourcePriorStages:    true,
	SourcePriorReports:   true,
	SourceInterviewNotes: true,
}

// ParseSource validates a raw source name.
func ParseSource(raw string) (ContextSource, error) {
	s := ContextSource(raw)
	if !allSources[s] {
		return "", fmt.Errorf("unknown context source %q", raw)
	}
	return s, nil
}
