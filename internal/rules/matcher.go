// Package rules provides the processing-rule model and the matcher that
// decides which automated actions apply to an uploaded artifact.
package rules

import "strings"

// FileCategory classifies artifacts for rule matching.
type FileCategory string

// FileCategory constants define the closed set of rule categories.
const (
	// CategoryResume matches resume-like documents (PDF, Word).
	CategoryResume FileCategory = "resume"
	// CategoryRecording matches audio and video files.
	CategoryRecording FileCategory = "recording"
	// CategoryDocument matches plain-text-like documents.
	CategoryDocument FileCategory = "document"
	// CategoryImage matches image files.
	CategoryImage FileCategory = "image"
	// CategoryAny matches any artifact regardless of media type.
	CategoryAny FileCategory = "*"
)

// OutputKind names what a rule's analysis step should produce.
type OutputKind string

// OutputKind constants define the closed set of rule outputs.
const (
	// OutputReport persists the analysis as a new report artifact.
	OutputReport OutputKind = "report"
	// OutputNote persists the analysis as a new note artifact.
	OutputNote OutputKind = "note"
	// OutputInline keeps the analysis on the job record only.
	OutputInline OutputKind = "inline"
)

// Rule declares the automated actions for one file category within a stage.
// Rules are configuration values carried in the stage config, not rows with
// identity of their own.
type Rule struct {
	FileTypeCategory FileCategory `json:"file_type_category"`
	AutoTranscribe   bool         `json:"auto_transcribe"`
	AutoAnalyze      bool         `json:"auto_analyze"`
	AnalysisPrompt   string       `json:"analysis_prompt_template"`
	OutputKind       OutputKind   `json:"output_kind"`
}

// categoryPrefixes maps each category to the media-type prefixes it covers.
// CategoryAny is handled separately because it matches unconditionally.
var categoryPrefixes = map[FileCategory][]string{
	CategoryRecording: {"audio/", "video/"},
	CategoryResume: {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml",
	},
	CategoryDocument: {"text/", "application/json"},
	CategoryImage:    {"image/"},
}

// Match selects the rule that applies to an artifact. An exact match on the
// declared type always wins over media-type inference. Within each pass the
// first matching rule in list order is returned; nil means no rule applies.
func Match(ruleList []Rule, mediaType, declaredType string) *Rule {
	for i := range ruleList {
		if string(ruleList[i].FileTypeCategory) == declaredType {
			return &ruleList[i]
		}
	}

	if mediaType == "" {
		// Still allow a wildcard rule to pick it up.
		for i := range ruleList {
			if ruleList[i].FileTypeCategory == CategoryAny {
				return &ruleList[i]
			}
		}
		return nil
	}

	for i := range ruleList {
		if ruleList[i].FileTypeCategory == CategoryAny {
			return &ruleList[i]
		}
		for _, prefix := range categoryPrefixes[ruleList[i].FileTypeCategory] {
			if strings.HasPrefix(mediaType, prefix) {
				return &ruleList[i]
			}
		}
	}
	return nil
}
