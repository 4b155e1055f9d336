package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/db"
)

// noSelectionPlaceholder is the single section emitted when no artifact ids
// were provided. Explicit-selection mode never substitutes named-source data.
const noSelectionPlaceholder = "## Selected Material\n\n[no candidate material selected]"

// BuildSelection fetches exactly the named artifacts, groups them by stage
// label (stage order as encountered), and renders each through the full
// extraction dispatch. A FileTooLargeError from extraction aborts the build.
func (b *Builder) BuildSelection(ctx context.Context, candidateID uuid.UUID, artifactIDs []uuid.UUID) (string, error) {
	if len(artifactIDs) == 0 {
		return noSelectionPlaceholder, nil
	}

	artifacts, err := b.store.ListArtifactsByIDs(ctx, artifactIDs)
	if err != nil {
		return "", err
	}
	if len(artifacts) == 0 {
		return noSelectionPlaceholder, nil
	}

	// Group by stage, preserving the order stages first appear in.
	var stageOrder []string
	groups := make(map[string][]*db.Artifact)
	for i := range artifacts {
		a := &artifacts[i]
		if a.CandidateID != candidateID {
			continue
		}
		label := a.StageLabel()
		if _, seen := groups[label]; !seen {
			stageOrder = append(stageOrder, label)
		}
		groups[label] = append(groups[label], a)
	}
	if len(stageOrder) == 0 {
		return noSelectionPlaceholder, nil
	}

	sections := make([]string, 0, len(stageOrder))
	for _, label := range stageOrder {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("## Stage: %s\n", label))
		for _, a := range groups[label] {
			sb.WriteString(fmt.Sprintf("\n### %s (%s)\n\n", a.FileName, a.Type))
			content, err := b.extractor.Extract(ctx, a.BlobURL, a.MediaType, a.FileName)
			if err != nil {
				return "", err
			}
			sb.WriteString(content)
			sb.WriteString("\n")
		}
		sections = append(sections, strings.TrimRight(sb.String(), "\n"))
	}

	return joinSections(sections), nil
}
