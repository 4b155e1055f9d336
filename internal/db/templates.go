package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-pipeline/internal/rules"
)

// GetPromptTemplate retrieves an instruction template by ID
func (db *DB) GetPromptTemplate(ctx context.Context, id uuid.UUID) (*PromptTemplate, error) {
	var t PromptTemplate
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, stage, body, created_at
		 FROM prompt_templates WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Stage, &t.Body, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt template: %w", err)
	}
	return &t, nil
}

// ListTemplateFiles retrieves the reference files attached to a template
func (db *DB) ListTemplateFiles(ctx context.Context, templateID uuid.UUID) ([]TemplateFile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, template_id, file_name, media_type, blob_url
		 FROM template_files WHERE template_id = $1 ORDER BY file_name ASC`,
		templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}
	defer rows.Close()

	var files []TemplateFile
	for rows.Next() {
		var f TemplateFile
		if err := rows.Scan(&f.ID, &f.TemplateID, &f.FileName, &f.MediaType, &f.BlobURL); err != nil {
			return nil, fmt.Errorf("failed to scan template file: %w", err)
		}
		files = append(files, f)
	}
	return files, nil
}

// GetStageConfig retrieves a stage's processing rules and system instruction.
// Returns nil when the stage has no configuration.
func (db *DB) GetStageConfig(ctx context.Context, stage string) (*StageConfig, error) {
	var rulesJSON []byte
	var systemInstruction *string
	err := db.pool.QueryRow(ctx,
		`SELECT rules, system_instruction FROM stage_configs WHERE stage = $1`,
		stage,
	).Scan(&rulesJSON, &systemInstruction)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stage config: %w", err)
	}

	cfg := &StageConfig{Stage: stage, SystemInstruction: systemInstruction}
	if rulesJSON != nil {
		ruleList, err := rules.ParseConfig(rulesJSON)
		if err != nil {
			return nil, fmt.Errorf("invalid rule config for stage %s: %w", stage, err)
		}
		cfg.Rules = ruleList
	}
	return cfg, nil
}
