package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/observability"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <candidate-id>",
	Short: "Print a candidate's artifacts and processing jobs",
	Long:  `Connect to the database and print a formatted summary of a candidate's artifacts, grouped by stage, and their recent processing jobs.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	candidateID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid candidate ID: %s", args[0])
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	candidate, err := database.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	if candidate == nil {
		return fmt.Errorf("candidate not found: %s", candidateID)
	}

	artifacts, err := database.ListArtifactsByCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	jobList, err := database.ListJobsByCandidate(ctx, candidateID)
	if err != nil {
		return err
	}

	p := observability.NewPrinter(os.Stdout)
	p.PrintCandidate(candidate)
	p.PrintArtifacts(artifacts)
	p.PrintJobs(jobList)
	p.PrintStatusCounts(jobList)
	return nil
}
