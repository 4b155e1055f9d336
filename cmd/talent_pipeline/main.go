// Package main provides the entry point for the Talent Pipeline HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "talent_pipeline",
	Short: "Talent Pipeline HTTP API Server",
	Long:  "Talent Pipeline processes candidate artifacts through rule-driven transcription and analysis jobs and runs prompt templates over aggregated candidate material via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
