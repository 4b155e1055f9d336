package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/server"
)

var (
	servePort       int
	serveConfigPath string
	serveWorkers    int
	serveAllowDup   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for artifact processing, job tracking, and prompt execution.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Number of concurrent job workers")
	serveCmd.Flags().BoolVar(&serveAllowDup, "allow-pending-duplicates", false, "Allow queuing duplicate pending jobs per artifact and kind")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := &config.Config{}
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Flags win over the config file; env fills whatever is left.
	if cmd.Flags().Changed("port") || cfg.Port == 0 {
		cfg.Port = servePort
	}
	if serveWorkers > 0 {
		cfg.JobWorkers = serveWorkers
	}
	if serveAllowDup {
		cfg.AllowPendingDuplicates = true
	}
	cfg.FromEnv()

	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:                   cfg.Port,
		DatabaseURL:            cfg.DatabaseURL,
		APIKey:                 cfg.APIKey,
		StorageEndpoint:        cfg.StorageEndpoint,
		StorageBucket:          cfg.StorageBucket,
		StorageAccessKey:       cfg.StorageAccessKey,
		StorageSecretKey:       cfg.StorageSecretKey,
		StorageUseSSL:          cfg.StorageUseSSL,
		JobWorkers:             cfg.JobWorkers,
		JobQueueLen:            cfg.JobQueueLen,
		JobTimeout:             cfg.JobTimeout(),
		AllowPendingDuplicates: cfg.AllowPendingDuplicates,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
