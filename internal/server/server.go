package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/talent-pipeline/internal/aggregate"
	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/extract"
	"github.com/jonathan/talent-pipeline/internal/jobs"
	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/prompts"
	"github.com/jonathan/talent-pipeline/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	db           *db.DB
	objects      storage.ObjectStore
	llmClient    llm.Client
	extractor    *extract.Extractor
	builder      *aggregate.Builder
	orchestrator *prompts.Orchestrator
	queue        *jobs.Queue
	validate     *validator.Validate

	// blockedStatuses guards job creation; it always contains processing
	// and optionally pending (see Config.AllowPendingDuplicates).
	blockedStatuses []db.JobStatus
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string

	StorageEndpoint  string
	StorageBucket    string
	StorageAccessKey string
	StorageSecretKey string
	StorageUseSSL    bool

	JobWorkers  int
	JobQueueLen int
	JobTimeout  time.Duration

	// AllowPendingDuplicates keeps the historical behavior of only
	// rejecting re-triggers while a job is processing; queued pending
	// duplicates are allowed.
	AllowPendingDuplicates bool
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	objects, err := storage.NewMinioStore(
		storage.WithEndpoint(cfg.StorageEndpoint),
		storage.WithBucket(cfg.StorageBucket),
		storage.WithCredentials(cfg.StorageAccessKey, cfg.StorageSecretKey),
		storage.WithSSL(cfg.StorageUseSSL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	llmClient, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	fetcher := storage.NewHTTPFetcher()
	extractor := extract.New(fetcher, llmClient)
	builder := aggregate.New(database, fetcher, extractor)
	executor := jobs.NewExecutor(database, objects, fetcher, llmClient, cfg.JobTimeout)

	blocked := []db.JobStatus{db.JobStatusProcessing}
	if !cfg.AllowPendingDuplicates {
		blocked = append(blocked, db.JobStatusPending)
	}

	s := &Server{
		db:              database,
		objects:         objects,
		llmClient:       llmClient,
		extractor:       extractor,
		builder:         builder,
		orchestrator:    prompts.New(database, builder, extractor, objects, llmClient),
		queue:           jobs.NewQueue(executor, cfg.JobWorkers, cfg.JobQueueLen),
		validate:        validator.New(),
		blockedStatuses: blocked,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Artifact endpoints
	mux.HandleFunc("POST /candidates/{id}/artifacts", s.handleUploadArtifact)
	mux.HandleFunc("POST /artifacts/{id}/process", s.handleProcessArtifact)
	mux.HandleFunc("DELETE /artifacts/{id}", s.handleDeleteArtifact)
	mux.HandleFunc("PATCH /artifacts/{id}", s.handleRelinkArtifact)

	// Job endpoints
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /candidates/{id}/jobs", s.handleListCandidateJobs)

	// Context and prompt execution endpoints
	mux.HandleFunc("GET /candidates/{id}/context", s.handleCandidateContext)
	mux.HandleFunc("POST /candidates/{id}/prompts/execute", s.handleExecutePrompt)
	mux.HandleFunc("POST /candidates/{id}/stages/{stage}/summary", s.handleStageSummary)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for synchronous prompt execution
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Drain queued jobs before releasing their dependencies.
	s.queue.Stop()
	_ = s.llmClient.Close()
	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
