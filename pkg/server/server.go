package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/brpaterson/linethermal/pkg/config"
	"github.com/brpaterson/linethermal/pkg/handlers"
	"github.com/brpaterson/linethermal/pkg/profiling"
	"github.com/brpaterson/linethermal/pkg/webhook"
	"github.com/brpaterson/linethermal/pkg/worker"
)

// Server represents the HTTP server with all dependencies.
type Server struct {
	config        *config.Config
	serverConfig  *config.ServerConfig
	processor     worker.ProcessorFunc
	workerPool    *worker.Pool
	webhookClient *webhook.Client
	httpServer    *http.Server
	profiler      *profiling.Profiler
	middleware    *profiling.Middleware
}

// Options holds configuration for creating a new server.
type Options struct {
	Config       *config.Config
	ServerConfig *config.ServerConfig
	Processor    worker.ProcessorFunc
}

// New creates a new server instance.
func New(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.ServerConfig == nil {
		opts.ServerConfig = config.DefaultServerConfig()
	}

	webhookClient := webhook.NewClient(opts.ServerConfig.WebhookURL, opts.Config)

	workerPool := worker.New(worker.Options{
		Workers:   opts.ServerConfig.WorkerCount,
		Processor: opts.Processor,
		Sender:    webhookClient.Send,
	})

	profiler := profiling.New(opts.ServerConfig)
	middleware := profiling.NewMiddleware(opts.ServerConfig.EnableProfiling)

	server := &Server{
		config:        opts.Config,
		serverConfig:  opts.ServerConfig,
		processor:     opts.Processor,
		workerPool:    workerPool,
		webhookClient: webhookClient,
		profiler:      profiler,
		middleware:    middleware,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures HTTP routes and handlers.
func (s *Server) setupRoutes() {
	mux := http.NewServeMux()

	computeHandler := handlers.NewComputeHandler(s.config, s.workerPool, handlers.ProcessorFunc(s.processor))
	batchHandler := handlers.NewBatchHandler(s.config, s.workerPool)

	mux.Handle("/compute", s.middleware.ProfiledHandler("compute-single", computeHandler))
	mux.Handle("/compute/batch", s.middleware.ProfiledHandler("compute-batch", batchHandler))
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/debug/gc", s.gcHandler)
	mux.HandleFunc("/debug/memory", s.memoryHandler)

	s.httpServer = &http.Server{
		Addr:         ":" + s.serverConfig.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// healthHandler provides a simple health check endpoint.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// gcHandler triggers garbage collection and returns stats.
func (s *Server) gcHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	profiling.ForceGC()
	stats := profiling.GetGCStats()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"gc_runs": %d,
		"pause_total_ms": %.3f,
		"pause_recent_us": %.3f,
		"cpu_percent": %.2f,
		"last_gc": "%s",
		"timestamp": "%s"
	}`,
		stats.NumGC,
		float64(stats.PauseTotal.Nanoseconds())/1000000.0,
		float64(stats.PauseRecent.Nanoseconds())/1000.0,
		stats.GCCPUPercent,
		stats.LastGC.Format(time.RFC3339),
		time.Now().Format(time.RFC3339))
}

// memoryHandler provides current memory statistics.
func (s *Server) memoryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	profiling.LogGCStats()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"message":"Memory stats logged to console","timestamp":"%s"}`,
		time.Now().Format(time.RFC3339))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if err := s.profiler.Start(); err != nil {
		log.Printf("failed to start profiler: %v", err)
	}

	log.Println("starting HTTP server on port", s.serverConfig.Port)
	log.Println("endpoints available:")
	log.Printf("  - Single: http://localhost:%s/compute", s.serverConfig.Port)
	log.Printf("  - Batch:  http://localhost:%s/compute/batch", s.serverConfig.Port)
	log.Printf("  - Health: http://localhost:%s/health", s.serverConfig.Port)
	log.Printf("  - GC:     http://localhost:%s/debug/gc", s.serverConfig.Port)
	log.Printf("  - Memory: http://localhost:%s/debug/memory", s.serverConfig.Port)

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	log.Println("shutting down server...")

	if err := s.profiler.Stop(); err != nil {
		log.Printf("profiler shutdown error: %v", err)
	}

	s.workerPool.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}

	log.Println("server shutdown complete")
	return nil
}
