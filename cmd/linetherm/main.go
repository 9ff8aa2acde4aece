// Command linetherm computes overhead-line conductor thermal risk from a
// route, a set of weather stations and a conductor spec, either as a
// one-shot CSV batch run or as a long-running HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brpaterson/linethermal"
	"github.com/brpaterson/linethermal/internal/processing"
	"github.com/brpaterson/linethermal/internal/variogram"
	"github.com/brpaterson/linethermal/pkg/config"
	"github.com/brpaterson/linethermal/pkg/ingest"
	"github.com/brpaterson/linethermal/pkg/server"
)

func main() {
	cfg := parseFlags()

	if cfg.HTTPServer {
		runServer(cfg)
		return
	}

	if err := runBatch(cfg); err != nil {
		log.Println("fatal:", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() *config.Config {
	cfg := config.DefaultConfig()

	flag.StringVar(&cfg.ConductorFile, "conductor", cfg.ConductorFile, "Conductor parameters file (JSON)")
	flag.StringVar(&cfg.RouteFile, "route", cfg.RouteFile, "Route vertices file (CSV)")
	flag.StringVar(&cfg.StationsFile, "stations", cfg.StationsFile, "Station manifest file (CSV)")
	flag.StringVar(&cfg.CurrentFile, "current", cfg.CurrentFile, "Current schedule file (CSV)")
	flag.Float64Var(&cfg.ConstantAmps, "amps", cfg.ConstantAmps, "Constant current in amperes (used if -current is not set)")
	flag.Float64Var(&cfg.DiscretizationStepM, "step", cfg.DiscretizationStepM, "Route discretization step, metres")
	flag.IntVar(&cfg.MCIterations, "iterations", cfg.MCIterations, "Monte Carlo iterations per (point, hour)")
	flag.Float64Var(&cfg.ConfidencePercentile, "percentile", cfg.ConfidencePercentile, "Confidence percentile for T_c_p90")
	flag.StringVar(&cfg.VariogramModel, "variogram", cfg.VariogramModel, "Variogram model: linear, spherical or exponential")
	flag.Var(&cfg.RiskBandThresholds, "band", "Custom risk band threshold (repeatable, ordered ascending)")
	flag.Uint64Var(&cfg.RNGMasterSeed, "seed", cfg.RNGMasterSeed, "Deterministic RNG master seed")
	flag.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "CSV output path (default stdout)")
	flag.UintVar(&cfg.Threads, "threads", cfg.Threads, "Number of worker threads")
	flag.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Suppress verbose output")
	flag.BoolVar(&cfg.HTTPServer, "http", cfg.HTTPServer, "Start HTTP server instead of a one-shot batch run")
	flag.BoolVar(&cfg.EnableProfiling, "profile", cfg.EnableProfiling, "Enable pprof profiling")

	flag.Parse()

	return cfg
}

// runServer starts the HTTP service.
func runServer(cfg *config.Config) {
	processor := processing.NewThermalProcessor()

	serverConfig := &config.ServerConfig{
		Port:            "8080",
		WorkerCount:     int(cfg.Threads),
		WebhookURL:      "http://webplot:3001/webhook",
		EnableMetrics:   true,
		EnableProfiling: cfg.EnableProfiling,
		ProfilingPort:   "6060",
	}

	srv := server.New(server.Options{
		Config:       cfg,
		ServerConfig: serverConfig,
		Processor:    processor.ProcessorFunc(),
	})

	setupGracefulShutdown(srv)

	if err := srv.Start(); err != nil {
		log.Fatal("failed to start server:", err)
	}
}

// setupGracefulShutdown wires SIGTERM/SIGINT to a clean server shutdown.
func setupGracefulShutdown(srv *server.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("received shutdown signal...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
		os.Exit(0)
	}()
}

// runBatch loads inputs from disk, runs the orchestrator once and writes
// the result table as CSV, per the CLI collaborator contract of spec.md
// §6: exit 0 on success, non-zero on any fatal error.
func runBatch(cfg *config.Config) error {
	if cfg.ConductorFile == "" || cfg.RouteFile == "" || cfg.StationsFile == "" {
		return fmt.Errorf("-conductor, -route and -stations are required for a batch run")
	}

	conductor, err := ingest.ReadConductorParameters(cfg.ConductorFile)
	if err != nil {
		return err
	}

	proj := linethermal.BrazilPolyconic{}

	vertices, err := ingest.ReadRouteVertices(cfg.RouteFile)
	if err != nil {
		return err
	}
	points, err := linethermal.DiscretizeRoute(vertices, cfg.DiscretizationStepM, proj)
	if err != nil {
		return err
	}

	stations, err := ingest.ReadStationSet(cfg.StationsFile, proj)
	if err != nil {
		return err
	}

	current, err := currentSchedule(cfg)
	if err != nil {
		return err
	}

	runCfg := linethermal.DefaultRunConfig()
	runCfg.DiscretizationStepM = cfg.DiscretizationStepM
	runCfg.MCIterations = cfg.MCIterations
	runCfg.ConfidencePercentile = cfg.ConfidencePercentile
	runCfg.RNGMasterSeed = cfg.RNGMasterSeed
	runCfg.MaxConcurrency = int(cfg.Threads)
	if kind, ok := parseVariogramKind(cfg.VariogramModel); ok {
		runCfg.VariogramModel = kind
	}
	if bands := customRiskBands(cfg.RiskBandThresholds); bands != nil {
		runCfg.RiskBands = bands
	}

	results, diag, err := linethermal.Run(context.Background(), conductor, points, stations, current, runCfg)
	if err != nil {
		return err
	}

	if !cfg.Quiet {
		log.Printf("run complete: %d rows, %d hours dropped (coverage), %d hours dropped (interpolation), %d results degraded",
			len(results), diag.HoursDroppedCoverage, diag.HoursDroppedInterpolation, diag.ResultsDegraded)
	}

	out := os.Stdout
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return ingest.WriteResults(out, results)
}

// currentSchedule resolves the current schedule from either the current
// file or the constant-amps flag.
func currentSchedule(cfg *config.Config) (linethermal.CurrentSchedule, error) {
	if cfg.CurrentFile != "" {
		return ingest.ReadCurrentSchedule(cfg.CurrentFile)
	}
	if cfg.ConstantAmps > 0 {
		return linethermal.ConstantCurrent(cfg.ConstantAmps), nil
	}
	return nil, fmt.Errorf("either -current or -amps must be set")
}

// customRiskBands overrides the default risk band thresholds with
// caller-supplied ones, keeping the default classes/recommendations
// paired positionally. Returns nil (use defaults) if the counts don't
// match.
func customRiskBands(thresholds config.ArrayFlags) []linethermal.RiskBand {
	if len(thresholds) == 0 {
		return nil
	}
	defaults := linethermal.DefaultRiskBands()
	if len(thresholds) != len(defaults) {
		log.Printf("warning: %d -band thresholds given, expected %d; using default risk bands", len(thresholds), len(defaults))
		return nil
	}
	bands := make([]linethermal.RiskBand, len(defaults))
	for i, band := range defaults {
		band.Threshold = thresholds[i]
		bands[i] = band
	}
	return bands
}

func parseVariogramKind(name string) (variogram.Kind, bool) {
	switch name {
	case "linear":
		return variogram.Linear, true
	case "spherical":
		return variogram.Spherical, true
	case "exponential":
		return variogram.Exponential, true
	default:
		return variogram.Linear, false
	}
}
