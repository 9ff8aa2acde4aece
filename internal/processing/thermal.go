package processing

import (
	"context"
	"fmt"

	"github.com/brpaterson/linethermal"
	"github.com/brpaterson/linethermal/internal/variogram"
	"github.com/brpaterson/linethermal/pkg/models"
)

// ThermalProcessor drives one full orchestrator run per call: kriging,
// the CIGRE thermal solver, Monte Carlo propagation and risk analysis
// over a caller-supplied route, station set and conductor.
type ThermalProcessor struct{}

// NewThermalProcessor creates a new thermal-risk processor.
func NewThermalProcessor() *ThermalProcessor {
	return &ThermalProcessor{}
}

// Process runs the orchestrator against one ComputeRequest, applying
// its per-request overrides on top of the service-level defaults.
func (p *ThermalProcessor) Process(ctx context.Context, req models.ComputeRequest) ([]linethermal.HourlyResult, linethermal.Diagnostics, error) {
	if len(req.Points) == 0 {
		return nil, linethermal.Diagnostics{}, fmt.Errorf("no route points provided")
	}
	if len(req.Stations) == 0 {
		return nil, linethermal.Diagnostics{}, fmt.Errorf("no stations provided")
	}

	cfg := linethermal.DefaultRunConfig()
	if req.MCIterations > 0 {
		cfg.MCIterations = req.MCIterations
	}
	if req.ConfidencePercentile > 0 {
		cfg.ConfidencePercentile = req.ConfidencePercentile
	}
	if kind, ok := parseVariogramKind(req.VariogramModel); ok {
		cfg.VariogramModel = kind
	}
	cfg.RNGMasterSeed = req.RNGMasterSeed

	return linethermal.Run(ctx, req.Conductor, req.Points, req.Stations, req.Current, cfg)
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

// ProcessorFunc adapts Process to the worker pool's job signature.
func (p *ThermalProcessor) ProcessorFunc() func(ctx context.Context, req models.ComputeRequest) ([]linethermal.HourlyResult, linethermal.Diagnostics, error) {
	return p.Process
}
