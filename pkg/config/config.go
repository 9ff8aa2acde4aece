package config

import (
	"strconv"
	"strings"
)

// ArrayFlags collects repeated -band flag occurrences into an ordered
// risk-band threshold list (fraction, e.g. 0.01 for 1%), the same
// repeatable-flag idiom the CLI previously used for solver initial
// values.
type ArrayFlags []float64

func (a *ArrayFlags) String() string {
	parts := make([]string, len(*a))
	for i, v := range *a {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (a *ArrayFlags) Set(value string) error {
	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	*a = append(*a, val)
	return nil
}

// Config holds all configuration settings for the thermal-risk engine.
type Config struct {
	ConductorFile string // path to conductor parameters (JSON)
	RouteFile     string // path to route vertices (CSV)
	StationsFile  string // path to station manifest (CSV) listing per-station observation files
	CurrentFile   string // path to current schedule (CSV); empty means constant current
	ConstantAmps  float64

	DiscretizationStepM  float64
	MCIterations         int
	ConfidencePercentile float64
	VariogramModel       string // linear | spherical | exponential
	RiskBandThresholds   ArrayFlags
	RNGMasterSeed        uint64

	OutputFile string // CSV output path; empty means stdout

	Threads         uint
	Quiet           bool
	HTTPServer      bool
	EnableProfiling bool
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port            string
	WorkerCount     int
	WebhookURL      string
	EnableMetrics   bool
	EnableProfiling bool
	ProfilingPort   string
}

// DefaultConfig returns a configuration with the defaults named in
// spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		DiscretizationStepM:  1000,
		MCIterations:         10000,
		ConfidencePercentile: 90,
		VariogramModel:       "linear",
		Threads:              5,
		Quiet:                false,
		HTTPServer:           false,
	}
}

// DefaultServerConfig returns server configuration with sensible
// defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            "8080",
		WorkerCount:     5,
		WebhookURL:      "http://webplot:3001/webhook",
		EnableMetrics:   true,
		EnableProfiling: false,
		ProfilingPort:   "6060",
	}
}
