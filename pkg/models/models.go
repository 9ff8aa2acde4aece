package models

import (
	"time"

	"github.com/brpaterson/linethermal"
)

// ComputeRequest is the JSON request body for a single thermal-risk
// computation: conductor parameters, the already-discretized route, the
// station set with its joined hourly observations, a current schedule,
// and the subset of RunConfig a caller is allowed to override.
type ComputeRequest struct {
	Conductor            linethermal.ConductorParameters `json:"conductor"`
	Points               []linethermal.LinePoint         `json:"points"`
	Stations             []linethermal.Station           `json:"stations"`
	Current              linethermal.CurrentSchedule      `json:"current"`
	MCIterations         int                              `json:"mc_iterations,omitempty"`
	ConfidencePercentile float64                          `json:"confidence_percentile,omitempty"`
	VariogramModel       string                           `json:"variogram_model,omitempty"`
	RNGMasterSeed        uint64                           `json:"rng_master_seed,omitempty"`
}

// BatchItem is a single request within a batch, tagged for correlation
// with its asynchronous webhook.
type BatchItem struct {
	Iteration int            `json:"iteration"`
	Request   ComputeRequest `json:"request"`
}

// ComputeBatch is the JSON request body for POST /compute/batch.
type ComputeBatch struct {
	BatchID string      `json:"batch_id"`
	Items   []BatchItem `json:"items"`
}

// WorkItem is a single orchestrator run submitted to the worker pool —
// the service layer's unit of concurrency, one whole compute request
// per job, mirroring the teacher's one-spectrum-per-job pattern.
type WorkItem struct {
	ID        int
	RequestID string
	BatchID   string
	Iteration int
	Request   ComputeRequest
	StartTime time.Time
}

// WorkResult carries an orchestrator run's outcome back out of the pool.
type WorkResult struct {
	ID             int
	RequestID      string
	BatchID        string
	Iteration      int
	Results        []linethermal.HourlyResult
	Diagnostics    linethermal.Diagnostics
	ProcessingTime time.Duration
	Success        bool
	Err            string
}

// WebhookItem is a completed run queued for asynchronous delivery.
type WebhookItem struct {
	RequestID   string
	BatchID     string
	Results     []linethermal.HourlyResult
	Diagnostics linethermal.Diagnostics
}

// WebhookResponse is the payload POSTed to the configured webhook URL:
// a compact summary rather than the full result table; the rows
// themselves are not sent.
type WebhookResponse struct {
	ID                        string    `json:"id"`
	BatchID                   string    `json:"batch_id,omitempty"`
	Time                      string    `json:"time"`
	Rows                      int       `json:"rows"`
	MaxRisk                   float64   `json:"max_risk"`
	MaxRiskClass              string    `json:"max_risk_class"`
	HoursDroppedCoverage      int       `json:"hours_dropped_coverage"`
	HoursDroppedInterpolation int       `json:"hours_dropped_interpolation"`
	ResultsDegraded           int       `json:"results_degraded"`
}

// RunTiming tracks performance metrics for a single compute run within
// a batch, the thermal-domain analogue of the teacher's per-spectrum
// timing record.
type RunTiming struct {
	Iteration      int           `json:"iteration"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
	Rows           int           `json:"rows"`
	Success        bool          `json:"success"`
	MaxRisk        float64       `json:"max_risk"`
}

// BufferSet holds a reusable result-row slice, returned to its pool
// after each job to reduce allocations on the hot path — the thermal
// domain's analogue of the teacher's real/imag impedance buffers.
type BufferSet struct {
	Results []linethermal.HourlyResult
}
