package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/brpaterson/linethermal"
	"github.com/brpaterson/linethermal/internal/utils"
	"github.com/brpaterson/linethermal/pkg/config"
	"github.com/brpaterson/linethermal/pkg/models"
	"github.com/brpaterson/linethermal/pkg/worker"
)

// ProcessorFunc defines the signature for one orchestrator run.
type ProcessorFunc func(ctx context.Context, req models.ComputeRequest) ([]linethermal.HourlyResult, linethermal.Diagnostics, error)

// ComputeHandler handles single thermal-risk computation requests.
type ComputeHandler struct {
	config     *config.Config
	workerPool *worker.Pool
	processor  ProcessorFunc
}

// NewComputeHandler creates a new compute handler.
func NewComputeHandler(cfg *config.Config, pool *worker.Pool, processor ProcessorFunc) *ComputeHandler {
	return &ComputeHandler{config: cfg, workerPool: pool, processor: processor}
}

// ServeHTTP implements the http.Handler interface.
func (h *ComputeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setupCORS(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if len(req.Points) == 0 {
		h.writeError(w, "No route points provided", http.StatusBadRequest)
		return
	}
	if len(req.Stations) == 0 {
		h.writeError(w, "No stations provided", http.StatusBadRequest)
		return
	}

	requestID := utils.GenerateID()

	go h.processAsync(requestID, req)

	if !h.config.Quiet {
		log.Printf("compute request received - ID: %s, points: %d, stations: %d", requestID, len(req.Points), len(req.Stations))
	}

	response := map[string]interface{}{
		"success":    true,
		"request_id": requestID,
		"message":    "Computation started",
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

// processAsync runs the orchestrator directly (no worker pool queueing
// for single requests, matching the teacher's single-item handler) and
// hands the outcome to the pool only for asynchronous webhook delivery.
func (h *ComputeHandler) processAsync(requestID string, req models.ComputeRequest) {
	results, diag, err := h.processor(context.Background(), req)
	if err != nil {
		log.Printf("compute request %s failed: %v", requestID, err)
		return
	}

	webhook := models.WebhookItem{
		RequestID:   requestID,
		Results:     results,
		Diagnostics: diag,
	}
	h.workerPool.QueueWebhook(webhook)
}

// setupCORS sets up CORS headers.
func (h *ComputeHandler) setupCORS(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeError writes an error response.
func (h *ComputeHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
