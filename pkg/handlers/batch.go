package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/brpaterson/linethermal/internal/utils"
	"github.com/brpaterson/linethermal/pkg/config"
	"github.com/brpaterson/linethermal/pkg/models"
	"github.com/brpaterson/linethermal/pkg/worker"
)

// BatchHandler handles batch thermal-risk computation requests.
type BatchHandler struct {
	config     *config.Config
	workerPool *worker.Pool
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(cfg *config.Config, pool *worker.Pool) *BatchHandler {
	return &BatchHandler{config: cfg, workerPool: pool}
}

// ServeHTTP implements the http.Handler interface.
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setupCORS(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var batch models.ComputeBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if len(batch.Items) == 0 {
		h.writeError(w, "No items provided in batch", http.StatusBadRequest)
		return
	}

	log.Printf("batch processing started - ID: %s, items: %d", batch.BatchID, len(batch.Items))

	go h.processBatchAsync(batch)

	response := map[string]interface{}{
		"success":  true,
		"batch_id": batch.BatchID,
		"items":    len(batch.Items),
		"message":  "Batch processing started with worker pool",
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

// processBatchAsync submits every item to the worker pool and collects
// results, then records per-item timing for offline analysis.
func (h *BatchHandler) processBatchAsync(batch models.ComputeBatch) {
	batchStartTime := time.Now()
	timings := make([]models.RunTiming, len(batch.Items))
	received := 0

	for _, item := range batch.Items {
		job := h.createWorkItem(item, batch.BatchID)
		h.workerPool.SubmitJob(job)
	}

	for received < len(batch.Items) {
		if result, ok := h.workerPool.GetResult(); ok {
			h.processResult(result, timings)
			received++
		} else {
			time.Sleep(time.Millisecond)
		}
	}

	totalBatchTime := time.Since(batchStartTime)
	concurrency := h.getConcurrency()
	h.saveTimingResults(batch.BatchID, totalBatchTime, timings, concurrency)

	log.Printf("batch processing completed - ID: %s, total time: %v", batch.BatchID, totalBatchTime)
}

// createWorkItem converts a batch item to a work item.
func (h *BatchHandler) createWorkItem(item models.BatchItem, batchID string) models.WorkItem {
	return models.WorkItem{
		ID:        item.Iteration,
		RequestID: utils.GenerateID(),
		BatchID:   batchID,
		Iteration: item.Iteration,
		Request:   item.Request,
		StartTime: time.Now(),
	}
}

// processResult records timing and queues the item's webhook.
func (h *BatchHandler) processResult(result models.WorkResult, timings []models.RunTiming) {
	maxRisk := 0.0
	for _, row := range result.Results {
		if row.Risk > maxRisk {
			maxRisk = row.Risk
		}
	}

	timings[result.Iteration] = models.RunTiming{
		Iteration:      result.Iteration,
		ProcessingTime: result.ProcessingTime,
		Rows:           len(result.Results),
		Success:        result.Success,
		MaxRisk:        maxRisk,
	}

	webhook := models.WebhookItem{
		RequestID:   fmt.Sprintf("%s_iter_%03d", result.RequestID, result.Iteration),
		BatchID:     result.BatchID,
		Results:     result.Results,
		Diagnostics: result.Diagnostics,
	}
	h.workerPool.QueueWebhook(webhook)

	if !h.config.Quiet {
		log.Printf("processed batch item %d", result.Iteration)
	}
}

// getConcurrency returns the current concurrency level.
func (h *BatchHandler) getConcurrency() int {
	concurrency := 5
	if h.config != nil && h.config.Threads > 0 {
		concurrency = int(h.config.Threads)
	}
	return concurrency
}

// saveTimingResults appends per-batch performance data to a CSV file for
// offline analysis, mirroring the teacher's concurrency benchmarking
// output.
func (h *BatchHandler) saveTimingResults(batchID string, totalTime time.Duration, timings []models.RunTiming, concurrency int) {
	filename := "batch_timing_results.csv"

	var writeHeader bool
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("error opening timing file: %v", err)
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if writeHeader {
		header := []string{
			"Timestamp", "BatchID", "Items", "Concurrency",
			"TotalBatchTime_ms", "AvgItemTime_ms", "MinItemTime_ms", "MaxItemTime_ms",
			"SuccessRate", "AvgMaxRisk", "ItemsPerSecond", "EfficiencyScore",
		}
		if err := writer.Write(header); err != nil {
			log.Printf("error writing timing header: %v", err)
			return
		}
	}

	var totalItemTime time.Duration
	var minTime, maxTime time.Duration = time.Hour, 0
	var successful int
	var totalRisk float64

	for _, t := range timings {
		totalItemTime += t.ProcessingTime
		if t.ProcessingTime < minTime {
			minTime = t.ProcessingTime
		}
		if t.ProcessingTime > maxTime {
			maxTime = t.ProcessingTime
		}
		if t.Success {
			successful++
			totalRisk += t.MaxRisk
		}
	}

	numItems := len(timings)
	avgItemTime := totalItemTime / time.Duration(numItems)
	successRate := float64(successful) / float64(numItems) * 100
	avgRisk := 0.0
	if successful > 0 {
		avgRisk = totalRisk / float64(successful)
	}

	itemsPerSecond := float64(numItems) / totalTime.Seconds()
	theoreticalTime := avgItemTime * time.Duration(numItems)
	efficiencyScore := theoreticalTime.Seconds() / totalTime.Seconds() / float64(concurrency)

	record := []string{
		time.Now().Format(time.RFC3339),
		batchID,
		fmt.Sprintf("%d", numItems),
		fmt.Sprintf("%d", concurrency),
		fmt.Sprintf("%.2f", float64(totalTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.2f", float64(avgItemTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.2f", float64(minTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.2f", float64(maxTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.1f", successRate),
		fmt.Sprintf("%.4f", avgRisk),
		fmt.Sprintf("%.2f", itemsPerSecond),
		fmt.Sprintf("%.3f", efficiencyScore),
	}
	if err := writer.Write(record); err != nil {
		log.Printf("error writing timing record: %v", err)
		return
	}

	log.Printf("timing saved: %d items, %d concurrency, %.2f ms total, %.2f%% success, %.3f efficiency",
		numItems, concurrency, float64(totalTime.Nanoseconds())/1000000.0, successRate, efficiencyScore)
}

// setupCORS sets up CORS headers.
func (h *BatchHandler) setupCORS(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeError writes an error response.
func (h *BatchHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
