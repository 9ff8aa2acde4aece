package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brpaterson/linethermal"
	"github.com/brpaterson/linethermal/pkg/models"
)

// Pool manages concurrent thermal-risk computation workers, one whole
// orchestrator run per job — the service layer's parallel grain, distinct
// from the core's internal (point, hour) fan-out.
type Pool struct {
	jobs         chan models.WorkItem
	results      chan models.WorkResult
	webhookQueue chan models.WebhookItem
	workers      int
	bufferPool   sync.Pool
	shutdown     chan struct{}
	wg           sync.WaitGroup
	processor    ProcessorFunc
	sender       WebhookSender
}

// ProcessorFunc defines the signature for one orchestrator run.
type ProcessorFunc func(ctx context.Context, req models.ComputeRequest) ([]linethermal.HourlyResult, linethermal.Diagnostics, error)

// WebhookSender delivers a completed job's webhook summary; the server
// wires this to its configured webhook client.
type WebhookSender func(models.WebhookItem) error

// Options holds configuration for creating a new worker pool.
type Options struct {
	Workers   int
	Processor ProcessorFunc
	Sender    WebhookSender
}

// New creates a new worker pool with the specified configuration.
func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}

	pool := &Pool{
		jobs:         make(chan models.WorkItem, opts.Workers*2),
		results:      make(chan models.WorkResult, opts.Workers*2),
		webhookQueue: make(chan models.WebhookItem, opts.Workers*4),
		workers:      opts.Workers,
		shutdown:     make(chan struct{}),
		processor:    opts.Processor,
		sender:       opts.Sender,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return &models.BufferSet{
					Results: make([]linethermal.HourlyResult, 0, 256),
				}
			},
		},
	}

	pool.start()
	return pool
}

// start initializes and starts all workers.
func (p *Pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.wg.Add(1)
	go p.webhookProcessor()

	log.Printf("worker pool started with %d workers", p.workers)
}

// worker processes compute jobs from the jobs channel.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobs:
			result := p.processJob(job)
			p.results <- result

		case <-p.shutdown:
			return
		}
	}
}

// processJob runs one orchestrator call with buffer reuse for the
// result table.
func (p *Pool) processJob(job models.WorkItem) models.WorkResult {
	buffers := p.bufferPool.Get().(*models.BufferSet)
	defer p.bufferPool.Put(buffers)
	buffers.Results = buffers.Results[:0]

	startTime := time.Now()
	rows, diag, err := p.processor(context.Background(), job.Request)
	processingTime := time.Since(startTime)

	if err != nil {
		return models.WorkResult{
			ID:             job.ID,
			RequestID:      job.RequestID,
			BatchID:        job.BatchID,
			Iteration:      job.Iteration,
			ProcessingTime: processingTime,
			Success:        false,
			Err:            err.Error(),
		}
	}

	buffers.Results = append(buffers.Results, rows...)
	resultsCopy := make([]linethermal.HourlyResult, len(buffers.Results))
	copy(resultsCopy, buffers.Results)

	return models.WorkResult{
		ID:             job.ID,
		RequestID:      job.RequestID,
		BatchID:        job.BatchID,
		Iteration:      job.Iteration,
		Results:        resultsCopy,
		Diagnostics:    diag,
		ProcessingTime: processingTime,
		Success:        true,
	}
}

// webhookProcessor handles webhook requests asynchronously.
func (p *Pool) webhookProcessor() {
	defer p.wg.Done()

	for {
		select {
		case webhook := <-p.webhookQueue:
			go p.sendWebhook(webhook)

		case <-p.shutdown:
			return
		}
	}
}

// sendWebhook delivers one completed job's summary via the configured
// sender. If no sender was wired (e.g. in tests), it only logs.
func (p *Pool) sendWebhook(webhook models.WebhookItem) {
	if p.sender == nil {
		log.Printf("processing webhook for %s (no sender configured)", webhook.RequestID)
		return
	}
	if err := p.sender(webhook); err != nil {
		log.Printf("webhook delivery failed for %s: %v", webhook.RequestID, err)
	}
}

// SubmitJob submits a job to the worker pool.
func (p *Pool) SubmitJob(job models.WorkItem) {
	select {
	case p.jobs <- job:
	default:
		log.Printf("worker pool jobs channel full, job may be delayed")
		p.jobs <- job
	}
}

// GetResult retrieves a result from the worker pool (non-blocking).
func (p *Pool) GetResult() (models.WorkResult, bool) {
	select {
	case result := <-p.results:
		return result, true
	default:
		return models.WorkResult{}, false
	}
}

// QueueWebhook queues a webhook for async processing.
func (p *Pool) QueueWebhook(webhook models.WebhookItem) {
	select {
	case p.webhookQueue <- webhook:
	default:
		log.Printf("webhook queue full, dropping webhook for %s", webhook.RequestID)
	}
}

// Shutdown gracefully shuts down the worker pool.
func (p *Pool) Shutdown() {
	log.Printf("shutting down worker pool...")
	close(p.shutdown)
	p.wg.Wait()
	log.Printf("worker pool shutdown complete")
}
