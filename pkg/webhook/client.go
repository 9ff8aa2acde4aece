package webhook

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/brpaterson/linethermal"
	"github.com/brpaterson/linethermal/pkg/config"
	"github.com/brpaterson/linethermal/pkg/models"
)

// Client handles webhook HTTP requests with optimized connection pooling.
type Client struct {
	url        string
	httpClient *http.Client
	config     *config.Config
	bufferPool sync.Pool // Pool for JSON marshaling buffers
}

// NewClient creates a new webhook client with optimized connection
// pooling, carried over from the teacher's transport tuning unchanged.
func NewClient(url string, cfg *config.Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},

		ResponseHeaderTimeout: 30 * time.Second,
		DisableCompression:    true,
		ForceAttemptHTTP2:     false,
	}

	return &Client{
		url:    url,
		config: cfg,
		httpClient: &http.Client{
			Timeout:   45 * time.Second,
			Transport: transport,
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 1024))
			},
		},
	}
}

// Send delivers a compact risk summary for one completed orchestrator
// run: row count, worst-case risk and class, and the diagnostics tallies
// a downstream dashboard needs to flag a run as degraded.
func (c *Client) Send(webhook models.WebhookItem) error {
	maxRisk, maxClass := worstCase(webhook.Results)

	payload := models.WebhookResponse{
		ID:                        webhook.RequestID,
		BatchID:                   webhook.BatchID,
		Time:                      time.Now().Format(time.RFC3339Nano),
		Rows:                      len(webhook.Results),
		MaxRisk:                   c.sanitizeFloat(maxRisk),
		MaxRiskClass:              string(maxClass),
		HoursDroppedCoverage:      webhook.Diagnostics.HoursDroppedCoverage,
		HoursDroppedInterpolation: webhook.Diagnostics.HoursDroppedInterpolation,
		ResultsDegraded:           webhook.Diagnostics.ResultsDegraded,
	}

	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.bufferPool.Put(buf)

	encoder := json.NewEncoder(buf)
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("failed to marshal webhook data: %w", err)
	}

	if !c.config.Quiet {
		log.Printf("webhook payload - rows: %d, max risk: %.4f (%s)", payload.Rows, payload.MaxRisk, payload.MaxRiskClass)
	}

	resp, err := c.httpClient.Post(c.url, "application/json", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if !c.config.Quiet {
		log.Printf("webhook sent - ID: %s, rows: %d, status: %d", webhook.RequestID, payload.Rows, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	return nil
}

// worstCase finds the highest exceedance probability across a result
// table and the class it was assigned, for the webhook's headline
// number.
func worstCase(results []linethermal.HourlyResult) (float64, linethermal.RiskClass) {
	var maxRisk float64
	var class linethermal.RiskClass = linethermal.RiskLow
	for _, r := range results {
		if r.Risk > maxRisk {
			maxRisk = r.Risk
			class = r.RiskClass
		}
	}
	return maxRisk, class
}

// sanitizeFloat cleans float64 values for JSON compatibility.
func (c *Client) sanitizeFloat(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0.0
	}
	return value
}
