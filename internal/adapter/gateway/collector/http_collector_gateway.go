package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/auditjournal/internal/application/port/output"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
)

const (
	// JournalPath is appended to the collector base URL
	JournalPath = "/api/journal"

	// DefaultTimeout bounds a delivery when no timeout is configured
	DefaultTimeout = 10 * time.Second

	// maxErrorBody limits how much of a failed response ends up in logs
	maxErrorBody = 512
)

// HTTPCollectorGateway posts journals to the collector over HTTP
type HTTPCollectorGateway struct {
	endpoint string
	client   *http.Client
}

// HTTPConfig holds HTTP collector gateway configuration
type HTTPConfig struct {
	BaseURL string        // Collector base URL, e.g. https://journal.example.com
	Timeout time.Duration // Bound for one delivery (default: 10s)
}

// NewHTTPCollectorGateway creates a new HTTP-based collector gateway
func NewHTTPCollectorGateway(cfg HTTPConfig) *HTTPCollectorGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewHTTPCollectorGatewayWithClient(cfg.BaseURL, &http.Client{Timeout: timeout})
}

// NewHTTPCollectorGatewayWithClient creates a gateway with a custom HTTP client
func NewHTTPCollectorGatewayWithClient(baseURL string, client *http.Client) *HTTPCollectorGateway {
	return &HTTPCollectorGateway{
		endpoint: strings.TrimRight(baseURL, "/") + JournalPath,
		client:   client,
	}
}

// Endpoint returns the URL journals are posted to
func (g *HTTPCollectorGateway) Endpoint() string {
	return g.endpoint
}

// Send performs one blocking POST. Only 201 Created counts as delivered.
func (g *HTTPCollectorGateway) Send(ctx context.Context, j *journal.Journal) output.DeliveryResult {
	start := time.Now()
	failed := func(status int, err error) output.DeliveryResult {
		return output.DeliveryResult{
			Status:     output.DeliveryFailed,
			StatusCode: status,
			Err:        &journal.DeliveryError{StatusCode: status, Err: err},
			Elapsed:    time.Since(start),
		}
	}

	body, err := journal.Marshal(j)
	if err != nil {
		return failed(0, fmt.Errorf("marshal journal: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return failed(0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return failed(0, fmt.Errorf("post %s: %w", g.endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return failed(resp.StatusCode, fmt.Errorf("unexpected status %s: %s",
			resp.Status, strings.TrimSpace(string(snippet))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return output.DeliveryResult{
		Status:     output.DeliveryDelivered,
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
	}
}

// NoopCollectorGateway is used when no collector URL is configured
type NoopCollectorGateway struct{}

// Send reports the delivery as skipped
func (NoopCollectorGateway) Send(ctx context.Context, j *journal.Journal) output.DeliveryResult {
	return output.DeliveryResult{Status: output.DeliverySkipped}
}

var (
	_ output.CollectorGateway = (*HTTPCollectorGateway)(nil)
	_ output.CollectorGateway = NoopCollectorGateway{}
)
