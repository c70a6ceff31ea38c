// Package notify pushes classified activity samples to an external HTTP
// service. Delivery failures are reported to the caller but are expected to
// be treated as non-fatal by the sampling loop.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/httputil"
	"github.com/banshee-data/activity.report/internal/monitoring"
)

// DefaultTimeout bounds each outbound request.
const DefaultTimeout = 10 * time.Second

// Client sends activity events to a configured service URL, authenticating
// with a bearer token when one is configured.
type Client struct {
	serviceURL string
	apiKey     string
	http       httputil.HTTPClient
}

// NewClient creates a notification client. A nil httpClient gets a standard
// client with the default timeout.
func NewClient(serviceURL, apiKey string, httpClient httputil.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(&http.Client{Timeout: DefaultTimeout})
	}
	return &Client{
		serviceURL: serviceURL,
		apiKey:     apiKey,
		http:       httpClient,
	}
}

// payload is the wire format of one activity event.
type payload struct {
	Timestamp int64             `json:"timestamp"`
	DateTime  string            `json:"date_time"`
	Activity  activity.Label    `json:"activity"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SendActivity delivers one classified activity to the external service. A
// non-2xx response or transport failure returns an error; the caller decides
// whether that is fatal.
func (c *Client) SendActivity(timestamp int64, label activity.Label, metadata map[string]string) error {
	body, err := json.Marshal(payload{
		Timestamp: timestamp,
		DateTime:  time.Unix(timestamp, 0).Format("2006-01-02 15:04:05"),
		Activity:  label,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to encode activity payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.serviceURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach notification service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification service answered %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	monitoring.Logf("activity %q delivered to notification service", label)
	return nil
}

// Status probes the service's /status endpoint and returns its decoded JSON
// body.
func (c *Client) Status() (map[string]any, error) {
	statusURL := strings.TrimRight(c.serviceURL, "/") + "/status"

	req, err := http.NewRequest(http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach notification service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint answered %d", resp.StatusCode)
	}

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return status, nil
}
