// Package submit posts captured markup to the backend and turns whatever
// comes back into exactly one models.Outcome.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/use-agent/pagedrop/models"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client sends documents to one fixed backend endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each submission. The default is no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a Client for endpoint. Pass nil for a default
// http.Client without a timeout.
func NewClient(endpoint string, httpClient *http.Client, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("submit: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("submit: endpoint %q must be http or https", endpoint)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{endpoint: endpoint, httpClient: httpClient}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Endpoint returns the configured backend URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Submit POSTs doc as text/plain and parses the JSON reply. It never
// retries and never returns anything but a single Outcome: transport and
// decode errors become a Failure.
func (c *Client) Submit(ctx context.Context, doc string) models.Outcome {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.post(ctx, doc)
	if err != nil {
		slog.Warn("submission failed",
			"endpoint", c.endpoint,
			"bytes", len(doc),
			"elapsed", time.Since(start),
			"error", err,
		)
		return models.Failure(err)
	}

	slog.Info("submission answered",
		"endpoint", c.endpoint,
		"bytes", len(doc),
		"message", resp.Message,
		"fields", len(resp.Pairs()),
		"elapsed", time.Since(start),
	)
	return models.Success(resp)
}

// SubmitAsync runs Submit on its own goroutine. The channel receives
// exactly one Outcome and is then closed.
func (c *Client) SubmitAsync(ctx context.Context, doc string) <-chan models.Outcome {
	out := make(chan models.Outcome, 1)
	go func() {
		defer close(out)
		out <- c.Submit(ctx, doc)
	}()
	return out
}

func (c *Client) post(ctx context.Context, doc string) (*models.BackendResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(doc))
	if err != nil {
		return nil, models.NewSubmissionError(models.ErrCodeTransport, "build request", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewSubmissionError(models.ErrCodeTransport, "send to backend", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, models.NewSubmissionError(models.ErrCodeTransport, "read backend reply", err)
	}

	out, err := Decode(body)
	if err != nil {
		return nil, models.NewSubmissionError(models.ErrCodeDecode,
			fmt.Sprintf("backend replied %d with unusable body", resp.StatusCode), err)
	}
	return out, nil
}

// Decode parses a backend reply. The body must be a JSON object; "data",
// when present, must be an object too.
func Decode(body []byte) (*models.BackendResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("body is not a JSON object")
	}
	var out models.BackendResponse
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
