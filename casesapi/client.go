// Package casesapi is the HTTP client for the upstream cases API, which owns
// case storage, transcription and structuring.
package casesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/aldeia/relatos-dashboard/metrics"
)

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 64 * 1024

// APIError is a non-2xx answer from the upstream. Detail is the upstream
// `detail` field, or the HTTP status text when the body carries none.
type APIError struct {
	StatusCode int
	Detail     string
	Op         string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Detail, e.StatusCode)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the cases API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL whose calls time out after timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a client using hc for transport.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// BaseURL returns the upstream root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListCases fetches at most limit cases, newest first as the upstream orders them.
func (c *Client) ListCases(ctx context.Context, limit int) (*entities.CaseList, error) {
	path := "/api/relatos?limit=" + strconv.Itoa(limit)
	var out entities.CaseList
	if err := c.do(ctx, "list_cases", http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCase fetches one case with its structured data when present.
func (c *Client) GetCase(ctx context.Context, id int) (*entities.Case, error) {
	var out entities.Case
	if err := c.do(ctx, "get_case", http.MethodGet, casePath(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitText creates a case from report text.
func (c *Client) SubmitText(ctx context.Context, text string) (*entities.CaseCreated, error) {
	body, err := json.Marshal(map[string]string{"relato": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode text submission: %w", err)
	}
	var out entities.CaseCreated
	if err := c.do(ctx, "submit_text", http.MethodPost, "/api/relatos/texto",
		bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCase applies a partial update to a case.
func (c *Client) UpdateCase(ctx context.Context, id int, update entities.CaseUpdate) (*entities.CaseUpdated, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode case update: %w", err)
	}
	var out entities.CaseUpdated
	if err := c.do(ctx, "update_case", http.MethodPut, casePath(id),
		bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCase removes a case upstream.
func (c *Client) DeleteCase(ctx context.Context, id int) (*entities.CaseDeleted, error) {
	var out entities.CaseDeleted
	if err := c.do(ctx, "delete_case", http.MethodDelete, casePath(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStructuredData applies a partial update to a case's structured data.
func (c *Client) UpdateStructuredData(ctx context.Context, id int, update entities.StructuredDataUpdate) (*entities.StructuredDataUpdated, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode structured data update: %w", err)
	}
	var out entities.StructuredDataUpdated
	if err := c.do(ctx, "update_structured_data", http.MethodPut, casePath(id)+"/structured-data",
		bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetExplanation returns the stored explanation of a case. A case that was
// never explained yields an *APIError for which IsNotFound is true.
func (c *Client) GetExplanation(ctx context.Context, id int) (*entities.ExplanationResponse, error) {
	var out entities.ExplanationResponse
	if err := c.do(ctx, "get_explanation", http.MethodGet, casePath(id)+"/explicacao", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain asks the upstream to generate an explanation. With force the
// previous one is discarded and regenerated.
func (c *Client) Explain(ctx context.Context, id int, force bool) (*entities.ExplanationResponse, error) {
	path := casePath(id) + "/explicar?force=" + strconv.FormatBool(force)
	var out entities.ExplanationResponse
	if err := c.do(ctx, "explain", http.MethodPost, path, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func casePath(id int) string {
	return "/api/relatos/" + url.PathEscape(strconv.Itoa(id))
}

// do performs one upstream call, recording its latency under op, and decodes
// a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("%s: upstream request failed: %w", op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close upstream response body", "op", op, "error", err)
		}
	}()
	metrics.UpstreamRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).
		Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func newAPIError(op string, resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Detail:     http.StatusText(resp.StatusCode),
		Op:         op,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 || string(body.Detail) == "null" {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		if detail != "" {
			apiErr.Detail = detail
		}
		return apiErr
	}

	// Validation failures carry a structured detail; keep it as compact JSON.
	var compact bytes.Buffer
	if err := json.Compact(&compact, body.Detail); err == nil {
		apiErr.Detail = compact.String()
	}
	return apiErr
}
