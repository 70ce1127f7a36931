// Package client provides an HTTP client for the file search service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/raphaelgruber/ragdex/internal/metrics"
	"github.com/raphaelgruber/ragdex/internal/models"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Metrics           *metrics.Collector
}

// Client talks to the file search service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Collector
}

// New creates a new client for the given base URL.
// If baseURL is empty, uses RAGDEX_SERVER_URL or defaults to localhost:8000.
func New(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("RAGDEX_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5.0
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		metrics:    opts.Metrics,
	}
}

// OperationDescriptor is returned by the ingestion endpoints for each
// submitted document.
type OperationDescriptor struct {
	Operation    string  `json:"operation"`
	DocumentName string  `json:"document_name"`
	DisplayName  string  `json:"display_name"`
	Store        string  `json:"store"`
	Done         bool    `json:"done"`
	Error        *string `json:"error,omitempty"`
}

// OperationStatus is one snapshot of an indexing operation.
type OperationStatus struct {
	Done         bool    `json:"done"`
	Error        *string `json:"error,omitempty"`
	DocumentName string  `json:"document_name"`
	DisplayName  string  `json:"display_name"`
	Store        string  `json:"store"`
}

// Citation is one grounding reference attached to an answer.
type Citation struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	URI                 string `json:"uri"`
	Snippet             string `json:"snippet"`
	ChunkReference      string `json:"chunk_reference"`
	DocumentPath        string `json:"document_path"`
	DocumentDisplayName string `json:"document_display_name"`
	DocumentURI         string `json:"document_uri"`
}

// AskRequest is the payload for a grounded question.
type AskRequest struct {
	Question    string   `json:"question"`
	StoreID     string   `json:"store_id,omitempty"`
	MaxChunks   *int     `json:"max_chunks,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// AskResponse is a synthesized answer with its citations.
type AskResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// record notes a request outcome with the metrics collector, if any.
func (c *Client) record(op string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.Record(op, time.Since(start), err)
	}
}

// do performs one JSON request against the service.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	return c.send(req, result)
}

// send executes a prepared request and decodes the JSON response.
func (c *Client) send(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server error: %s - %s", resp.Status, string(data))
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// =============================================================================
// STORE OPERATIONS
// =============================================================================

// ListStores returns all file search stores.
func (c *Client) ListStores(ctx context.Context) (stores []models.Store, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpStores, start, err) }()

	var result struct {
		Stores []models.Store `json:"stores"`
	}
	if err = c.do(ctx, http.MethodGet, "/stores", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Stores, nil
}

// CreateStore creates a new file search store.
func (c *Client) CreateStore(ctx context.Context, displayName string) (store *models.Store, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpStores, start, err) }()

	body := map[string]string{"display_name": displayName}
	var result struct {
		Store models.Store `json:"store"`
	}
	if err = c.do(ctx, http.MethodPost, "/stores", nil, body, &result); err != nil {
		return nil, err
	}
	return &result.Store, nil
}

// GetStore returns details for one store.
func (c *Client) GetStore(ctx context.Context, id string) (store *models.Store, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpStores, start, err) }()

	var result struct {
		Store models.Store `json:"store"`
	}
	if err = c.do(ctx, http.MethodGet, "/stores/"+id, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result.Store, nil
}

// =============================================================================
// INGESTION
// =============================================================================

// Upload submits local files for indexing and returns one operation
// descriptor per file. It does not wait for indexing to finish.
func (c *Client) Upload(ctx context.Context, storeID string, paths []string) (ops []OperationDescriptor, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpUpload, start, err) }()

	if len(paths) == 0 {
		return nil, fmt.Errorf("no files provided")
	}

	if err = c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, path := range paths {
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open %s: %w", path, openErr)
		}
		part, formErr := w.CreateFormFile("files", filepath.Base(path))
		if formErr != nil {
			f.Close()
			return nil, fmt.Errorf("create form file: %w", formErr)
		}
		if _, copyErr := io.Copy(part, f); copyErr != nil {
			f.Close()
			return nil, fmt.Errorf("read %s: %w", path, copyErr)
		}
		f.Close()
	}
	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	u := c.baseURL + "/upload"
	if storeID != "" {
		u += "?" + url.Values{"store_id": {storeID}}.Encode()
	}
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Request-ID", uuid.New().String())

	var result struct {
		Uploaded []OperationDescriptor `json:"uploaded"`
	}
	if err = c.send(req, &result); err != nil {
		return nil, err
	}
	return result.Uploaded, nil
}

// UploadURL submits a remote document by URL for indexing.
func (c *Client) UploadURL(ctx context.Context, storeID, docURL, displayName string) (ops []OperationDescriptor, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpUpload, start, err) }()

	body := map[string]string{"url": docURL}
	if displayName != "" {
		body["display_name"] = displayName
	}

	query := url.Values{}
	if storeID != "" {
		query.Set("store_id", storeID)
	}

	var result struct {
		Uploaded []OperationDescriptor `json:"uploaded"`
	}
	if err = c.do(ctx, http.MethodPost, "/upload-url", query, body, &result); err != nil {
		return nil, err
	}
	return result.Uploaded, nil
}

// =============================================================================
// LISTING AND STATUS
// =============================================================================

// ListDocuments fetches the authoritative document listing for a store.
func (c *Client) ListDocuments(ctx context.Context, storeID string) (docs []models.Document, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpListing, start, err) }()

	query := url.Values{}
	if storeID != "" {
		query.Set("store_id", storeID)
	}

	var result struct {
		Files []models.Document `json:"files"`
	}
	if err = c.do(ctx, http.MethodGet, "/files", query, nil, &result); err != nil {
		return nil, err
	}
	return result.Files, nil
}

// GetOperationStatus fetches a status snapshot for an operation.
// Safe to call repeatedly; the endpoint is idempotent.
func (c *Client) GetOperationStatus(ctx context.Context, name string) (st *OperationStatus, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpPoll, start, err) }()

	query := url.Values{"name": {name}}
	var result OperationStatus
	if err = c.do(ctx, http.MethodGet, "/operation-status", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// QUERY
// =============================================================================

// Ask submits a grounded question and returns the answer with citations.
func (c *Client) Ask(ctx context.Context, req AskRequest) (resp *AskResponse, err error) {
	start := time.Now()
	defer func() { c.record(metrics.OpAsk, start, err) }()

	var result AskResponse
	if err = c.do(ctx, http.MethodPost, "/ask", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
