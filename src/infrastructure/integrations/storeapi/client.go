package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"storepilot/src/core/jobtrack"
)

const (
	DefaultURL = "http://localhost:8080"
)

// CreateStoreRequest is the body of POST /api/create-store
type CreateStoreRequest struct {
	Prompt string `json:"prompt"`
}

// EditProductRequest is the body of POST /api/edit-product
type EditProductRequest struct {
	ProductID string `json:"product_id"`
	Prompt    string `json:"prompt"`
}

// StartResponse is returned by both start endpoints
type StartResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is returned by GET /api/job-status/:id
type StatusResponse struct {
	jobtrack.Job
	Prompt      string `json:"prompt"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// RecentStore is one entry of GET /api/recent-stores
type RecentStore struct {
	ID            string `json:"id"`
	Prompt        string `json:"prompt"`
	StoreName     string `json:"store_name"`
	StoreURL      string `json:"store_url"`
	ProductsCount int    `json:"products_count"`
	CreatedAt     string `json:"created_at"`
	Mode          string `json:"mode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the store builder backend
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new backend client
func NewClient(baseURL string, c *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if c == nil {
		c = http.DefaultClient
	}

	return &Client{
		httpClient: c,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// StartJob implements jobtrack.JobStarter
func (c *Client) StartJob(ctx context.Context, op jobtrack.Operation) (string, error) {
	var (
		path string
		body interface{}
	)
	switch op.Kind {
	case jobtrack.KindStoreCreation:
		path, body = "/api/create-store", CreateStoreRequest{Prompt: op.Prompt}
	case jobtrack.KindProductEdit:
		path, body = "/api/edit-product", EditProductRequest{ProductID: op.ProductID, Prompt: op.Prompt}
	default:
		return "", fmt.Errorf("unsupported job kind: %s", op.Kind)
	}

	var resp StartResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("response did not include a job id")
	}
	return resp.JobID, nil
}

// JobStatus implements jobtrack.StatusQuerier
func (c *Client) JobStatus(ctx context.Context, id string) (*jobtrack.Job, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/job-status/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Status returns the full status document, including prompt and timestamps
func (c *Client) Status(ctx context.Context, id string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/job-status/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecentStores lists the most recently created stores
func (c *Client) RecentStores(ctx context.Context) ([]RecentStore, error) {
	var stores []RecentStore
	if err := c.do(ctx, http.MethodGet, "/api/recent-stores", nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		return &jobtrack.APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
