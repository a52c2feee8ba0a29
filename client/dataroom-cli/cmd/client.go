package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to the RAG service's HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// SearchHit is one result as printed by the CLI.
type SearchHit struct {
	Chunk struct {
		ID         string `json:"id"`
		Content    string `json:"content"`
		DocumentID string `json:"documentId"`
		ChunkIndex int    `json:"chunkIndex"`
	} `json:"chunk"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights"`
}

// UploadResult is the response of POST /documents.
type UploadResult struct {
	DocumentID    string `json:"documentId"`
	ChunksCreated int    `json:"chunksCreated"`
}

// Health is the response of GET /health.
type Health struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	ActiveProjects int    `json:"activeProjects"`
}

// Upload sends a file to POST /documents.
func (c *Client) Upload(ctx context.Context, projectID, path, category string, content io.Reader) (UploadResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("projectId", projectID)
	if category != "" {
		_ = w.WriteField("category", category)
	}
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, err
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", &body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var res UploadResult
	return res, c.do(req, &res)
}

// Search sends a query to POST /search.
func (c *Client) Search(ctx context.Context, projectID, query string, limit int) ([]SearchHit, error) {
	var data struct {
		Results []SearchHit `json:"results"`
	}
	err := c.sendJSON(ctx, http.MethodPost, "/search", map[string]interface{}{
		"projectId": projectID,
		"query":     query,
		"limit":     limit,
	}, &data)
	return data.Results, err
}

// Remove deletes a document with DELETE /documents.
func (c *Client) Remove(ctx context.Context, projectID, documentID string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/documents", map[string]string{
		"projectId":  projectID,
		"documentId": documentID,
	}, nil)
}

// Health calls GET /health. The health body is not wrapped in data.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Health{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Health{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("service is unhealthy: HTTP %d", resp.StatusCode)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("failed to decode health response: %w", err)
	}
	return h, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends req and decodes the envelope's data into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
