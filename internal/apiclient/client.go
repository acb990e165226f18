// Package apiclient talks to the gateway's HTTP surface on behalf of capture
// sessions and the command-line client.
package apiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"indisense/sentiment-gateway/internal/capture"
	"indisense/sentiment-gateway/models"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	defaultTimeout = 150 * time.Second

	// errorBodyLimit bounds how much of an unparseable error body is kept.
	errorBodyLimit = 512
)

// APIError is a failure envelope returned by the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
	return e.Message
}

// Client implements capture.Transport over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ capture.Transport = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// New builds a client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze submits one payload to the matching analysis endpoint.
func (c *Client) Analyze(ctx context.Context, p capture.Payload) (*models.AnalysisResult, error) {
	var (
		route string
		body  any
	)
	switch v := p.(type) {
	case capture.TextPayload:
		route, body = "/api/v1/analyze/text", models.TextAnalysisRequest{Text: v.Text}
	case capture.MediaPayload:
		route = "/api/v1/analyze/audio"
		if v.Kind == capture.ModeVideo {
			route = "/api/v1/analyze/video"
		}
		body = models.MediaAnalysisRequest{
			AudioData: base64.StdEncoding.EncodeToString(v.Data),
			MimeType:  v.MimeType,
			FileName:  v.SourceName,
		}
	default:
		return nil, fmt.Errorf("apiclient: unsupported payload %T", p)
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, route, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.AnalysisResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != models.StatusAnalyzed {
		return nil, fmt.Errorf("apiclient: unexpected response status %q", resp.Status)
	}
	return resp.Result(), nil
}

// ArchiveResponse is the body of an accepted archival upload.
type ArchiveResponse struct {
	Status string             `json:"status"`
	Upload models.MediaUpload `json:"upload"`
}

// Archive uploads a file to the media archive.
func (c *Client) Archive(ctx context.Context, f capture.File) (*models.MediaUpload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	if f.MimeType != "" {
		header.Set("Content-Type", f.MimeType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/media", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp ArchiveResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Upload, nil
}

// ListUploadsResponse is the body of the archive listing.
type ListUploadsResponse struct {
	Status  string               `json:"status"`
	Uploads []models.MediaUpload `json:"uploads"`
}

// ListUploads returns the caller's archived media, newest first.
func (c *Client) ListUploads(ctx context.Context, limit int) ([]models.MediaUpload, error) {
	route := "/api/v1/media"
	if limit > 0 {
		route = fmt.Sprintf("%s?limit=%d", route, limit)
	}
	req, err := c.newRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, err
	}
	var resp ListUploadsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Uploads, nil
}

func (c *Client) newRequest(ctx context.Context, method, route string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var envelope models.ErrorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		return &APIError{StatusCode: status, Message: envelope.Message}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > errorBodyLimit {
		text = text[:errorBodyLimit]
	}
	return &APIError{StatusCode: status, Message: text}
}

// StatusCode extracts the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
