package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL     = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultModel       = "google/gemini-2.5-flash"
	defaultHTTPTimeout = 120 * time.Second
)

// ErrMissingAPIKey is returned when a call is attempted without a credential.
var ErrMissingAPIKey = errors.New("gateway: api key required")

// Config captures the runtime settings required to talk to the model gateway.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client issues chat completion requests against the model gateway.
// Every call is attempted exactly once.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a gateway client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Model:   strings.TrimSpace(cfg.Model),
			Timeout: timeout,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = DefaultModel
	}
	return client
}

// Configured reports whether the client holds a credential.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// StatusError is returned when the gateway answers with a non-success status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Message is one chat message. Content is either a string or a []ContentPart.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one element of a multi-part user message.
type ContentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	InputAudio *InputAudio `json:"input_audio,omitempty"`
}

// InputAudio attaches base64 audio to a message.
type InputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// SystemMessage builds a system prompt message.
func SystemMessage(prompt string) Message {
	return Message{Role: "system", Content: prompt}
}

// UserText builds a plain user message.
func UserText(text string) Message {
	return Message{Role: "user", Content: text}
}

// UserAudio builds a user message carrying an instruction and an audio attachment.
func UserAudio(instruction, base64Data, format string) Message {
	return Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: instruction},
			{Type: "input_audio", InputAudio: &InputAudio{Data: base64Data, Format: format}},
		},
	}
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the messages and returns the raw content of the first choice.
// An empty string is returned, without error, when the gateway answered but
// produced no content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}
	if len(messages) == 0 {
		return "", errors.New("gateway complete: at least one message required")
	}
	encoded, err := json.Marshal(chatCompletionRequest{Model: c.cfg.Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("gateway request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gateway request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request: http error (timeout=%s): %w", c.cfg.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gateway request: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("gateway request: decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
