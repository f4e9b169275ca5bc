package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/provider"
)

const (
	name   = "openai"
	apiURL = "https://api.openai.com/v1/chat/completions"
)

// Client implements provider.Client using the OpenAI Chat Completions API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// New creates an OpenAI client from a provider config block.
func New(cfg config.Provider) (provider.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &provider.AuthenticationError{Provider: name, Err: fmt.Errorf("no API key in $%s", cfg.APIKeyEnv)}
	}
	return newClient(cfg, cfg.Endpoint), nil
}

// NewWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewWithEndpoint(cfg config.Provider, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg config.Provider, endpoint string) *Client {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	if endpoint == "" {
		endpoint = apiURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Query(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": "You are a music metadata expert. Reply with a single JSON object.",
			},
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": 0,
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", provider.NetworkError(name, c.endpoint, false, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", provider.NetworkError(name, c.endpoint, false, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", provider.StatusError(name, c.model, resp, respBody)
	}

	return parseResponse(respBody)
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &provider.TransportError{Provider: name, StatusCode: http.StatusOK, Err: fmt.Errorf("unmarshaling response: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return "", provider.EmptyReply(name, "no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", provider.EmptyReply(name, "finish_reason "+resp.Choices[0].FinishReason)
	}
	return text, nil
}
