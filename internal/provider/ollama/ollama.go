package ollama

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

const name = "ollama"

// Client talks to a local Ollama server. Only the HTTP timeout bounds a
// request; local inference can be slow.
type Client struct {
	model   string
	baseURL string
	client  *http.Client
}

func New(cfg config.Provider) (provider.Client, error) {
	return NewClient(cfg), nil
}

// NewClient returns the concrete client, which also exposes ListModels.
func NewClient(cfg config.Provider) *Client {
	baseURL := strings.TrimRight(cfg.Endpoint, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		model:   cfg.Model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (c *Client) Query(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, "/api/generate", bodyBytes)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &provider.TransportError{Provider: name, StatusCode: http.StatusOK, Err: fmt.Errorf("unmarshaling response: %w", err)}
	}
	if resp.Error != "" {
		return "", &provider.TransportError{Provider: name, StatusCode: http.StatusOK, Err: fmt.Errorf("ollama: %s", resp.Error)}
	}
	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return "", provider.EmptyReply(name, "blank response field")
	}
	return text, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	var resp tagsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling model list: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether model is installed. A name without a tag matches
// its ":latest" variant.
func HasModel(installed []string, model string) bool {
	for _, candidate := range installed {
		if candidate == model || strings.TrimSuffix(candidate, ":latest") == model {
			return true
		}
	}
	return false
}

func (c *Client) do(ctx context.Context, method string, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NetworkError(name, c.baseURL, true, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NetworkError(name, c.baseURL, true, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(string(respBody)), "not found") {
			return nil, &provider.ModelNotFoundError{
				Provider: name,
				Model:    c.model,
				Err:      fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
			}
		}
		return nil, provider.StatusError(name, c.model, resp, respBody)
	}
	return respBody, nil
}
