package gemini

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
	name       = "gemini"
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Client implements provider.Client using Google's Gemini generateContent API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// New creates a Gemini client. A configured endpoint replaces the base URL;
// the model path is appended to it.
func New(cfg config.Provider) (provider.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &provider.AuthenticationError{Provider: name, Err: fmt.Errorf("no API key in $%s", cfg.APIKeyEnv)}
	}
	base := strings.TrimRight(cfg.Endpoint, "/")
	if base == "" {
		base = apiBaseURL
	}
	return newClient(cfg, fmt.Sprintf("%s/%s:generateContent", base, modelName(cfg))), nil
}

// NewWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewWithEndpoint(cfg config.Provider, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func modelName(cfg config.Provider) string {
	if cfg.Model == "" {
		return "gemini-1.5-flash"
	}
	return cfg.Model
}

func newClient(cfg config.Provider, endpoint string) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    modelName(cfg),
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Query(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"temperature":      0,
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
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", provider.NetworkError(name, c.endpoint, false, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", provider.NetworkError(name, c.endpoint, false, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode == http.StatusBadRequest && invalidKey(respBody) {
		return "", &provider.AuthenticationError{
			Provider:   name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s API rejected the key: %s", name, strings.TrimSpace(string(respBody))),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", provider.StatusError(name, c.model, resp, respBody)
	}

	return parseResponse(respBody)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func parseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &provider.TransportError{Provider: name, StatusCode: http.StatusOK, Err: fmt.Errorf("unmarshaling response: %w", err)}
	}
	if len(resp.Candidates) == 0 {
		detail := "no candidates"
		if resp.PromptFeedback.BlockReason != "" {
			detail += " (blocked: " + resp.PromptFeedback.BlockReason + ")"
		}
		return "", provider.EmptyReply(name, detail)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", provider.EmptyReply(name, "no text parts")
	}
	return text, nil
}

// invalidKey recognizes Gemini's answer to a bad key, which arrives as a 400
// INVALID_ARGUMENT rather than 401/403.
func invalidKey(body []byte) bool {
	text := string(body)
	return strings.Contains(text, "API_KEY_INVALID") || strings.Contains(text, "API key not valid")
}
