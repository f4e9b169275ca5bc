package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/provider"
	"github.com/jaa/songmeta/internal/provider/gemini"
)

func testConfig() config.Provider {
	cfg := config.DefaultProvider(config.ProviderGemini)
	cfg.APIKey = "test-gemini-key"
	cfg.TimeoutSeconds = 5
	return cfg
}

func geminiSuccessResponse(parts ...string) map[string]interface{} {
	rendered := make([]map[string]interface{}, 0, len(parts))
	for _, p := range parts {
		rendered = append(rendered, map[string]interface{}{"text": p})
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content":      map[string]interface{}{"parts": rendered, "role": "model"},
				"finishReason": "STOP",
			},
		},
	}
}

func TestGeminiClient_Query_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		genCfg := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genCfg["responseMimeType"])

		_ = json.NewEncoder(w).Encode(geminiSuccessResponse(`{"title":"Tum Hi Ho",`, `"artist":"Arijit Singh"}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Endpoint = server.URL + "/v1beta/models"
	client, err := gemini.New(cfg)
	require.NoError(t, err)

	text, err := client.Query(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Tum Hi Ho","artist":"Arijit Singh"}`, text)
}

func TestGeminiClient_Query_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	_, err := gemini.NewWithEndpoint(testConfig(), server.URL).Query(context.Background(), "p")

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiClient_Query_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{http.StatusForbidden, `{"error":{"status":"PERMISSION_DENIED"}}`, func(t *testing.T, err error) {
			var target *provider.AuthenticationError
			require.ErrorAs(t, err, &target)
		}},
		{http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID","domain":"googleapis.com"}]}}`, func(t *testing.T, err error) {
			var target *provider.AuthenticationError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, http.StatusBadRequest, target.StatusCode)
			assert.True(t, provider.Fatal(err))
		}},
		{http.StatusBadRequest, `{"error":{"code":400,"message":"Invalid JSON payload","status":"INVALID_ARGUMENT"}}`, func(t *testing.T, err error) {
			var target *provider.TransportError
			require.ErrorAs(t, err, &target)
			assert.False(t, provider.Fatal(err))
		}},
		{http.StatusTooManyRequests, `{"error":{"status":"RESOURCE_EXHAUSTED","message":"Resource has been exhausted"}}`, func(t *testing.T, err error) {
			var target *provider.RateLimitError
			require.ErrorAs(t, err, &target)
		}},
		{http.StatusTooManyRequests, `{"error":{"status":"RESOURCE_EXHAUSTED","message":"Quota exceeded for metric generate_content_free_tier_requests, limit: GenerateRequestsPerDayPerProjectPerModel"}}`, func(t *testing.T, err error) {
			var target *provider.QuotaExceededError
			require.ErrorAs(t, err, &target)
		}},
		{http.StatusNotFound, `{"error":{"status":"NOT_FOUND"}}`, func(t *testing.T, err error) {
			var target *provider.ModelNotFoundError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, "gemini-1.5-flash", target.Model)
		}},
		{http.StatusInternalServerError, `{}`, func(t *testing.T, err error) {
			assert.True(t, provider.Retryable(err))
		}},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		_, err := gemini.NewWithEndpoint(testConfig(), server.URL).Query(context.Background(), "p")
		tc.check(t, err)
		server.Close()
	}
}

func TestGeminiNewRequiresAPIKey(t *testing.T) {
	_, err := gemini.New(config.DefaultProvider(config.ProviderGemini))

	var auth *provider.AuthenticationError
	require.ErrorAs(t, err, &auth)
}
