package ollama_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/provider"
	"github.com/jaa/songmeta/internal/provider/ollama"
)

func testConfig(endpoint string) config.Provider {
	cfg := config.DefaultProvider(config.ProviderOllama)
	cfg.Endpoint = endpoint
	cfg.TimeoutSeconds = 5
	return cfg
}

func TestOllamaClient_Query_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "llama3.1", reqBody["model"])
		assert.Equal(t, false, reqBody["stream"])
		assert.Equal(t, "json", reqBody["format"])
		assert.Equal(t, "prompt text", reqBody["prompt"])

		_, _ = w.Write([]byte(`{"model":"llama3.1","response":"{\"title\":\"Moon River\"}","done":true}`))
	}))
	defer server.Close()

	client, err := ollama.New(testConfig(server.URL + "/"))
	require.NoError(t, err)

	text, err := client.Query(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Moon River"}`, text)
}

func TestOllamaClient_Query_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama3.1\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	_, err := ollama.NewClient(testConfig(server.URL)).Query(context.Background(), "p")

	var missing *provider.ModelNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "llama3.1", missing.Model)
	assert.True(t, provider.Fatal(err))
}

func TestOllamaClient_Query_ServerDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = ollama.NewClient(testConfig("http://"+addr)).Query(context.Background(), "p")

	var down *provider.ServerUnavailableError
	require.ErrorAs(t, err, &down)
	assert.True(t, provider.Fatal(err))
}

func TestOllamaClient_Query_BlankResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"  ","done":true}`))
	}))
	defer server.Close()

	_, err := ollama.NewClient(testConfig(server.URL)).Query(context.Background(), "p")

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
}

func TestOllamaClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.1:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer server.Close()

	models, err := ollama.NewClient(testConfig(server.URL)).ListModels(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"llama3.1:latest", "mistral:7b"}, models)
	assert.True(t, ollama.HasModel(models, "llama3.1"))
	assert.True(t, ollama.HasModel(models, "mistral:7b"))
	assert.False(t, ollama.HasModel(models, "mistral"))
}
