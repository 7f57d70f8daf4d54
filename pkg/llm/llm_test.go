package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/llm/factory"
	"screening-onboarding-be/pkg/llm/ollama"
	"screening-onboarding-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.1", body["model"])
		assert.Equal(t, false, body["stream"])

		msgs := body["messages"].([]interface{})
		require.Len(t, msgs, 2)
		assert.Equal(t, "assistant", msgs[1].(map[string]interface{})["role"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "Use the test endpoint first."},
			"done":    true,
		})
	}))
	defer srv.Close()

	p := ollama.NewOllamaProvider(srv.URL+"/", "llama3.1")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: "model", Content: "earlier answer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Use the test endpoint first.", out)
}

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "override", body["model"])
		assert.EqualValues(t, 64, body["max_tokens"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "yes"}}},
		})
	}))
	defer srv.Close()

	p := openai.NewProvider("key", srv.URL+"/v1", "default-model")
	out, err := p.Generate(context.Background(), "Is this a yes?", llm.WithModel("override"), llm.WithMaxTokens(64))
	require.NoError(t, err)
	assert.Equal(t, "yes", out)
}

func TestOpenAIChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	_, err := openai.NewProvider("", srv.URL, "m").Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "503")
}

func TestFactory(t *testing.T) {
	_, err := factory.NewLLMProvider("ollama", "llama3.1", "", "")
	assert.NoError(t, err)
	_, err = factory.NewLLMProvider("openai", "gpt-4o-mini", "", "k")
	assert.NoError(t, err)
	_, err = factory.NewLLMProvider("openai", "", "", "k")
	assert.Error(t, err)
	_, err = factory.NewLLMProvider("gemini", "x", "", "")
	assert.Error(t, err)
}
