package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/communitykit/smartqa/llm"
)

func newOllamaClient(host string) llm.StreamClient {
	return llm.NewOllamaClient(llm.Options{
		Provider:    "ollama",
		Model:       "qwen2.5",
		Temperature: 0.7,
		OllamaHost:  host,
	})
}

func TestOllamaGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "qwen2.5", req["model"])
		require.Equal(t, true, req["stream"])

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"您好"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"业主"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	client := newOllamaClient(srv.URL)

	var chunks []string
	err := client.GenerateStream(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "你好"},
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, []string{"您好", "业主"}, chunks)
}

func TestOllamaGenerateStreamSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := newOllamaClient(srv.URL)

	err := client.GenerateStream(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "你好"},
	}, func(string) error { return nil })

	require.Error(t, err)
	require.Contains(t, err.Error(), "model not found")
}

func TestOllamaGenerateStreamStopsOnInlineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"开始"},"done":false}`)
		fmt.Fprintln(w, `{"error":"context length exceeded"}`)
	}))
	defer srv.Close()

	client := newOllamaClient(srv.URL)

	var chunks []string
	err := client.GenerateStream(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "你好"},
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "context length exceeded")
	require.Equal(t, []string{"开始"}, chunks)
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, false, req["stream"])

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"完整回答"},"done":true}`)
	}))
	defer srv.Close()

	client := newOllamaClient(srv.URL)

	answer, err := client.Generate(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "你好"},
	})

	require.NoError(t, err)
	require.Equal(t, "完整回答", answer)
}
