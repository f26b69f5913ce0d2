package services_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forexbot/forexbot/internal/services"
	"github.com/stretchr/testify/require"
)

func TestOllamaChat(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		recordBody(r, bodies)
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range []string{
			`{"model":"llama3","message":{"role":"assistant","content":"A pip "},"done":false}`,
			`{"model":"llama3","message":{"role":"assistant","content":"is 0.0001."},"done":false}`,
			`{"model":"llama3","message":{"role":"assistant","content":""},"done":true}`,
		} {
			_, _ = io.WriteString(w, line+"\n")
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	o, err := services.NewOllama(srv.URL, "llama3", testParams(), testLogger())
	require.NoError(t, err)

	got, err := collect(o.Chat(context.Background(), testSystemPrompt, testTurns))
	require.NoError(t, err)
	require.Equal(t, []string{"A pip ", "is 0.0001."}, got)

	body := <-bodies
	require.Equal(t, "llama3", body["model"])
	requireTurnsAfterSystem(t, messagesOf(t, body))
	opts, ok := body["options"].(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 1000, opts["num_predict"])
}

func TestOllamaChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model \"llama3\" not found"}`+"\n")
	}))
	defer srv.Close()

	o, err := services.NewOllama(srv.URL, "llama3", testParams(), testLogger())
	require.NoError(t, err)

	got, err := collect(o.Chat(context.Background(), testSystemPrompt, testTurns))
	require.ErrorContains(t, err, "not found")
	require.Empty(t, got)
}

func TestNewOllamaInvalidHost(t *testing.T) {
	_, err := services.NewOllama("://bad", "llama3", testParams(), testLogger())
	require.Error(t, err)
}
