package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forexbot/forexbot/internal/services"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, fragments []string, bodies chan<- map[string]any) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		recordBody(r, bodies)

		events := make([]string, 0, len(fragments)+1)
		for _, f := range fragments {
			events = append(events, contentChunk(f))
		}
		events = append(events, "data: [DONE]\n\n")
		writeEvents(w, events...)
	}))
}

func TestOpenAIChat(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := newOpenAIServer(t, []string{"Leverage ", "is ", "borrowed ", "", "capital."}, bodies)
	defer srv.Close()

	o := services.NewOpenAI("key", srv.URL+"/v1", "gpt-4o-mini", testParams(), testLogger())

	got, err := collect(o.Chat(context.Background(), testSystemPrompt, testTurns))
	require.NoError(t, err)
	require.Equal(t, []string{"Leverage ", "is ", "borrowed ", "capital."}, got)

	body := <-bodies
	require.Equal(t, "gpt-4o-mini", body["model"])
	require.Equal(t, true, body["stream"])
	require.EqualValues(t, 1000, body["max_tokens"])
	require.InDelta(t, 0.7, body["temperature"], 1e-6)
	requireTurnsAfterSystem(t, messagesOf(t, body))
}

func TestOpenAIChatZeroTemperature(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := newOpenAIServer(t, []string{"A pip is the smallest price move."}, bodies)
	defer srv.Close()

	params := testParams()
	zero := float32(0)
	params.Temperature = &zero
	o := services.NewOpenAI("key", srv.URL+"/v1", "gpt-4o-mini", params, testLogger())

	_, err := collect(o.Chat(context.Background(), testSystemPrompt, testTurns))
	require.NoError(t, err)

	body := <-bodies
	temperature, ok := body["temperature"]
	require.True(t, ok, "temperature missing from request body")
	require.InDelta(t, 0, temperature, 1e-6)
}

func TestOpenAIChatUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	o := services.NewOpenAI("bad", srv.URL+"/v1", "gpt-4o-mini", testParams(), testLogger())

	got, err := collect(o.Chat(context.Background(), testSystemPrompt, testTurns))
	require.Error(t, err)
	require.Empty(t, got)
	require.Contains(t, err.Error(), "Incorrect API key")
}
