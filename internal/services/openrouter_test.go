package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forexbot/forexbot/internal/services"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterChat(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" || r.Header.Get("Authorization") != "Bearer or-key" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		recordBody(r, bodies)
		writeEvents(w,
			": OPENROUTER PROCESSING\n\n",
			contentChunk("EUR/USD "),
			contentChunk("is a major pair."),
			"data: [DONE]\n\n",
		)
	}))
	defer srv.Close()

	o := services.NewOpenRouter("or-key", srv.URL+"/api/v1", "openai/gpt-4o-mini", testParams(), testLogger())

	got, err := collect(o.Chat(context.Background(), testSystemPrompt, testTurns))
	require.NoError(t, err)
	require.Equal(t, []string{"EUR/USD ", "is a major pair."}, got)

	body := <-bodies
	require.Equal(t, "openai/gpt-4o-mini", body["model"])
	requireTurnsAfterSystem(t, messagesOf(t, body))
}

func TestOpenRouterChatErrorChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEvents(w,
			contentChunk("Partial"),
			"data: {\"error\":{\"code\":502,\"message\":\"Provider returned error\"}}\n\n",
		)
	}))
	defer srv.Close()

	o := services.NewOpenRouter("or-key", srv.URL, "m", testParams(), testLogger())

	got, err := collect(o.Chat(context.Background(), testSystemPrompt, testTurns))
	require.ErrorContains(t, err, "Provider returned error")
	require.Equal(t, []string{"Partial"}, got)
}
