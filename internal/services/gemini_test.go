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

func geminiChunk(text string) string {
	return `data: {"candidates":[{"content":{"role":"model","parts":[{"text":"` + text + `"}]}}]}` + "\n\n"
}

func TestGeminiChat(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:streamGenerateContent") {
			http.NotFound(w, r)
			return
		}
		recordBody(r, bodies)
		writeEvents(w, geminiChunk("Spreads "), geminiChunk("vary by pair."))
	}))
	defer srv.Close()

	g, err := services.NewGemini(context.Background(), "g-key", srv.URL, "gemini-test", testParams(), testLogger())
	require.NoError(t, err)

	got, err := collect(g.Chat(context.Background(), testSystemPrompt, testTurns))
	require.NoError(t, err)
	require.Equal(t, []string{"Spreads ", "vary by pair."}, got)

	body := <-bodies
	contents, ok := body["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, len(testTurns))
	require.Equal(t, "model", contents[1].(map[string]any)["role"])
	require.Contains(t, body, "systemInstruction")
}

func TestGeminiChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	g, err := services.NewGemini(context.Background(), "g-key", srv.URL, "gemini-test", testParams(), testLogger())
	require.NoError(t, err)

	got, err := collect(g.Chat(context.Background(), testSystemPrompt, testTurns))
	require.Error(t, err)
	require.Empty(t, got)
}
