package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forexbot/forexbot/internal/services"
	"github.com/stretchr/testify/require"
)

func anthropicDelta(text string) string {
	return "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0," +
		"\"delta\":{\"type\":\"text_delta\",\"text\":\"" + text + "\"}}\n\n"
}

func TestAnthropicChat(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		headers <- r.Header.Clone()
		recordBody(r, bodies)
		writeEvents(w,
			"event: message_start\ndata: {\"type\":\"message_start\"}\n\n",
			"event: ping\ndata: {\"type\":\"ping\"}\n\n",
			anthropicDelta("Margin "),
			anthropicDelta("is collateral."),
			"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n",
			anthropicDelta("ignored"),
		)
	}))
	defer srv.Close()

	a := services.NewAnthropic("secret", srv.URL+"/v1", "claude-test", testParams(), testLogger())

	got, err := collect(a.Chat(context.Background(), testSystemPrompt, testTurns))
	require.NoError(t, err)
	require.Equal(t, []string{"Margin ", "is collateral."}, got)

	h := <-headers
	require.Equal(t, "secret", h.Get("x-api-key"))
	require.Equal(t, "2023-06-01", h.Get("anthropic-version"))

	body := <-bodies
	require.Equal(t, testSystemPrompt, body["system"])
	require.EqualValues(t, 1000, body["max_tokens"])
	msgs := messagesOf(t, body)
	require.Len(t, msgs, len(testTurns))
	require.Equal(t, "user", msgs[0]["role"])
	require.Equal(t, "assistant", msgs[1]["role"])
}

func TestAnthropicChatErrors(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantFrags []string
		wantErr   string
	}{
		{
			name: "Error event mid-stream",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeEvents(w,
					anthropicDelta("Part"),
					"event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n",
				)
			},
			wantFrags: []string{"Part"},
			wantErr:   "overloaded_error",
		},
		{
			name: "Non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"type":"error"}`, http.StatusBadRequest)
			},
			wantErr: "unexpected status code: 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := services.NewAnthropic("secret", srv.URL, "claude-test", testParams(), testLogger())

			got, err := collect(a.Chat(context.Background(), testSystemPrompt, testTurns))
			require.ErrorContains(t, err, tt.wantErr)
			require.Equal(t, tt.wantFrags, got)
		})
	}
}
