package client_test

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/forexbot/forexbot/internal/client"
	"github.com/forexbot/forexbot/internal/handlers"
	"github.com/forexbot/forexbot/internal/models"
	"github.com/stretchr/testify/require"
)

// scriptedLLM yields its fragments and then err, if any.
type scriptedLLM struct {
	fragments []string
	err       error

	mu           sync.Mutex
	systemPrompt string
}

func (s *scriptedLLM) Chat(_ context.Context, systemPrompt string, _ []models.Turn) iter.Seq2[string, error] {
	s.mu.Lock()
	s.systemPrompt = systemPrompt
	s.mu.Unlock()

	return func(yield func(string, error) bool) {
		for _, f := range s.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

func newRelay(t *testing.T, llm handlers.LLM) *httptest.Server {
	t.Helper()

	m, err := handlers.NewMain(llm, 0, testLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(m.HandleChat))
	t.Cleanup(srv.Close)
	return srv
}

func TestRelayHindiConversation(t *testing.T) {
	llm := &scriptedLLM{fragments: []string{"लीवरेज ", "का ", "मतलब..."}}
	srv := newRelay(t, llm)
	c := client.New(srv.URL, client.WithLanguage(models.LanguageHindi), client.WithLogger(testLogger()))

	require.NoError(t, c.Send(context.Background(), "What is leverage?"))

	llm.mu.Lock()
	require.Equal(t, models.LanguageHindi.SystemPrompt(), llm.systemPrompt)
	llm.mu.Unlock()

	tr := c.Transcript()
	require.Len(t, tr.Messages, 3)
	require.Equal(t, "लीवरेज का मतलब...", lastMessage(tr).Content)
	require.False(t, tr.Waiting)
	require.False(t, tr.Loading)
	require.Empty(t, tr.Error)
}

func TestRelayUpstreamFailsAfterTwoFragments(t *testing.T) {
	llm := &scriptedLLM{
		fragments: []string{"Leverage ", "lets you "},
		err:       errors.New("connection reset by peer"),
	}
	srv := newRelay(t, llm)
	c := client.New(srv.URL, client.WithLogger(testLogger()))

	err := c.Send(context.Background(), "What is leverage?")
	require.ErrorIs(t, err, client.ErrStreamFailed)

	tr := c.Transcript()
	require.Len(t, tr.Messages, 4)
	require.Equal(t, "Leverage lets you ", tr.Messages[2].Content)
	require.Equal(t, models.LanguageEnglish.Strings().ErrorReply, lastMessage(tr).Content)
	require.False(t, tr.Waiting)
	require.False(t, tr.Loading)
}

func TestRelayUpstreamFailsBeforeStreaming(t *testing.T) {
	srv := newRelay(t, &scriptedLLM{err: errors.New("dial tcp: connection refused")})
	c := client.New(srv.URL, client.WithLogger(testLogger()))

	err := c.Send(context.Background(), "What is leverage?")

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	require.Equal(t, "Internal server error", statusErr.Message)
	require.False(t, c.Transcript().Loading)
}
