package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/ollama/ollama/api"
)

// Ollama streams replies from a self-hosted Ollama server.
type Ollama struct {
	model  string
	params LLMParameters

	client *api.Client

	logger *slog.Logger
}

// NewOllama creates a new Ollama instance talking to the server at host. It returns an error when host
// is not a valid URL.
func NewOllama(host, model string, params LLMParameters, logger *slog.Logger) (Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return Ollama{}, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	return Ollama{
		model:  model,
		params: params,
		client: api.NewClient(u, &http.Client{}),
		logger: logger.With(slog.String("module", "ollama")),
	}, nil
}

// Chat streams the reply for the conversation. The client delivers chunks through a callback, which is
// bridged to the iterator; stopping the iteration cancels the request.
func (o Ollama) Chat(ctx context.Context, systemPrompt string, turns []models.Turn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		msgs := make([]api.Message, 0, len(turns)+1)
		msgs = append(msgs, api.Message{
			Role:    "system",
			Content: systemPrompt,
		})
		for _, turn := range turns {
			msgs = append(msgs, api.Message{
				Role:    roleOf(turn),
				Content: turn.Content,
			})
		}

		t := true
		req := api.ChatRequest{
			Model:    o.model,
			Messages: msgs,
			Stream:   &t,
			Options:  o.options(),
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
			if stopped || res.Message.Content == "" {
				return nil
			}
			if !yield(res.Message.Content, nil) {
				stopped = true
				cancel()
			}
			return nil
		}); err != nil {
			if stopped || errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
		}
	}
}

func (o Ollama) options() map[string]any {
	opts := map[string]any{}
	if o.params.MaxTokens > 0 {
		opts["num_predict"] = o.params.MaxTokens
	}
	if o.params.Temperature != nil {
		opts["temperature"] = *o.params.Temperature
	}
	if o.params.TopP != nil {
		opts["top_p"] = *o.params.TopP
	}
	return opts
}
