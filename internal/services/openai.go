package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"

	"github.com/forexbot/forexbot/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI streams chat completions from the OpenAI API, or from any endpoint speaking the same protocol
// when a base URL is configured.
type OpenAI struct {
	model  string
	params LLMParameters

	client *goopenai.Client

	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI instance. An empty baseURL targets the public OpenAI API.
func NewOpenAI(apiKey, baseURL, model string, params LLMParameters, logger *slog.Logger) OpenAI {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return OpenAI{
		model:  model,
		params: params,
		client: goopenai.NewClientWithConfig(cfg),
		logger: logger.With(slog.String("module", "openai")),
	}
}

func openAIMessages(systemPrompt string, turns []models.Turn) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(turns)+1)
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range turns {
		role := goopenai.ChatMessageRoleUser
		if turn.Role == models.RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	return msgs
}

// Chat opens a streaming chat completion with systemPrompt followed by the conversation, and yields every
// non-empty content delta in the order the API emits them.
func (o OpenAI) Chat(ctx context.Context, systemPrompt string, turns []models.Turn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := o.chatRequest(openAIMessages(systemPrompt, turns))

		reqJSON, err := json.Marshal(req)
		if err == nil {
			o.logger.Debug("Request", slog.String("req", string(reqJSON)))
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			if content := response.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}
	}
}

func (o OpenAI) chatRequest(messages []goopenai.ChatCompletionMessage) goopenai.ChatCompletionRequest {
	req := goopenai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  messages,
		Stream:    true,
		MaxTokens: o.params.MaxTokens,
	}

	if t := o.params.Temperature; t != nil {
		req.Temperature = *t
		// The request drops a zero temperature from the JSON body, which leaves the API default of 1 in
		// place. The smallest positive value is sent instead.
		if *t == 0 {
			req.Temperature = math.SmallestNonzeroFloat32
		}
	}
	if o.params.TopP != nil {
		req.TopP = *o.params.TopP
	}

	return req
}
