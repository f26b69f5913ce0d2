package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/tmaxmax/go-sse"
)

// OpenRouter streams chat completions through the OpenRouter gateway.
type OpenRouter struct {
	apiKey   string
	endpoint string
	model    string
	params   LLMParameters

	client *http.Client

	logger *slog.Logger
}

type openRouterChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature *float32            `json:"temperature,omitempty"`
	TopP        *float32            `json:"top_p,omitempty"`
	Stream      bool                `json:"stream"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterStreamingResponse struct {
	Choices []openRouterStreamingChoice `json:"choices"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openRouterStreamingChoice struct {
	Delta        openRouterMessage `json:"delta"`
	FinishReason string            `json:"finish_reason"`
}

const (
	openRouterAPIEndpoint = "https://openrouter.ai/api/v1"
	openRouterDone        = "[DONE]"
)

// NewOpenRouter creates a new OpenRouter instance. An empty endpoint targets the public gateway.
func NewOpenRouter(apiKey, endpoint, model string, params LLMParameters, logger *slog.Logger) OpenRouter {
	if endpoint == "" {
		endpoint = openRouterAPIEndpoint
	}
	return OpenRouter{
		apiKey:   apiKey,
		endpoint: endpoint,
		model:    model,
		params:   params,
		client:   &http.Client{},
		logger:   logger.With(slog.String("module", "openrouter")),
	}
}

// Chat streams the reply for the conversation until the gateway sends its [DONE] sentinel or closes the
// stream. Errors embedded in a chunk are yielded as errors.
func (o OpenRouter) Chat(ctx context.Context, systemPrompt string, turns []models.Turn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := o.doRequest(ctx, systemPrompt, turns)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		for ev, err := range sse.Read(resp.Body, nil) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error reading response: %w", err))
				return
			}

			o.logger.Debug("Received event", slog.String("event", ev.Data))

			if ev.Data == openRouterDone {
				return
			}

			var res openRouterStreamingResponse
			if err := json.Unmarshal([]byte(ev.Data), &res); err != nil {
				yield("", fmt.Errorf("error unmarshaling response: %w", err))
				return
			}

			if res.Error != nil {
				yield("", fmt.Errorf("openrouter error %d: %s", res.Error.Code, res.Error.Message))
				return
			}

			if len(res.Choices) == 0 {
				continue
			}

			if content := res.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}
	}
}

func (o OpenRouter) doRequest(ctx context.Context, systemPrompt string, turns []models.Turn) (*http.Response, error) {
	msgs := make([]openRouterMessage, 0, len(turns)+1)
	msgs = append(msgs, openRouterMessage{
		Role:    "system",
		Content: systemPrompt,
	})
	for _, turn := range turns {
		msgs = append(msgs, openRouterMessage{
			Role:    roleOf(turn),
			Content: turn.Content,
		})
	}

	reqBody := openRouterChatRequest{
		Model:       o.model,
		Messages:    msgs,
		MaxTokens:   o.params.MaxTokens,
		Temperature: o.params.Temperature,
		TopP:        o.params.TopP,
		Stream:      true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	o.logger.Debug("Request Body", slog.String("body", string(jsonBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		joinURL(o.endpoint, "/chat/completions"), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/forexbot/forexbot/")
	req.Header.Set("X-Title", "ForexBot")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
