package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/forexbot/forexbot/internal/models"
	"google.golang.org/genai"
)

// Gemini streams replies from Google's Gemini API.
type Gemini struct {
	model  string
	params LLMParameters

	client *genai.Client

	logger *slog.Logger
}

// NewGemini creates a new Gemini instance. An empty baseURL targets the public Gemini API endpoint.
func NewGemini(ctx context.Context, apiKey, baseURL, model string, params LLMParameters, logger *slog.Logger) (Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return Gemini{}, fmt.Errorf("error creating genai client: %w", err)
	}

	return Gemini{
		model:  model,
		params: params,
		client: client,
		logger: logger.With(slog.String("module", "gemini")),
	}, nil
}

func geminiContents(turns []models.Turn) []*genai.Content {
	contents := make([]*genai.Content, len(turns))
	for i, turn := range turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents[i] = genai.NewContentFromText(turn.Content, role)
	}
	return contents
}

// Chat streams the reply for the conversation, yielding the text of every response chunk.
func (g Gemini) Chat(ctx context.Context, systemPrompt string, turns []models.Turn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       g.params.Temperature,
			TopP:              g.params.TopP,
			MaxOutputTokens:   int32(g.params.MaxTokens),
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, geminiContents(turns), cfg) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
