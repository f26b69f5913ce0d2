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
	"sync"
	"time"

	"github.com/forexbot/forexbot/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tmaxmax/go-sse"
)

// AssistantStore persists assistant ids between process restarts.
type AssistantStore interface {
	AssistantID(ctx context.Context, key string) (string, error)
	SetAssistantID(ctx context.Context, key, id string) error
}

// assistantAPI is the subset of *goopenai.Client used by Assistant.
type assistantAPI interface {
	CreateAssistant(ctx context.Context, request goopenai.AssistantRequest) (goopenai.Assistant, error)
	CreateThread(ctx context.Context, request goopenai.ThreadRequest) (goopenai.Thread, error)
	DeleteThread(ctx context.Context, threadID string) (goopenai.ThreadDeleteResponse, error)
}

// AssistantConfig configures an Assistant.
type AssistantConfig struct {
	APIKey  string
	BaseURL string

	// Name and Model identify the assistant resource. Name is also the key under which the created id is
	// persisted.
	Name  string
	Model string
	// ID is a pre-provisioned assistant id. When set, no assistant is ever created.
	ID string
	// Instructions are the assistant's default instructions. Every run overrides them with the system
	// prompt of the request's language.
	Instructions string

	Params LLMParameters
}

// Assistant streams replies through the OpenAI Assistants API. The assistant resource is created lazily on
// first use and at most once per process, even under concurrent first requests. Every Chat call runs in a
// fresh thread that is deleted once the reply has been streamed.
type Assistant struct {
	cfg AssistantConfig

	api        assistantAPI
	store      AssistantStore
	httpClient *http.Client

	logger *slog.Logger

	mu sync.Mutex
	id string
}

type assistantRunRequest struct {
	AssistantID         string   `json:"assistant_id"`
	Instructions        string   `json:"instructions,omitempty"`
	MaxCompletionTokens int      `json:"max_completion_tokens,omitempty"`
	Temperature         *float32 `json:"temperature,omitempty"`
	TopP                *float32 `json:"top_p,omitempty"`
	Stream              bool     `json:"stream"`
}

type assistantMessageDelta struct {
	Delta struct {
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"delta"`
}

type assistantRunFailure struct {
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type assistantStreamError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const (
	openAIAPIEndpoint     = "https://api.openai.com/v1"
	threadDeleteTimeout   = 10 * time.Second
	assistantEventDelta   = "thread.message.delta"
	assistantEventFailed  = "thread.run.failed"
	assistantEventExpired = "thread.run.expired"
	assistantEventError   = "error"
	assistantEventDone    = "done"
)

// NewAssistant creates a new Assistant. store may be nil, in which case a created assistant id only lives
// as long as the process.
func NewAssistant(cfg AssistantConfig, store AssistantStore, logger *slog.Logger) *Assistant {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIAPIEndpoint
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Assistant{
		cfg:        cfg,
		api:        goopenai.NewClientWithConfig(clientCfg),
		store:      store,
		httpClient: &http.Client{},
		logger:     logger.With(slog.String("module", "assistant")),
		id:         cfg.ID,
	}
}

// ID returns the assistant id, creating the assistant resource on the first call. Concurrent callers wait
// for the creation in flight and share its result. A failed creation is not cached, so the next call
// retries.
func (a *Assistant) ID(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.id != "" {
		return a.id, nil
	}

	key := a.storeKey()
	if a.store != nil {
		id, err := a.store.AssistantID(ctx, key)
		if err != nil {
			a.logger.Warn("Failed to read stored assistant id",
				slog.String("key", key),
				slog.String("err", err.Error()))
		}
		if id != "" {
			a.logger.Info("Reusing stored assistant", slog.String("id", id))
			a.id = id
			return id, nil
		}
	}

	req := goopenai.AssistantRequest{
		Model:       a.cfg.Model,
		Name:        &a.cfg.Name,
		Temperature: a.cfg.Params.Temperature,
		TopP:        a.cfg.Params.TopP,
	}
	if a.cfg.Instructions != "" {
		req.Instructions = &a.cfg.Instructions
	}

	asst, err := a.api.CreateAssistant(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error creating assistant: %w", err)
	}
	a.logger.Info("Created assistant", slog.String("id", asst.ID), slog.String("name", a.cfg.Name))

	if a.store != nil {
		if err := a.store.SetAssistantID(ctx, key, asst.ID); err != nil {
			a.logger.Warn("Failed to persist assistant id",
				slog.String("id", asst.ID),
				slog.String("err", err.Error()))
		}
	}

	a.id = asst.ID
	return a.id, nil
}

func (a *Assistant) storeKey() string {
	return a.cfg.Name + "/" + a.cfg.Model
}

// Chat creates a thread holding the conversation, streams a run of the assistant on it with systemPrompt
// as the run instructions, and yields every text delta. The thread is deleted afterwards.
func (a *Assistant) Chat(ctx context.Context, systemPrompt string, turns []models.Turn) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		assistantID, err := a.ID(ctx)
		if err != nil {
			yield("", err)
			return
		}

		msgs := make([]goopenai.ThreadMessage, len(turns))
		for i, turn := range turns {
			role := goopenai.ThreadMessageRoleUser
			if turn.Role == models.RoleAssistant {
				role = goopenai.ThreadMessageRoleAssistant
			}
			msgs[i] = goopenai.ThreadMessage{
				Role:    role,
				Content: turn.Content,
			}
		}

		thread, err := a.api.CreateThread(ctx, goopenai.ThreadRequest{Messages: msgs})
		if err != nil {
			yield("", fmt.Errorf("error creating thread: %w", err))
			return
		}
		defer a.deleteThread(ctx, thread.ID)

		resp, err := a.startRun(ctx, thread.ID, assistantID, systemPrompt)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error starting run: %w", err))
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

			switch ev.Type {
			case assistantEventDelta:
				var delta assistantMessageDelta
				if err := json.Unmarshal([]byte(ev.Data), &delta); err != nil {
					yield("", fmt.Errorf("error unmarshaling message delta: %w", err))
					return
				}
				for _, ct := range delta.Delta.Content {
					if ct.Type != "text" || ct.Text.Value == "" {
						continue
					}
					if !yield(ct.Text.Value, nil) {
						return
					}
				}
			case assistantEventFailed, assistantEventExpired:
				var run assistantRunFailure
				if err := json.Unmarshal([]byte(ev.Data), &run); err != nil || run.LastError == nil {
					yield("", fmt.Errorf("assistant run %s", ev.Type))
					return
				}
				yield("", fmt.Errorf("assistant run failed %s: %s", run.LastError.Code, run.LastError.Message))
				return
			case assistantEventError:
				var e assistantStreamError
				if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
					yield("", fmt.Errorf("assistant stream error: %s", ev.Data))
					return
				}
				yield("", fmt.Errorf("assistant stream error %s: %s", e.Error.Type, e.Error.Message))
				return
			case assistantEventDone:
				return
			default:
				continue
			}
		}
	}
}

func (a *Assistant) startRun(ctx context.Context, threadID, assistantID, instructions string) (*http.Response, error) {
	reqBody := assistantRunRequest{
		AssistantID:         assistantID,
		Instructions:        instructions,
		MaxCompletionTokens: a.cfg.Params.MaxTokens,
		Temperature:         a.cfg.Params.Temperature,
		TopP:                a.cfg.Params.TopP,
		Stream:              true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		joinURL(a.cfg.BaseURL, "/threads/"+threadID+"/runs"), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := a.httpClient.Do(req)
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

// deleteThread runs even when ctx was canceled by a disconnecting client.
func (a *Assistant) deleteThread(ctx context.Context, threadID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), threadDeleteTimeout)
	defer cancel()

	if _, err := a.api.DeleteThread(ctx, threadID); err != nil {
		a.logger.Warn("Failed to delete thread",
			slog.String("threadID", threadID),
			slog.String("err", err.Error()))
	}
}
