package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"
)

// Chat is a conversation with the streaming relay. It owns the transcript and sends one turn at a time.
type Chat struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger

	busy atomic.Bool

	mu       sync.Mutex
	language models.Language
	messages []models.Message
	waiting  bool
	loading  bool
	errMsg   string
	onUpdate func(Transcript)
}

// Transcript is a snapshot of a Chat.
type Transcript struct {
	Messages []models.Message
	// Waiting is set between sending a turn and the relay accepting it.
	Waiting bool
	// Loading is set while a turn is in flight, from sending until the stream ends.
	Loading bool
	// Error is the notice shown to the user after a failed send, or the validation failure of the input.
	Error string
}

// Option configures a Chat.
type Option func(*Chat)

// StatusError is returned by Send when the relay answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

var (
	// ErrBusy is returned by Send while another send is in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrStreamFailed is returned by Send when the relay ends the stream with an error frame.
	ErrStreamFailed = errors.New("stream failed")
)

const errLoggerKey = "err"

// New creates a Chat posting to endpoint, the URL of the relay's /api/chat. The transcript starts with the
// welcome message of the configured language.
func New(endpoint string, opts ...Option) *Chat {
	c := &Chat{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		language:   models.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("module", "client"))

	c.messages = []models.Message{
		{
			ID:             uuid.New().String(),
			Role:           models.RoleAssistant,
			Content:        c.language.Strings().Welcome,
			Timestamp:      time.Now(),
			IsWelcome:      true,
			StreamingState: models.StreamingStateEnded,
		},
	}
	return c
}

// WithHTTPClient sets the client used to reach the relay. Streams are long-lived, so the client should
// not carry a short Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Chat) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chat) {
		c.logger = logger
	}
}

// WithLanguage sets the initial language.
func WithLanguage(lang models.Language) Option {
	return func(c *Chat) {
		c.language = lang
	}
}

// OnUpdate registers fn to be called with a fresh snapshot after every change of the transcript,
// including every streamed fragment. fn is called synchronously from the goroutine running Send.
func (c *Chat) OnUpdate(fn func(Transcript)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// SetLanguage changes the language of the next turns and of the welcome message.
func (c *Chat) SetLanguage(lang models.Language) {
	c.update(func() {
		c.language = lang
		for i := range c.messages {
			if c.messages[i].IsWelcome {
				c.messages[i].Content = lang.Strings().Welcome
			}
		}
	})
}

// Language returns the current language.
func (c *Chat) Language() models.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// Transcript returns a snapshot of the conversation.
func (c *Chat) Transcript() Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Send validates input, appends it to the transcript, and streams the reply into a new assistant message.
//
// Validation failures are returned as is and nothing is sent. Send returns ErrBusy while another send is
// in flight. On every failure after the user message is appended, a generic assistant reply is added to
// the transcript and the partial content streamed so far is kept.
func (c *Chat) Send(ctx context.Context, input string) error {
	content, err := models.Validate(input)
	if err != nil {
		c.update(func() { c.errMsg = err.Error() })
		return err
	}

	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)
	defer c.update(func() {
		c.waiting = false
		c.loading = false
	})

	var req models.ChatRequest
	c.update(func() {
		c.errMsg = ""
		c.messages = append(c.messages, models.Message{
			ID:             uuid.New().String(),
			Role:           models.RoleUser,
			Content:        content,
			Timestamp:      time.Now(),
			StreamingState: models.StreamingStateEnded,
		})
		c.waiting = true
		c.loading = true

		req = models.ChatRequest{
			Messages: models.Turns(c.messages),
			Language: string(c.language),
		}
	})

	resp, err := c.post(ctx, req)
	if err != nil {
		c.logger.Error("Failed to send message", slog.String(errLoggerKey, err.Error()))
		c.fail()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		c.logger.Error("Relay rejected message",
			slog.Int("status", resp.StatusCode),
			slog.String(errLoggerKey, statusErr.Message))
		c.fail()
		return statusErr
	}

	replyID := uuid.New().String()
	c.update(func() {
		c.waiting = false
		c.messages = append(c.messages, models.Message{
			ID:             replyID,
			Role:           models.RoleAssistant,
			Timestamp:      time.Now(),
			StreamingState: models.StreamingStateLoading,
		})
	})

	return c.consume(resp.Body, replyID)
}

// consume reads frames from body into the reply message until a terminal frame or the end of the stream.
func (c *Chat) consume(body io.Reader, replyID string) error {
	defer c.update(func() { c.setReply(replyID, "", models.StreamingStateEnded) })

	var sb strings.Builder
	for ev, err := range sse.Read(body, nil) {
		if err != nil {
			c.logger.Error("Failed to read stream",
				slog.Int("received", sb.Len()),
				slog.String(errLoggerKey, err.Error()))
			c.fail()
			return fmt.Errorf("error reading stream: %w", err)
		}

		var frame models.Frame
		if err := json.Unmarshal([]byte(ev.Data), &frame); err != nil {
			c.logger.Warn("Skipping malformed frame",
				slog.String("data", ev.Data),
				slog.String(errLoggerKey, err.Error()))
			continue
		}

		switch {
		case frame.Error != "":
			c.logger.Error("Stream ended with error", slog.String(errLoggerKey, frame.Error))
			c.fail()
			return fmt.Errorf("%w: %s", ErrStreamFailed, frame.Error)
		case frame.Done:
			return nil
		case frame.Content != "":
			sb.WriteString(frame.Content)
			content := sb.String()
			c.update(func() { c.setReply(replyID, content, models.StreamingStateStreaming) })
		}
	}

	// A stream that ends without a terminal frame is complete.
	return nil
}

func (c *Chat) post(ctx context.Context, body models.ChatRequest) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	return resp, nil
}

// fail appends the generic error reply and sets the failure notice.
func (c *Chat) fail() {
	c.update(func() {
		strs := c.language.Strings()
		c.errMsg = strs.SendFailed
		c.messages = append(c.messages, models.Message{
			ID:             uuid.New().String(),
			Role:           models.RoleAssistant,
			Content:        strs.ErrorReply,
			Timestamp:      time.Now(),
			StreamingState: models.StreamingStateEnded,
		})
	})
}

// setReply must be called with mu held. An empty content leaves the accumulated content untouched.
func (c *Chat) setReply(id, content string, state models.StreamingState) {
	for i := range c.messages {
		if c.messages[i].ID != id {
			continue
		}
		if content != "" {
			c.messages[i].Content = content
		}
		c.messages[i].StreamingState = state
		return
	}
}

// update applies fn under the lock and notifies the OnUpdate callback with the resulting snapshot.
func (c *Chat) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshot()
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snap)
	}
}

func (c *Chat) snapshot() Transcript {
	return Transcript{
		Messages: slices.Clone(c.messages),
		Waiting:  c.waiting,
		Loading:  c.loading,
		Error:    c.errMsg,
	}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relay responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("relay responded with status %d: %s", e.StatusCode, e.Message)
}

func errorMessage(body io.Reader) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&resp); err != nil {
		return ""
	}
	return resp.Error
}
