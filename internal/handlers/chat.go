package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"net/http"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/tmaxmax/go-sse"
)

type chatRequest struct {
	Messages json.RawMessage `json:"messages"`
	Language any             `json:"language"`
}

// Terminal error frame messages. Upstream details are logged, never sent to the browser.
const (
	streamFailedMessage   = "Upstream model error"
	streamTimeoutMessage  = "Response timed out"
	streamShutdownMessage = "Server is shutting down"
)

// HandleChat relays one conversation turn to the LLM and streams the reply back as server-sent events.
//
// The body is {"messages": [{"role", "content"}...], "language": "english"|"hindi"|"marathi"}. A body
// without a messages array is rejected with 400 before any stream is opened, and an upstream failure
// before the first fragment is answered with a 500 JSON error. Once streaming, every fragment is written
// as a data: {"content": ...} frame and flushed immediately, and the response ends with exactly one
// terminal frame, {"done": true} or {"error": ...}.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		m.logger.Error("Failed to decode chat request", slog.String(errLoggerKey, err.Error()))
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !isJSONArray(req.Messages) {
		m.logger.Error("Messages array is required")
		writeJSONError(w, http.StatusBadRequest, "Messages array is required")
		return
	}

	var turns []models.Turn
	if err := json.Unmarshal(req.Messages, &turns); err != nil {
		m.logger.Error("Failed to decode messages", slog.String(errLoggerKey, err.Error()))
		writeJSONError(w, http.StatusBadRequest, "Invalid message format")
		return
	}
	for _, turn := range turns {
		if !turn.Role.Valid() {
			m.logger.Error("Invalid message role", slog.String("role", string(turn.Role)))
			writeJSONError(w, http.StatusBadRequest, "Invalid message role")
			return
		}
	}

	tag, _ := req.Language.(string)
	lang := models.ParseLanguage(tag)

	ctx, cancel := m.streamContext(r.Context())
	defer cancel()

	next, stop := iter.Pull2(m.llm.Chat(ctx, lang.SystemPrompt(), turns))
	defer stop()

	// The first item is pulled before any SSE byte is written, so an upstream that fails to open can
	// still be answered with a plain JSON error.
	fragment, err, ok := next()
	if err != nil {
		m.logger.Error("Failed to open upstream stream",
			slog.String("language", string(lang)),
			slog.String(errLoggerKey, err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		m.logger.Error("Failed to upgrade to SSE", slog.String(errLoggerKey, err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	session := newStreamSession(sess)

	fragments := 0
	for ok {
		if fragment != "" {
			if err := session.content(fragment); err != nil {
				m.logger.Warn("Client went away mid-stream",
					slog.Int("fragments", fragments),
					slog.String(errLoggerKey, err.Error()))
				return
			}
			fragments++
		}

		fragment, err, ok = next()
		if err != nil {
			m.logger.Error("Upstream stream failed",
				slog.Int("fragments", fragments),
				slog.String(errLoggerKey, err.Error()))
			m.failSession(session, m.terminalError(r.Context(), ctx))
			return
		}
	}

	if r.Context().Err() != nil {
		m.logger.Warn("Client went away mid-stream", slog.Int("fragments", fragments))
		return
	}
	if ctx.Err() != nil {
		m.logger.Error("Upstream stream interrupted",
			slog.Int("fragments", fragments),
			slog.String(errLoggerKey, ctx.Err().Error()))
		m.failSession(session, m.terminalError(r.Context(), ctx))
		return
	}

	if err := session.finish(); err != nil {
		m.logger.Error("Failed to send done frame", slog.String(errLoggerKey, err.Error()))
		return
	}
	m.logger.Debug("Stream completed",
		slog.String("language", string(lang)),
		slog.Int("fragments", fragments))
}

// streamContext derives the upstream context from the request: it ends when the client disconnects, when
// the stream timeout elapses, or when the server shuts down.
func (m Main) streamContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if m.streamTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, m.streamTimeout)
		prev := cancel
		cancel = func() {
			cancelTimeout()
			prev()
		}
	}

	stopAfter := context.AfterFunc(m.stop, cancel)
	return ctx, func() {
		stopAfter()
		cancel()
	}
}

func (m Main) terminalError(reqCtx, streamCtx context.Context) string {
	switch {
	case m.stop.Err() != nil && reqCtx.Err() == nil:
		return streamShutdownMessage
	case errors.Is(streamCtx.Err(), context.DeadlineExceeded):
		return streamTimeoutMessage
	default:
		return streamFailedMessage
	}
}

func (m Main) failSession(session *streamSession, msg string) {
	if err := session.fail(msg); err != nil {
		m.logger.Error("Failed to send error frame", slog.String(errLoggerKey, err.Error()))
	}
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
