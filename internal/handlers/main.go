package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/forexbot/forexbot"
	"github.com/forexbot/forexbot/internal/models"
)

// LLM represents a large language model that streams a reply. It accepts the system prompt and the
// conversation so far, and returns an iterator that yields text fragments in the order the model emits
// them. An error ends the sequence.
type LLM interface {
	Chat(ctx context.Context, systemPrompt string, turns []models.Turn) iter.Seq2[string, error]
}

// Main serves the pages, the streaming chat relay, and the lead endpoint.
type Main struct {
	templates *template.Template

	llm           LLM
	streamTimeout time.Duration

	// stop is canceled by Shutdown and ends every stream in flight.
	stop       context.Context
	cancelStop context.CancelFunc

	logger *slog.Logger
}

const (
	errLoggerKey = "err"

	maxRequestBodySize = 1 << 20
)

// NewMain creates a new Main relaying chats to llm. Every upstream stream is bounded by streamTimeout; a
// zero value disables the bound. It parses the HTML templates from the embedded filesystem.
func NewMain(llm LLM, streamTimeout time.Duration, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		forexbot.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	stop, cancel := context.WithCancel(context.Background())

	return Main{
		templates:     tmpl,
		llm:           llm,
		streamTimeout: streamTimeout,
		stop:          stop,
		cancelStop:    cancel,
		logger:        logger.With(slog.String("module", "handlers")),
	}, nil
}

// Shutdown ends every chat stream in flight. Each of them terminates with an error frame, so clients are
// not left waiting for a done frame that never comes.
func (m Main) Shutdown(context.Context) error {
	m.cancelStop()
	return nil
}

// HandleHealth reports that the server is up.
func (m Main) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
