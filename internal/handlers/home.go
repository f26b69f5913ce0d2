package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/google/uuid"
)

type languageOption struct {
	Value  models.Language
	Label  string
	Active bool
}

type message struct {
	ID        string
	Role      string
	Content   template.HTML
	Timestamp time.Time

	StreamingState string
}

type pageData struct {
	Language  models.Language
	Strings   models.LanguageStrings
	Languages []languageOption

	// Chat page only.
	Messages        []message
	SampleQuestions []string
	MaxLength       int
}

type renderRequest struct {
	Content string `json:"content"`
}

type renderResponse struct {
	HTML string `json:"html"`
}

const sampleQuestionCount = 4

// HandleHome renders the landing page in the language picked by the lang query parameter.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := m.pageData(r)

	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to execute home template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleNotFound renders the 404 page for every path no other route matches.
func (m Main) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	data := m.pageData(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := m.templates.ExecuteTemplate(w, "not_found.html", data); err != nil {
		m.logger.Error("Failed to execute not found template", slog.String(errLoggerKey, err.Error()))
	}
}

// HandleChatPage renders the chat page with the welcome message of the selected language as the only
// entry of the transcript.
func (m Main) HandleChatPage(w http.ResponseWriter, r *http.Request) {
	data := m.pageData(r)

	welcome, err := models.RenderMarkdown(data.Strings.Welcome)
	if err != nil {
		m.logger.Error("Failed to render welcome message", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data.Messages = []message{
		{
			ID:             uuid.New().String(),
			Role:           string(models.RoleAssistant),
			Content:        template.HTML(welcome),
			Timestamp:      time.Now(),
			StreamingState: string(models.StreamingStateEnded),
		},
	}
	data.SampleQuestions = data.Strings.SampleQuestions
	if len(data.SampleQuestions) > sampleQuestionCount {
		data.SampleQuestions = data.SampleQuestions[:sampleQuestionCount]
	}
	data.MaxLength = models.MaxMessageLength

	if err := m.templates.ExecuteTemplate(w, "chat.html", data); err != nil {
		m.logger.Error("Failed to execute chat template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleRender converts a finished assistant message from markdown to HTML for the chat widget.
func (m Main) HandleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req renderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		m.logger.Error("Failed to decode render request", slog.String(errLoggerKey, err.Error()))
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	html, err := models.RenderMarkdown(req.Content)
	if err != nil {
		m.logger.Error("Failed to render markdown", slog.String(errLoggerKey, err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{HTML: html})
}

func (m Main) pageData(r *http.Request) pageData {
	lang := models.ParseLanguage(r.URL.Query().Get("lang"))

	opts := make([]languageOption, len(models.Languages))
	for i, l := range models.Languages {
		opts[i] = languageOption{
			Value:  l,
			Label:  l.Strings().Label,
			Active: l == lang,
		}
	}

	return pageData{
		Language:  lang,
		Strings:   lang.Strings(),
		Languages: opts,
	}
}
