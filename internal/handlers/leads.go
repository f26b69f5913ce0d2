package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forexbot/forexbot/internal/models"
)

type leadRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
	Language string `json:"language"`
}

type leadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	LeadID  string `json:"leadId"`
}

const leadSource = "forex-chatbot"

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// HandleLeads accepts a contact-form submission. The lead is validated, normalized, and logged; it is not
// stored anywhere.
func (m Main) HandleLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req leadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		m.logger.Error("Failed to decode lead", slog.String(errLoggerKey, err.Error()))
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		writeJSONError(w, http.StatusBadRequest, "Name and email are required")
		return
	}
	if !emailRe.MatchString(email) {
		writeJSONError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	now := time.Now()
	leadID := fmt.Sprintf("lead_%d", now.UnixMilli())

	m.logger.Info("New lead captured",
		slog.String("leadID", leadID),
		slog.String("name", name),
		slog.String("email", email),
		slog.String("phone", strings.TrimSpace(req.Phone)),
		slog.String("message", strings.TrimSpace(req.Message)),
		slog.String("language", string(models.ParseLanguage(req.Language))),
		slog.String("source", leadSource),
		slog.Time("timestamp", now),
		slog.String("ip", clientIP(r)),
		slog.String("userAgent", orUnknown(r.UserAgent())),
	)

	writeJSON(w, http.StatusOK, leadResponse{
		Success: true,
		Message: "Thank you for your interest! We will contact you soon.",
		LeadID:  leadID,
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
