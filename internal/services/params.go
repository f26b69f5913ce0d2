package services

import (
	"strings"

	"github.com/forexbot/forexbot/internal/models"
)

// LLMParameters holds the generation parameters shared by every provider. A nil pointer leaves the
// provider's default in place.
type LLMParameters struct {
	// MaxTokens bounds the length of one reply.
	MaxTokens int `yaml:"maxTokens"`

	Temperature *float32 `yaml:"temperature"`
	TopP        *float32 `yaml:"topP"`
}

// DefaultParameters returns the parameters used when the configuration leaves them out.
func DefaultParameters() LLMParameters {
	t := float32(0.7)
	return LLMParameters{
		MaxTokens:   1000,
		Temperature: &t,
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func roleOf(turn models.Turn) string {
	if turn.Role == models.RoleAssistant {
		return "assistant"
	}
	return "user"
}
