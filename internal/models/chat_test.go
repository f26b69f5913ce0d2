package models_test

import (
	"testing"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/stretchr/testify/require"
)

func TestTurnsDropsWelcome(t *testing.T) {
	msgs := []models.Message{
		{ID: "w", Role: models.RoleAssistant, Content: "Hello!", IsWelcome: true},
		{ID: "1", Role: models.RoleUser, Content: "What is a pip?"},
		{ID: "2", Role: models.RoleAssistant, Content: "A pip is..."},
		{ID: "3", Role: models.RoleUser, Content: "And a lot?"},
	}

	require.Equal(t, []models.Turn{
		{Role: models.RoleUser, Content: "What is a pip?"},
		{Role: models.RoleAssistant, Content: "A pip is..."},
		{Role: models.RoleUser, Content: "And a lot?"},
	}, models.Turns(msgs))
}

func TestTurnsDropsEmptyReplies(t *testing.T) {
	msgs := []models.Message{
		{ID: "1", Role: models.RoleUser, Content: "What is a pip?"},
		{ID: "2", Role: models.RoleAssistant, Content: "", StreamingState: models.StreamingStateEnded},
		{ID: "3", Role: models.RoleAssistant, Content: "Sorry, I encountered an error."},
		{ID: "4", Role: models.RoleUser, Content: "What is a pip?"},
	}

	require.Equal(t, []models.Turn{
		{Role: models.RoleUser, Content: "What is a pip?"},
		{Role: models.RoleAssistant, Content: "Sorry, I encountered an error."},
		{Role: models.RoleUser, Content: "What is a pip?"},
	}, models.Turns(msgs))
}

func TestRoleValid(t *testing.T) {
	require.True(t, models.RoleUser.Valid())
	require.True(t, models.RoleAssistant.Valid())
	require.False(t, models.Role("system").Valid())
	require.False(t, models.Role("").Valid())
}
