package models_test

import (
	"testing"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		tag  string
		want models.Language
	}{
		{tag: "english", want: models.LanguageEnglish},
		{tag: "hindi", want: models.LanguageHindi},
		{tag: "marathi", want: models.LanguageMarathi},
		{tag: " Hindi ", want: models.LanguageHindi},
		{tag: "", want: models.LanguageEnglish},
		{tag: "french", want: models.LanguageEnglish},
		{tag: "en", want: models.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			require.Equal(t, tt.want, models.ParseLanguage(tt.tag))
		})
	}
}

func TestLanguageStringsAreTotal(t *testing.T) {
	for _, l := range models.Languages {
		s := l.Strings()
		require.NotEmpty(t, s.Label, l)
		require.NotEmpty(t, s.SystemPrompt, l)
		require.NotEmpty(t, s.Welcome, l)
		require.NotEmpty(t, s.ErrorReply, l)
		require.NotEmpty(t, s.SendFailed, l)
		require.NotEmpty(t, s.Placeholder, l)
		require.NotEmpty(t, s.SampleQuestions, l)
	}

	require.Equal(t, models.LanguageEnglish.SystemPrompt(), models.Language("klingon").SystemPrompt())
	require.Contains(t, models.LanguageHindi.SystemPrompt(), "फॉरेक्स")
	require.NotEqual(t, models.LanguageHindi.SystemPrompt(), models.LanguageMarathi.SystemPrompt())
}
