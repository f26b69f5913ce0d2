package models_test

import (
	"testing"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/stretchr/testify/require"
)

func TestPreprocessMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Empty", in: "", want: ""},
		{name: "Line endings", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "Heading without space", in: "##Leverage", want: "## Leverage"},
		{name: "Heading already spaced", in: "## Leverage", want: "## Leverage"},
		{name: "Numbered list", in: "1.Open an account\n2.Verify KYC", want: "1. Open an account\n2. Verify KYC"},
		{name: "Dash list", in: "-EUR/USD", want: "- EUR/USD"},
		{name: "Bold is left alone", in: "**Risk** first", want: "**Risk** first"},
		{name: "Rule is left alone", in: "a\n\n---\n\nb", want: "a\n\n---\n\nb"},
		{name: "Blockquote", in: ">Trade carefully", want: "> Trade carefully"},
		{name: "Blank lines collapsed", in: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "Code fence trimmed", in: "```python\n\n  x = 1  \n\n```", want: "```python\nx = 1\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, models.PreprocessMarkdown(tt.in))
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := models.RenderMarkdown("**Leverage** lets you control a larger position.")
	require.NoError(t, err)
	require.Contains(t, html, "<strong>Leverage</strong>")

	html, err = models.RenderMarkdown("| Pair | Spread |\n|---|---|\n| EUR/USD | 0.1 |")
	require.NoError(t, err)
	require.Contains(t, html, "<table>")

	html, err = models.RenderMarkdown("```go\nfmt.Println(1)\n```")
	require.NoError(t, err)
	require.Contains(t, html, "<pre")

	html, err = models.RenderMarkdown("<script>alert(1)</script>")
	require.NoError(t, err)
	require.NotContains(t, html, "<script>")
}
