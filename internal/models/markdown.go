package models

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	headingRe    = regexp.MustCompile(`(?m)^(#{1,6})([^#\s].*)$`)
	listItemRe   = regexp.MustCompile(`(?m)^([-+]|\d+\.)(\p{L}.*)$`)
	blockquoteRe = regexp.MustCompile(`(?m)^>[ \t]*(\S.*)$`)
	codeFenceRe  = regexp.MustCompile("(?s)```(\\w+)?\\n?(.*?)```")
	blankLinesRe = regexp.MustCompile(`\n{3,}`)

	// Raw HTML in model output is omitted from the rendered result.
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
)

// PreprocessMarkdown tidies model output so it renders predictably: line endings are normalized, missing
// spaces after heading, list and quote markers are inserted, code fences are trimmed, and runs of blank
// lines are collapsed.
func PreprocessMarkdown(text string) string {
	if text == "" {
		return ""
	}

	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = headingRe.ReplaceAllString(s, "$1 $2")
	s = listItemRe.ReplaceAllString(s, "$1 $2")
	s = blockquoteRe.ReplaceAllString(s, "> $1")

	s = codeFenceRe.ReplaceAllStringFunc(s, func(block string) string {
		m := codeFenceRe.FindStringSubmatch(block)
		return fmt.Sprintf("```%s\n%s\n```", m[1], strings.TrimSpace(m[2]))
	})

	s = blankLinesRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// RenderMarkdown converts assistant markdown into HTML, with GitHub-flavored extensions and syntax
// highlighted code blocks.
func RenderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(PreprocessMarkdown(text)), &buf); err != nil {
		return "", fmt.Errorf("error converting markdown: %w", err)
	}
	return buf.String(), nil
}
