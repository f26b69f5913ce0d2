package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/forexbot/forexbot/internal/client"
	"github.com/forexbot/forexbot/internal/models"
	"github.com/joho/godotenv"
)

const usage = `Commands:
  /lang <english|hindi|marathi>  switch language
  /quit                          exit`

func main() {
	_ = godotenv.Load()

	endpoint := flag.String("url", envOr("FOREXBOT_URL", "http://localhost:8080/api/chat"), "chat relay endpoint")
	lang := flag.String("lang", string(models.DefaultLanguage), "reply language: english, hindi, or marathi")
	raw := flag.Bool("raw", false, "stream replies as plain text instead of rendering markdown")
	width := flag.Int("width", 100, "word wrap width for rendered replies")
	debug := flag.Bool("debug", false, "log to stderr")
	flag.Parse()

	logLevel := slog.LevelError
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(*width))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating renderer: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chat := client.New(*endpoint,
		client.WithLanguage(models.ParseLanguage(*lang)),
		client.WithLogger(logger))

	t := terminal{
		chat:     chat,
		renderer: renderer,
		raw:      *raw,
		out:      os.Stdout,
	}
	if err := t.run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type terminal struct {
	chat     *client.Chat
	renderer *glamour.TermRenderer
	raw      bool
	out      io.Writer

	// streamed and printed track the reply written in raw mode.
	streamed string
	printed  int
}

func (t *terminal) run(ctx context.Context, in io.Reader) error {
	welcome := t.chat.Transcript().Messages[0]
	t.print(welcome.Content)
	fmt.Fprintln(t.out, usage)

	if t.raw {
		t.chat.OnUpdate(t.streamReply)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(t.out, "\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case strings.HasPrefix(line, "/lang"):
			lang := models.ParseLanguage(strings.TrimSpace(strings.TrimPrefix(line, "/lang")))
			t.chat.SetLanguage(lang)
			fmt.Fprintf(t.out, "Language: %s\n", lang.Strings().Label)
			continue
		}

		before := len(t.chat.Transcript().Messages)
		t.streamed, t.printed = "", 0
		err := t.chat.Send(ctx, line)
		if errors.Is(err, context.Canceled) {
			return err
		}

		tr := t.chat.Transcript()
		if errors.Is(err, models.ErrMessageEmpty) || errors.Is(err, models.ErrMessageTooLong) {
			fmt.Fprintln(t.out, tr.Error)
			continue
		}

		if t.printed > 0 {
			fmt.Fprintln(t.out)
		}
		// The user's own message is not echoed.
		for _, msg := range tr.Messages[min(before+1, len(tr.Messages)):] {
			if msg.ID != t.streamed && msg.Content != "" {
				t.print(msg.Content)
			}
		}
		if tr.Error != "" {
			fmt.Fprintln(t.out, tr.Error)
		}
	}
}

// streamReply writes the part of the reply that arrived since the last update.
func (t *terminal) streamReply(tr client.Transcript) {
	if len(tr.Messages) == 0 {
		return
	}
	last := tr.Messages[len(tr.Messages)-1]
	if last.Role != models.RoleAssistant || last.StreamingState != models.StreamingStateStreaming {
		return
	}
	t.streamed = last.ID
	if len(last.Content) > t.printed {
		fmt.Fprint(t.out, last.Content[t.printed:])
		t.printed = len(last.Content)
	}
}

func (t *terminal) print(content string) {
	if t.raw {
		fmt.Fprintln(t.out, content)
		return
	}
	out, err := t.renderer.Render(content)
	if err != nil {
		fmt.Fprintln(t.out, content)
		return
	}
	fmt.Fprint(t.out, out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
