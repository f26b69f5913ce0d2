package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/forexbot/forexbot"
	"github.com/forexbot/forexbot/internal/handlers"
	"github.com/forexbot/forexbot/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env file", slog.String("err", err.Error()))
	}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		fatal(logger, "Failed to get user config dir", err)
	}
	cfgPath := filepath.Join(cfgDir, "forexbot")
	if err := os.MkdirAll(cfgPath, 0755); err != nil {
		fatal(logger, "Failed to create config directory", err)
	}

	cfgFilePath := os.Getenv("FOREXBOT_CONFIG")
	if cfgFilePath == "" {
		cfgFilePath = filepath.Join(cfgPath, "config.yaml")
	}
	cfg, err := loadConfig(cfgFilePath)
	if err != nil {
		fatal(logger, "Failed to load config", err)
	}

	lvl, err := cfg.logLevel()
	if err != nil {
		fatal(logger, "Failed to parse log level", err)
	}
	level.Set(lvl)

	boltDB, err := services.NewBoltDB(filepath.Join(cfgPath, "store.db"))
	if err != nil {
		fatal(logger, "Failed to open store", err)
	}
	defer boltDB.Close()

	llm, err := cfg.LLM.llm(context.Background(), boltDB, logger)
	if err != nil {
		fatal(logger, "Failed to create LLM", err)
	}

	m, err := handlers.NewMain(llm, cfg.StreamTimeout, logger)
	if err != nil {
		fatal(logger, "Failed to create handlers", err)
	}

	// Serve static files
	staticFS, err := fs.Sub(forexbot.StaticFS, "static")
	if err != nil {
		fatal(logger, "Failed to open static files", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("GET /{$}", m.HandleHome)
	mux.HandleFunc("GET /chat", m.HandleChatPage)
	mux.HandleFunc("/api/chat", m.HandleChat)
	mux.HandleFunc("/api/leads", m.HandleLeads)
	mux.HandleFunc("/api/render", m.HandleRender)
	mux.HandleFunc("GET /health", m.HandleHealth)
	mux.HandleFunc("/", m.HandleNotFound)

	// WriteTimeout is left unset: chat responses are long-lived streams bounded by streamTimeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown chat streams", slog.String("err", err.Error()))
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Server starting",
			slog.String("port", cfg.Port),
			slog.String("provider", cfg.LLM.provider()),
			slog.Duration("streamTimeout", cfg.StreamTimeout),
			slog.Int("rateLimitPerMinute", cfg.RateLimitPerMinute))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("err", err.Error()))
	os.Exit(1)
}
