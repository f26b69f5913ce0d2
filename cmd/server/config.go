package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/forexbot/forexbot/internal/handlers"
	"github.com/forexbot/forexbot/internal/models"
	"github.com/forexbot/forexbot/internal/services"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	provider() string
	llm(ctx context.Context, store services.AssistantStore, logger *slog.Logger) (handlers.LLM, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	services.LLMParameters `yaml:",inline"`
}

type config struct {
	Port          string        `yaml:"port"`
	LogLevel      string        `yaml:"logLevel"`
	StreamTimeout time.Duration `yaml:"streamTimeout"`
	// RateLimitPerMinute is the advertised per-client request budget. It is not enforced by the server.
	RateLimitPerMinute int       `yaml:"rateLimitPerMinute"`
	LLM                llmConfig `yaml:"llm"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type assistantConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
	AssistantName string `yaml:"assistantName"`
	AssistantID   string `yaml:"assistantID"`
}

type openRouterConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type geminiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

const (
	defaultPort               = "8080"
	defaultLogLevel           = "info"
	defaultStreamTimeout      = 2 * time.Minute
	defaultRateLimitPerMinute = 20
	defaultModel              = "gpt-4o-mini"
	defaultAssistantName      = "ForexBot"
	defaultOllamaHost         = "http://localhost:11434"
)

var (
	errModelRequired  = errors.New("model is required")
	errAPIKeyRequired = errors.New("api key is required")
)

func defaultConfig() config {
	return config{
		Port:               defaultPort,
		LogLevel:           defaultLogLevel,
		StreamTimeout:      defaultStreamTimeout,
		RateLimitPerMinute: defaultRateLimitPerMinute,
		LLM: &openAIConfig{
			BaseLLMConfig: BaseLLMConfig{
				Provider: "openai",
				Model:    defaultModel,
			},
		},
	}
}

// loadConfig reads the configuration file at path. A missing file yields the default configuration.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}
	return cfg, nil
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port               string         `yaml:"port"`
		LogLevel           string         `yaml:"logLevel"`
		StreamTimeout      time.Duration  `yaml:"streamTimeout"`
		RateLimitPerMinute int            `yaml:"rateLimitPerMinute"`
		LLM                map[string]any `yaml:"llm"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	*c = defaultConfig()
	if rawConfig.Port != "" {
		c.Port = rawConfig.Port
	}
	if rawConfig.LogLevel != "" {
		c.LogLevel = rawConfig.LogLevel
	}
	if rawConfig.StreamTimeout != 0 {
		c.StreamTimeout = rawConfig.StreamTimeout
	}
	if rawConfig.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = rawConfig.RateLimitPerMinute
	}

	if rawConfig.LLM == nil {
		return nil
	}

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "openai":
		llm = &openAIConfig{}
	case "openai-assistant":
		llm = &assistantConfig{}
	case "openrouter":
		llm = &openRouterConfig{}
	case "anthropic":
		llm = &anthropicConfig{}
	case "ollama":
		llm = &ollamaConfig{}
	case "gemini":
		llm = &geminiConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

// logLevel parses LogLevel, one of debug, info, warn, or error.
func (c config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (b BaseLLMConfig) provider() string {
	return b.Provider
}

// params fills the generation parameters left out of the configuration with their defaults.
func (b BaseLLMConfig) params() services.LLMParameters {
	p := b.LLMParameters
	def := services.DefaultParameters()
	if p.MaxTokens == 0 {
		p.MaxTokens = def.MaxTokens
	}
	if p.Temperature == nil {
		p.Temperature = def.Temperature
	}
	return p
}

func apiKeyOrEnv(apiKey, env string) (string, error) {
	if apiKey == "" {
		apiKey = os.Getenv(env)
	}
	if apiKey == "" {
		return "", fmt.Errorf("%w: set apiKey or %s", errAPIKeyRequired, env)
	}
	return apiKey, nil
}

func (o openAIConfig) llm(_ context.Context, _ services.AssistantStore, logger *slog.Logger) (handlers.LLM, error) {
	model := o.Model
	if model == "" {
		model = defaultModel
	}
	apiKey, err := apiKeyOrEnv(o.APIKey, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewOpenAI(apiKey, o.BaseURL, model, o.params(), logger), nil
}

func (a assistantConfig) llm(_ context.Context, store services.AssistantStore, logger *slog.Logger) (handlers.LLM, error) {
	model := a.Model
	if model == "" {
		model = defaultModel
	}
	name := a.AssistantName
	if name == "" {
		name = defaultAssistantName
	}
	id := a.AssistantID
	if id == "" {
		id = os.Getenv("OPENAI_ASSISTANT_ID")
	}
	apiKey, err := apiKeyOrEnv(a.APIKey, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	return services.NewAssistant(services.AssistantConfig{
		APIKey:       apiKey,
		BaseURL:      a.BaseURL,
		Name:         name,
		Model:        model,
		ID:           id,
		Instructions: models.DefaultLanguage.SystemPrompt(),
		Params:       a.params(),
	}, store, logger), nil
}

func (o openRouterConfig) llm(_ context.Context, _ services.AssistantStore, logger *slog.Logger) (handlers.LLM, error) {
	if o.Model == "" {
		return nil, errModelRequired
	}
	apiKey, err := apiKeyOrEnv(o.APIKey, "OPENROUTER_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewOpenRouter(apiKey, o.BaseURL, o.Model, o.params(), logger), nil
}

func (a anthropicConfig) llm(_ context.Context, _ services.AssistantStore, logger *slog.Logger) (handlers.LLM, error) {
	if a.Model == "" {
		return nil, errModelRequired
	}
	apiKey, err := apiKeyOrEnv(a.APIKey, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewAnthropic(apiKey, a.BaseURL, a.Model, a.params(), logger), nil
}

func (o ollamaConfig) llm(_ context.Context, _ services.AssistantStore, logger *slog.Logger) (handlers.LLM, error) {
	if o.Model == "" {
		return nil, errModelRequired
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	return services.NewOllama(host, o.Model, o.params(), logger)
}

func (g geminiConfig) llm(ctx context.Context, _ services.AssistantStore, logger *slog.Logger) (handlers.LLM, error) {
	if g.Model == "" {
		return nil, errModelRequired
	}
	apiKey, err := apiKeyOrEnv(g.APIKey, "GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewGemini(ctx, apiKey, g.BaseURL, g.Model, g.params(), logger)
}
