package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates all runtime settings for the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Chat   ChatConfig
	Web    WebConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Chat:   chat,
		Web:    loadWebConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// Providers the completion gateway can be backed by.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// AIConfig describes the upstream completion service. Decoding parameters
// are pass-through; the service never computes them.
type AIConfig struct {
	Provider string

	// OpenAI-compatible credentials.
	APIKey  string
	BaseURL string
	Model   string

	// Ark credentials, kept for deployments on the Volcengine stack.
	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkRegion    string
	ArkBaseURL   string

	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	FrequencyPenalty *float64
	PresencePenalty  *float64

	UpstreamTimeout time.Duration
}

// Enabled reports whether the required upstream credential is present.
// A missing credential is a fatal startup condition, not a per-request one.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Model != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return c.APIKey != "" && c.Model != ""
	}
}

// NewChatModel builds the configured chat model instance.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("completion credentials missing: set OPENAI_API_KEY, or ARK_API_KEY with CHAT_PROVIDER=ark")
	}

	maxTokens := c.MaxTokens
	temperature := toFloat32(c.Temperature)
	topP := toFloat32(c.TopP)

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.ArkBaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.ArkAPIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	default:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:          c.BaseURL,
			APIKey:           c.APIKey,
			Model:            c.Model,
			MaxTokens:        maxTokens,
			Temperature:      temperature,
			TopP:             topP,
			FrequencyPenalty: toFloat32(c.FrequencyPenalty),
			PresencePenalty:  toFloat32(c.PresencePenalty),
			Timeout:          c.UpstreamTimeout,
		})
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("CHAT_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("CHAT_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("CHAT_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	frequencyPenalty, err := parseOptionalFloatEnv("CHAT_FREQUENCY_PENALTY")
	if err != nil {
		return AIConfig{}, err
	}

	presencePenalty, err := parseOptionalFloatEnv("CHAT_PRESENCE_PENALTY")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseOptionalIntEnv("CHAT_UPSTREAM_TIMEOUT")
	if err != nil {
		return AIConfig{}, err
	}
	upstreamTimeout := 60 * time.Second
	if timeout != nil {
		upstreamTimeout = time.Duration(*timeout) * time.Second
	}

	provider := strings.ToLower(getEnvOrDefault("CHAT_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid CHAT_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:         provider,
		APIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:          strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Model:            getEnvOrDefault("CHAT_MODEL", "gpt-4o"),
		ArkAPIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkRegion:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		ArkBaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Temperature:      temperature,
		TopP:             topP,
		MaxTokens:        maxTokens,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
		UpstreamTimeout:  upstreamTimeout,
	}, nil
}

// ChatConfig describes session and prompt handling.
type ChatConfig struct {
	PromptPath      string
	SessionMaxTurns int
}

func loadChatConfig() (ChatConfig, error) {
	maxTurns := 0
	if override, err := parseOptionalIntEnv("SESSION_MAX_TURNS"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ChatConfig{}, fmt.Errorf("SESSION_MAX_TURNS must not be negative")
		}
		maxTurns = *override
	}

	return ChatConfig{
		PromptPath:      getEnvOrDefault("CHAT_PROMPT_PATH", "prompts/system_prompt.txt"),
		SessionMaxTurns: maxTurns,
	}, nil
}

// WebConfig describes the static page shells.
type WebConfig struct {
	Dir string
}

func loadWebConfig() WebConfig {
	return WebConfig{Dir: getEnvOrDefault("WEB_DIR", "web")}
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
