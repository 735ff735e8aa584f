package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tacs-assistant/server/internal/assistant"
	"github.com/tacs-assistant/server/internal/assistant/model"
	"github.com/tacs-assistant/server/internal/assistant/tools"
	"github.com/tacs-assistant/server/internal/bot"
	"github.com/tacs-assistant/server/internal/continuity"
	"github.com/tacs-assistant/server/internal/core"
	"github.com/tacs-assistant/server/internal/database"
	"github.com/tacs-assistant/server/internal/provider/responses"
	logx "github.com/tacs-assistant/server/pkg/logger"
	pkgredis "github.com/tacs-assistant/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the bot, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment   string `envconfig:"ENVIRONMENT" default:"development"`
	TelegramToken string `envconfig:"TELEGRAM_TOKEN" required:"true"`

	OpenAI       model.OpenAIConfig
	Conversation model.ConversationConfig
	MySQL        database.Config
	Redis        pkgredis.Config
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	db, err := database.Open(cfg.MySQL)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	logx.Info().Str("status", db.Healthcheck(ctx)).Msg("database health")

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewReportTool(db)); err != nil {
		logx.Fatal().Err(err).Msg("failed to register report tool")
	}

	cont, err := buildContinuation(cfg, registry)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build continuation strategy")
	}

	driver := assistant.NewDriver(cont, registry, cfg.Conversation.Tools.MaxCalls)

	b, err := bot.New(cfg.TelegramToken, driver)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create telegram bot")
	}

	logx.Info().
		Str("strategy", string(cfg.Conversation.Strategy)).
		Str("backend", cfg.Conversation.Backend).
		Str("model", cfg.OpenAI.Model).
		Msg("bot started")
	b.Start()
}

// buildContinuation assembles the configured continuation strategy with its
// typed continuity store.
func buildContinuation(cfg AppConfig, registry *tools.Registry) (assistant.Continuation, error) {
	catalog := registry.Describe()

	switch cfg.Conversation.Strategy {
	case model.StrategyResponses:
		store, err := newStore[string](cfg)
		if err != nil {
			return nil, err
		}
		client := responses.NewClient(cfg.OpenAI.APIKey)
		return assistant.NewResponseLink(client, cfg.OpenAI.Model, catalog, cfg.OpenAI.VectorStoreID, store), nil

	case model.StrategyHistory:
		store, err := newStore[[]model.Message](cfg)
		if err != nil {
			return nil, err
		}
		client := openai.NewClient(cfg.OpenAI.APIKey)
		return assistant.NewMessageLog(client, cfg.OpenAI.Model, cfg.Conversation.History.MaxMessages, catalog, store), nil

	case model.StrategyThread:
		if cfg.OpenAI.AssistantID == "" {
			return nil, fmt.Errorf("OPENAI_ASSISTANT_ID is required for the thread strategy")
		}
		store, err := newStore[string](cfg)
		if err != nil {
			return nil, err
		}
		client := openai.NewClient(cfg.OpenAI.APIKey)
		return assistant.NewManagedThread(
			client,
			cfg.OpenAI.AssistantID,
			catalog,
			store,
			cfg.Conversation.Run.PollInterval,
			cfg.Conversation.Run.PollTimeout,
		), nil

	default:
		return nil, fmt.Errorf("unknown continuity strategy %q", cfg.Conversation.Strategy)
	}
}

// newStore builds the continuity store backend shared by every strategy:
// in-process memory by default, Redis when explicitly selected.
func newStore[T any](cfg AppConfig) (continuity.Store[T], error) {
	switch cfg.Conversation.Backend {
	case "", "memory":
		return continuity.NewMemoryStore[T](), nil

	case "redis":
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid CONTINUITY_TTL %q: %w", cfg.Conversation.TTL, err)
		}
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, fmt.Errorf("initialise redis client: %w", err)
		}
		return continuity.NewRedisStore[T](rdb, ttl), nil

	default:
		return nil, fmt.Errorf("unknown continuity backend %q", cfg.Conversation.Backend)
	}
}
