package model

import "time"

// ================ Config ================

// Strategy selects the conversation-continuation mechanism used against the
// provider.
type Strategy string

const (
	// StrategyResponses links turns through the Responses API via
	// previous_response_id.
	StrategyResponses Strategy = "responses"
	// StrategyHistory keeps a client-side rolling message log and replays
	// it to the Chat Completions API.
	StrategyHistory Strategy = "history"
	// StrategyThread delegates history to a provider-hosted Assistants
	// thread and polls its runs.
	StrategyThread Strategy = "thread"
)

type OpenAIConfig struct {
	APIKey      string `envconfig:"OPENAI_API_KEY" required:"true"`
	Model       string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	AssistantID string `envconfig:"OPENAI_ASSISTANT_ID"`
	// VectorStoreID optionally enables the provider-side file_search tool
	// for the responses strategy.
	VectorStoreID string `envconfig:"VECTOR_STORE_ID"`
}

type ConversationConfig struct {
	Strategy Strategy `envconfig:"CONTINUITY_STRATEGY" default:"responses"`
	Backend  string   `envconfig:"CONTINUITY_BACKEND" default:"memory"`
	TTL      string   `envconfig:"CONTINUITY_TTL" default:"0"`
	History  struct {
		MaxMessages int `envconfig:"HISTORY_MAX_MESSAGES" default:"20"`
	}
	Tools struct {
		MaxCalls int `envconfig:"TOOL_MAX_CALLS" default:"10"`
	}
	Run struct {
		PollInterval time.Duration `envconfig:"RUN_POLL_INTERVAL" default:"1s"`
		PollTimeout  time.Duration `envconfig:"RUN_POLL_TIMEOUT" default:"2m"`
	}
}
