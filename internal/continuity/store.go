// Package continuity keeps the per-chat state needed to resume a multi-turn
// dialogue with the LLM provider across independent request/response cycles.
//
// The token type depends on the active continuation strategy: a response id,
// a rolling message log, or a provider-hosted thread id. The store is generic
// over the token so each strategy gets a typed view of its own state.
package continuity

import "context"

// Store maps a Telegram chat id to at most one continuity token. Absence
// means the chat has no active conversation and the next turn must
// initialize one.
type Store[T any] interface {
	// Get returns the token for the chat and whether one exists.
	Get(ctx context.Context, chatID int64) (T, bool, error)

	// Set replaces the token for the chat.
	Set(ctx context.Context, chatID int64, token T) error

	// Clear removes the mapping entirely. Clearing a chat without an
	// active conversation is a no-op success.
	Clear(ctx context.Context, chatID int64) (bool, error)
}
