package assistant

import (
	"context"
	"sync"

	"github.com/tacs-assistant/server/internal/assistant/tools"
	errx "github.com/tacs-assistant/server/internal/core/error"
	logx "github.com/tacs-assistant/server/pkg/logger"
)

const (
	// ApologyMessage is the fixed answer for any provider failure during a
	// turn. The continuity token is left untouched so the next message can
	// retry cleanly.
	ApologyMessage = "Ocurrió un error al procesar tu mensaje. Por favor, intenta de nuevo."
	// FallbackMessage answers a turn whose output carried neither text nor
	// tool calls.
	FallbackMessage = "Lo siento, no pude procesar tu mensaje. Intenta de nuevo."
)

// Driver runs the per-message state machine: begin a turn, execute any tool
// calls the model requests, feed the observations back, and repeat until
// the model produces a final answer.
type Driver struct {
	cont         Continuation
	registry     *tools.Registry
	maxToolCalls int

	mu    sync.Mutex
	chats map[int64]*chatLock
}

// chatLock serializes one chat's turns. refs counts holders and waiters so
// the entry can be dropped from the map once the chat goes idle.
type chatLock struct {
	sync.Mutex
	refs int
}

func NewDriver(cont Continuation, registry *tools.Registry, maxToolCalls int) *Driver {
	if maxToolCalls <= 0 {
		maxToolCalls = 10
	}
	return &Driver{
		cont:         cont,
		registry:     registry,
		maxToolCalls: maxToolCalls,
		chats:        make(map[int64]*chatLock),
	}
}

// lockChat acquires the mutex serializing turns for one chat. Turns for
// different chats proceed independently; a second message from the same
// chat queues behind the in-flight turn.
func (d *Driver) lockChat(chatID int64) *chatLock {
	d.mu.Lock()
	lock, ok := d.chats[chatID]
	if !ok {
		lock = &chatLock{}
		d.chats[chatID] = lock
	}
	lock.refs++
	d.mu.Unlock()

	lock.Lock()
	return lock
}

// unlockChat releases the chat's mutex and removes the map entry once no
// holder or waiter remains.
func (d *Driver) unlockChat(chatID int64, lock *chatLock) {
	lock.Unlock()

	d.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(d.chats, chatID)
	}
	d.mu.Unlock()
}

// Handle processes one user message and returns the final answer text.
// Provider failures never escape: they are logged and converted into the
// fixed apology.
func (d *Driver) Handle(ctx context.Context, chatID int64, text string) string {
	lock := d.lockChat(chatID)
	defer d.unlockChat(chatID, lock)

	turn, err := d.cont.BeginTurn(ctx, chatID, text)
	if err != nil {
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("turn failed")
		return ApologyMessage
	}

	for iteration := 0; ; iteration++ {
		calls := turn.ToolCalls()
		if len(calls) == 0 {
			break
		}
		if iteration >= d.maxToolCalls {
			logx.Error().Err(errx.ErrToolLoopExceeded).
				Int64("chat_id", chatID).
				Int("iterations", iteration).
				Msg("aborting turn")
			return ApologyMessage
		}

		results := make([]ToolResult, 0, len(calls))
		for _, call := range calls {
			results = append(results, ToolResult{
				CallID: call.ID,
				Output: d.registry.Invoke(ctx, call.Name, call.Arguments),
			})
		}

		turn, err = d.cont.SubmitToolResults(ctx, chatID, results)
		if err != nil {
			logx.Error().Err(err).Int64("chat_id", chatID).Msg("tool result submission failed")
			return ApologyMessage
		}
	}

	answer := turn.Text()
	if answer == "" {
		logx.Warn().Int64("chat_id", chatID).Msg("model produced neither text nor tool calls")
		return FallbackMessage
	}
	return answer
}

// Clear discards the chat's continuity token.
func (d *Driver) Clear(ctx context.Context, chatID int64) bool {
	lock := d.lockChat(chatID)
	defer d.unlockChat(chatID, lock)

	ok, err := d.cont.Clear(ctx, chatID)
	if err != nil {
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("failed to clear conversation")
		return false
	}
	return ok
}

// Token exposes the chat's raw continuity token for the /debug command. It
// queues behind any in-flight turn so it never observes mid-turn state.
func (d *Driver) Token(ctx context.Context, chatID int64) (string, bool) {
	lock := d.lockChat(chatID)
	defer d.unlockChat(chatID, lock)

	return d.cont.Token(ctx, chatID)
}
