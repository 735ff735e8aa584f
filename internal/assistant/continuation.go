// Package assistant turns one inbound user message into zero-or-more tool
// executions and exactly one final answer, keeping per-chat continuity with
// the LLM provider across turns.
package assistant

import "context"

// ToolCall is a function invocation the model requested inside a turn. ID is
// the provider's correlation id; the matching result must carry it back.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	CallID string
	Output string
}

// OutputItem is one element of a model turn's output, in order of
// appearance: final text when Call is nil, a pending tool call otherwise.
type OutputItem struct {
	Text string
	Call *ToolCall
}

// Turn is the interpreted result of one provider round trip.
type Turn struct {
	Items []OutputItem
}

// ToolCalls collects the pending tool calls in order of appearance.
func (t Turn) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, item := range t.Items {
		if item.Call != nil {
			calls = append(calls, *item.Call)
		}
	}
	return calls
}

// Text concatenates the text items in order of appearance.
func (t Turn) Text() string {
	var text string
	for _, item := range t.Items {
		if item.Call == nil {
			text += item.Text
		}
	}
	return text
}

// TextTurn builds a turn holding a single final text item.
func TextTurn(text string) Turn {
	return Turn{Items: []OutputItem{{Text: text}}}
}

// Continuation is one conversation-continuation strategy. Implementations
// own the shape of the continuity token (a response id, a message log, or a
// thread id) and how it is carried between turns.
//
// The driver serializes calls per chat, so implementations may keep
// in-flight turn state keyed by chat id between BeginTurn and
// SubmitToolResults. On error the chat's stored token must be left as it
// was before the call.
type Continuation interface {
	// BeginTurn records the user message and requests the model's next
	// output.
	BeginTurn(ctx context.Context, chatID int64, text string) (Turn, error)

	// SubmitToolResults feeds tool observations back into the same turn
	// and requests the model's next output.
	SubmitToolResults(ctx context.Context, chatID int64, results []ToolResult) (Turn, error)

	// Clear discards the chat's continuity so the next message starts a
	// fresh conversation. Clearing an inactive chat succeeds.
	Clear(ctx context.Context, chatID int64) (bool, error)

	// Token returns a printable form of the chat's continuity token, for
	// the /debug command.
	Token(ctx context.Context, chatID int64) (string, bool)
}
