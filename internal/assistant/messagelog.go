package assistant

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tacs-assistant/server/internal/assistant/model"
	"github.com/tacs-assistant/server/internal/assistant/tools"
	"github.com/tacs-assistant/server/internal/continuity"
	errx "github.com/tacs-assistant/server/internal/core/error"
	logx "github.com/tacs-assistant/server/pkg/logger"
)

// MessageLog continues a conversation by replaying a client-side rolling
// history to the Chat Completions API. The continuity token is the capped
// message log itself.
//
// The stored log only ever holds committed turns: a turn in flight is
// accumulated in pending and persisted once the model has produced its
// final answer, so a failed turn leaves the token exactly as it was.
type MessageLog struct {
	client      *openai.Client
	model       string
	maxMessages int
	tools       []openai.Tool
	store       continuity.Store[[]model.Message]

	mu      sync.Mutex
	pending map[int64][]model.Message
}

func NewMessageLog(client *openai.Client, chatModel string, maxMessages int, catalog []tools.Definition, store continuity.Store[[]model.Message]) *MessageLog {
	declared := make([]openai.Tool, 0, len(catalog))
	for _, def := range catalog {
		declared = append(declared, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}

	return &MessageLog{
		client:      client,
		model:       chatModel,
		maxMessages: maxMessages,
		tools:       declared,
		store:       store,
		pending:     make(map[int64][]model.Message),
	}
}

func (m *MessageLog) BeginTurn(ctx context.Context, chatID int64, text string) (Turn, error) {
	// A fresh turn abandons any tool phase a previous turn left unfinished.
	m.mu.Lock()
	delete(m.pending, chatID)
	m.mu.Unlock()

	log, ok, err := m.store.Get(ctx, chatID)
	if err != nil {
		return Turn{}, err
	}
	if !ok || len(log) == 0 {
		log = []model.Message{model.SystemMessage(SystemPrompt)}
	}
	log = append(log, model.UserMessage(text))

	return m.roundTrip(ctx, chatID, log)
}

func (m *MessageLog) SubmitToolResults(ctx context.Context, chatID int64, results []ToolResult) (Turn, error) {
	m.mu.Lock()
	log, ok := m.pending[chatID]
	delete(m.pending, chatID)
	m.mu.Unlock()
	if !ok {
		return Turn{}, errx.WrapProvider(errx.ErrRunFailed)
	}

	for _, result := range results {
		log = append(log, model.Message{
			Role:       model.RoleTool,
			Content:    result.Output,
			ToolCallID: result.CallID,
		})
	}

	return m.roundTrip(ctx, chatID, log)
}

// roundTrip sends the working log to the model, appends its reply and
// either parks the log for the tool phase or commits it to the store. The
// cap is enforced here, not just at commit, so the request payload never
// carries more visible messages than configured.
func (m *MessageLog) roundTrip(ctx context.Context, chatID int64, log []model.Message) (Turn, error) {
	log = evictMessages(log, m.maxMessages)
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toChatMessages(log),
		Tools:    m.tools,
	})
	if err != nil {
		return Turn{}, errx.WrapProvider(err)
	}
	if len(resp.Choices) == 0 {
		return Turn{}, errx.WrapProvider(fmt.Errorf("chat completion returned no choices"))
	}

	reply := resp.Choices[0].Message
	log = append(log, fromChatMessage(reply))

	var turn Turn
	for _, call := range reply.ToolCalls {
		turn.Items = append(turn.Items, OutputItem{Call: &ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}})
	}

	if len(reply.ToolCalls) > 0 {
		m.mu.Lock()
		m.pending[chatID] = log
		m.mu.Unlock()
		return turn, nil
	}

	if reply.Content != "" {
		turn.Items = append(turn.Items, OutputItem{Text: reply.Content})
	}

	log = evictMessages(log, m.maxMessages)
	if err := m.store.Set(ctx, chatID, log); err != nil {
		return Turn{}, err
	}
	logx.Debug().Int64("chat_id", chatID).Int("messages", len(log)).Msg("committed message log")
	return turn, nil
}

// evictMessages drops the oldest non-system messages until at most max
// remain. System messages are always retained at their position.
func evictMessages(log []model.Message, max int) []model.Message {
	if max <= 0 {
		return log
	}

	visible := 0
	for _, msg := range log {
		if msg.Role != model.RoleSystem {
			visible++
		}
	}
	if visible <= max {
		return log
	}

	drop := visible - max
	kept := make([]model.Message, 0, len(log)-drop)
	for _, msg := range log {
		if drop > 0 && msg.Role != model.RoleSystem {
			drop--
			continue
		}
		kept = append(kept, msg)
	}
	return kept
}

func toChatMessages(log []model.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(log))
	for i, msg := range log {
		var calls []openai.ToolCall
		for _, call := range msg.ToolCalls {
			calls = append(calls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		out[i] = openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCalls:  calls,
			ToolCallID: msg.ToolCallID,
		}
	}
	return out
}

func fromChatMessage(msg openai.ChatCompletionMessage) model.Message {
	stored := model.Message{
		Role:    model.RoleAssistant,
		Content: msg.Content,
	}
	for _, call := range msg.ToolCalls {
		stored.ToolCalls = append(stored.ToolCalls, model.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return stored
}

func (m *MessageLog) Clear(ctx context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	delete(m.pending, chatID)
	m.mu.Unlock()
	return m.store.Clear(ctx, chatID)
}

func (m *MessageLog) Token(ctx context.Context, chatID int64) (string, bool) {
	log, ok, err := m.store.Get(ctx, chatID)
	if err != nil || !ok {
		return "", false
	}
	return fmt.Sprintf("message log: %d mensajes", len(log)), true
}
