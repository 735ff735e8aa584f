package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tacs-assistant/server/internal/assistant/tools"
	"github.com/tacs-assistant/server/internal/continuity"
	errx "github.com/tacs-assistant/server/internal/core/error"
	logx "github.com/tacs-assistant/server/pkg/logger"
)

// ManagedThread continues a conversation through a provider-hosted
// Assistants thread: all messages and runs are appended server-side and the
// continuity token is just the thread id. Each turn starts a run and polls
// it until it reaches a terminal status or asks for tool outputs.
type ManagedThread struct {
	client       *openai.Client
	assistantID  string
	tools        []openai.Tool
	store        continuity.Store[string]
	pollInterval time.Duration
	pollTimeout  time.Duration

	mu   sync.Mutex
	runs map[int64]string
}

func NewManagedThread(client *openai.Client, assistantID string, catalog []tools.Definition, store continuity.Store[string], pollInterval, pollTimeout time.Duration) *ManagedThread {
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

	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if pollTimeout <= 0 {
		pollTimeout = 2 * time.Minute
	}

	return &ManagedThread{
		client:       client,
		assistantID:  assistantID,
		tools:        declared,
		store:        store,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		runs:         make(map[int64]string),
	}
}

func (m *ManagedThread) BeginTurn(ctx context.Context, chatID int64, text string) (Turn, error) {
	threadID, ok, err := m.store.Get(ctx, chatID)
	if err != nil {
		return Turn{}, err
	}
	if !ok {
		thread, err := m.client.CreateThread(ctx, openai.ThreadRequest{})
		if err != nil {
			return Turn{}, errx.WrapProvider(err)
		}
		if err := m.store.Set(ctx, chatID, thread.ID); err != nil {
			return Turn{}, err
		}
		threadID = thread.ID
		logx.Info().Int64("chat_id", chatID).Str("thread_id", threadID).Msg("created thread")
	}

	if _, err := m.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	}); err != nil {
		return Turn{}, errx.WrapProvider(err)
	}

	run, err := m.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: m.assistantID,
		Tools:       m.tools,
	})
	if err != nil {
		return Turn{}, errx.WrapProvider(err)
	}

	m.mu.Lock()
	m.runs[chatID] = run.ID
	m.mu.Unlock()

	return m.awaitRun(ctx, threadID, run)
}

func (m *ManagedThread) SubmitToolResults(ctx context.Context, chatID int64, results []ToolResult) (Turn, error) {
	threadID, ok, err := m.store.Get(ctx, chatID)
	if err != nil {
		return Turn{}, err
	}
	m.mu.Lock()
	runID, hasRun := m.runs[chatID]
	m.mu.Unlock()
	if !ok || !hasRun {
		return Turn{}, errx.WrapProvider(errx.ErrRunFailed)
	}

	outputs := make([]openai.ToolOutput, 0, len(results))
	for _, result := range results {
		outputs = append(outputs, openai.ToolOutput{
			ToolCallID: result.CallID,
			Output:     result.Output,
		})
	}

	run, err := m.client.SubmitToolOutputs(ctx, threadID, runID, openai.SubmitToolOutputsRequest{
		ToolOutputs: outputs,
	})
	if err != nil {
		return Turn{}, errx.WrapProvider(err)
	}

	return m.awaitRun(ctx, threadID, run)
}

// awaitRun polls the run at the configured interval until it completes,
// asks for tool outputs, or fails. The total wait is bounded: hitting the
// timeout is treated like any other provider failure.
func (m *ManagedThread) awaitRun(ctx context.Context, threadID string, run openai.Run) (Turn, error) {
	deadline := time.Now().Add(m.pollTimeout)

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			text, err := m.lastAssistantMessage(ctx, threadID, run.ID)
			if err != nil {
				return Turn{}, err
			}
			return TextTurn(text), nil

		case openai.RunStatusRequiresAction:
			if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
				return Turn{}, errx.WrapProvider(fmt.Errorf("run %s requires action without tool calls", run.ID))
			}
			var turn Turn
			for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
				turn.Items = append(turn.Items, OutputItem{Call: &ToolCall{
					ID:        call.ID,
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				}})
			}
			return turn, nil

		case openai.RunStatusQueued, openai.RunStatusInProgress:
			// keep polling

		default:
			logx.Error().Str("run_id", run.ID).Str("status", string(run.Status)).Msg("run ended without completing")
			return Turn{}, errx.WrapProvider(fmt.Errorf("%w: run %s status %s", errx.ErrRunFailed, run.ID, run.Status))
		}

		if time.Now().After(deadline) {
			return Turn{}, errx.WrapProvider(fmt.Errorf("%w: run %s after %s", errx.ErrPollTimeout, run.ID, m.pollTimeout))
		}

		select {
		case <-ctx.Done():
			return Turn{}, errx.WrapProvider(ctx.Err())
		case <-time.After(m.pollInterval):
		}

		var err error
		run, err = m.client.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return Turn{}, errx.WrapProvider(err)
		}
	}
}

// lastAssistantMessage fetches the text the run appended to the thread.
func (m *ManagedThread) lastAssistantMessage(ctx context.Context, threadID, runID string) (string, error) {
	limit := 1
	order := "desc"
	list, err := m.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, &runID)
	if err != nil {
		return "", errx.WrapProvider(err)
	}

	for _, msg := range list.Messages {
		if msg.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		for _, part := range msg.Content {
			if part.Text != nil {
				return part.Text.Value, nil
			}
		}
	}
	return "", nil
}

func (m *ManagedThread) Clear(ctx context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	delete(m.runs, chatID)
	m.mu.Unlock()
	// The remote thread object is abandoned, not deleted; the next message
	// creates a fresh one.
	return m.store.Clear(ctx, chatID)
}

func (m *ManagedThread) Token(ctx context.Context, chatID int64) (string, bool) {
	token, ok, err := m.store.Get(ctx, chatID)
	if err != nil || !ok {
		return "", false
	}
	return token, true
}
