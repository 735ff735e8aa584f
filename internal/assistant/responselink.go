package assistant

import (
	"context"

	"github.com/tacs-assistant/server/internal/assistant/tools"
	"github.com/tacs-assistant/server/internal/continuity"
	errx "github.com/tacs-assistant/server/internal/core/error"
	"github.com/tacs-assistant/server/internal/provider/responses"
	logx "github.com/tacs-assistant/server/pkg/logger"
)

// ResponseLink continues a conversation through the Responses API: the
// continuity token is the id of the last completed response, and each turn
// references it as previous_response_id. History lives provider-side
// (store=true); only the id is kept locally.
type ResponseLink struct {
	client       *responses.Client
	model        string
	instructions string
	tools        []responses.Tool
	store        continuity.Store[string]
}

func NewResponseLink(client *responses.Client, model string, catalog []tools.Definition, vectorStoreID string, store continuity.Store[string]) *ResponseLink {
	declared := make([]responses.Tool, 0, len(catalog)+1)
	for _, def := range catalog {
		declared = append(declared, responses.Tool{
			Type:        "function",
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}
	if vectorStoreID != "" {
		declared = append(declared, responses.Tool{
			Type:           "file_search",
			VectorStoreIDs: []string{vectorStoreID},
		})
	}

	return &ResponseLink{
		client:       client,
		model:        model,
		instructions: SystemPrompt,
		tools:        declared,
		store:        store,
	}
}

func (r *ResponseLink) BeginTurn(ctx context.Context, chatID int64, text string) (Turn, error) {
	req := responses.Request{
		Model:        r.model,
		Input:        []responses.Item{responses.UserMessage(text)},
		Instructions: r.instructions,
		Tools:        r.tools,
		Store:        true,
	}
	if prev, ok, err := r.store.Get(ctx, chatID); err != nil {
		return Turn{}, err
	} else if ok {
		req.PreviousResponseID = prev
	}

	return r.roundTrip(ctx, chatID, req)
}

func (r *ResponseLink) SubmitToolResults(ctx context.Context, chatID int64, results []ToolResult) (Turn, error) {
	// The token already points at the response that requested the tools.
	prev, ok, err := r.store.Get(ctx, chatID)
	if err != nil {
		return Turn{}, err
	}
	if !ok {
		return Turn{}, errx.WrapProvider(errx.ErrRunFailed)
	}

	input := make([]responses.Item, 0, len(results))
	for _, result := range results {
		input = append(input, responses.FunctionCallOutput(result.CallID, result.Output))
	}

	return r.roundTrip(ctx, chatID, responses.Request{
		Model:              r.model,
		Input:              input,
		Tools:              r.tools,
		Store:              true,
		PreviousResponseID: prev,
	})
}

// roundTrip performs one provider call and persists the new response id
// before interpreting the output. The token is only advanced on success.
func (r *ResponseLink) roundTrip(ctx context.Context, chatID int64, req responses.Request) (Turn, error) {
	resp, err := r.client.CreateResponse(ctx, req)
	if err != nil {
		return Turn{}, errx.WrapProvider(err)
	}

	if err := r.store.Set(ctx, chatID, resp.ID); err != nil {
		return Turn{}, err
	}
	logx.Debug().Int64("chat_id", chatID).Str("response_id", resp.ID).Msg("stored response id")

	return interpretOutput(resp.Output), nil
}

// interpretOutput scans the response output in order, collecting text and
// pending function calls. Provider-hosted tool items (file_search etc.) run
// remotely and need no local action.
func interpretOutput(output []responses.OutputItem) Turn {
	var turn Turn
	for _, item := range output {
		switch item.Type {
		case "message":
			for _, part := range item.Content {
				if part.Type == "output_text" && part.Text != "" {
					turn.Items = append(turn.Items, OutputItem{Text: part.Text})
				}
			}
		case "function_call":
			turn.Items = append(turn.Items, OutputItem{Call: &ToolCall{
				ID:        item.CallID,
				Name:      item.Name,
				Arguments: item.Arguments,
			}})
		}
	}
	return turn
}

func (r *ResponseLink) Clear(ctx context.Context, chatID int64) (bool, error) {
	return r.store.Clear(ctx, chatID)
}

func (r *ResponseLink) Token(ctx context.Context, chatID int64) (string, bool) {
	token, ok, err := r.store.Get(ctx, chatID)
	if err != nil || !ok {
		return "", false
	}
	return token, true
}
