package responses

import "fmt"

// Item is one element of a request's input. The OpenAI Responses API mixes
// role-tagged messages and tool-result items in the same list, so most
// fields are optional.
type Item struct {
	Type    string `json:"type,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	CallID  string `json:"call_id,omitempty"`
	Output  string `json:"output,omitempty"`
}

// UserMessage builds a user input item.
func UserMessage(text string) Item {
	return Item{Type: "message", Role: "user", Content: text}
}

// FunctionCallOutput builds a tool-result item answering the function call
// identified by callID.
func FunctionCallOutput(callID, output string) Item {
	return Item{Type: "function_call_output", CallID: callID, Output: output}
}

// Tool declares one entry of the request tool catalog: either a function the
// client executes, or a provider-hosted tool such as file_search.
type Tool struct {
	Type           string   `json:"type"`
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	Parameters     any      `json:"parameters,omitempty"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

// Request is the payload of POST /v1/responses.
type Request struct {
	Model              string `json:"model"`
	Input              []Item `json:"input"`
	Instructions       string `json:"instructions,omitempty"`
	Tools              []Tool `json:"tools,omitempty"`
	Store              bool   `json:"store"`
	PreviousResponseID string `json:"previous_response_id,omitempty"`
}

// ContentPart is one fragment of an output message's content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// OutputItem is one element of a response's output: an assistant message, a
// function call to execute locally, or a provider-side tool invocation.
type OutputItem struct {
	Type      string        `json:"type"`
	ID        string        `json:"id,omitempty"`
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
}

// Response is the body returned by POST /v1/responses.
type Response struct {
	ID     string       `json:"id"`
	Status string       `json:"status,omitempty"`
	Output []OutputItem `json:"output"`
	Error  *APIError    `json:"error,omitempty"`
}

// OutputText concatenates the text parts of all message output items, in
// order of appearance.
func (r *Response) OutputText() string {
	var text string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				text += part.Text
			}
		}
	}
	return text
}

// APIError is the error object embedded in failed API responses.
type APIError struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// RequestError wraps a non-2xx HTTP outcome together with the parsed API
// error, when one was present in the body.
type RequestError struct {
	StatusCode int
	Err        *APIError
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("responses api: status %d: %s", e.StatusCode, e.Err.Message)
	}
	return fmt.Sprintf("responses api: status %d", e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return nil
}
