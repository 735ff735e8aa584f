package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacs-assistant/server/internal/continuity"
	errx "github.com/tacs-assistant/server/internal/core/error"
)

// fakeAssistantsAPI simulates the threads/runs endpoints with a scripted
// sequence of run statuses.
type fakeAssistantsAPI struct {
	mu       sync.Mutex
	statuses []string // statuses served on run creation and each poll
	answer   string

	threadsCreated  int
	messagesCreated int
	toolOutputs     []map[string]any
}

func (f *fakeAssistantsAPI) nextStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status
}

func (f *fakeAssistantsAPI) runBody(status string) map[string]any {
	run := map[string]any{
		"id":        "run_1",
		"object":    "thread.run",
		"thread_id": "thread_1",
		"status":    status,
	}
	if status == "requires_action" {
		run["required_action"] = map[string]any{
			"type": "submit_tool_outputs",
			"submit_tool_outputs": map[string]any{
				"tool_calls": []map[string]any{{
					"id":   "call_1",
					"type": "function",
					"function": map[string]any{
						"name":      "get_reports_from_query",
						"arguments": `{"query":"SELECT 1"}`,
					},
				}},
			},
		}
	}
	return run
}

func (f *fakeAssistantsAPI) handler(t *testing.T) http.Handler {
	t.Helper()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/threads":
			f.mu.Lock()
			f.threadsCreated++
			f.mu.Unlock()
			writeJSON(w, map[string]any{"id": "thread_1", "object": "thread"})

		case r.Method == http.MethodPost && r.URL.Path == "/v1/threads/thread_1/messages":
			f.mu.Lock()
			f.messagesCreated++
			f.mu.Unlock()
			writeJSON(w, map[string]any{"id": "msg_1", "object": "thread.message"})

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/submit_tool_outputs"):
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.mu.Lock()
			f.toolOutputs = append(f.toolOutputs, body)
			f.mu.Unlock()
			writeJSON(w, f.runBody(f.nextStatus()))

		case r.Method == http.MethodPost && r.URL.Path == "/v1/threads/thread_1/runs":
			writeJSON(w, f.runBody(f.nextStatus()))

		case r.Method == http.MethodGet && r.URL.Path == "/v1/threads/thread_1/runs/run_1":
			writeJSON(w, f.runBody(f.nextStatus()))

		case r.Method == http.MethodGet && r.URL.Path == "/v1/threads/thread_1/messages":
			writeJSON(w, map[string]any{
				"object": "list",
				"data": []map[string]any{{
					"id":   "msg_2",
					"role": "assistant",
					"content": []map[string]any{{
						"type": "text",
						"text": map[string]any{"value": f.answer},
					}},
				}},
			})

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newThreadFixture(t *testing.T, fake *fakeAssistantsAPI, timeout time.Duration) (*ManagedThread, continuity.Store[string]) {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	store := continuity.NewMemoryStore[string]()
	mt := NewManagedThread(openai.NewClientWithConfig(config), "asst_1", nil, store, time.Millisecond, timeout)
	return mt, store
}

func TestManagedThreadCreatesThreadAndPollsToCompletion(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAssistantsAPI{
		statuses: []string{"queued", "in_progress", "completed"},
		answer:   "hola, soy el asistente",
	}
	mt, store := newThreadFixture(t, fake, time.Second)

	turn, err := mt.BeginTurn(ctx, 1, "hola")
	require.NoError(t, err)
	assert.Equal(t, "hola, soy el asistente", turn.Text())
	assert.Equal(t, 1, fake.threadsCreated)
	assert.Equal(t, 1, fake.messagesCreated)

	// the thread id is the continuity token
	token, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "thread_1", token)
}

func TestManagedThreadReusesExistingThread(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAssistantsAPI{statuses: []string{"completed"}, answer: "ok"}
	mt, store := newThreadFixture(t, fake, time.Second)
	require.NoError(t, store.Set(ctx, 1, "thread_1"))

	_, err := mt.BeginTurn(ctx, 1, "hola de nuevo")
	require.NoError(t, err)
	assert.Zero(t, fake.threadsCreated)
}

func TestManagedThreadToolPhase(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAssistantsAPI{
		statuses: []string{"requires_action", "completed"},
		answer:   "hay 3 alumnos",
	}
	mt, _ := newThreadFixture(t, fake, time.Second)

	turn, err := mt.BeginTurn(ctx, 1, "¿cuántos alumnos hay?")
	require.NoError(t, err)
	calls := turn.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "get_reports_from_query", calls[0].Name)

	turn, err = mt.SubmitToolResults(ctx, 1, []ToolResult{{CallID: "call_1", Output: "[(3)]"}})
	require.NoError(t, err)
	assert.Equal(t, "hay 3 alumnos", turn.Text())

	require.Len(t, fake.toolOutputs, 1)
	outputs, _ := fake.toolOutputs[0]["tool_outputs"].([]any)
	require.Len(t, outputs, 1)
}

func TestManagedThreadRunFailureIsAnError(t *testing.T) {
	fake := &fakeAssistantsAPI{statuses: []string{"failed"}}
	mt, _ := newThreadFixture(t, fake, time.Second)

	_, err := mt.BeginTurn(context.Background(), 1, "hola")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrRunFailed))
}

func TestManagedThreadPollTimeout(t *testing.T) {
	fake := &fakeAssistantsAPI{statuses: []string{"in_progress"}}
	mt, _ := newThreadFixture(t, fake, 10*time.Millisecond)

	_, err := mt.BeginTurn(context.Background(), 1, "hola")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrPollTimeout))
}
