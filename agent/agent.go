// Package agent runs the two-turn loop that connects the LLM to the city tools.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aymensat/CarthageGate/llm"
	"github.com/Aymensat/CarthageGate/tools"

	. "github.com/Aymensat/CarthageGate/logging"
)

// ErrModelUnavailable wraps every failure of a model call.
var ErrModelUnavailable = errors.New("model backend unavailable")

// ChatModel is the chat completion backend.
type ChatModel interface {
	Complete(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (llm.Message, error)
}

// Dispatcher describes and executes tools.
type Dispatcher interface {
	Specs() []tools.Spec
	Dispatch(ctx context.Context, name string, params map[string]any) tools.Result
}

// Agent handles one user message at a time. It holds no per-request state
// and is safe for concurrent use.
type Agent struct {
	model        ChatModel
	tools        Dispatcher
	systemPrompt string
	firstTurn    []llm.CallOption
}

// Option configures an Agent.
type Option func(*Agent)

// WithFirstTurnOptions applies opts to the first model call of every request.
func WithFirstTurnOptions(opts ...llm.CallOption) Option {
	return func(a *Agent) {
		a.firstTurn = append(a.firstTurn, opts...)
	}
}

// New creates an Agent. The system prompt is built once from the tool specs.
func New(model ChatModel, dispatcher Dispatcher, opts ...Option) (*Agent, error) {
	prompt, err := SystemPrompt(dispatcher.Specs())
	if err != nil {
		return nil, err
	}
	a := &Agent{
		model:        model,
		tools:        dispatcher,
		systemPrompt: prompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Chat answers userMessage. At most one tool is dispatched; its result,
// success or error text alike, is handed to a second model call whose text
// is the reply. Only model failures are returned as errors.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.systemPrompt},
		{Role: llm.RoleUser, Content: userMessage},
	}

	first, err := a.model.Complete(ctx, messages, a.firstTurn...)
	if err != nil {
		return "", fmt.Errorf("%w: first turn: %v", ErrModelUnavailable, err)
	}
	messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: first.Content})

	directive, ok := ParseDirective(first.Content)
	if !ok {
		L_debug("agent: answered directly", "replyLen", len(first.Content))
		return first.Content, nil
	}

	L_info("agent: dispatching tool", "tool", directive.Tool, "params", directive.Params)
	result := a.tools.Dispatch(ctx, directive.Tool, directive.Params)
	if result.Failed() {
		L_warn("agent: tool reported error", "tool", directive.Tool, "error", result.Err)
	}
	messages = append(messages, llm.Message{Role: llm.RoleTool, Content: result.Content()})

	final, err := a.model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: second turn: %v", ErrModelUnavailable, err)
	}
	return final.Content, nil
}
