// Package llm talks to an OpenAI-compatible chat completion backend.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/Aymensat/CarthageGate/logging"
)

// Conversation roles.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleTool      = openai.ChatMessageRoleTool
)

// ErrNoChoices is returned when the backend answers without any message.
var ErrNoChoices = errors.New("model returned no choices")

// Message is one role-tagged turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPClient overrides the transport; attribution headers and extra
	// body fields are still applied on top of its transport.
	HTTPClient *http.Client
}

// Client sends chat completions for one model.
type Client struct {
	client *openai.Client
	model  string
}

// CallOption adjusts a single completion call.
type CallOption func(ctx context.Context) context.Context

// WithExtraBody merges fields into the request body of one call, for
// backend-specific flags the SDK has no field for.
func WithExtraBody(fields map[string]any) CallOption {
	return func(ctx context.Context) context.Context {
		return withExtraBody(ctx, fields)
	}
}

// New creates a Client.
func New(cfg Config) *Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	base := http.DefaultTransport
	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		*httpClient = *cfg.HTTPClient
		if cfg.HTTPClient.Transport != nil {
			base = cfg.HTTPClient.Transport
		}
	}
	httpClient.Transport = &extraBodyTransport{
		base:       base,
		openRouter: strings.Contains(strings.ToLower(config.BaseURL), "openrouter"),
	}
	config.HTTPClient = httpClient

	L_debug("llm: client created", "baseURL", config.BaseURL, "model", cfg.Model)

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the conversation and returns the assistant turn.
func (c *Client) Complete(ctx context.Context, messages []Message, opts ...CallOption) (Message, error) {
	for _, opt := range opts {
		ctx = opt(ctx)
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAI(messages),
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			L_error("llm: completion failed (APIError)", "model", c.model, "statusCode", apiErr.HTTPStatusCode, "message", apiErr.Message)
		case errors.As(err, &reqErr):
			L_error("llm: completion failed (RequestError)", "model", c.model, "statusCode", reqErr.HTTPStatusCode, "error", reqErr.Error())
		default:
			L_error("llm: completion failed", "model", c.model, "error", err)
		}
		return Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	L_debug("llm: response", "model", c.model, "contentLen", len(msg.Content), "finishReason", resp.Choices[0].FinishReason)

	role := msg.Role
	if role == "" {
		role = RoleAssistant
	}
	return Message{Role: role, Content: msg.Content}, nil
}

func toOpenAI(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
