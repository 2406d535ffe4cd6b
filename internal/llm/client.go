package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("llm: empty response")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request is a provider neutral completion request. A negative Temperature
// leaves the provider default in place.
type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Response struct {
	Text       string
	Usage      Usage
	StopReason string
}

// Client completes a prompt with a hosted language model.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Prompt is a convenience for a single user turn with one system block.
func Prompt(system, user string) Request {
	req := Request{Messages: []Message{{Role: RoleUser, Content: user}}}
	if system != "" {
		req.System = []string{system}
	}
	return req
}
