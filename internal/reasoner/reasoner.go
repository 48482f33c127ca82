// Package reasoner wraps the external text classifiers/generators the
// conversation engine consults. A reasoner is a black box: it receives a
// structured prompt and returns free-form text. Everything downstream of
// this package treats that text as untrusted.
package reasoner

import (
	"context"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to the reasoner.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request describes one reasoner invocation.
type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Response carries the raw model output. Text is free-form and may be
// malformed; callers must run it through the normalization layer.
type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is the single contract every reasoner backend implements.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ExtractJSON returns the outermost {...} object embedded in free-form
// model text, or the trimmed input when no braces are found. Models often
// wrap their JSON in prose or code fences; this recovers the payload
// without failing the request.
func ExtractJSON(text string) string {
	content := strings.TrimSpace(text)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
