package llm

import (
	"context"
	"time"
)

// Request is one completion call to the model service. Timeout bounds the
// single call and is independent of any job-level deadline.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Client is the interface the evaluator depends on. Implementations return
// the model's text output, or an error distinguishable as transient or
// permanent (see APIError).
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a plain function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
