package kosong

import (
	"context"
	"fmt"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/convo"
	"github.com/MoonshotAI/kosong/provider"
	"github.com/MoonshotAI/kosong/toolset"
)

// StepOption configures a Step call.
type StepOption func(*stepConfig)

type stepConfig struct {
	onMessagePart func(chat.StreamedMessagePart)
	onToolResult  func(toolset.ToolResult)
}

// WithStepOnMessagePart registers a callback invoked with a copy of
// every raw part as it streams in, same contract as GenerateOption's
// WithOnMessagePart.
func WithStepOnMessagePart(fn func(chat.StreamedMessagePart)) StepOption {
	return func(c *stepConfig) { c.onMessagePart = fn }
}

// WithStepOnToolResult registers a callback invoked as soon as each
// dispatched tool call's result becomes available, in whatever order
// the toolset resolves them.
func WithStepOnToolResult(fn func(toolset.ToolResult)) StepOption {
	return func(c *stepConfig) { c.onToolResult = fn }
}

// Step runs one generation against ctxConv's system prompt, tools, and
// history, dispatching any resulting tool calls through its toolset.
// It never mutates ctxConv; appending the generated message (and any
// tool-result messages) back into the conversation is the caller's
// responsibility, grounded on original_source/src/kosong/__init__.py's
// step() purity contract.
func Step(ctx context.Context, p provider.Provider, ctxConv convo.Context, opts ...StepOption) (StepResult, error) {
	cfg := stepConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var toolCalls []chat.ToolCall
	futures := make(map[string]*toolset.ToolResultFuture)

	onToolCall := func(call chat.ToolCall) {
		toolCalls = append(toolCalls, call)
		future := ctxConv.Toolset().Handle(ctx, call)
		futures[call.ID] = future
	}

	genOpts := []GenerateOption{WithOnToolCall(onToolCall)}
	if cfg.onMessagePart != nil {
		genOpts = append(genOpts, WithOnMessagePart(cfg.onMessagePart))
	}

	result, err := Generate(ctx, p, ctxConv.SystemPrompt(), ctxConv.Toolset().Tools(), ctxConv.History(), genOpts...)
	if err != nil {
		return StepResult{}, err
	}

	if cfg.onToolResult != nil {
		for _, call := range toolCalls {
			future := futures[call.ID]
			go func(future *toolset.ToolResultFuture) {
				if result, err := future.Get(ctx); err == nil {
					cfg.onToolResult(result)
				}
			}(future)
		}
	}

	return StepResult{
		Message:   result.Message,
		Usage:     result.Usage,
		ToolCalls: toolCalls,
		futures:   futures,
	}, nil
}

// StepResult is the outcome of one Step: the combined message, its
// usage, every tool call it produced, and a handle for collecting
// their results once the toolset resolves them.
type StepResult struct {
	Message   chat.Message
	Usage     *chat.TokenUsage
	ToolCalls []chat.ToolCall

	futures map[string]*toolset.ToolResultFuture
}

// ToolResults blocks until every tool call's future resolves, returning
// results in the same order as ToolCalls.
func (r StepResult) ToolResults(ctx context.Context) ([]toolset.ToolResult, error) {
	if len(r.futures) == 0 {
		return nil, nil
	}

	results := make([]toolset.ToolResult, 0, len(r.ToolCalls))
	for _, call := range r.ToolCalls {
		future, ok := r.futures[call.ID]
		if !ok {
			return nil, fmt.Errorf("kosong: no future for tool call %q", call.ID)
		}
		result, err := future.Get(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
