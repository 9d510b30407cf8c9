// Package convo provides the step orchestrator's conversation
// collaborator: a system prompt, a toolset, and an ordered history of
// messages, optionally backed by a pluggable LinearStorage. It's named
// convo rather than context to avoid shadowing the standard library's
// package of that name, grounded on
// original_source/src/kosong/context/{__init__,linear}.py.
package convo

import (
	"context"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/toolset"
)

// Context is everything a Step needs to drive one generation: the
// system prompt, the tools available, and the history so far. Step
// reads a Context but never mutates it; appending the result is the
// caller's responsibility, per spec §4.6's step-purity rule.
type Context interface {
	SystemPrompt() string
	Toolset() toolset.Toolset
	History() []chat.Message
}

// LinearContext is a Context over a single, append-only, flat history,
// delegating storage to a LinearStorage implementation.
type LinearContext struct {
	systemPrompt string
	toolset      toolset.Toolset
	storage      LinearStorage
}

var _ Context = (*LinearContext)(nil)

// NewLinearContext builds a LinearContext over storage.
func NewLinearContext(systemPrompt string, ts toolset.Toolset, storage LinearStorage) *LinearContext {
	return &LinearContext{systemPrompt: systemPrompt, toolset: ts, storage: storage}
}

func (c *LinearContext) SystemPrompt() string       { return c.systemPrompt }
func (c *LinearContext) Toolset() toolset.Toolset   { return c.toolset }
func (c *LinearContext) History() []chat.Message    { return c.storage.ListMessages() }

// AddMessage appends message to the backing storage.
func (c *LinearContext) AddMessage(ctx context.Context, message chat.Message) error {
	return c.storage.AppendMessage(ctx, message)
}

// LinearStorage persists a flat, ordered message history. ListMessages
// must return a snapshot safe to read without further synchronization
// (the original's docstring: "all messages should have a copy in
// memory"); AppendMessage may do I/O and therefore takes a context.
type LinearStorage interface {
	ListMessages() []chat.Message
	AppendMessage(ctx context.Context, message chat.Message) error
}
