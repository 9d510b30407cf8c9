// Package provider defines the adapter seam between the canonical
// chat model and a specific model API (OpenAI, Anthropic, Gemini,
// Kimi): a Provider streams StreamedMessageParts for one model turn;
// everything downstream of that stream (merging fragments into
// Messages, dispatching tool calls) lives in package kosong and
// package toolset, not here.
package provider

import (
	"context"

	"github.com/MoonshotAI/kosong/chat"
)

// Provider generates model output for a single turn, given a system
// prompt, the tools available, and the conversation so far. It does
// not retry, loop, or call tools itself — see spec §8's "structural
// departure from the teacher" in SPEC_FULL.md.
type Provider interface {
	// Name identifies the backing API, e.g. "openai", "anthropic".
	Name() string

	// ModelName returns the configured model identifier.
	ModelName() string

	// Generate starts one model turn and returns a pull iterator over
	// its streamed parts. The returned StreamedMessage must be drained
	// (Next called until io.EOF) or its underlying HTTP response may
	// leak; cancelling ctx aborts both the HTTP call and the stream.
	Generate(ctx context.Context, systemPrompt string, tools []chat.Tool, history []chat.Message) (StreamedMessage, error)

	// WithGenerationOptions returns a copy of the provider configured
	// with opts, leaving the receiver untouched (copy-on-write, mirroring
	// the teacher's client.With... pattern).
	WithGenerationOptions(opts GenerationOptions) Provider
}

// StreamedMessage is a pull iterator over one model turn's streamed
// parts, the Go analogue of the Python AsyncIterator the original
// chat_provider.StreamedMessage protocol exposes.
type StreamedMessage interface {
	// Next returns the next streamed part, or io.EOF once the stream
	// ends. Any other error aborts the stream.
	Next(ctx context.Context) (chat.StreamedMessagePart, error)

	// ID returns the provider's identifier for this turn, once known
	// (may be empty before the first part arrives, depending on the
	// provider's wire format).
	ID() string

	// Usage returns token usage once the turn completes; nil before then.
	Usage() *chat.TokenUsage
}
