package toolset

import (
	"context"
	"sync"
)

// ToolResultFuture is a completion handle for a dispatched tool call,
// resolved exactly once. It is the Go analogue of an asyncio.Future:
// Handle returns one immediately, and some later goroutine (or Handle
// itself, for an already-known outcome) calls Resolve exactly once.
type ToolResultFuture struct {
	done   chan struct{}
	once   sync.Once
	result ToolResult
}

// NewToolResultFuture returns an unresolved future.
func NewToolResultFuture() *ToolResultFuture {
	return &ToolResultFuture{done: make(chan struct{})}
}

// Resolved returns a future that is already resolved with result.
func Resolved(result ToolResult) *ToolResultFuture {
	f := NewToolResultFuture()
	f.Resolve(result)
	return f
}

// Resolve sets the future's result. Only the first call has any
// effect; subsequent calls are no-ops, matching a future's
// resolve-exactly-once contract.
func (f *ToolResultFuture) Resolve(result ToolResult) {
	f.once.Do(func() {
		f.result = result
		close(f.done)
	})
}

// Get blocks until the future resolves or ctx is cancelled, whichever
// comes first. It may be called more than once; every call after the
// future resolves returns immediately with the same result.
func (f *ToolResultFuture) Get(ctx context.Context) (ToolResult, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return ToolResult{}, ctx.Err()
	}
}
