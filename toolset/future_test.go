package toolset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolResultFutureResolveThenGet(t *testing.T) {
	t.Parallel()

	f := NewToolResultFuture()
	want := ToolResult{ToolCallID: "call_1", Value: TextResult("ok")}
	f.Resolve(want)

	got, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestToolResultFutureGetMultipleTimes(t *testing.T) {
	t.Parallel()

	f := NewToolResultFuture()
	f.Resolve(ToolResult{ToolCallID: "call_1", Value: TextResult("ok")})

	for i := 0; i < 3; i++ {
		got, err := f.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, TextResult("ok"), got.Value)
	}
}

func TestToolResultFutureResolveOnlyTakesFirstValue(t *testing.T) {
	t.Parallel()

	f := NewToolResultFuture()
	f.Resolve(ToolResult{ToolCallID: "first"})
	f.Resolve(ToolResult{ToolCallID: "second"})

	got, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", got.ToolCallID)
}

func TestToolResultFutureGetRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	f := NewToolResultFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolvedReturnsAnAlreadyResolvedFuture(t *testing.T) {
	t.Parallel()

	f := Resolved(ToolResult{ToolCallID: "call_1", Err: NotFoundError("missing")})
	got, err := f.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got.Err)
	assert.Equal(t, NotFound, got.Err.Kind)
}
