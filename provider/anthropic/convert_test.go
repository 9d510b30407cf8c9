package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoonshotAI/kosong/chat"
)

func TestMessageToAnthropicUserMessage(t *testing.T) {
	t.Parallel()

	out, err := messageToAnthropic(chat.UserMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, sdk.MessageParamRoleUser, out.Role)
}

func TestMessageToAnthropicAssistantWithToolCall(t *testing.T) {
	t.Parallel()

	msg := chat.AssistantMessage("let me check")
	msg.ToolCalls = []chat.ToolCall{{ID: "call_1", Function: chat.FunctionBody{Name: "plus", Arguments: `{"a":1}`}}}

	out, err := messageToAnthropic(msg)
	require.NoError(t, err)
	assert.Len(t, out.Content, 2)
}

func TestMessageToAnthropicRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	_, err := messageToAnthropic(chat.Message{Role: chat.UserRole})
	assert.Error(t, err)
}

func TestMessagesToAnthropicBatchesConsecutiveToolResults(t *testing.T) {
	t.Parallel()

	history := []chat.Message{
		chat.AssistantMessage(""),
		chat.ToolMessage("call_1", "4"),
		chat.ToolMessage("call_2", "9"),
		chat.UserMessage("thanks"),
	}
	history[0].ToolCalls = []chat.ToolCall{
		{ID: "call_1", Function: chat.FunctionBody{Name: "square", Arguments: `{"n":2}`}},
		{ID: "call_2", Function: chat.FunctionBody{Name: "square", Arguments: `{"n":3}`}},
	}

	out, err := messagesToAnthropic(history)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, out[1].Content, 2)
}

func TestToolToAnthropicCarriesNameAndDescription(t *testing.T) {
	t.Parallel()

	tool, err := toolToAnthropic(chat.Tool{Name: "plus", Description: "adds", Parameters: map[string]any{"type": "object"}})
	require.NoError(t, err)
	require.NotNil(t, tool.OfTool)
	assert.Equal(t, "plus", tool.OfTool.Name)
}

func TestMessageToAnthropicDemotesSystemRoleToSystemTag(t *testing.T) {
	t.Parallel()

	msg := chat.Message{Role: chat.SystemRole, Content: []chat.ContentPart{&chat.TextPart{Text: "be terse"}}}
	out, err := messageToAnthropic(msg)
	require.NoError(t, err)
	assert.Equal(t, sdk.MessageParamRoleUser, out.Role)
	require.Len(t, out.Content, 1)
	require.NotNil(t, out.Content[0].OfText)
	assert.Equal(t, "<system>be terse</system>", out.Content[0].OfText.Text)
}

func TestMessageToAnthropicDropsUnsignedThinkPart(t *testing.T) {
	t.Parallel()

	msg := chat.Message{
		Role: chat.AssistantRole,
		Content: []chat.ContentPart{
			&chat.ThinkPart{Think: "unsealed reasoning"},
			&chat.TextPart{Text: "the answer is 4"},
		},
	}
	out, err := messageToAnthropic(msg)
	require.NoError(t, err)
	require.Len(t, out.Content, 1)
	require.NotNil(t, out.Content[0].OfText)
}

func TestMessageToAnthropicEncodesSealedThinkPart(t *testing.T) {
	t.Parallel()

	msg := chat.Message{
		Role: chat.AssistantRole,
		Content: []chat.ContentPart{
			&chat.ThinkPart{Think: "sealed reasoning", Encrypted: "sig-1"},
			&chat.TextPart{Text: "the answer is 4"},
		},
	}
	out, err := messageToAnthropic(msg)
	require.NoError(t, err)
	require.Len(t, out.Content, 2)
	require.NotNil(t, out.Content[0].OfThinking)
	assert.Equal(t, "sealed reasoning", out.Content[0].OfThinking.Thinking)
	assert.Equal(t, "sig-1", out.Content[0].OfThinking.Signature)
}

func TestMessageToAnthropicEncodesHTTPImageAsURLSource(t *testing.T) {
	t.Parallel()

	msg := chat.Message{
		Role: chat.UserRole,
		Content: []chat.ContentPart{
			&chat.ImageURLPart{ImageURL: chat.ImageURL{URL: "https://example.com/cat.png"}},
		},
	}
	out, err := messageToAnthropic(msg)
	require.NoError(t, err)
	require.Len(t, out.Content, 1)
	require.NotNil(t, out.Content[0].OfImage)
	require.NotNil(t, out.Content[0].OfImage.Source.OfURL)
	assert.Equal(t, "https://example.com/cat.png", out.Content[0].OfImage.Source.OfURL.URL)
}

func TestMessageToAnthropicEncodesDataURIImageAsBase64Source(t *testing.T) {
	t.Parallel()

	msg := chat.Message{
		Role: chat.UserRole,
		Content: []chat.ContentPart{
			&chat.ImageURLPart{ImageURL: chat.ImageURL{URL: "data:image/png;base64,AAAA"}},
		},
	}
	out, err := messageToAnthropic(msg)
	require.NoError(t, err)
	require.Len(t, out.Content, 1)
	require.NotNil(t, out.Content[0].OfImage)
	require.NotNil(t, out.Content[0].OfImage.Source.OfBase64)
	assert.Equal(t, "AAAA", out.Content[0].OfImage.Source.OfBase64.Data)
	assert.Equal(t, sdk.Base64ImageSourceMediaType("image/png"), out.Content[0].OfImage.Source.OfBase64.MediaType)
}

func TestMessagesToAnthropicMarksCacheControlOnLastBlockOfLastMessage(t *testing.T) {
	t.Parallel()

	history := []chat.Message{
		chat.UserMessage("hi"),
		chat.AssistantMessage("hello"),
		chat.UserMessage("thanks"),
	}
	out, err := messagesToAnthropic(history)
	require.NoError(t, err)
	require.Len(t, out, 3)

	last := out[len(out)-1]
	require.NotEmpty(t, last.Content)
	lastBlock := last.Content[len(last.Content)-1]
	require.NotNil(t, lastBlock.OfText)
	assert.NotEqual(t, sdk.CacheControlEphemeralParam{}, lastBlock.OfText.CacheControl)

	// Earlier blocks are left untouched.
	first := out[0]
	assert.Equal(t, sdk.CacheControlEphemeralParam{}, first.Content[0].OfText.CacheControl)
}
