package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFamily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model string
		want  ModelFamily
	}{
		{"gpt-4o", FamilyOpenAIChatCompletions},
		{"gpt-5", FamilyOpenAIResponses},
		{"o3-mini", FamilyOpenAIResponses},
		{"claude-opus-4-1", FamilyAnthropic},
		{"gemini-1.5-pro", FamilyGemini},
		{"kimi-k2-thinking", FamilyKimi},
		{"moonshot-v1-8k", FamilyKimi},
		{"llama3", FamilyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFamily(tt.model))
		})
	}
}

func TestNewClientReturnsErrorForUnregisteredFamily(t *testing.T) {
	_, err := NewClient(Config{Model: "some-unknown-model"})
	require.Error(t, err)
}

func TestRegisterAndNewClientDispatch(t *testing.T) {
	called := false
	Register(FamilyUnknown, func(cfg Config) (Provider, error) {
		called = true
		return nil, nil
	})
	defer delete(registry, FamilyUnknown)

	_, err := NewClient(Config{Model: "totally-unknown"})
	require.NoError(t, err)
	assert.True(t, called)
}
