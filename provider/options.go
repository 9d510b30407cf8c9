package provider

// ThinkingEffort is a provider-agnostic reasoning-effort dial; each
// adapter maps it onto its own wire field (Anthropic's thinking budget
// tokens, the OpenAI Responses API's reasoning effort, Gemini's
// thinking_budget, Kimi's reasoning_effort), per the effort-mapping table
// of spec §4.3. The OpenAI Chat Completions path does not send it.
type ThinkingEffort string

const (
	ThinkingOff    ThinkingEffort = "off"
	ThinkingLow    ThinkingEffort = "low"
	ThinkingMedium ThinkingEffort = "medium"
	ThinkingHigh   ThinkingEffort = "high"
)

// GenerationOptions carries the sampling and feature knobs common
// across providers. A nil pointer field means "use the provider's
// default"; callers should only set what they mean to override.
type GenerationOptions struct {
	Temperature     *float64
	TopP            *float64
	TopK            *float64
	MaxOutputTokens *int
	Thinking        ThinkingEffort
	BetaFeatures    []string
	ExtraHeaders    map[string]string
}

func floatPtr(v float64) *float64 { return &v }

// WithTemperature returns opts with Temperature set.
func (opts GenerationOptions) WithTemperature(v float64) GenerationOptions {
	opts.Temperature = floatPtr(v)
	return opts
}

// WithThinking returns opts with Thinking set.
func (opts GenerationOptions) WithThinking(effort ThinkingEffort) GenerationOptions {
	opts.Thinking = effort
	return opts
}
