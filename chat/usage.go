package chat

// TokenUsage reports how many tokens a single generation consumed.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Total is Input + Output.
func (u TokenUsage) Total() int {
	return u.Input + u.Output
}

// GenerateResult is the outcome of one complete generation: a fully
// merged Message plus whatever usage and response id the provider
// exposed.
type GenerateResult struct {
	// ID is the provider's response id, when exposed.
	ID string
	// Message is the generated message. All of its parts are complete
	// and merged as much as possible.
	Message Message
	// Usage is the token usage of the generated message, if the
	// provider reported it.
	Usage *TokenUsage
}
