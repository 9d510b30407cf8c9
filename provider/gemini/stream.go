package gemini

import (
	"context"
	"errors"
	"io"

	"google.golang.org/genai"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/provider"
)

// chunkResult is one item pulled off the SDK's push-style iterator.
type chunkResult struct {
	resp *genai.GenerateContentResponse
	err  error
}

// geminiStream adapts genai's iter.Seq2-based GenerateContentStream
// (which pushes chunks via a range-over-func iterator, and must run to
// completion or be abandoned, never paused) into the pull-based
// provider.StreamedMessage interface: a goroutine drains the SDK
// iterator into a channel, and Next reads from that channel one item
// at a time, respecting ctx cancellation on both ends.
type geminiStream struct {
	chunks chan chunkResult

	id    string
	usage *chat.TokenUsage

	pending []chat.StreamedMessagePart
	callSeq int
}

func newGeminiStream(ctx context.Context, seq func(yield func(*genai.GenerateContentResponse, error) bool)) *geminiStream {
	s := &geminiStream{chunks: make(chan chunkResult, 4)}
	go func() {
		defer close(s.chunks)
		seq(func(resp *genai.GenerateContentResponse, err error) bool {
			select {
			case s.chunks <- chunkResult{resp: resp, err: err}:
			case <-ctx.Done():
				return false
			}
			return err == nil
		})
	}()
	return s
}

func (s *geminiStream) ID() string               { return s.id }
func (s *geminiStream) Usage() *chat.TokenUsage { return s.usage }

// Next returns the next streamed part. Each received chunk is decoded
// whole, every genai.Part in it into one chat.StreamedMessagePart,
// and the parts are buffered in s.pending and returned one per call.
func (s *geminiStream) Next(ctx context.Context) (chat.StreamedMessagePart, error) {
	for {
		if len(s.pending) > 0 {
			part := s.pending[0]
			s.pending = s.pending[1:]
			return part, nil
		}

		select {
		case cr, ok := <-s.chunks:
			if !ok {
				return nil, io.EOF
			}
			if cr.err != nil {
				return nil, convertErr(cr.err)
			}
			s.consume(cr.resp)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *geminiStream) consume(resp *genai.GenerateContentResponse) {
	if resp.ResponseID != "" {
		s.id = resp.ResponseID
	}
	if resp.UsageMetadata != nil {
		s.usage = &chat.TokenUsage{
			Input:  int(resp.UsageMetadata.PromptTokenCount),
			Output: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			s.pending = append(s.pending, s.decodePart(part))
		}
	}
}

func (s *geminiStream) decodePart(part *genai.Part) chat.StreamedMessagePart {
	switch {
	case part.Thought:
		return &chat.ThinkPart{Think: part.Text}
	case part.FunctionCall != nil:
		id := part.FunctionCall.ID
		if id == "" {
			s.callSeq++
			id = generateFunctionCallID(s.callSeq, part.FunctionCall)
		}
		args, _ := marshalFunctionCallArgs(part.FunctionCall.Args)
		return &chat.ToolCall{ID: id, Function: chat.FunctionBody{Name: part.FunctionCall.Name, Arguments: args}}
	case part.Text != "":
		return &chat.TextPart{Text: part.Text}
	default:
		// Inline data / file data / function responses never appear in
		// a model's own output stream; fall back to an empty text part
		// rather than dropping the chunk silently.
		return &chat.TextPart{}
	}
}

func convertErr(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &provider.APIStatusError{Provider: "gemini", Code: apiErr.Code, Body: apiErr.Message}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &provider.APITimeoutError{Provider: "gemini", Err: err}
	}
	return &provider.APIConnectionError{Provider: "gemini", Err: err}
}
