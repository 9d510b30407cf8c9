package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/MoonshotAI/kosong/chat"
)

// messagesToGemini converts a whole history into Gemini contents, in
// order, dropping any message that converts to no parts at all (e.g. an
// assistant message whose only content was a ThinkPart with no text).
func messagesToGemini(history []chat.Message, includeThoughts bool) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		c, err := messageToGemini(m, includeThoughts)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		contents = append(contents, c)
	}
	return contents, nil
}

// messageToGemini converts a single message. Tool-role messages are
// sent as "user" role with a function_response part, per spec §4.4.4 —
// not the teacher's llm/gemini/converter.go, which used a "function"
// role; the original_source Python provider agrees with the spec here,
// so the spec wins.
func messageToGemini(m chat.Message, includeThoughts bool) (*genai.Content, error) {
	if m.Role == chat.ToolRole {
		return toolResultContent(m)
	}

	role := "user"
	if m.Role == chat.AssistantRole {
		role = "model"
	}

	var parts []*genai.Part
	for _, part := range m.Content {
		switch p := part.(type) {
		case *chat.TextPart:
			if p.Text != "" {
				parts = append(parts, &genai.Part{Text: p.Text})
			}
		case *chat.ImageURLPart:
			imgPart, err := imageURLPartToGemini(p)
			if err != nil {
				return nil, err
			}
			parts = append(parts, imgPart)
		case *chat.ThinkPart:
			if p.Think == "" {
				continue
			}
			if includeThoughts {
				parts = append(parts, &genai.Part{Text: p.Think, Thought: true})
			} else {
				parts = append(parts, &genai.Part{Text: "<thinking>" + p.Think + "</thinking>"})
			}
		default:
			// AudioURLPart and unrecognized RawContentPart have no
			// Gemini wire shape; dropped, same as the original's
			// "other parts are skipped" rule.
			continue
		}
	}

	for _, tc := range m.ToolCalls {
		args, err := decodeToolCallArgs(tc)
		if err != nil {
			return nil, err
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Args: args},
		})
	}

	if len(parts) == 0 {
		return nil, nil
	}
	return &genai.Content{Role: role, Parts: parts}, nil
}

// decodeToolCallArgs parses a ToolCall's arguments string as a JSON
// object, defaulting to empty. Arguments that parse but aren't an
// object are a fatal encoding error, per spec §4.4.4.
func decodeToolCallArgs(tc chat.ToolCall) (map[string]any, error) {
	raw := strings.TrimSpace(tc.Function.Arguments)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("gemini: tool call %q arguments are not a JSON object: %w", tc.Function.Name, err)
	}
	return args, nil
}

// toolResultContent builds the function_response content for a tool
// message. The response's Name is the originating tool_call_id, not the
// tool's own name — a detail carried over verbatim from
// original_source/src/kosong/contrib/chat_provider/gemini.py, since
// Gemini only uses Name to pair the response back to its call.
func toolResultContent(m chat.Message) (*genai.Content, error) {
	if m.ToolCallID == "" {
		return nil, fmt.Errorf("gemini: tool message missing tool_call_id")
	}

	text := m.Text()
	response := map[string]any{"result": text}
	if text != "" {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(text), &decoded); err == nil {
			response = decoded
		}
	}

	return &genai.Content{
		Role: "user",
		Parts: []*genai.Part{{
			FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Name: m.ToolCallID, Response: response},
		}},
	}, nil
}

// imageURLPartToGemini converts an ImageURLPart. A data: URL becomes
// inline bytes with the mime type taken from the URL itself; an
// http(s):// URL becomes a file reference with the mime type guessed
// from the extension, defaulting to image/png.
func imageURLPartToGemini(p *chat.ImageURLPart) (*genai.Part, error) {
	url := p.ImageURL.URL
	if strings.HasPrefix(url, "data:") {
		rest := strings.TrimPrefix(url, "data:")
		idx := strings.Index(rest, ";base64,")
		if idx < 0 {
			return nil, fmt.Errorf("gemini: image data URL missing \";base64,\" marker")
		}
		mimeType := rest[:idx]
		data, err := base64.StdEncoding.DecodeString(rest[idx+len(";base64,"):])
		if err != nil {
			return nil, fmt.Errorf("gemini: decoding base64 image data: %w", err)
		}
		return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
	}

	mimeType := mime.TypeByExtension(path.Ext(url))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return &genai.Part{FileData: &genai.FileData{MIMEType: mimeType, FileURI: url}}, nil
}

// toolToGemini converts a chat.Tool's JSON Schema parameters into a
// Gemini FunctionDeclaration.
func toolToGemini(t chat.Tool) (*genai.Tool, error) {
	params := t.Parameters
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	schema, err := jsonSchemaToGeminiSchema(params)
	if err != nil {
		return nil, fmt.Errorf("gemini: converting schema for tool %q: %w", t.Name, err)
	}
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		}},
	}, nil
}

// jsonSchemaToGeminiSchema recursively converts a JSON Schema document
// into a genai.Schema, ported from llm/gemini/gemini.go's function of
// the same name: Gemini's FunctionDeclaration.Parameters is a typed
// *genai.Schema, not an arbitrary map, unlike the Python SDK which
// accepts the raw schema dict directly.
func jsonSchemaToGeminiSchema(schema map[string]any) (*genai.Schema, error) {
	out := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		gt, err := geminiSchemaType(t)
		if err != nil {
			return nil, err
		}
		out.Type = gt
	}

	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}

	if enumVals, ok := schema["enum"].([]any); ok {
		for _, v := range enumVals {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}

	if req, ok := schema["required"].([]any); ok {
		for _, v := range req {
			if s, ok := v.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		itemSchema, err := jsonSchemaToGeminiSchema(items)
		if err != nil {
			return nil, fmt.Errorf("converting items schema: %w", err)
		}
		out.Items = itemSchema
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			propMap, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %q is not a JSON Schema object", name)
			}
			propSchema, err := jsonSchemaToGeminiSchema(propMap)
			if err != nil {
				return nil, fmt.Errorf("converting property %q: %w", name, err)
			}
			out.Properties[name] = propSchema
		}
	}

	return out, nil
}

func geminiSchemaType(t string) (genai.Type, error) {
	switch t {
	case "string":
		return genai.TypeString, nil
	case "integer":
		return genai.TypeInteger, nil
	case "number":
		return genai.TypeNumber, nil
	case "boolean":
		return genai.TypeBoolean, nil
	case "array":
		return genai.TypeArray, nil
	case "object":
		return genai.TypeObject, nil
	default:
		return genai.TypeUnspecified, fmt.Errorf("unsupported JSON Schema type %q", t)
	}
}

// marshalFunctionCallArgs re-encodes a decoded function call's
// arguments back into the JSON string chat.FunctionBody.Arguments
// expects, since the SDK hands back a parsed map rather than raw bytes.
func marshalFunctionCallArgs(args map[string]any) (string, error) {
	if len(args) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("gemini: re-encoding function call arguments: %w", err)
	}
	return string(b), nil
}

// generateFunctionCallID synthesizes a tool call id when the stream
// doesn't supply one: Gemini's FunctionCall.ID is often empty, unlike
// OpenAI/Anthropic which always assign one up front.
func generateFunctionCallID(seq int, fc *genai.FunctionCall) string {
	return "gemini_call_" + strconv.Itoa(seq) + "_" + fc.Name
}
