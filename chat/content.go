package chat

import (
	"encoding/json"
	"fmt"
)

// StreamedMessagePart is the closed union a provider adapter's stream
// yields: a ContentPart, a *ToolCall, or a *ToolCallPart. It is also
// the type the streaming merger operates over: MergeInPlace attempts to
// absorb other into the receiver, mutating the receiver and returning
// true on success. It returns false (leaving the receiver untouched)
// when other cannot be merged into it, in which case the caller must
// flush the receiver and start a new pending part with other.
type StreamedMessagePart interface {
	MergeInPlace(other StreamedMessagePart) bool
	streamedMessagePart()
}

// ContentPart is a single tagged piece of message content. Concrete
// variants are TextPart, ThinkPart, ImageURLPart, AudioURLPart, and the
// RawContentPart fallback used for variants this package doesn't know
// about.
type ContentPart interface {
	StreamedMessagePart

	// Type returns the wire discriminator for this part, e.g. "text".
	Type() string
}

// TextPart is plain text content. Adjacent TextParts merge by
// concatenation.
type TextPart struct {
	Text string `json:"text"`
}

func (p *TextPart) Type() string { return "text" }

func (p *TextPart) MergeInPlace(other StreamedMessagePart) bool {
	o, ok := other.(*TextPart)
	if !ok {
		return false
	}
	p.Text += o.Text
	return true
}

func (p *TextPart) streamedMessagePart() {}

// ThinkPart is a reasoning/thinking summary, optionally bound to the
// provider's response by an opaque Encrypted signature. A ThinkPart
// merges with another ThinkPart only while Encrypted is unset; once a
// signature arrives the part is sealed and any further merge attempt
// fails.
type ThinkPart struct {
	Think     string `json:"think"`
	Encrypted string `json:"encrypted,omitempty"`
}

func (p *ThinkPart) Type() string { return "think" }

func (p *ThinkPart) MergeInPlace(other StreamedMessagePart) bool {
	o, ok := other.(*ThinkPart)
	if !ok {
		return false
	}
	if p.Encrypted != "" {
		return false
	}
	p.Think += o.Think
	if o.Encrypted != "" {
		p.Encrypted = o.Encrypted
	}
	return true
}

func (p *ThinkPart) streamedMessagePart() {}

// ImageURL identifies an image, either by a URL or a data: URI carrying
// inline base64 bytes. ID optionally distinguishes this image from
// others in the same message for a model that supports referencing
// specific images.
type ImageURL struct {
	URL string `json:"url"`
	ID  string `json:"id,omitempty"`
}

// ImageURLPart references an image. It never merges with another part.
type ImageURLPart struct {
	ImageURL ImageURL `json:"image_url"`
}

func (p *ImageURLPart) Type() string                              { return "image_url" }
func (p *ImageURLPart) MergeInPlace(other StreamedMessagePart) bool { return false }
func (p *ImageURLPart) streamedMessagePart()                       {}

// AudioURL identifies an audio clip, with the same URL shape as ImageURL.
type AudioURL struct {
	URL string `json:"url"`
	ID  string `json:"id,omitempty"`
}

// AudioURLPart references an audio clip. It never merges with another part.
type AudioURLPart struct {
	AudioURL AudioURL `json:"audio_url"`
}

func (p *AudioURLPart) Type() string                              { return "audio_url" }
func (p *AudioURLPart) MergeInPlace(other StreamedMessagePart) bool { return false }
func (p *AudioURLPart) streamedMessagePart()                       {}

// RawContentPart preserves a content part whose type this package does
// not recognize, keeping its wire payload intact so it can round-trip
// even though this package cannot interpret it. It never merges.
type RawContentPart struct {
	TypeTag string
	Raw     json.RawMessage
}

func (p *RawContentPart) Type() string                              { return p.TypeTag }
func (p *RawContentPart) MergeInPlace(other StreamedMessagePart) bool { return false }
func (p *RawContentPart) streamedMessagePart()                       {}

func (p *RawContentPart) MarshalJSON() ([]byte, error) {
	return p.Raw, nil
}

// contentPartEnvelope decodes just enough of a content part to dispatch
// on its type tag.
type contentPartEnvelope struct {
	Type string `json:"type"`
}

// UnmarshalContentPart decodes a single JSON content part, dispatching on
// its "type" tag. Unknown tags are preserved as a RawContentPart rather
// than rejected, per the "preserved if possible" rule for forward
// compatibility with variants this package doesn't know about.
func UnmarshalContentPart(data []byte) (ContentPart, error) {
	var env contentPartEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("chat: decoding content part envelope: %w", err)
	}

	switch env.Type {
	case "text":
		var p TextPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("chat: decoding text part: %w", err)
		}
		return &p, nil
	case "think":
		var p ThinkPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("chat: decoding think part: %w", err)
		}
		return &p, nil
	case "image_url":
		var p ImageURLPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("chat: decoding image_url part: %w", err)
		}
		return &p, nil
	case "audio_url":
		var p AudioURLPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("chat: decoding audio_url part: %w", err)
		}
		return &p, nil
	default:
		return &RawContentPart{TypeTag: env.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// marshalContentPart adds the "type" discriminator to a part's own JSON
// encoding, since the variant structs above don't carry it themselves
// (it's a constant per Go type, not a field).
func marshalContentPart(p ContentPart) ([]byte, error) {
	if raw, ok := p.(*RawContentPart); ok {
		return raw.MarshalJSON()
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typeTag, err := json.Marshal(p.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = typeTag
	return json.Marshal(fields)
}
