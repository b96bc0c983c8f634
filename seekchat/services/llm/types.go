package llm

import (
	"bytes"
	"encoding/json"
)

// MessageID is an opaque continuation id. It keeps the exact JSON token the
// service produced (a number or a string) so it can be echoed back as the
// next turn's parent without changing its type. The zero value means absent.
type MessageID struct {
	raw json.RawMessage
}

// NewMessageID wraps a string id.
func NewMessageID(id string) MessageID {
	if id == "" {
		return MessageID{}
	}
	raw, _ := json.Marshal(id)
	return MessageID{raw: raw}
}

func (m MessageID) IsZero() bool {
	return len(m.raw) == 0
}

// String returns the id without JSON quoting, or "" when absent.
func (m MessageID) String() string {
	if m.IsZero() {
		return ""
	}
	if m.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(m.raw, &s); err == nil {
			return s
		}
	}
	return string(m.raw)
}

func (m MessageID) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return m.raw, nil
}

// UnmarshalJSON accepts strings and numbers. null, "" and any other JSON type
// leave the id absent instead of failing the surrounding record.
func (m *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil || s == "" {
			return nil
		}
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
	default:
		return nil
	}
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

// ChatSession is the remote conversation handle threaded across turns.
type ChatSession struct {
	ID              string
	ParentMessageID MessageID
}

// PromptRequest is the body of one chat completion call.
type PromptRequest struct {
	ChatSessionID   string    `json:"chat_session_id"`
	ParentMessageID MessageID `json:"parent_message_id"`
	Prompt          string    `json:"prompt"`
	RefFileIDs      []string  `json:"ref_file_ids"`
	ThinkingEnabled bool      `json:"thinking_enabled"`
	SearchEnabled   bool      `json:"search_enabled"`
}

func NewPromptRequest(session ChatSession, prompt string, thinkingEnabled, searchEnabled bool) PromptRequest {
	return PromptRequest{
		ChatSessionID:   session.ID,
		ParentMessageID: session.ParentMessageID,
		Prompt:          prompt,
		RefFileIDs:      []string{},
		ThinkingEnabled: thinkingEnabled,
		SearchEnabled:   searchEnabled,
	}
}

// Answer is what one completed stream decodes to.
type Answer struct {
	Text      string
	Thinking  string
	MessageID MessageID
}
