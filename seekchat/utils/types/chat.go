// seekchat/utils/types/chat.go
package types

// ChatRequest is one prompt sent through the local bridge.
type ChatRequest struct {
	Prompt          string `json:"prompt"`
	ThinkingEnabled bool   `json:"thinking_enabled"`
	SearchEnabled   bool   `json:"search_enabled"`
}

type ChatResponse struct {
	Answer        string `json:"answer"`
	Thinking      string `json:"thinking,omitempty"`
	ChatSessionID string `json:"chat_session_id"`
	MessageID     string `json:"message_id,omitempty"`
	Detached      bool   `json:"detached,omitempty"`
}

// SessionState describes the conversation the bridge is currently threading.
type SessionState struct {
	ChatSessionID   string `json:"chat_session_id,omitempty"`
	ParentMessageID string `json:"parent_message_id,omitempty"`
	Turns           int    `json:"turns"`
}

// WSEvent is what the websocket channel writes back for each message.
type WSEvent struct {
	Type    string        `json:"type"` // "answer", "session", "error"
	Answer  *ChatResponse `json:"answer,omitempty"`
	Session *SessionState `json:"session,omitempty"`
	Error   string        `json:"error,omitempty"`
	Kind    string        `json:"kind,omitempty"`
}

// WSMessage is what a websocket client sends. Command "new" starts a new
// conversation; anything else is treated as a prompt.
type WSMessage struct {
	Command     string      `json:"command,omitempty"`
	ChatRequest ChatRequest `json:"chat_request"`
}
