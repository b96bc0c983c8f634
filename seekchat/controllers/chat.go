// seekchat/controllers/chat.go
package controllers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"seekchat/seekchat/services/llm"
	"seekchat/seekchat/sources/psql/models"
	"seekchat/seekchat/utils/logging"
	"seekchat/seekchat/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyPrompt         = errors.New("prompt is empty")
	ErrTranscriptsDisabled = errors.New("transcript store not configured")
)

// ChatClient is the remote side of a conversation.
type ChatClient interface {
	CreateChatSession(ctx context.Context) (string, error)
	Complete(ctx context.Context, req llm.PromptRequest) (*llm.Answer, error)
}

// TurnStore persists finished turns.
type TurnStore interface {
	SaveTurn(ctx context.Context, turn *models.Turn) error
	ListTurns(ctx context.Context, chatSessionID string) ([]models.Turn, error)
}

// ChatController owns the conversation being threaded: one remote session
// and the id of the last answer, which becomes the next prompt's parent.
// Turns are serialized; only one request is in flight at a time.
type ChatController struct {
	client      ChatClient
	transcripts TurnStore
	logger      *zap.Logger

	// mu is held across the network call
	mu      sync.Mutex
	session *llm.ChatSession
	turns   int

	// snapshot mirrors session and turns for readers that must not wait on mu
	snapshotMu sync.RWMutex
	snapshot   types.SessionState
}

// NewChatController wires a controller. transcripts may be nil.
func NewChatController(client ChatClient, transcripts TurnStore, logger *zap.Logger) *ChatController {
	return &ChatController{
		client:      client,
		transcripts: transcripts,
		logger:      logging.OrNop(logger),
	}
}

// NewConversation drops the current session and opens a fresh one. When
// creation fails the controller is left without a session and the next
// Chat call tries again.
func (c *ChatController) NewConversation(ctx context.Context) (*types.SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = nil
	c.turns = 0
	c.publishLocked()
	if err := c.openSessionLocked(ctx); err != nil {
		return nil, err
	}
	state := c.publishLocked()
	return &state, nil
}

func (c *ChatController) openSessionLocked(ctx context.Context) error {
	id, err := c.client.CreateChatSession(ctx)
	if err != nil {
		c.logger.Error("Failed to create a new chat session", zap.Error(err))
		return err
	}
	c.session = &llm.ChatSession{ID: id}
	c.publishLocked()
	c.logger.Info("New chat session", zap.String("chat_session_id", id))
	return nil
}

// Chat sends one prompt within the current conversation.
func (c *ChatController) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		if err := c.openSessionLocked(ctx); err != nil {
			return nil, err
		}
	}

	traceID := uuid.NewString()
	ctx = logging.WithTraceID(ctx, traceID)
	defer logging.LogDuration(ctx, "chat_controller_chat")()

	session := *c.session
	promptReq := llm.NewPromptRequest(session, prompt, req.ThinkingEnabled, req.SearchEnabled)
	logging.RequestLogger.Info("Prompt",
		zap.String("trace_id", traceID),
		zap.String("chat_session_id", session.ID),
		zap.String("parent_message_id", session.ParentMessageID.String()),
		zap.String("prompt", prompt),
	)

	answer, err := c.client.Complete(ctx, promptReq)
	if err != nil {
		return nil, err
	}

	// the next turn replies to this answer; without an id it starts detached
	detached := answer.MessageID.IsZero()
	c.session.ParentMessageID = answer.MessageID
	if detached {
		c.logger.Warn("Answer carried no message id, next prompt will not be threaded",
			zap.String("chat_session_id", session.ID), zap.String("trace_id", traceID))
	}
	c.turns++
	c.publishLocked()

	c.recordTurn(ctx, &models.Turn{
		ChatSessionID:   session.ID,
		ParentMessageID: session.ParentMessageID.String(),
		MessageID:       answer.MessageID.String(),
		Prompt:          prompt,
		Answer:          answer.Text,
		Thinking:        answer.Thinking,
		ThinkingEnabled: req.ThinkingEnabled,
		SearchEnabled:   req.SearchEnabled,
	})

	return &types.ChatResponse{
		Answer:        answer.Text,
		Thinking:      answer.Thinking,
		ChatSessionID: session.ID,
		MessageID:     answer.MessageID.String(),
		Detached:      detached,
	}, nil
}

func (c *ChatController) recordTurn(ctx context.Context, turn *models.Turn) {
	if c.transcripts == nil {
		return
	}
	if err := c.transcripts.SaveTurn(ctx, turn); err != nil {
		c.logger.Error("Failed to save turn", zap.String("chat_session_id", turn.ChatSessionID), zap.Error(err))
	}
}

// Session reports the conversation currently being threaded. It does not
// wait for a turn in flight; it returns the state as of the last change.
func (c *ChatController) Session() types.SessionState {
	c.snapshotMu.RLock()
	defer c.snapshotMu.RUnlock()
	return c.snapshot
}

// publishLocked copies the conversation state into the snapshot. Callers
// hold mu.
func (c *ChatController) publishLocked() types.SessionState {
	state := types.SessionState{Turns: c.turns}
	if c.session != nil {
		state.ChatSessionID = c.session.ID
		state.ParentMessageID = c.session.ParentMessageID.String()
	}
	c.snapshotMu.Lock()
	c.snapshot = state
	c.snapshotMu.Unlock()
	return state
}

// Turns lists the saved turns of a conversation.
func (c *ChatController) Turns(ctx context.Context, chatSessionID string) ([]models.Turn, error) {
	if c.transcripts == nil {
		return nil, ErrTranscriptsDisabled
	}
	return c.transcripts.ListTurns(ctx, chatSessionID)
}
