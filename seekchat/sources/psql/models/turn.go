package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Turn is one completed prompt/answer exchange.
type Turn struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ChatSessionID   string    `json:"chat_session_id" gorm:"type:varchar(255);not null;index"`
	ParentMessageID string    `json:"parent_message_id,omitempty" gorm:"type:varchar(255)"`
	MessageID       string    `json:"message_id,omitempty" gorm:"type:varchar(255)"`
	Prompt          string    `json:"prompt" gorm:"type:text;not null"`
	Answer          string    `json:"answer" gorm:"type:text;not null"`
	Thinking        string    `json:"thinking,omitempty" gorm:"type:text"`
	ThinkingEnabled bool      `json:"thinking_enabled"`
	SearchEnabled   bool      `json:"search_enabled"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (t *Turn) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
