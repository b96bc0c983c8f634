package dao

import (
	"context"

	"seekchat/seekchat/sources/psql/models"

	"gorm.io/gorm"
)

type TurnDAO struct {
	DB *gorm.DB
}

func NewTurnDAO(db *gorm.DB) *TurnDAO {
	return &TurnDAO{DB: db}
}

func (dao *TurnDAO) SaveTurn(ctx context.Context, turn *models.Turn) error {
	return dao.DB.WithContext(ctx).Create(turn).Error
}

// ListTurns returns a conversation's turns oldest first.
func (dao *TurnDAO) ListTurns(ctx context.Context, chatSessionID string) ([]models.Turn, error) {
	var turns []models.Turn
	err := dao.DB.WithContext(ctx).
		Where("chat_session_id = ?", chatSessionID).
		Order("created_at ASC").
		Find(&turns).Error
	if err != nil {
		return nil, err
	}
	return turns, nil
}
