package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bloomy-gift-service/internal/model"
)

type MessageRepository interface {
	Upsert(ctx context.Context, msg *model.DailyMessage) error
	Exists(ctx context.Context, orderID string, dayIndex int) (bool, error)
	ListByOrder(ctx context.Context, orderID string) ([]*model.DailyMessage, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepoImpl{
		db: db,
	}
}

func (r *messageRepoImpl) Upsert(ctx context.Context, msg *model.DailyMessage) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "day_index"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"content":      msg.Content,
			"generated_by": msg.GeneratedBy,
			"updated_at":   time.Now(),
		}),
	}).Create(msg).Error
}

func (r *messageRepoImpl) Exists(ctx context.Context, orderID string, dayIndex int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DailyMessage{}).
		Where("order_id = ? AND day_index = ?", orderID, dayIndex).
		Count(&count).Error

	return count > 0, err
}

func (r *messageRepoImpl) ListByOrder(ctx context.Context, orderID string) ([]*model.DailyMessage, error) {
	var messages []*model.DailyMessage
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("day_index ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}
