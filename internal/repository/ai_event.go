package repository

import (
	"context"

	"gorm.io/gorm"

	"bloomy-gift-service/internal/model"
)

type AIEventRepository interface {
	Create(ctx context.Context, event *model.AIEvent) error
}

type aiEventRepositoryImpl struct {
	db *gorm.DB
}

func NewAIEventRepository(db *gorm.DB) AIEventRepository {
	return &aiEventRepositoryImpl{
		db: db,
	}
}

func (r *aiEventRepositoryImpl) Create(ctx context.Context, event *model.AIEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
