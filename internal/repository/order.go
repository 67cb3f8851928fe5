package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	// CreateIfAbsent inserts order unless a row with the same id exists.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, order *model.Order) (bool, error)
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindPaidByGiftCode(ctx context.Context, giftCode string) (*model.Order, error)
	// MarkPaid flips a pending order to paid. It reports false when the order
	// is missing or already paid.
	MarkPaid(ctx context.Context, tx *gorm.DB, in *MarkPaidInput) (bool, error)
	// ConsumeToken spends one token and returns how many remain.
	ConsumeToken(ctx context.Context, orderID string) (int, error)
}

type MarkPaidInput struct {
	OrderID         string
	TokenGrant      int
	StripeSessionID string
	PaidAt          time.Time
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return conn(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateIfAbsent(ctx context.Context, tx *gorm.DB, order *model.Order) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(order)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindPaidByGiftCode(ctx context.Context, giftCode string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("gift_code = ?", giftCode).
		Where("status = ?", model.OrderStatusPaid).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrGiftNotFound
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, in *MarkPaidInput) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status = ?
		`,
			in.OrderID,
			model.OrderStatusPending,
		).
		Updates(map[string]interface{}{
			"status":            model.OrderStatusPaid,
			"token_grant":       in.TokenGrant,
			"stripe_session_id": in.StripeSessionID,
			"paid_at":           in.PaidAt,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) ConsumeToken(ctx context.Context, orderID string) (int, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status = ?
			AND token_used < token_grant
		`,
			orderID,
			model.OrderStatusPaid,
		).
		Updates(map[string]interface{}{
			"token_used": gorm.Expr("token_used + ?", 1),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	order, err := r.FindByID(ctx, nil, orderID)
	if err != nil {
		return 0, err
	}

	if result.RowsAffected == 0 {
		if !order.IsPaid() {
			return 0, apperr.ErrPaymentRequired
		}
		return 0, apperr.ErrQuotaExceeded
	}

	return order.TokensRemaining(), nil
}
