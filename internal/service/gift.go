package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bloomy-gift-service/internal/cache"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/model"
	"bloomy-gift-service/internal/repository"
)

type GiftService interface {
	// View returns the recipient-facing gift for a paid order.
	View(ctx context.Context, giftCode string) (*dto.GiftResponse, error)
}

type giftServiceImpl struct {
	orderRepo   repository.OrderRepository
	messageRepo repository.MessageRepository
	giftCache   cache.GiftCache
	now         func() time.Time
	log         *slog.Logger
}

func NewGiftService(
	orderRepo repository.OrderRepository,
	messageRepo repository.MessageRepository,
	giftCache cache.GiftCache,
	log *slog.Logger,
) GiftService {
	return &giftServiceImpl{
		orderRepo:   orderRepo,
		messageRepo: messageRepo,
		giftCache:   giftCache,
		now:         time.Now,
		log:         log,
	}
}

func (s *giftServiceImpl) View(ctx context.Context, giftCode string) (*dto.GiftResponse, error) {
	gift, ok, err := s.giftCache.Get(ctx, giftCode)
	if err != nil {
		s.log.WarnContext(ctx, "gift cache read failed", "gift_code", giftCode, "error", err)
	}

	if !ok {
		gift, err = s.load(ctx, giftCode)
		if err != nil {
			return nil, err
		}
		if err := s.giftCache.Set(ctx, giftCode, gift); err != nil {
			s.log.WarnContext(ctx, "gift cache write failed", "gift_code", giftCode, "error", err)
		}
	}

	gift.CurrentDay = CurrentDay(gift.PaidAt, gift.Days, s.now())
	return gift, nil
}

func (s *giftServiceImpl) load(ctx context.Context, giftCode string) (*dto.GiftResponse, error) {
	order, err := s.orderRepo.FindPaidByGiftCode(ctx, giftCode)
	if err != nil {
		return nil, fmt.Errorf("find gift: %w", err)
	}

	messages, err := s.messageRepo.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list daily messages: %w", err)
	}

	plan, _ := model.LookupPlan(order.Plan)

	gift := &dto.GiftResponse{
		GiftCode:      order.GiftCode,
		FlowerID:      order.FlowerID,
		Plan:          string(order.Plan),
		Days:          plan.Days,
		BuyerName:     order.BuyerName,
		RecipientName: order.RecipientName,
		Theme:         order.Theme,
		PaidAt:        order.PaidAt,
		Messages:      make([]dto.GiftMessage, len(messages)),
	}
	for i, m := range messages {
		gift.Messages[i] = dto.GiftMessage{
			DayIndex:    m.DayIndex,
			Content:     m.Content,
			GeneratedBy: string(m.GeneratedBy),
		}
	}
	return gift, nil
}

// CurrentDay is the 1-based day of a gift that started at startedAt,
// clamped to [1, days].
func CurrentDay(startedAt *time.Time, days int, now time.Time) int {
	if startedAt == nil || days < 1 {
		return 1
	}
	day := int(now.Sub(*startedAt)/(24*time.Hour)) + 1
	if day < 1 {
		return 1
	}
	if day > days {
		return days
	}
	return day
}
