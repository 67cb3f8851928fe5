package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/cache"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/model"
	"bloomy-gift-service/internal/repository"
)

const (
	maxManualMessageLength = 1000
	maxEntityDecodePasses  = 4
)

var (
	urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.(com|org|net|edu|gov|mil|int|io|co|me|tv|app)\S*)`)

	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|svg|object|embed|img|style)\b`),
		regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
		regexp.MustCompile(`(?i)href\s*=`),
		regexp.MustCompile(`(?i)src\s*=`),
	}
)

type MessageService interface {
	Generate(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateResponse, error)
	SaveManual(ctx context.Context, orderID string, dayIndex int, content string) error
}

type messageServiceImpl struct {
	orderRepo   repository.OrderRepository
	messageRepo repository.MessageRepository
	aiEventRepo repository.AIEventRepository
	guard       TokenGuard
	generator   MessageGenerator
	giftCache   cache.GiftCache
	sanitizer   *bluemonday.Policy
	log         *slog.Logger
}

func NewMessageService(
	orderRepo repository.OrderRepository,
	messageRepo repository.MessageRepository,
	aiEventRepo repository.AIEventRepository,
	guard TokenGuard,
	generator MessageGenerator,
	giftCache cache.GiftCache,
	log *slog.Logger,
) MessageService {
	return &messageServiceImpl{
		orderRepo:   orderRepo,
		messageRepo: messageRepo,
		aiEventRepo: aiEventRepo,
		guard:       guard,
		generator:   generator,
		giftCache:   giftCache,
		sanitizer:   bluemonday.StrictPolicy(),
		log:         log,
	}
}

func (s *messageServiceImpl) Generate(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	// an unpaid order is rejected before anything else is looked at
	if !order.IsPaid() {
		return nil, apperr.ErrPaymentRequired
	}
	if err := validateDay(order, req.DayIndex); err != nil {
		return nil, err
	}

	remaining, err := s.guard.Consume(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	in := GenerateInput{
		DayIndex:      req.DayIndex,
		Theme:         firstNonEmpty(req.Theme, order.Theme),
		BuyerName:     firstNonEmpty(req.Names.Buyer, order.BuyerName),
		RecipientName: firstNonEmpty(req.Names.Recipient, order.RecipientName),
	}
	content, source := s.generator.Generate(ctx, in)

	kind := model.AIEventGenerate
	exists, err := s.messageRepo.Exists(ctx, order.ID, req.DayIndex)
	if err != nil {
		return nil, fmt.Errorf("check daily message: %w", err)
	}
	if exists {
		kind = model.AIEventRegenerate
	}

	err = s.messageRepo.Upsert(ctx, &model.DailyMessage{
		OrderID:     order.ID,
		DayIndex:    req.DayIndex,
		Content:     content,
		GeneratedBy: model.GeneratedByAI,
	})
	if err != nil {
		return nil, fmt.Errorf("store daily message: %w", err)
	}

	// the message is already stored; a lost audit row must not fail the request
	if err := s.aiEventRepo.Create(ctx, &model.AIEvent{OrderID: order.ID, Kind: kind, Tokens: 1}); err != nil {
		s.log.ErrorContext(ctx, "append ai event failed", "order_id", order.ID, "error", err)
	}

	s.invalidateGift(ctx, order)

	s.log.InfoContext(ctx, "daily message generated",
		"order_id", order.ID,
		"day_index", req.DayIndex,
		"source", source,
		"kind", kind,
		"tokens_remaining", remaining,
	)

	return &dto.GenerateResponse{
		OK:              true,
		Content:         content,
		TokensRemaining: remaining,
	}, nil
}

func (s *messageServiceImpl) SaveManual(ctx context.Context, orderID string, dayIndex int, content string) error {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return fmt.Errorf("find order: %w", err)
	}
	if !order.IsPaid() {
		return apperr.ErrPaymentRequired
	}
	if err := validateDay(order, dayIndex); err != nil {
		return err
	}

	clean, err := s.sanitizeManual(content)
	if err != nil {
		return err
	}

	err = s.messageRepo.Upsert(ctx, &model.DailyMessage{
		OrderID:     order.ID,
		DayIndex:    dayIndex,
		Content:     clean,
		GeneratedBy: model.GeneratedByManual,
	})
	if err != nil {
		return fmt.Errorf("store daily message: %w", err)
	}

	s.invalidateGift(ctx, order)
	return nil
}

func (s *messageServiceImpl) sanitizeManual(content string) (string, error) {
	// checks run on decoded text so typed entities cannot smuggle markup past them
	text := strings.TrimSpace(decodeEntities(content))
	if text == "" {
		return "", fmt.Errorf("empty message: %w", apperr.ErrInvalidContent)
	}
	if utf8.RuneCountInString(text) > maxManualMessageLength {
		return "", fmt.Errorf("message longer than %d characters: %w", maxManualMessageLength, apperr.ErrInvalidContent)
	}
	if err := checkManualText(text); err != nil {
		return "", err
	}

	// strip any markup, keep the text as typed
	clean := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
	if clean == "" {
		return "", fmt.Errorf("message has no text: %w", apperr.ErrInvalidContent)
	}
	// decoding the sanitiser output can expose a second layer of entities
	if err := checkManualText(clean); err != nil {
		return "", err
	}
	return clean, nil
}

// decodeEntities unescapes until the text is stable, bounded against
// pathological nesting.
func decodeEntities(s string) string {
	for i := 0; i < maxEntityDecodePasses; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return s
}

func checkManualText(text string) error {
	if urlPattern.MatchString(text) {
		return fmt.Errorf("links are not allowed: %w", apperr.ErrInvalidContent)
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			return fmt.Errorf("suspicious content: %w", apperr.ErrInvalidContent)
		}
	}
	return nil
}

func (s *messageServiceImpl) invalidateGift(ctx context.Context, order *model.Order) {
	if err := s.giftCache.Invalidate(ctx, order.GiftCode); err != nil {
		s.log.WarnContext(ctx, "invalidate gift cache failed", "order_id", order.ID, "error", err)
	}
}

func validateDay(order *model.Order, dayIndex int) error {
	plan, ok := model.LookupPlan(order.Plan)
	if !ok {
		return fmt.Errorf("order %s has unknown plan %q: %w", order.ID, order.Plan, apperr.ErrPlanNotConfigured)
	}
	if !plan.ValidDay(dayIndex) {
		return fmt.Errorf("day %d of %d: %w", dayIndex, plan.Days, apperr.ErrInvalidDay)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
