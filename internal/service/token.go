package service

import (
	"context"
	"fmt"
	"log/slog"

	"bloomy-gift-service/internal/repository"
)

// TokenGuard gates AI generation on payment status and remaining allowance.
type TokenGuard interface {
	// Consume spends one token of orderID and returns the remaining count.
	// It fails with apperr.ErrOrderNotFound, apperr.ErrPaymentRequired or
	// apperr.ErrQuotaExceeded without touching the counter.
	Consume(ctx context.Context, orderID string) (int, error)
}

type tokenGuardImpl struct {
	orderRepo repository.OrderRepository
	log       *slog.Logger
}

func NewTokenGuard(orderRepo repository.OrderRepository, log *slog.Logger) TokenGuard {
	return &tokenGuardImpl{
		orderRepo: orderRepo,
		log:       log,
	}
}

func (g *tokenGuardImpl) Consume(ctx context.Context, orderID string) (int, error) {
	remaining, err := g.orderRepo.ConsumeToken(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("consume token: %w", err)
	}

	g.log.DebugContext(ctx, "token consumed", "order_id", orderID, "tokens_remaining", remaining)
	return remaining, nil
}
