package service

import (
	"context"
	"fmt"
	"log/slog"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/client"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/model"
	"bloomy-gift-service/internal/repository"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	stripeClient client.StripeClient
	orderRepo    repository.OrderRepository
	priceIDs     map[string]string
	log          *slog.Logger
}

func NewCheckoutService(
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	priceIDs map[string]string,
	log *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		stripeClient: stripeClient,
		orderRepo:    orderRepo,
		priceIDs:     priceIDs,
		log:          log,
	}
}

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	plan, ok := model.LookupPlan(model.PlanKey(req.Plan))
	if !ok {
		return nil, fmt.Errorf("unknown plan %q: %w", req.Plan, apperr.ErrPlanNotConfigured)
	}
	priceID := s.priceIDs[string(plan.Key)]
	if priceID == "" {
		return nil, fmt.Errorf("plan %q: %w", plan.Key, apperr.ErrPlanNotConfigured)
	}

	orderID := newOrderID()

	if req.FlowerID != "" {
		// best effort: the webhook creates the order if this insert is lost
		if err := s.createPendingOrder(ctx, orderID, plan.Key, req); err != nil {
			s.log.WarnContext(ctx, "create pending order failed",
				"order_id", orderID,
				"plan", plan.Key,
				"error", err,
			)
		}
	}

	sess, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CheckoutSessionRequest{
		PriceID:    priceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata: map[string]string{
			model.MetadataPlan:     string(plan.Key),
			model.MetadataOrderID:  orderID,
			model.MetadataFlowerID: req.FlowerID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPaymentProvider, err)
	}

	s.log.InfoContext(ctx, "checkout session created",
		"order_id", orderID,
		"session_id", sess.ID,
		"plan", plan.Key,
	)

	return &dto.CheckoutResponse{
		ID:      sess.ID,
		URL:     sess.URL,
		OrderID: orderID,
	}, nil
}

func (s *checkoutServiceImpl) createPendingOrder(ctx context.Context, orderID string, plan model.PlanKey, req *dto.CheckoutRequest) error {
	giftCode, err := newGiftCode()
	if err != nil {
		return err
	}

	err = s.orderRepo.Create(ctx, nil, &model.Order{
		ID:            orderID,
		FlowerID:      req.FlowerID,
		Plan:          plan,
		BuyerName:     req.BuyerName,
		RecipientName: req.RecipientName,
		Theme:         req.Theme,
		Status:        model.OrderStatusPending,
		TokenGrant:    0,
		GiftCode:      giftCode,
	})
	if err != nil {
		return fmt.Errorf("store pending order: %w", err)
	}
	return nil
}
