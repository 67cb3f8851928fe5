package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/client"
	"bloomy-gift-service/internal/model"
	"bloomy-gift-service/internal/repository"
)

const (
	EventCheckoutCompleted           = "checkout.session.completed"
	EventCheckoutAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"

	paymentStatusUnpaid = "unpaid"
)

type WebhookService interface {
	// HandleWebhook verifies and applies one Stripe event. A returned error
	// that is not a validation error means the event should be redelivered.
	HandleWebhook(ctx context.Context, signature string, body []byte) error
}

type webhookServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	now              func() time.Time
	log              *slog.Logger
}

func NewWebhookService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	log *slog.Logger,
) WebhookService {
	return &webhookServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		now:              time.Now,
		log:              log,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	if strings.TrimSpace(signature) == "" {
		return fmt.Errorf("missing signature: %w", apperr.ErrInvalidSignature)
	}

	event, err := s.stripeClient.ConstructEvent(body, signature)
	if err != nil {
		if errors.Is(err, client.ErrMissingWebhookSecret) {
			return err
		}
		return fmt.Errorf("%w: %w", apperr.ErrInvalidSignature, err)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		s.log.InfoContext(ctx, "stripe event already processed", "event_id", event.ID, "type", event.Type)
		return nil
	}

	switch event.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncPaymentSuccess:
		var session model.CheckoutSession
		if err := json.Unmarshal(event.Data, &session); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.handleCheckoutPaid(ctx, event, &session)
	default:
		s.log.DebugContext(ctx, "stripe event ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}
}

func (s *webhookServiceImpl) handleCheckoutPaid(ctx context.Context, event *client.WebhookEvent, session *model.CheckoutSession) error {
	if event.Type == EventCheckoutCompleted && session.PaymentStatus == paymentStatusUnpaid {
		// delayed payment methods report success with async_payment_succeeded
		s.log.InfoContext(ctx, "checkout completed without payment", "event_id", event.ID, "session_id", session.ID)
		return nil
	}

	planKey := model.PlanKey(session.Metadata[model.MetadataPlan])
	if planKey == "" {
		planKey = model.DefaultPlan
	}
	orderID := session.Metadata[model.MetadataOrderID]

	plan, ok := model.LookupPlan(planKey)
	if !ok || orderID == "" {
		// redelivery cannot fix bad metadata
		s.log.WarnContext(ctx, "checkout session metadata unusable",
			"event_id", event.ID,
			"session_id", session.ID,
			"plan", planKey,
			"order_id", orderID,
		)
		return s.webhookEventRepo.MarkProcessed(ctx, nil, event.ID, event.Type)
	}

	paidAt := s.now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.orderRepo.MarkPaid(ctx, tx, &repository.MarkPaidInput{
			OrderID:         orderID,
			TokenGrant:      plan.TokenGrant,
			StripeSessionID: session.ID,
			PaidAt:          paidAt,
		})
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		if !changed {
			if err := s.ensurePaidOrder(ctx, tx, orderID, plan, session, paidAt); err != nil {
				return err
			}
		}

		if err := s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, event.Type); err != nil {
			return fmt.Errorf("mark webhook event processed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "order paid",
		"order_id", orderID,
		"plan", plan.Key,
		"token_grant", plan.TokenGrant,
		"event_id", event.ID,
	)
	return nil
}

// ensurePaidOrder handles an order that MarkPaid did not change: it is
// either already paid, or it was never stored because the pending insert at
// checkout was lost.
func (s *webhookServiceImpl) ensurePaidOrder(ctx context.Context, tx *gorm.DB, orderID string, plan model.Plan, session *model.CheckoutSession, paidAt time.Time) error {
	order, err := s.orderRepo.FindByID(ctx, tx, orderID)
	if err == nil {
		if order.IsPaid() {
			return nil
		}
		return fmt.Errorf("order %s still %s after mark paid", orderID, order.Status)
	}
	if !errors.Is(err, apperr.ErrOrderNotFound) {
		return fmt.Errorf("find order: %w", err)
	}

	giftCode, err := newGiftCode()
	if err != nil {
		return err
	}

	_, err = s.orderRepo.CreateIfAbsent(ctx, tx, &model.Order{
		ID:              orderID,
		FlowerID:        session.Metadata[model.MetadataFlowerID],
		Plan:            plan.Key,
		Status:          model.OrderStatusPaid,
		TokenGrant:      plan.TokenGrant,
		GiftCode:        giftCode,
		StripeSessionID: session.ID,
		PaidAt:          &paidAt,
	})
	if err != nil {
		return fmt.Errorf("create paid order: %w", err)
	}

	s.log.WarnContext(ctx, "paid order created from webhook metadata", "order_id", orderID)
	return nil
}
